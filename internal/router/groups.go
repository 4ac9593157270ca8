package router

import (
	"strings"

	"github.com/gustavohm/granabot/internal/match"
)

// groupKeywords maps normalized hint keywords to the parent group suggested
// when offering to create a new category.
var groupKeywords = map[string]string{
	"mercado":     "Alimentação",
	"feira":       "Alimentação",
	"restaurante": "Alimentação",
	"lanche":      "Alimentação",
	"ifood":       "Alimentação",
	"padaria":     "Alimentação",
	"luz":         "Moradia",
	"energia":     "Moradia",
	"agua":        "Moradia",
	"aluguel":     "Moradia",
	"condominio":  "Moradia",
	"gas":         "Moradia",
	"internet":    "Moradia",
	"uber":        "Transporte",
	"gasolina":    "Transporte",
	"combustivel": "Transporte",
	"onibus":      "Transporte",
	"metro":       "Transporte",
	"farmacia":    "Saúde",
	"remedio":     "Saúde",
	"medico":      "Saúde",
	"dentista":    "Saúde",
	"academia":    "Saúde",
	"cinema":      "Lazer",
	"show":        "Lazer",
	"viagem":      "Lazer",
	"streaming":   "Lazer",
	"netflix":     "Lazer",
	"escola":      "Educação",
	"curso":       "Educação",
	"faculdade":   "Educação",
	"livro":       "Educação",
	"roupa":       "Pessoal",
	"cabelo":      "Pessoal",
	"presente":    "Pessoal",
}

// SuggestCategory builds the pre-filled name and parent group offered when no
// configured category matched a high-confidence hint. The name is the hint
// with each word capitalized; the group comes from a keyword lookup over the
// normalized hint, defaulting to "Outros".
func SuggestCategory(hint string) (name, group string) {
	name = capitalizeWords(hint)
	group = "Outros"
	for _, word := range strings.Fields(match.Normalize(hint)) {
		if g, ok := groupKeywords[word]; ok {
			group = g
			break
		}
	}
	return name, group
}

func capitalizeWords(s string) string {
	words := strings.Fields(strings.TrimSpace(s))
	for i, w := range words {
		runes := []rune(w)
		if len(runes) > 0 {
			runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
