package match

import "strings"

// aliasGroups maps canonical domain concepts to the colloquial names users
// actually type or say for them. A hint that lands in the same group as a
// candidate name scores below the substring tier: alias knowledge is static
// and cannot be trusted as much as what the user literally wrote.
var aliasGroups = [][]string{
	{"mercado", "supermercado", "feira", "hortifruti", "sacolao", "compras do mes"},
	{"luz", "energia", "energia eletrica", "eletricidade", "conta de luz"},
	{"agua", "saneamento", "conta de agua"},
	{"internet", "wifi", "banda larga", "fibra"},
	{"telefone", "celular", "plano do celular", "operadora"},
	{"gas", "botijao", "gas encanado"},
	{"aluguel", "moradia", "condominio"},
	{"gasolina", "combustivel", "alcool", "etanol", "posto"},
	{"transporte", "uber", "99", "taxi", "onibus", "metro", "passagem"},
	{"restaurante", "lanche", "ifood", "delivery", "pizza", "almoco", "jantar"},
	{"farmacia", "remedio", "medicamento", "drogaria"},
	{"medico", "saude", "consulta", "dentista", "plano de saude"},
	{"academia", "ginastica", "musculacao", "crossfit"},
	{"streaming", "netflix", "spotify", "assinatura"},
	{"escola", "faculdade", "curso", "mensalidade", "educacao"},
	{"salario", "pagamento do trabalho", "holerite", "ordenado"},
	{"vale", "vr", "va", "vale refeicao", "vale alimentacao", "beneficio"},
	{"pet", "veterinario", "racao", "petshop"},
	{"roupa", "vestuario", "sapato", "tenis"},
	{"presente", "aniversario", "lembranca"},
	{"viagem", "hotel", "passagem aerea", "hospedagem"},
}

// sameAliasGroup reports whether two normalized strings fall into the same
// alias group. Membership is by word-level intersection so "conta de luz"
// still lands in the "luz" group.
func sameAliasGroup(a, b string) bool {
	ga := aliasGroupOf(a)
	gb := aliasGroupOf(b)
	return ga >= 0 && ga == gb
}

// aliasGroupOf returns the index of the group containing s, or -1.
func aliasGroupOf(s string) int {
	for i, group := range aliasGroups {
		for _, alias := range group {
			if s == alias || containsWord(s, alias) {
				return i
			}
		}
	}
	return -1
}

// containsWord reports whether phrase contains alias as a whole token, or,
// for multi-word aliases, as a verbatim substring.
func containsWord(phrase, alias string) bool {
	if phrase == alias {
		return true
	}
	if strings.Contains(alias, " ") {
		return strings.Contains(phrase, alias)
	}
	for _, tok := range tokenize(phrase) {
		if tok == alias {
			return true
		}
	}
	return false
}
