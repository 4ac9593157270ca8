package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gustavohm/granabot/internal/model"
)

// Canned replies. All user-facing text is Brazilian Portuguese; the
// conversational surface never mixes languages.
const (
	replyFallback       = "Não entendi. Você pode registrar gastos (\"gastei 50 no mercado\"), receitas (\"recebi o salário\") ou perguntar saldos (\"quanto gastei esse mês?\")."
	replyManualEntry    = "Não entendi direito. Vamos registrar manualmente: qual foi o valor? Ex.: \"50\" ou \"185,50\"."
	replyCancelled      = "Ok, cancelado."
	replyAskAmount      = "Não consegui identificar o valor. Qual foi o valor? Ex.: \"50\" ou \"185,50\"."
	replyUndone         = "Pronto, o último lançamento foi desfeito."
	replyNothingToUndo  = "Não há nenhum lançamento recente para desfazer."
	replyNoBudget       = "Não encontrei um orçamento vinculado a este chat. Peça para o administrador te adicionar."
	replyNoAccount      = "Nenhuma conta padrão configurada no orçamento. Configure uma antes de registrar lançamentos."
	replyAudioTooLong   = "Áudio muito longo. Mande mensagens de voz de até 1 minuto."
	replyAudioTooLarge  = "Áudio muito grande. Mande mensagens de voz de até 10 MB."
	replyAudioNoGrasp   = "Não consegui entender o áudio. Pode tentar de novo ou escrever a mensagem?"
	replyAskNewCatName  = "Qual o nome da nova categoria?"
	replyAskNewCatGroup = "Em qual grupo ela entra? (ex.: Moradia, Alimentação, Lazer)"
	replyOops           = "Algo deu errado aqui. Tente de novo em instantes."
)

// FormatBRL renders minor units as Brazilian currency, with dot thousand
// separators and a comma before the cents.
func FormatBRL(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}

	whole := cents / 100
	frac := cents % 100

	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, b.String(), frac)
}

// parseAmountCents reads a Brazilian-format money answer ("50", "185,50",
// "R$ 1.234,56", "50 reais") as minor units. Anything that is not a positive
// amount reports false.
func parseAmountCents(text string) (int64, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.TrimPrefix(s, "r$")
	s = strings.TrimSuffix(s, "reais")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return int64(math.Round(v * 100)), true
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func kindLabel(kind model.TransactionKind) string {
	switch kind {
	case model.KindIncome:
		return "Receita"
	case model.KindTransfer:
		return "Transferência"
	default:
		return "Gasto"
	}
}

// draftSummary renders the one-line description of a draft used in commit
// receipts and confirmation prompts.
func draftSummary(uc *model.UserContext, draft *model.Draft) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%s de %s", kindLabel(draft.Kind), FormatBRL(draft.AmountCents)))

	switch {
	case draft.CategoryID != "":
		if cat := uc.CategoryByID(draft.CategoryID); cat != nil {
			parts = append(parts, fmt.Sprintf("em %s", cat.Name))
		}
	case draft.IncomeSourceID != "":
		if src := uc.IncomeSourceByID(draft.IncomeSourceID); src != nil {
			parts = append(parts, fmt.Sprintf("de %s", src.Name))
		}
	}
	if draft.AccountID != "" {
		if account := uc.AccountByID(draft.AccountID); account != nil {
			parts = append(parts, fmt.Sprintf("pela conta %s", account.Name))
		}
	}
	if draft.InstallmentCount >= 2 {
		parts = append(parts, fmt.Sprintf("em %dx", draft.InstallmentCount))
	}
	if !draft.Date.IsZero() {
		parts = append(parts, fmt.Sprintf("em %s", formatDate(draft.Date)))
	}
	return strings.Join(parts, " ")
}

func committedReply(uc *model.UserContext, draft *model.Draft) string {
	return fmt.Sprintf("✅ Registrado: %s.\nPara desfazer, envie /desfazer.", draftSummary(uc, draft))
}

func confirmPrompt(uc *model.UserContext, draft *model.Draft) string {
	return fmt.Sprintf("Confirma? %s", draftSummary(uc, draft))
}

func confirmScheduledPrompt(scheduled model.ScheduledTransaction) string {
	name := scheduled.DisplayName
	if name == "" {
		name = scheduled.Description
	}
	return fmt.Sprintf("Isso quita o lançamento previsto \"%s\" de %s (%s)?",
		name, FormatBRL(scheduled.AmountCents), formatDate(scheduled.Date))
}

func newCategoryPrompt(name, group string) string {
	return fmt.Sprintf("Não achei uma categoria parecida. Quer criar a categoria \"%s\" no grupo %s?", name, group)
}
