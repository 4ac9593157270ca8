package nlu

import (
	"fmt"
	"strings"

	"github.com/gustavohm/granabot/internal/model"
)

// buildPrompt assembles the single structured request sent to the inference
// service: the current month, every configured entity name (accounts carry
// their type so similarly named accounts stay distinguishable), and a summary
// of the month's still-pending rows so the model can recognize a message as
// referring to a known scheduled item.
func buildPrompt(message string, uc *model.UserContext) string {
	var b strings.Builder

	b.WriteString("You extract financial events from short Brazilian Portuguese chat messages.\n")
	b.WriteString("Respond with ONLY a valid JSON object, no markdown, no commentary.\n\n")

	fmt.Fprintf(&b, "Current month: %04d-%02d\n\n", uc.Now.Year(), int(uc.Now.Month()))

	b.WriteString("Configured expense categories:\n")
	for _, c := range uc.Categories {
		if !c.IsActive {
			continue
		}
		fmt.Fprintf(&b, "- %s (group: %s)\n", c.Name, c.GroupName)
	}

	b.WriteString("\nConfigured income sources:\n")
	for _, s := range uc.IncomeSources {
		if !s.IsActive {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", s.Name)
	}

	b.WriteString("\nConfigured accounts:\n")
	for _, a := range uc.Accounts {
		fmt.Fprintf(&b, "- %s (%s)\n", a.Name, a.Type)
	}

	if len(uc.Goals) > 0 {
		b.WriteString("\nConfigured goals:\n")
		for _, g := range uc.Goals {
			fmt.Fprintf(&b, "- %s\n", g.Name)
		}
	}

	if len(uc.PendingThisMonth) > 0 {
		b.WriteString("\nStill-pending transactions this month (the message may refer to one of these):\n")
		for _, p := range uc.PendingThisMonth {
			fmt.Fprintf(&b, "- %s: %s, R$ %d.%02d, due %s\n",
				p.Kind, p.DisplayName, p.AmountCents/100, p.AmountCents%100, p.Date.Format("2006-01-02"))
		}
	}

	b.WriteString(`
Return a JSON object with this shape:
{
  "intent": one of "REGISTER_EXPENSE", "REGISTER_INCOME", "TRANSFER",
            "QUERY_BALANCE", "QUERY_CATEGORY", "QUERY_GOAL", "QUERY_ACCOUNT", "UNKNOWN",
  "confidence": number between 0 and 1,
  "data": {
    "amount": stated amount in major currency units, omit if not stated,
    "category": free-text category hint, omit if none,
    "source": free-text income-source hint, omit if none,
    "account": free-text account hint, omit if none,
    "from_account": transfer origin hint, omit if none,
    "to_account": transfer destination hint, omit if none,
    "goal": free-text goal hint, omit if none,
    "description": short description of the event,
    "installments": integer count when the purchase is split (e.g. "em 10x"), omit otherwise,
    "date": "YYYY-MM-DD" when the message states one, omit otherwise
  }
}

Message: `)
	b.WriteString(message)
	b.WriteString("\n")

	return b.String()
}
