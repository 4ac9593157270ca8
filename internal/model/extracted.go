package model

import "time"

// ExtractedData is the structured payload pulled out of a message, with one
// variant per intent. Only the fields meaningful to that intent are carried;
// everything else stays off the type entirely so stale fields cannot leak
// between flows.
type ExtractedData interface {
	extractedData()
}

// ExpenseData carries the fields extracted for a register-expense message.
// AmountCents is nil when the user did not state an amount; zero is a valid
// stated amount and must not be conflated with absence.
type ExpenseData struct {
	AmountCents      *int64
	Date             *time.Time
	CategoryHint     string
	AccountHint      string
	Description      string
	InstallmentCount int // 0 when not an installment purchase, otherwise in [2,24]
}

func (ExpenseData) extractedData() {}

// IsInstallment reports whether the purchase should be expanded into installments.
func (d ExpenseData) IsInstallment() bool { return d.InstallmentCount >= 2 }

// IncomeData carries the fields extracted for a register-income message.
type IncomeData struct {
	AmountCents *int64
	Date        *time.Time
	SourceHint  string
	AccountHint string
	Description string
}

func (IncomeData) extractedData() {}

// TransferData carries the fields extracted for a transfer message.
type TransferData struct {
	AmountCents     *int64
	FromAccountHint string
	ToAccountHint   string
	GoalHint        string
}

func (TransferData) extractedData() {}

// QueryData carries the entity hint for the query intents. Which hint is
// meaningful depends on the intent that produced it.
type QueryData struct {
	CategoryHint string
	GoalHint     string
	AccountHint  string
	Month        *time.Time
}

func (QueryData) extractedData() {}

// AIResponse is the normalized result of one inference call.
// RequiresConfirmation is derived from the confidence, never set
// independently.
type AIResponse struct {
	Data                 ExtractedData
	Intent               Intent
	Confidence           float64
	RequiresConfirmation bool
}
