package model

import "time"

// TransactionStatus tracks the lifecycle of a ledger row.
type TransactionStatus string

// Transaction status constants.
const (
	// StatusPending marks a row projected ahead of time from a recurring
	// bill or income source, not yet confirmed by the user.
	StatusPending TransactionStatus = "PENDING"
	// StatusCleared marks a row the user confirmed actually happened.
	StatusCleared TransactionStatus = "CLEARED"
)

// TransactionKind distinguishes the direction of a ledger row.
type TransactionKind string

// Transaction kind constants.
const (
	KindExpense  TransactionKind = "EXPENSE"
	KindIncome   TransactionKind = "INCOME"
	KindTransfer TransactionKind = "TRANSFER"
)

// Transaction is a ledger row. Amounts are integer minor currency units
// (cents) throughout; there is no floating point money anywhere in the core.
type Transaction struct {
	Date           time.Time
	CreatedAt      time.Time
	ID             string
	BudgetID       string
	AccountID      string
	CategoryID     string
	IncomeSourceID string
	GoalID         string
	ParentID       string // set on installment children, referencing installment 1
	Description    string
	Kind           TransactionKind
	Status         TransactionStatus
	AmountCents    int64
	InstallmentSeq int // 1-based position within an installment plan, 0 otherwise
	InstallmentOf  int // total installment count, 0 otherwise
}

// ScheduledTransaction is a pending ledger row as seen by the resolver: an
// expected expense or income for a given month, generated ahead of time.
type ScheduledTransaction struct {
	Date           time.Time
	ID             string
	BudgetID       string
	CategoryID     string
	IncomeSourceID string
	Description    string
	DisplayName    string // category or income-source display name, for similarity scoring
	Kind           TransactionKind
	AmountCents    int64
}

// EntityMatch is the output of the entity matcher. Confidence is a similarity
// score, not a probability; it combines multiplicatively with the intent
// confidence downstream.
type EntityMatch struct {
	EntityID   string
	Name       string
	Confidence float64
}

// ScheduledMatch is the output of the scheduled-transaction resolver.
type ScheduledMatch struct {
	Scheduled  ScheduledTransaction
	Confidence float64
}
