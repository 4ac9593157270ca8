package model

import "time"

// AccountType distinguishes how an account settles purchases.
type AccountType string

// Account type constants.
const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
	AccountTypeCredit   AccountType = "credit"
	AccountTypeCash     AccountType = "cash"
)

// Account is a paying instrument configured in a budget. ClosingDay is only
// set for revolving-credit accounts and marks the day of month after which
// new purchases fall into the next statement period.
type Account struct {
	CreatedAt  time.Time
	ClosingDay *int
	ID         string
	BudgetID   string
	Name       string
	Type       AccountType
	IsDefault  bool
}

// IsCredit reports whether purchases on this account follow a billing cycle.
func (a Account) IsCredit() bool {
	return a.Type == AccountTypeCredit && a.ClosingDay != nil
}

// Category is an expense category configured in a budget. GroupName is the
// parent-group label shown in the dashboard (e.g. "Moradia", "Alimentação").
type Category struct {
	CreatedAt time.Time
	ID        string
	BudgetID  string
	Name      string
	GroupName string
	IsActive  bool
}

// IncomeSource is a configured inflow (salary, benefits, rentals).
type IncomeSource struct {
	CreatedAt time.Time
	ID        string
	BudgetID  string
	Name      string
	IsActive  bool
}

// Goal is a savings objective money can be transferred into.
type Goal struct {
	CreatedAt    time.Time
	ID           string
	BudgetID     string
	Name         string
	TargetCents  int64
	CurrentCents int64
}

// Budget is the top-level household ledger container.
type Budget struct {
	CreatedAt time.Time
	ID        string
	Name      string
}

// Member links a chat identity to a budget.
type Member struct {
	CreatedAt time.Time
	ID        string
	BudgetID  string
	Name      string
	ChatID    int64
}

// UserContext is the read-only snapshot built per inbound message. It must be
// rebuilt on every message; the underlying ledger can change between turns.
type UserContext struct {
	Now              time.Time
	BudgetID         string
	MemberID         string
	DefaultAccountID string
	Categories       []Category
	IncomeSources    []IncomeSource
	Goals            []Goal
	Accounts         []Account
	PendingThisMonth []ScheduledTransaction
}

// AccountByID returns the account with the given id, or nil.
func (c *UserContext) AccountByID(id string) *Account {
	for i := range c.Accounts {
		if c.Accounts[i].ID == id {
			return &c.Accounts[i]
		}
	}
	return nil
}

// CategoryByID returns the category with the given id, or nil.
func (c *UserContext) CategoryByID(id string) *Category {
	for i := range c.Categories {
		if c.Categories[i].ID == id {
			return &c.Categories[i]
		}
	}
	return nil
}

// IncomeSourceByID returns the income source with the given id, or nil.
func (c *UserContext) IncomeSourceByID(id string) *IncomeSource {
	for i := range c.IncomeSources {
		if c.IncomeSources[i].ID == id {
			return &c.IncomeSources[i]
		}
	}
	return nil
}
