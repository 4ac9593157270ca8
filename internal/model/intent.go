// Package model defines the core domain models used throughout the application.
package model

// Intent identifies what the user is trying to do with a message.
type Intent string

// Intent constants.
const (
	IntentRegisterExpense Intent = "REGISTER_EXPENSE"
	IntentRegisterIncome  Intent = "REGISTER_INCOME"
	IntentTransfer        Intent = "TRANSFER"
	IntentQueryBalance    Intent = "QUERY_BALANCE"
	IntentQueryCategory   Intent = "QUERY_CATEGORY"
	IntentQueryGoal       Intent = "QUERY_GOAL"
	IntentQueryAccount    Intent = "QUERY_ACCOUNT"
	IntentUnknown         Intent = "UNKNOWN"
)

// ParseIntent coerces a raw string into a known Intent, defaulting to
// IntentUnknown for anything unrecognized.
func ParseIntent(raw string) Intent {
	switch Intent(raw) {
	case IntentRegisterExpense,
		IntentRegisterIncome,
		IntentTransfer,
		IntentQueryBalance,
		IntentQueryCategory,
		IntentQueryGoal,
		IntentQueryAccount:
		return Intent(raw)
	default:
		return IntentUnknown
	}
}

// IsQuery reports whether the intent is a read-only query.
func (i Intent) IsQuery() bool {
	switch i {
	case IntentQueryBalance, IntentQueryCategory, IntentQueryGoal, IntentQueryAccount:
		return true
	default:
		return false
	}
}
