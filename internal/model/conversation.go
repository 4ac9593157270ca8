package model

import "time"

// Step enumerates the states of the per-chat conversation state machine.
// StepIdle is both the initial and the terminal state of every exchange.
type Step string

// Conversation steps.
const (
	StepIdle                    Step = "IDLE"
	StepAwaitingAmount          Step = "AWAITING_AMOUNT"
	StepAwaitingAccount         Step = "AWAITING_ACCOUNT"
	StepAwaitingCategory        Step = "AWAITING_CATEGORY"
	StepAwaitingConfirmation    Step = "AWAITING_CONFIRMATION"
	StepAwaitingNewCategoryOK   Step = "AWAITING_NEW_CATEGORY_CONFIRM"
	StepAwaitingNewCategoryName Step = "AWAITING_NEW_CATEGORY_NAME"
	StepAwaitingNewCategoryGrp  Step = "AWAITING_NEW_CATEGORY_GROUP"
)

// ExpectsFreeText reports whether the step treats an arbitrary text message
// as the answer to its pending question. Any other non-idle step resets to
// idle when free text arrives, and the text is reprocessed as a new message.
func (s Step) ExpectsFreeText() bool {
	return s == StepAwaitingAmount || s == StepAwaitingNewCategoryName || s == StepAwaitingNewCategoryGrp
}

// Draft is the pending ledger mutation a conversation is building up. It is
// only meaningful while the owning conversation is non-idle.
type Draft struct {
	Date             time.Time       `json:"date"`
	Kind             TransactionKind `json:"kind"`
	AmountCents      int64           `json:"amount_cents"`
	Description      string          `json:"description"`
	CategoryID       string          `json:"category_id,omitempty"`
	IncomeSourceID   string          `json:"income_source_id,omitempty"`
	GoalID           string          `json:"goal_id,omitempty"`
	AccountID        string          `json:"account_id,omitempty"`
	InstallmentCount int             `json:"installment_count,omitempty"`
	ScheduledID      string          `json:"scheduled_id,omitempty"` // set when confirming fulfills an existing pending row
}

// NewCategoryDraft is the payload for the create-category sub-flow.
type NewCategoryDraft struct {
	Name      string `json:"name"`
	GroupName string `json:"group_name,omitempty"`
}

// ConversationContext is the step-scoped payload persisted alongside the
// step. Only the fields relevant to the current step are populated; resetting
// to idle always replaces the whole value so nothing leaks between flows.
type ConversationContext struct {
	Draft             *Draft            `json:"draft,omitempty"`
	NewCategory       *NewCategoryDraft `json:"new_category,omitempty"`
	MessagesToDelete  []int             `json:"messages_to_delete,omitempty"`
	AuditID           string            `json:"audit_id,omitempty"`
	LastTransactionID string            `json:"last_transaction_id,omitempty"`
}

// ConversationState is the persisted per-chat state machine row. At most one
// non-idle state exists per chat at any time.
type ConversationState struct {
	UpdatedAt time.Time
	Step      Step
	Context   ConversationContext
	ChatID    int64
}

// Reset returns the state to idle, dropping everything except the
// last-transaction pointer used by undo.
func (s *ConversationState) Reset() {
	last := s.Context.LastTransactionID
	s.Step = StepIdle
	s.Context = ConversationContext{LastTransactionID: last}
}
