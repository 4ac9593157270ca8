// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/gustavohm/granabot/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Membership and configured entities
	GetMemberByChatID(ctx context.Context, chatID int64) (*model.Member, error)
	GetAccounts(ctx context.Context, budgetID string) ([]model.Account, error)
	GetCategories(ctx context.Context, budgetID string) ([]model.Category, error)
	GetIncomeSources(ctx context.Context, budgetID string) ([]model.IncomeSource, error)
	GetGoals(ctx context.Context, budgetID string) ([]model.Goal, error)
	CreateCategory(ctx context.Context, budgetID, name, groupName string) (*model.Category, error)
	AddToGoal(ctx context.Context, goalID string, deltaCents int64) error

	// Pending (scheduled) rows
	GetPendingTransactions(ctx context.Context, budgetID string, year, month int) ([]model.ScheduledTransaction, error)
	GetAllPendingTransactions(ctx context.Context, budgetID string) ([]model.ScheduledTransaction, error)

	// Ledger mutations
	InsertTransaction(ctx context.Context, txn *model.Transaction) error
	InsertTransactions(ctx context.Context, txns []model.Transaction) error
	ClearScheduledTransaction(ctx context.Context, id string, amountCents int64, description string, clearedOn time.Time) error
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	GetInstallmentChildren(ctx context.Context, parentID string) ([]model.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error

	// Ledger reads for the query intents
	SumByKind(ctx context.Context, budgetID string, kind model.TransactionKind, year, month int) (int64, error)
	SumByCategory(ctx context.Context, budgetID, categoryID string, year, month int) (int64, error)
	SumByAccount(ctx context.Context, budgetID, accountID string) (int64, error)

	// Conversation state, keyed by chat id
	GetConversationState(ctx context.Context, chatID int64) (*model.ConversationState, error)
	SaveConversationState(ctx context.Context, state *model.ConversationState) error

	// Audit trail
	CreateAuditEntry(ctx context.Context, entry *model.AuditLogEntry) error
	UpdateAuditReply(ctx context.Context, id, reply string) error
	UpdateAuditResolution(ctx context.Context, id string, resolution model.Resolution) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Choice is one selectable option rendered inline in the chat.
type Choice struct {
	ID    string
	Label string
}

// Callback payloads produced by the transport's fixed buttons. Choice-list
// payloads are caller-defined through Choice.ID; these four belong to the
// yes/no prompts the transport renders on its own.
const (
	CallbackConfirmYes     = "confirm:yes"
	CallbackConfirmNo      = "confirm:no"
	CallbackNewCategoryYes = "newcat:yes"
	CallbackNewCategoryNo  = "newcat:no"
)

// Transport is the platform-specific chat integration the core talks through.
// The core never addresses a concrete chat platform directly.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
	SendChoiceList(ctx context.Context, chatID int64, text string, choices []Choice) (int, error)
	SendConfirmation(ctx context.Context, chatID int64, text string) (int, error)
	SendNewCategoryPrompt(ctx context.Context, chatID int64, text, suggestedName string) (int, error)
	DeleteMessages(ctx context.Context, chatID int64, messageIDs []int) error
	AcknowledgeInteraction(ctx context.Context, interactionID string) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
