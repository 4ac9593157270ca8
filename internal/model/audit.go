package model

import "time"

// Resolution tags how an exchange that reached the inference service ended.
type Resolution string

// Resolution constants.
const (
	ResolutionPending   Resolution = "PENDING"
	ResolutionConfirmed Resolution = "CONFIRMED"
	ResolutionCorrected Resolution = "CORRECTED"
	ResolutionCancelled Resolution = "CANCELLED"
	ResolutionFallback  Resolution = "FALLBACK"
	ResolutionIgnored   Resolution = "IGNORED"
)

// AuditLogEntry is one row per inbound message that reached the inference
// service. Created once, then updated at most twice: once with the bot's
// reply text and once with the final resolution.
type AuditLogEntry struct {
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ID            string
	BudgetID      string
	MessageText   string
	Intent        Intent
	ContextDigest string // simplified fingerprint of the UserContext the call saw
	BotReply      string
	Resolution    Resolution
	Confidence    float64
	ChatID        int64
}
