// Package engine orchestrates the conversational flow: it builds the
// per-message context, runs inference, resolves entities and scheduled rows,
// routes on confidence, and drives the per-chat state machine through
// confirmations and choice lists until a ledger write or a cancellation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gustavohm/granabot/internal/common"
	"github.com/gustavohm/granabot/internal/ledger"
	"github.com/gustavohm/granabot/internal/model"
	"github.com/gustavohm/granabot/internal/service"
)

// Parser is the inference surface the engine needs. *nlu.Gateway satisfies it.
type Parser interface {
	Parse(ctx context.Context, message string, uc *model.UserContext) model.AIResponse
	Transcribe(ctx context.Context, audio []byte, mimeType string, duration time.Duration) (string, error)
}

// Engine is the conversational core. One instance serves every chat; per-chat
// serialization happens internally.
type Engine struct {
	store     service.Storage
	transport service.Transport
	parser    Parser
	committer *ledger.Committer
	locks     *chatLocks
	clock     func() time.Time
}

// New creates an Engine over the given storage, chat transport, and parser.
func New(store service.Storage, transport service.Transport, parser Parser) *Engine {
	return &Engine{
		store:     store,
		transport: transport,
		parser:    parser,
		committer: ledger.NewCommitter(store),
		locks:     newChatLocks(),
		clock:     defaultClock,
	}
}

// HandleText processes one inbound text message.
func (e *Engine) HandleText(ctx context.Context, chatID int64, text string) {
	unlock := e.locks.lock(chatID)
	defer unlock()
	e.handleTextLocked(ctx, chatID, text)
}

func (e *Engine) handleTextLocked(ctx context.Context, chatID int64, text string) {
	uc, err := e.buildUserContext(ctx, chatID)
	if err != nil {
		e.replyConfigError(ctx, chatID, err)
		return
	}

	state, err := e.store.GetConversationState(ctx, chatID)
	if err != nil {
		slog.Error("loading conversation state", "chat_id", chatID, "error", err)
		e.send(ctx, chatID, replyOops)
		return
	}

	if state.Step != model.StepIdle {
		if state.Step.ExpectsFreeText() {
			e.handleFreeTextAnswer(ctx, uc, state, text)
			return
		}
		// Free text while a choice or confirmation is pending abandons the
		// exchange and the text is treated as a brand-new message.
		e.abandonExchange(ctx, state)
	}

	e.processMessage(ctx, uc, state, text)
}

// HandleVoice transcribes a voice note and feeds the transcript through the
// text path under the same chat lock.
func (e *Engine) HandleVoice(ctx context.Context, chatID int64, audio []byte, mimeType string, duration time.Duration) {
	unlock := e.locks.lock(chatID)
	defer unlock()

	text, err := e.parser.Transcribe(ctx, audio, mimeType, duration)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrAudioTooLong):
			e.send(ctx, chatID, replyAudioTooLong)
		case errors.Is(err, common.ErrAudioTooLarge):
			e.send(ctx, chatID, replyAudioTooLarge)
		default:
			e.send(ctx, chatID, replyAudioNoGrasp)
		}
		return
	}
	e.handleTextLocked(ctx, chatID, text)
}

// HandleUndo removes the last transaction this chat committed, if any.
func (e *Engine) HandleUndo(ctx context.Context, chatID int64) {
	unlock := e.locks.lock(chatID)
	defer unlock()

	state, err := e.store.GetConversationState(ctx, chatID)
	if err != nil {
		slog.Error("loading conversation state", "chat_id", chatID, "error", err)
		e.send(ctx, chatID, replyOops)
		return
	}

	err = e.committer.Undo(ctx, state.Context.LastTransactionID)
	if errors.Is(err, common.ErrNothingToUndo) {
		e.send(ctx, chatID, replyNothingToUndo)
		return
	}
	if err != nil {
		slog.Error("undo failed", "chat_id", chatID, "error", err)
		e.send(ctx, chatID, replyOops)
		return
	}

	state.Context.LastTransactionID = ""
	state.Reset()
	e.saveState(ctx, state)
	e.send(ctx, chatID, replyUndone)
}

// abandonExchange tears down a pending question: queued prompt messages are
// deleted, the audit row is tagged ignored, and the state returns to idle.
func (e *Engine) abandonExchange(ctx context.Context, state *model.ConversationState) {
	e.deleteQueued(ctx, state)
	if state.Context.AuditID != "" {
		if err := e.store.UpdateAuditResolution(ctx, state.Context.AuditID, model.ResolutionIgnored); err != nil {
			slog.Warn("tagging abandoned exchange", "error", err)
		}
	}
	state.Reset()
	e.saveState(ctx, state)
}

func (e *Engine) deleteQueued(ctx context.Context, state *model.ConversationState) {
	if len(state.Context.MessagesToDelete) == 0 {
		return
	}
	if err := e.transport.DeleteMessages(ctx, state.ChatID, state.Context.MessagesToDelete); err != nil {
		slog.Warn("deleting stale prompts", "chat_id", state.ChatID, "error", err)
	}
	state.Context.MessagesToDelete = nil
}

func (e *Engine) replyConfigError(ctx context.Context, chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrNoBudget):
		e.send(ctx, chatID, replyNoBudget)
	case errors.Is(err, common.ErrNoDefaultAccount):
		e.send(ctx, chatID, replyNoAccount)
	default:
		slog.Error("building user context", "chat_id", chatID, "error", err)
		e.send(ctx, chatID, replyOops)
	}
}

func (e *Engine) send(ctx context.Context, chatID int64, text string) {
	if _, err := e.transport.SendMessage(ctx, chatID, text); err != nil {
		slog.Error("sending message", "chat_id", chatID, "error", err)
	}
}

func (e *Engine) saveState(ctx context.Context, state *model.ConversationState) {
	state.UpdatedAt = e.clock()
	if err := e.store.SaveConversationState(ctx, state); err != nil {
		slog.Error("saving conversation state", "chat_id", state.ChatID, "error", err)
	}
}

func (e *Engine) newAuditEntry(ctx context.Context, uc *model.UserContext, chatID int64, text string, resp model.AIResponse) string {
	entry := &model.AuditLogEntry{
		ID:            uuid.NewString(),
		BudgetID:      uc.BudgetID,
		ChatID:        chatID,
		MessageText:   text,
		Intent:        resp.Intent,
		Confidence:    resp.Confidence,
		ContextDigest: contextDigest(uc),
		Resolution:    model.ResolutionPending,
	}
	if err := e.store.CreateAuditEntry(ctx, entry); err != nil {
		slog.Warn("creating audit entry", "error", err)
		return ""
	}
	return entry.ID
}

// contextDigest summarizes the snapshot an inference call saw, so an audit
// row can be read back without reconstructing the ledger at that instant.
func contextDigest(uc *model.UserContext) string {
	return fmt.Sprintf("budget=%s cats=%d srcs=%d accts=%d goals=%d pending=%d",
		uc.BudgetID, len(uc.Categories), len(uc.IncomeSources),
		len(uc.Accounts), len(uc.Goals), len(uc.PendingThisMonth))
}

func (e *Engine) auditReply(ctx context.Context, auditID, reply string) {
	if auditID == "" {
		return
	}
	if err := e.store.UpdateAuditReply(ctx, auditID, reply); err != nil {
		slog.Warn("recording audit reply", "error", err)
	}
}

func (e *Engine) auditResolve(ctx context.Context, auditID string, resolution model.Resolution) {
	if auditID == "" {
		return
	}
	if err := e.store.UpdateAuditResolution(ctx, auditID, resolution); err != nil {
		slog.Warn("recording audit resolution", "error", err)
	}
}
