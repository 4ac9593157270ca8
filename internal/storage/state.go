package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gustavohm/granabot/internal/model"
)

// GetConversationState reads the state row for a chat. A chat with no row
// yet is idle; callers always get a usable state back.
func (s *SQLiteStorage) GetConversationState(ctx context.Context, chatID int64) (*model.ConversationState, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var step string
	var contextJSON string
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT step, context, updated_at FROM conversation_state WHERE chat_id = ?`, chatID,
	).Scan(&step, &contextJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.ConversationState{ChatID: chatID, Step: model.StepIdle}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation state: %w", err)
	}

	state := model.ConversationState{
		ChatID:    chatID,
		Step:      model.Step(step),
		UpdatedAt: updatedAt,
	}
	if err := json.Unmarshal([]byte(contextJSON), &state.Context); err != nil {
		// A corrupt context must not wedge the chat: reset to idle.
		state.Step = model.StepIdle
		state.Context = model.ConversationContext{}
	}
	return &state, nil
}

// SaveConversationState upserts the state row for a chat.
func (s *SQLiteStorage) SaveConversationState(ctx context.Context, state *model.ConversationState) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("%w: state", ErrNilParameter)
	}

	contextJSON, err := json.Marshal(state.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation context: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversation_state (chat_id, step, context, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(chat_id) DO UPDATE SET
			step = excluded.step,
			context = excluded.context,
			updated_at = CURRENT_TIMESTAMP`,
		state.ChatID, state.Step, string(contextJSON))
	if err != nil {
		return fmt.Errorf("failed to save conversation state: %w", err)
	}
	return nil
}
