package storage

import (
	"context"
	"fmt"

	"github.com/gustavohm/granabot/internal/model"
)

// CreateAuditEntry inserts one audit row for an inference exchange.
func (s *SQLiteStorage) CreateAuditEntry(ctx context.Context, entry *model.AuditLogEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("%w: entry", ErrNilParameter)
	}
	if err := validateString(entry.ID, "entry.ID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, budget_id, chat_id, message_text, intent, confidence, context_digest, resolution)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.BudgetID, entry.ChatID, entry.MessageText,
		entry.Intent, entry.Confidence, entry.ContextDigest, entry.Resolution)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}
	return nil
}

// UpdateAuditReply records the bot's reply to an exchange.
func (s *SQLiteStorage) UpdateAuditReply(ctx context.Context, id, reply string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE audit_log SET bot_reply = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, reply, id)
	if err != nil {
		return fmt.Errorf("failed to update audit reply: %w", err)
	}
	return nil
}

// UpdateAuditResolution records how the exchange ended.
func (s *SQLiteStorage) UpdateAuditResolution(ctx context.Context, id string, resolution model.Resolution) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE audit_log SET resolution = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, resolution, id)
	if err != nil {
		return fmt.Errorf("failed to update audit resolution: %w", err)
	}
	return nil
}

// GetAuditEntry reads one audit row back.
func (s *SQLiteStorage) GetAuditEntry(ctx context.Context, id string) (*model.AuditLogEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var e model.AuditLogEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT id, budget_id, chat_id, message_text, intent, confidence, context_digest, bot_reply, resolution, created_at, updated_at
		FROM audit_log WHERE id = ?`, id,
	).Scan(&e.ID, &e.BudgetID, &e.ChatID, &e.MessageText, &e.Intent, &e.Confidence,
		&e.ContextDigest, &e.BotReply, &e.Resolution, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit entry: %w", err)
	}
	return &e, nil
}
