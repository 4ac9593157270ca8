package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gustavohm/granabot/internal/model"
)

// Administrative writes used by provisioning and by the month projector that
// seeds pending rows. The conversational core never calls these; it only
// reads what they produce.

// CreateBudget inserts a budget and returns it.
func (s *SQLiteStorage) CreateBudget(ctx context.Context, name string) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	b := model.Budget{ID: uuid.NewString(), Name: name}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO budgets (id, name) VALUES (?, ?)`, b.ID, b.Name); err != nil {
		return nil, fmt.Errorf("failed to create budget: %w", err)
	}
	return &b, nil
}

// CreateMember binds a chat to a budget.
func (s *SQLiteStorage) CreateMember(ctx context.Context, budgetID string, chatID int64, name string) (*model.Member, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(budgetID, "budgetID"); err != nil {
		return nil, err
	}

	m := model.Member{ID: uuid.NewString(), BudgetID: budgetID, ChatID: chatID, Name: name}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO members (id, budget_id, chat_id, name) VALUES (?, ?, ?, ?)`,
		m.ID, m.BudgetID, m.ChatID, m.Name); err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}
	return &m, nil
}

// CreateAccount inserts a paying instrument.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("%w: account", ErrNilParameter)
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}

	var closingDay any
	if account.ClosingDay != nil {
		closingDay = *account.ClosingDay
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, budget_id, name, type, closing_day, is_default)
		VALUES (?, ?, ?, ?, ?, ?)`,
		account.ID, account.BudgetID, account.Name, account.Type, closingDay, account.IsDefault); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// CreateIncomeSource inserts a configured inflow.
func (s *SQLiteStorage) CreateIncomeSource(ctx context.Context, source *model.IncomeSource) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if source == nil {
		return fmt.Errorf("%w: source", ErrNilParameter)
	}
	if source.ID == "" {
		source.ID = uuid.NewString()
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO income_sources (id, budget_id, name, is_active) VALUES (?, ?, ?, 1)`,
		source.ID, source.BudgetID, source.Name); err != nil {
		return fmt.Errorf("failed to create income source: %w", err)
	}
	return nil
}

// CreateGoal inserts a savings objective.
func (s *SQLiteStorage) CreateGoal(ctx context.Context, goal *model.Goal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if goal == nil {
		return fmt.Errorf("%w: goal", ErrNilParameter)
	}
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (id, budget_id, name, target_cents, current_cents)
		VALUES (?, ?, ?, ?, ?)`,
		goal.ID, goal.BudgetID, goal.Name, goal.TargetCents, goal.CurrentCents); err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}
