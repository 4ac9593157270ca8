package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gustavohm/granabot/internal/common"
	"github.com/gustavohm/granabot/internal/model"
)

// GetMemberByChatID resolves the budget member bound to a chat.
func (s *SQLiteStorage) GetMemberByChatID(ctx context.Context, chatID int64) (*model.Member, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var m model.Member
	err := s.db.QueryRowContext(ctx, `
		SELECT id, budget_id, chat_id, name, created_at
		FROM members WHERE chat_id = ?`, chatID,
	).Scan(&m.ID, &m.BudgetID, &m.ChatID, &m.Name, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member for chat %d: %w", chatID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return &m, nil
}

// GetAccounts returns all accounts of a budget.
func (s *SQLiteStorage) GetAccounts(ctx context.Context, budgetID string) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(budgetID, "budgetID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, budget_id, name, type, closing_day, is_default, created_at
		FROM accounts WHERE budget_id = ? ORDER BY name`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		var closingDay sql.NullInt64
		if err := rows.Scan(&a.ID, &a.BudgetID, &a.Name, &a.Type, &closingDay, &a.IsDefault, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		if closingDay.Valid {
			day := int(closingDay.Int64)
			a.ClosingDay = &day
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// GetCategories returns all categories of a budget, active ones first.
func (s *SQLiteStorage) GetCategories(ctx context.Context, budgetID string) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(budgetID, "budgetID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, budget_id, name, group_name, is_active, created_at
		FROM categories WHERE budget_id = ? ORDER BY is_active DESC, name`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.BudgetID, &c.Name, &c.GroupName, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetIncomeSources returns all income sources of a budget.
func (s *SQLiteStorage) GetIncomeSources(ctx context.Context, budgetID string) ([]model.IncomeSource, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(budgetID, "budgetID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, budget_id, name, is_active, created_at
		FROM income_sources WHERE budget_id = ? ORDER BY name`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query income sources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sources []model.IncomeSource
	for rows.Next() {
		var src model.IncomeSource
		if err := rows.Scan(&src.ID, &src.BudgetID, &src.Name, &src.IsActive, &src.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan income source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// GetGoals returns all goals of a budget.
func (s *SQLiteStorage) GetGoals(ctx context.Context, budgetID string) ([]model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(budgetID, "budgetID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, budget_id, name, target_cents, current_cents, created_at
		FROM goals WHERE budget_id = ? ORDER BY name`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var goals []model.Goal
	for rows.Next() {
		var g model.Goal
		if err := rows.Scan(&g.ID, &g.BudgetID, &g.Name, &g.TargetCents, &g.CurrentCents, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// CreateCategory inserts a new active category and returns it.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, budgetID, name, groupName string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(budgetID, "budgetID"); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	c := model.Category{
		ID:        uuid.NewString(),
		BudgetID:  budgetID,
		Name:      name,
		GroupName: groupName,
		IsActive:  true,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, budget_id, name, group_name, is_active)
		VALUES (?, ?, ?, ?, 1)`, c.ID, c.BudgetID, c.Name, c.GroupName)
	if err != nil {
		return nil, fmt.Errorf("failed to create category %q: %w", name, err)
	}
	return &c, nil
}

// AddToGoal moves a goal's saved amount by deltaCents, negative to roll a
// transfer back.
func (s *SQLiteStorage) AddToGoal(ctx context.Context, goalID string, deltaCents int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(goalID, "goalID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE goals SET current_cents = current_cents + ? WHERE id = ?`, deltaCents, goalID)
	if err != nil {
		return fmt.Errorf("failed to update goal %s: %w", goalID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check goal update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("goal %s: %w", goalID, common.ErrNotFound)
	}
	return nil
}
