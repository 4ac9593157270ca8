package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gustavohm/granabot/internal/common"
	"github.com/gustavohm/granabot/internal/model"
)

const scheduledSelect = `
	SELECT t.id, t.budget_id,
	       COALESCE(t.category_id, ''), COALESCE(t.income_source_id, ''),
	       t.kind, t.amount_cents, t.description, t.date,
	       COALESCE(c.name, i.name, '')
	FROM transactions t
	LEFT JOIN categories c ON c.id = t.category_id
	LEFT JOIN income_sources i ON i.id = t.income_source_id
	WHERE t.budget_id = ? AND t.status = ?`

// GetPendingTransactions returns the pending rows due in the given month.
func (s *SQLiteStorage) GetPendingTransactions(ctx context.Context, budgetID string, year, month int) ([]model.ScheduledTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(budgetID, "budgetID"); err != nil {
		return nil, err
	}
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	rows, err := s.db.QueryContext(ctx, scheduledSelect+` AND t.date >= ? AND t.date < ? ORDER BY t.date`,
		budgetID, model.StatusPending, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanScheduled(rows)
}

// GetAllPendingTransactions returns every pending row regardless of month;
// scheduled items can lag behind the month they were projected for.
func (s *SQLiteStorage) GetAllPendingTransactions(ctx context.Context, budgetID string) ([]model.ScheduledTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(budgetID, "budgetID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, scheduledSelect+` ORDER BY t.date`, budgetID, model.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanScheduled(rows)
}

func scanScheduled(rows *sql.Rows) ([]model.ScheduledTransaction, error) {
	var out []model.ScheduledTransaction
	for rows.Next() {
		var st model.ScheduledTransaction
		if err := rows.Scan(&st.ID, &st.BudgetID, &st.CategoryID, &st.IncomeSourceID,
			&st.Kind, &st.AmountCents, &st.Description, &st.Date, &st.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan scheduled transaction: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// InsertTransaction writes a single ledger row.
func (s *SQLiteStorage) InsertTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, budget_id, account_id, category_id, income_source_id, goal_id, parent_id,
			 kind, status, amount_cents, description, date, installment_seq, installment_of)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.BudgetID, nullable(txn.AccountID), nullable(txn.CategoryID),
		nullable(txn.IncomeSourceID), nullable(txn.GoalID), nullable(txn.ParentID),
		txn.Kind, txn.Status, txn.AmountCents, txn.Description, txn.Date,
		txn.InstallmentSeq, txn.InstallmentOf)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
	}
	return nil
}

// InsertTransactions writes a batch of rows atomically. Used for installment
// children: either all of them land or none do.
func (s *SQLiteStorage) InsertTransactions(ctx context.Context, txns []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(txns) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}
	for i := range txns {
		if err := validateTransaction(&txns[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions
			(id, budget_id, account_id, category_id, income_source_id, goal_id, parent_id,
			 kind, status, amount_cents, description, date, installment_seq, installment_of)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range txns {
		txn := &txns[i]
		if _, err := stmt.ExecContext(ctx,
			txn.ID, txn.BudgetID, nullable(txn.AccountID), nullable(txn.CategoryID),
			nullable(txn.IncomeSourceID), nullable(txn.GoalID), nullable(txn.ParentID),
			txn.Kind, txn.Status, txn.AmountCents, txn.Description, txn.Date,
			txn.InstallmentSeq, txn.InstallmentOf); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
	}

	return tx.Commit()
}

// ClearScheduledTransaction transitions a pending row to cleared, overwriting
// its amount, description and date from the confirmed draft.
func (s *SQLiteStorage) ClearScheduledTransaction(ctx context.Context, id string, amountCents int64, description string, clearedOn time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET status = ?, amount_cents = ?, description = ?, date = ?
		WHERE id = ? AND status = ?`,
		model.StatusCleared, amountCents, description, clearedOn, id, model.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to clear scheduled transaction %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check clear result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("scheduled transaction %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// GetTransactionByID returns a single ledger row.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var t model.Transaction
	var accountID, categoryID, sourceID, goalID, parentID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, budget_id, account_id, category_id, income_source_id, goal_id, parent_id,
		       kind, status, amount_cents, description, date, installment_seq, installment_of, created_at
		FROM transactions WHERE id = ?`, id,
	).Scan(&t.ID, &t.BudgetID, &accountID, &categoryID, &sourceID, &goalID, &parentID,
		&t.Kind, &t.Status, &t.AmountCents, &t.Description, &t.Date,
		&t.InstallmentSeq, &t.InstallmentOf, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	t.AccountID = accountID.String
	t.CategoryID = categoryID.String
	t.IncomeSourceID = sourceID.String
	t.GoalID = goalID.String
	t.ParentID = parentID.String
	return &t, nil
}

// GetInstallmentChildren returns the rows referencing the given parent.
func (s *SQLiteStorage) GetInstallmentChildren(ctx context.Context, parentID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(parentID, "parentID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM transactions WHERE parent_id = ? ORDER BY installment_seq`, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query installment children: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var children []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID); err != nil {
			return nil, fmt.Errorf("failed to scan installment child: %w", err)
		}
		t.ParentID = parentID
		children = append(children, t)
	}
	return children, rows.Err()
}

// DeleteTransaction removes a single ledger row.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// SumByKind totals cleared rows of one kind within a month.
func (s *SQLiteStorage) SumByKind(ctx context.Context, budgetID string, kind model.TransactionKind, year, month int) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateMonth(year, month); err != nil {
		return 0, err
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var sum sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(amount_cents) FROM transactions
		WHERE budget_id = ? AND kind = ? AND status = ? AND date >= ? AND date < ?`,
		budgetID, kind, model.StatusCleared, from, to,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum by kind: %w", err)
	}
	return sum.Int64, nil
}

// SumByCategory totals cleared expenses of one category within a month.
func (s *SQLiteStorage) SumByCategory(ctx context.Context, budgetID, categoryID string, year, month int) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateMonth(year, month); err != nil {
		return 0, err
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var sum sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(amount_cents) FROM transactions
		WHERE budget_id = ? AND category_id = ? AND status = ? AND date >= ? AND date < ?`,
		budgetID, categoryID, model.StatusCleared, from, to,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum by category: %w", err)
	}
	return sum.Int64, nil
}

// SumByAccount nets all cleared rows of one account: income adds, expense
// subtracts, transfers count by sign of the stored amount.
func (s *SQLiteStorage) SumByAccount(ctx context.Context, budgetID, accountID string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var sum sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(CASE WHEN kind = ? THEN -amount_cents ELSE amount_cents END)
		FROM transactions
		WHERE budget_id = ? AND account_id = ? AND status = ?`,
		model.KindExpense, budgetID, accountID, model.StatusCleared,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum by account: %w", err)
	}
	return sum.Int64, nil
}

// nullable maps an empty string to NULL so foreign keys stay honest.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
