// Package ledger turns confirmed drafts into persisted transaction rows.
// It is the only writer of the transactions table in the conversational
// path; everything upstream of it works on drafts.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gustavohm/granabot/internal/common"
	"github.com/gustavohm/granabot/internal/installment"
	"github.com/gustavohm/granabot/internal/model"
	"github.com/gustavohm/granabot/internal/service"
)

// Committer applies a draft to the ledger exactly once.
type Committer struct {
	store service.Storage
}

// NewCommitter creates a Committer backed by the given storage.
func NewCommitter(store service.Storage) *Committer {
	return &Committer{store: store}
}

// Result describes what a commit wrote. TransactionID points at the row undo
// should remove: the fresh row, or the installment parent, or the scheduled
// row that was cleared. RowCount is the number of rows written or updated.
type Result struct {
	TransactionID string
	RowCount      int
	Cleared       bool
}

// Commit persists the draft. Three shapes are possible: fulfilling an
// existing pending row, expanding an installment purchase into a parent plus
// children, or inserting a single fresh row.
func (c *Committer) Commit(ctx context.Context, uc *model.UserContext, draft *model.Draft) (*Result, error) {
	if draft == nil {
		return nil, fmt.Errorf("ledger: nil draft")
	}
	if draft.AmountCents <= 0 {
		return nil, fmt.Errorf("ledger: draft amount must be positive, got %d", draft.AmountCents)
	}

	date := draft.Date
	if date.IsZero() {
		date = uc.Now
	}

	if draft.ScheduledID != "" {
		if err := c.store.ClearScheduledTransaction(ctx, draft.ScheduledID, draft.AmountCents, draft.Description, date); err != nil {
			return nil, fmt.Errorf("clearing scheduled row: %w", err)
		}
		return &Result{TransactionID: draft.ScheduledID, RowCount: 1, Cleared: true}, nil
	}

	if draft.InstallmentCount >= installment.MinCount {
		return c.commitInstallments(ctx, uc, draft, date)
	}

	txn := &model.Transaction{
		ID:             uuid.NewString(),
		BudgetID:       uc.BudgetID,
		AccountID:      draft.AccountID,
		CategoryID:     draft.CategoryID,
		IncomeSourceID: draft.IncomeSourceID,
		GoalID:         draft.GoalID,
		Description:    draft.Description,
		Kind:           draft.Kind,
		Status:         model.StatusCleared,
		AmountCents:    draft.AmountCents,
		Date:           date,
	}
	if err := c.store.InsertTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("inserting transaction: %w", err)
	}
	if txn.Kind == model.KindTransfer && txn.GoalID != "" {
		if err := c.store.AddToGoal(ctx, txn.GoalID, txn.AmountCents); err != nil {
			if delErr := c.store.DeleteTransaction(ctx, txn.ID); delErr != nil {
				return nil, fmt.Errorf("updating goal: %w (row cleanup also failed: %v)", err, delErr)
			}
			return nil, fmt.Errorf("updating goal: %w", err)
		}
	}
	return &Result{TransactionID: txn.ID, RowCount: 1}, nil
}

func (c *Committer) commitInstallments(ctx context.Context, uc *model.UserContext, draft *model.Draft, date time.Time) (*Result, error) {
	var closingDay *int
	if account := uc.AccountByID(draft.AccountID); account != nil && account.IsCredit() {
		closingDay = account.ClosingDay
	}

	plan, err := installment.Expand(draft.AmountCents, draft.InstallmentCount, date, closingDay)
	if err != nil {
		return nil, fmt.Errorf("expanding installments: %w", err)
	}

	parent := &model.Transaction{
		ID:             uuid.NewString(),
		BudgetID:       uc.BudgetID,
		AccountID:      draft.AccountID,
		CategoryID:     draft.CategoryID,
		Description:    draft.Description,
		Kind:           draft.Kind,
		Status:         model.StatusCleared,
		AmountCents:    plan[0].AmountCents,
		Date:           plan[0].Date,
		InstallmentSeq: 1,
		InstallmentOf:  draft.InstallmentCount,
	}
	if err := c.store.InsertTransaction(ctx, parent); err != nil {
		return nil, fmt.Errorf("inserting installment parent: %w", err)
	}

	children := make([]model.Transaction, 0, len(plan)-1)
	for i, inst := range plan[1:] {
		children = append(children, model.Transaction{
			ID:             uuid.NewString(),
			BudgetID:       uc.BudgetID,
			AccountID:      draft.AccountID,
			CategoryID:     draft.CategoryID,
			ParentID:       parent.ID,
			Description:    draft.Description,
			Kind:           draft.Kind,
			Status:         model.StatusCleared,
			AmountCents:    inst.AmountCents,
			Date:           inst.Date,
			InstallmentSeq: i + 2,
			InstallmentOf:  draft.InstallmentCount,
		})
	}
	if err := c.store.InsertTransactions(ctx, children); err != nil {
		// The batch is atomic, so the parent is the only row to roll back.
		if delErr := c.store.DeleteTransaction(ctx, parent.ID); delErr != nil {
			return nil, fmt.Errorf("inserting installment children: %w (parent cleanup also failed: %v)", err, delErr)
		}
		return nil, fmt.Errorf("inserting installment children: %w", err)
	}
	return &Result{TransactionID: parent.ID, RowCount: len(plan)}, nil
}

// Undo removes the transaction a previous Commit wrote, children first when
// the row anchors an installment plan. An empty id means there is nothing to
// undo, which callers surface as a friendly message rather than an error.
func (c *Committer) Undo(ctx context.Context, transactionID string) error {
	if transactionID == "" {
		return common.ErrNothingToUndo
	}

	txn, err := c.store.GetTransactionByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNothingToUndo
		}
		return fmt.Errorf("loading transaction: %w", err)
	}
	if txn.Kind == model.KindTransfer && txn.GoalID != "" {
		if err := c.store.AddToGoal(ctx, txn.GoalID, -txn.AmountCents); err != nil {
			return fmt.Errorf("rolling back goal: %w", err)
		}
	}

	children, err := c.store.GetInstallmentChildren(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("loading installment children: %w", err)
	}
	for _, child := range children {
		if err := c.store.DeleteTransaction(ctx, child.ID); err != nil {
			return fmt.Errorf("deleting installment child: %w", err)
		}
	}

	if err := c.store.DeleteTransaction(ctx, transactionID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNothingToUndo
		}
		return fmt.Errorf("deleting transaction: %w", err)
	}
	return nil
}
