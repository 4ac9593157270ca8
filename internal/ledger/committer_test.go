package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gustavohm/granabot/internal/common"
	"github.com/gustavohm/granabot/internal/model"
	"github.com/gustavohm/granabot/internal/storage"
)

type fixture struct {
	store *storage.SQLiteStorage
	uc    *model.UserContext
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })

	budget, err := store.CreateBudget(ctx, "Casa")
	require.NoError(t, err)

	closing := 15
	credit := &model.Account{
		BudgetID:   budget.ID,
		Name:       "Nubank",
		Type:       model.AccountTypeCredit,
		ClosingDay: &closing,
	}
	require.NoError(t, store.CreateAccount(ctx, credit))

	cash := &model.Account{
		BudgetID:  budget.ID,
		Name:      "Carteira",
		Type:      model.AccountTypeCash,
		IsDefault: true,
	}
	require.NoError(t, store.CreateAccount(ctx, cash))

	accounts, err := store.GetAccounts(ctx, budget.ID)
	require.NoError(t, err)

	return &fixture{
		store: store,
		uc: &model.UserContext{
			Now:      time.Date(2025, time.April, 20, 12, 0, 0, 0, time.UTC),
			BudgetID: budget.ID,
			Accounts: accounts,
		},
	}
}

func (f *fixture) accountID(name string) string {
	for _, a := range f.uc.Accounts {
		if a.Name == name {
			return a.ID
		}
	}
	return ""
}

func TestCommitSingleExpense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	committer := NewCommitter(f.store)

	result, err := committer.Commit(ctx, f.uc, &model.Draft{
		Kind:        model.KindExpense,
		AmountCents: 5000,
		Description: "mercado",
		AccountID:   f.accountID("Carteira"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowCount)
	assert.False(t, result.Cleared)

	got, err := f.store.GetTransactionByID(ctx, result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCleared, got.Status)
	assert.Equal(t, int64(5000), got.AmountCents)
	// A draft with no date falls back to now.
	assert.Equal(t, f.uc.Now, got.Date.UTC())
}

func TestCommitRejectsBadDrafts(t *testing.T) {
	f := newFixture(t)
	committer := NewCommitter(f.store)

	_, err := committer.Commit(context.Background(), f.uc, nil)
	assert.Error(t, err)

	_, err = committer.Commit(context.Background(), f.uc, &model.Draft{Kind: model.KindExpense})
	assert.Error(t, err)
}

func TestCommitFulfillsScheduledRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	committer := NewCommitter(f.store)

	pending := &model.Transaction{
		ID:          uuid.NewString(),
		BudgetID:    f.uc.BudgetID,
		Kind:        model.KindExpense,
		Status:      model.StatusPending,
		AmountCents: 18000,
		Description: "Conta de luz",
		Date:        time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.store.InsertTransaction(ctx, pending))

	result, err := committer.Commit(ctx, f.uc, &model.Draft{
		Kind:        model.KindExpense,
		AmountCents: 18550,
		Description: "luz de abril",
		ScheduledID: pending.ID,
	})
	require.NoError(t, err)
	assert.True(t, result.Cleared)
	assert.Equal(t, pending.ID, result.TransactionID)

	got, err := f.store.GetTransactionByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCleared, got.Status)
	assert.Equal(t, int64(18550), got.AmountCents)
}

func TestCommitInstallmentsOnCreditCard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	committer := NewCommitter(f.store)

	// Purchased on the 20th with a closing day of 15, so the first charge
	// lands one month out.
	result, err := committer.Commit(ctx, f.uc, &model.Draft{
		Date:             time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC),
		Kind:             model.KindExpense,
		AmountCents:      200000,
		Description:      "TV",
		AccountID:        f.accountID("Nubank"),
		InstallmentCount: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, result.RowCount)

	parent, err := f.store.GetTransactionByID(ctx, result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, 1, parent.InstallmentSeq)
	assert.Equal(t, 10, parent.InstallmentOf)
	assert.Equal(t, int64(20000), parent.AmountCents)
	assert.Equal(t, time.Date(2025, time.April, 20, 0, 0, 0, 0, time.UTC), parent.Date.UTC())

	children, err := f.store.GetInstallmentChildren(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 9)
	assert.Equal(t, 2, children[0].InstallmentSeq)
	assert.Equal(t, time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC), children[0].Date.UTC())
	assert.Equal(t, time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC), children[8].Date.UTC())
}

func TestCommitInstallmentsOnNonCreditAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	committer := NewCommitter(f.store)

	// Without a closing day the first installment stays on the purchase date.
	purchase := time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)
	result, err := committer.Commit(ctx, f.uc, &model.Draft{
		Date:             purchase,
		Kind:             model.KindExpense,
		AmountCents:      9000,
		Description:      "curso",
		AccountID:        f.accountID("Carteira"),
		InstallmentCount: 3,
	})
	require.NoError(t, err)

	parent, err := f.store.GetTransactionByID(ctx, result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, purchase, parent.Date.UTC())
	assert.Equal(t, int64(3000), parent.AmountCents)
}

func TestCommitTransferUpdatesGoal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	committer := NewCommitter(f.store)

	goal := &model.Goal{BudgetID: f.uc.BudgetID, Name: "Viagem", TargetCents: 500000}
	require.NoError(t, f.store.CreateGoal(ctx, goal))

	result, err := committer.Commit(ctx, f.uc, &model.Draft{
		Kind:        model.KindTransfer,
		AmountCents: 30000,
		AccountID:   f.accountID("Carteira"),
		GoalID:      goal.ID,
	})
	require.NoError(t, err)

	goals, err := f.store.GetGoals(ctx, f.uc.BudgetID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, int64(30000), goals[0].CurrentCents)

	// Undo rolls the saved amount back along with the row.
	require.NoError(t, committer.Undo(ctx, result.TransactionID))
	goals, err = f.store.GetGoals(ctx, f.uc.BudgetID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), goals[0].CurrentCents)
}

func TestUndoSingleTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	committer := NewCommitter(f.store)

	result, err := committer.Commit(ctx, f.uc, &model.Draft{
		Kind:        model.KindExpense,
		AmountCents: 5000,
		Description: "mercado",
	})
	require.NoError(t, err)

	require.NoError(t, committer.Undo(ctx, result.TransactionID))

	_, err = f.store.GetTransactionByID(ctx, result.TransactionID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Undoing again finds nothing.
	assert.ErrorIs(t, committer.Undo(ctx, result.TransactionID), common.ErrNothingToUndo)
	assert.ErrorIs(t, committer.Undo(ctx, ""), common.ErrNothingToUndo)
}

func TestUndoInstallmentsRemovesWholePlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	committer := NewCommitter(f.store)

	result, err := committer.Commit(ctx, f.uc, &model.Draft{
		Date:             time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC),
		Kind:             model.KindExpense,
		AmountCents:      60000,
		Description:      "sofá",
		AccountID:        f.accountID("Nubank"),
		InstallmentCount: 6,
	})
	require.NoError(t, err)

	require.NoError(t, committer.Undo(ctx, result.TransactionID))

	children, err := f.store.GetInstallmentChildren(ctx, result.TransactionID)
	require.NoError(t, err)
	assert.Empty(t, children)

	_, err = f.store.GetTransactionByID(ctx, result.TransactionID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
