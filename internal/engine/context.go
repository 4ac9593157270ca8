package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/gustavohm/granabot/internal/common"
	"github.com/gustavohm/granabot/internal/model"
)

// buildUserContext assembles the per-message snapshot of everything the
// matchers and the prompt need. Rebuilt on every message; nothing here is
// cached across turns.
func (e *Engine) buildUserContext(ctx context.Context, chatID int64) (*model.UserContext, error) {
	member, err := e.store.GetMemberByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("%w: chat %d", common.ErrNoBudget, chatID)
	}

	now := e.clock()

	uc := &model.UserContext{
		Now:      now,
		BudgetID: member.BudgetID,
		MemberID: member.ID,
	}

	if uc.Accounts, err = e.store.GetAccounts(ctx, member.BudgetID); err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	for _, a := range uc.Accounts {
		if a.IsDefault {
			uc.DefaultAccountID = a.ID
			break
		}
	}

	if uc.Categories, err = e.store.GetCategories(ctx, member.BudgetID); err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}
	if uc.IncomeSources, err = e.store.GetIncomeSources(ctx, member.BudgetID); err != nil {
		return nil, fmt.Errorf("loading income sources: %w", err)
	}
	if uc.Goals, err = e.store.GetGoals(ctx, member.BudgetID); err != nil {
		return nil, fmt.Errorf("loading goals: %w", err)
	}
	if uc.PendingThisMonth, err = e.store.GetPendingTransactions(ctx, member.BudgetID, now.Year(), int(now.Month())); err != nil {
		return nil, fmt.Errorf("loading pending transactions: %w", err)
	}
	return uc, nil
}

// defaultClock is the wall clock. Tests override Engine.clock to pin dates.
func defaultClock() time.Time {
	return time.Now().UTC()
}
