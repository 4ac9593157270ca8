package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gustavohm/granabot/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidMonth       = errors.New("month must be between 1 and 12")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateMonth ensures a year/month pair is plausible.
func validateMonth(year, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	if year < 2000 || year > 2200 {
		return fmt.Errorf("year out of range: %d", year)
	}
	return nil
}

// validateTransaction validates a single ledger row before writing it.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.BudgetID == "" {
		return fmt.Errorf("%w: missing budget ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	switch txn.Kind {
	case model.KindExpense, model.KindIncome, model.KindTransfer:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidTransaction, txn.Kind)
	}
	switch txn.Status {
	case model.StatusPending, model.StatusCleared:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransaction, txn.Status)
	}
	return nil
}
