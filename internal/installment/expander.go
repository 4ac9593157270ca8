// Package installment expands a single purchase into dated installments that
// respect credit-card billing cycles.
package installment

import (
	"errors"
	"fmt"
	"time"
)

// Count limits enforced at the NLU boundary. Receiving a count outside this
// range here is a contract violation by the caller, not something to repair.
const (
	MinCount = 2
	MaxCount = 24
)

// ErrInvalidCount reports a count outside [MinCount, MaxCount].
var ErrInvalidCount = errors.New("installment count out of range")

// Installment is one dated slice of a split purchase.
type Installment struct {
	Date        time.Time
	AmountCents int64
}

// Expand splits totalCents into count dated installments. Each installment is
// floor(total/count); the remainder is deliberately not redistributed, so the
// sum of installments may fall short of the total by up to count-1 cents.
// This mirrors the behavior the rest of the ledger was reconciled against;
// changing it would silently shift statement totals.
//
// When closingDay is set the paying account is a revolving-credit instrument:
// a purchase on or after the closing day belongs to the cycle that starts the
// following month, so the first installment is pushed there. Installments are
// one calendar month apart, anchored on the purchase day-of-month and clamped
// to the last day of shorter months, so a day-31 purchase never spills into
// the month after.
func Expand(totalCents int64, count int, firstDate time.Time, closingDay *int) ([]Installment, error) {
	if count < MinCount || count > MaxCount {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if totalCents <= 0 {
		return nil, fmt.Errorf("total must be positive, got %d", totalCents)
	}

	per := totalCents / int64(count)
	offset := 0
	if closingDay != nil && firstDate.Day() >= *closingDay {
		offset = 1
	}

	out := make([]Installment, count)
	for i := range out {
		out[i] = Installment{
			Date:        addMonths(firstDate, offset+i),
			AmountCents: per,
		}
	}
	return out, nil
}

// addMonths advances t by whole calendar months, clamping the day to the
// last day of the target month instead of letting the date normalize into
// the following one.
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m, 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	if last := target.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
