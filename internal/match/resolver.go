package match

import (
	"math"

	"github.com/gustavohm/granabot/internal/model"
)

// Scoring constants for scheduled-transaction reconciliation. Income matches
// get a higher base than expenses because income sources are far fewer and an
// id match is a much stronger signal there.
const (
	baseExpenseLink = 0.5
	baseIncomeLink  = 0.7

	amountTolerance = 0.3 // fraction of the candidate amount
	amountMaxCredit = 0.4

	hintLinkCredit    = 0.7
	hintMonthCredit   = 0.2
	hintNameWeight    = 0.5
	hintDescWeight    = 0.3
	hintNameFloor     = 0.3
	hintDescFloor     = 0.5
	hintAcceptFloor   = 0.4
	amountAcceptFloor = 0.5
)

// amountProximity returns the amount-similarity credit in [0, amountMaxCredit]:
// full credit on an exact match, linear decay as the absolute difference
// approaches 30% of the candidate's amount. The band is open at its edge: a
// difference of exactly 30% earns nothing, so any positive credit implies
// the stated amount is strictly inside the tolerance.
func amountProximity(stated, scheduled int64) float64 {
	if scheduled == 0 {
		if stated == 0 {
			return amountMaxCredit
		}
		return 0
	}
	diff := math.Abs(float64(stated - scheduled))
	limit := amountTolerance * math.Abs(float64(scheduled))
	if diff >= limit {
		return 0
	}
	return amountMaxCredit * (1 - diff/limit)
}

// ByAmount finds the best pending row for a stated amount within the target
// month. linkID is the already-resolved category or income-source id; rows
// linked to a different entity still compete, they just start from zero.
func ByAmount(pending []model.ScheduledTransaction, kind model.TransactionKind, linkID string, amountCents int64, year int, month int) *model.ScheduledMatch {
	var best *model.ScheduledMatch
	for _, row := range pending {
		if row.Kind != kind {
			continue
		}
		if row.Date.Year() != year || int(row.Date.Month()) != month {
			continue
		}

		score := 0.0
		if linkID != "" && scheduledLinkID(row) == linkID {
			if kind == model.KindIncome {
				score += baseIncomeLink
			} else {
				score += baseExpenseLink
			}
		}
		score += amountProximity(amountCents, row.AmountCents)

		if score <= amountAcceptFloor {
			continue
		}
		if best == nil || score > best.Confidence {
			best = &model.ScheduledMatch{Scheduled: row, Confidence: score}
		}
	}
	return best
}

// ByHint finds the best pending row when no amount was stated, scanning all
// pending rows regardless of month since scheduled items can lag. The score
// combines the entity link, a recency boost for rows due in the requested
// month, and word-overlap similarity against both the row's display name
// (weighted higher) and its free-text description.
func ByHint(pending []model.ScheduledTransaction, kind model.TransactionKind, linkID, hint string, year int, month int) *model.ScheduledMatch {
	var best *model.ScheduledMatch
	for _, row := range pending {
		if row.Kind != kind {
			continue
		}

		score := 0.0
		if linkID != "" && scheduledLinkID(row) == linkID {
			score += hintLinkCredit
		}
		if row.Date.Year() == year && int(row.Date.Month()) == month {
			score += hintMonthCredit
		}
		if hint != "" {
			if overlap := WordOverlap(hint, row.DisplayName); overlap > hintNameFloor {
				score += hintNameWeight * overlap
			}
			if overlap := WordOverlap(hint, row.Description); overlap > hintDescFloor {
				score += hintDescWeight * overlap
			}
		}

		if score < hintAcceptFloor {
			continue
		}
		if best == nil || score > best.Confidence {
			best = &model.ScheduledMatch{Scheduled: row, Confidence: score}
		}
	}
	return best
}

func scheduledLinkID(row model.ScheduledTransaction) string {
	if row.Kind == model.KindIncome {
		return row.IncomeSourceID
	}
	return row.CategoryID
}
