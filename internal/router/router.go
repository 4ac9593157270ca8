// Package router decides, from a normalized intent and the entity and
// scheduled-transaction matches, how a message should be resolved: committed
// outright, confirmed with the user, or turned into a question.
package router

import "github.com/gustavohm/granabot/internal/model"

// Global confidence thresholds. These are tuned against the multiplicative
// combination rule in CombinedConfidence; changing either requires
// re-deriving the other.
const (
	ThresholdHigh   = 0.85
	ThresholdMedium = 0.6

	// ScheduledAcceptFloor is the minimum hint-match confidence at which a
	// scheduled row is offered for fulfillment instead of asking for an
	// amount.
	ScheduledAcceptFloor = 0.5
)

// Outcome is the routing decision for one message.
type Outcome int

// Outcomes, ordered from most to least automatic.
const (
	// OutcomeAutoCommit writes a brand-new transaction with no interaction.
	OutcomeAutoCommit Outcome = iota
	// OutcomeConfirm asks the user to confirm the draft before committing.
	OutcomeConfirm
	// OutcomeConfirmScheduled asks the user to confirm marking a matched
	// scheduled row as fulfilled.
	OutcomeConfirmScheduled
	// OutcomeOfferNewCategory offers to create a category from the hint.
	OutcomeOfferNewCategory
	// OutcomeAskEntity walks the user through account/category choice lists.
	OutcomeAskEntity
	// OutcomeAskAmount asks the user to state an amount.
	OutcomeAskAmount
)

// Decision carries the routed outcome plus whatever the handler needs to act
// on it.
type Decision struct {
	Entity    *model.EntityMatch
	Scheduled *model.ScheduledMatch
	Outcome   Outcome
}

// CombinedConfidence is the single place intent and entity-match confidence
// are combined. The router's thresholds assume this exact rule.
func CombinedConfidence(intentConfidence, entityConfidence float64) float64 {
	return intentConfidence * entityConfidence
}

// Route applies the decision table for the register-expense and
// register-income intents.
//
// A scheduled-transaction match always routes through confirmation, even at
// high confidence: mutating an existing row is riskier than inserting a new
// one, so the asymmetry is intentional.
func Route(resp model.AIResponse, hintGiven bool, entity *model.EntityMatch, scheduled *model.ScheduledMatch, amountStated bool) Decision {
	if !amountStated {
		if scheduled != nil && scheduled.Confidence >= ScheduledAcceptFloor {
			return Decision{Outcome: OutcomeConfirmScheduled, Scheduled: scheduled}
		}
		return Decision{Outcome: OutcomeAskAmount}
	}

	if entity != nil {
		combined := CombinedConfidence(resp.Confidence, entity.Confidence)
		if combined >= ThresholdHigh && scheduled == nil {
			return Decision{Outcome: OutcomeAutoCommit, Entity: entity}
		}
		if combined >= ThresholdMedium {
			if scheduled != nil {
				return Decision{Outcome: OutcomeConfirmScheduled, Entity: entity, Scheduled: scheduled}
			}
			return Decision{Outcome: OutcomeConfirm, Entity: entity}
		}
	}

	if entity == nil && hintGiven && resp.Confidence >= ThresholdHigh {
		return Decision{Outcome: OutcomeOfferNewCategory}
	}

	return Decision{Outcome: OutcomeAskEntity}
}
