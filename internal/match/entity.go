package match

import (
	"strings"

	"github.com/gustavohm/granabot/internal/model"
)

// Confidence tiers assigned by the entity matcher. Exact and substring
// matches are trusted fully; alias and group matches sit below the
// auto-commit threshold so they always need a strong intent confidence on
// top before any ledger write happens without confirmation.
const (
	confidenceExact     = 1.0
	confidenceSubstring = 0.8
	confidenceAlias     = 0.7
	confidenceGroup     = 0.6
)

// Candidate is one entity name offered for matching. Group is only set for
// categories, where the parent-group label serves as a last-resort match.
type Candidate struct {
	ID    string
	Name  string
	Group string
}

// Entity fuzzy-matches a free-text hint against configured entity names.
// First tier that hits wins; an empty hint yields nil without scanning.
func Entity(hint string, candidates []Candidate) *model.EntityMatch {
	normHint := Normalize(hint)
	if normHint == "" {
		return nil
	}

	// Exact equality after normalization.
	for _, c := range candidates {
		if Normalize(c.Name) == normHint {
			return &model.EntityMatch{EntityID: c.ID, Name: c.Name, Confidence: confidenceExact}
		}
	}

	// Substring containment either direction.
	for _, c := range candidates {
		name := Normalize(c.Name)
		if name == "" {
			continue
		}
		if strings.Contains(name, normHint) || strings.Contains(normHint, name) {
			return &model.EntityMatch{EntityID: c.ID, Name: c.Name, Confidence: confidenceSubstring}
		}
	}

	// Shared alias group.
	for _, c := range candidates {
		if sameAliasGroup(normHint, Normalize(c.Name)) {
			return &model.EntityMatch{EntityID: c.ID, Name: c.Name, Confidence: confidenceAlias}
		}
	}

	// Parent-group label, categories only.
	for _, c := range candidates {
		group := Normalize(c.Group)
		if group == "" {
			continue
		}
		if group == normHint || strings.Contains(group, normHint) || strings.Contains(normHint, group) ||
			sameAliasGroup(normHint, group) {
			return &model.EntityMatch{EntityID: c.ID, Name: c.Name, Confidence: confidenceGroup}
		}
	}

	return nil
}

// CategoryCandidates adapts configured categories for matching.
func CategoryCandidates(categories []model.Category) []Candidate {
	out := make([]Candidate, 0, len(categories))
	for _, c := range categories {
		if !c.IsActive {
			continue
		}
		out = append(out, Candidate{ID: c.ID, Name: c.Name, Group: c.GroupName})
	}
	return out
}

// IncomeSourceCandidates adapts configured income sources for matching.
func IncomeSourceCandidates(sources []model.IncomeSource) []Candidate {
	out := make([]Candidate, 0, len(sources))
	for _, s := range sources {
		if !s.IsActive {
			continue
		}
		out = append(out, Candidate{ID: s.ID, Name: s.Name})
	}
	return out
}

// AccountCandidates adapts configured accounts for matching.
func AccountCandidates(accounts []model.Account) []Candidate {
	out := make([]Candidate, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, Candidate{ID: a.ID, Name: a.Name})
	}
	return out
}

// GoalCandidates adapts configured goals for matching.
func GoalCandidates(goals []model.Goal) []Candidate {
	out := make([]Candidate, 0, len(goals))
	for _, g := range goals {
		out = append(out, Candidate{ID: g.ID, Name: g.Name})
	}
	return out
}
