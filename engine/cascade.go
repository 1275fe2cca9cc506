package engine

import (
	"time"

	"stakechat/models"
)

// CascadeState is the coarse position of a reviewer cascade
type CascadeState int

const (
	CascadeNotStarted CascadeState = iota
	CascadeActive
	CascadeConcluded
)

func (s CascadeState) String() string {
	switch s {
	case CascadeNotStarted:
		return "not_started"
	case CascadeActive:
		return "active"
	case CascadeConcluded:
		return "concluded"
	default:
		return "unknown"
	}
}

// UsesCascade reports whether the wager decides through sequential reviewer phases
func UsesCascade(w *models.Wager) bool {
	return len(w.Reviewers) > 1
}

// StateOf returns the cascade state of a wager
func StateOf(w *models.Wager) CascadeState {
	switch {
	case w.Cascade.Concluded:
		return CascadeConcluded
	case activePhase(w) != nil:
		return CascadeActive
	default:
		return CascadeNotStarted
	}
}

func activePhase(w *models.Wager) *models.ReviewerPhase {
	for i := range w.Cascade.Phases {
		if w.Cascade.Phases[i].Active {
			return &w.Cascade.Phases[i]
		}
	}
	return nil
}

// ActiveReviewer returns the reviewer whose decision currently counts. Before a
// cascade starts that is the first reviewer.
func ActiveReviewer(w *models.Wager) (string, int, bool) {
	if w.IsSettled() || len(w.Reviewers) == 0 {
		return "", -1, false
	}
	switch StateOf(w) {
	case CascadeConcluded:
		return "", -1, false
	case CascadeActive:
		idx := w.Cascade.CurrentIndex
		return w.Reviewers[idx], idx, true
	default:
		return w.Reviewers[0], 0, true
	}
}

// StartCascade activates the first reviewer phase. It is a no-op for wagers
// with a single reviewer or a cascade already under way.
func StartCascade(w *models.Wager, now time.Time) bool {
	if !UsesCascade(w) || StateOf(w) != CascadeNotStarted || len(w.Cascade.Phases) > 0 {
		return false
	}
	w.Cascade.CurrentIndex = 0
	w.Cascade.Phases = append(w.Cascade.Phases, newPhase(0, w.ReviewerPhaseMinutes, now))
	return true
}

// PhaseExpired reports whether the running phase has used up its window
func PhaseExpired(w *models.Wager, now time.Time) bool {
	p := activePhase(w)
	return p != nil && !EvaluatePhase(*p, now).Active
}

// ResolvePhase closes the active phase, either because it timed out or because
// its reviewer forced a decision, and opens the next one. It returns true once
// the last reviewer's phase has been closed.
func ResolvePhase(w *models.Wager, now time.Time) bool {
	p := activePhase(w)
	if p == nil {
		return w.Cascade.Concluded
	}
	p.Active = false
	p.Expired = true

	next := w.Cascade.CurrentIndex + 1
	if next >= len(w.Reviewers) {
		w.Cascade.Concluded = true
		return true
	}
	w.Cascade.CurrentIndex = next
	w.Cascade.Phases = append(w.Cascade.Phases, newPhase(next, w.ReviewerPhaseMinutes, now))
	return false
}

func newPhase(idx, minutes int, now time.Time) models.ReviewerPhase {
	return models.ReviewerPhase{
		ReviewerIndex:   idx,
		StartedAt:       now,
		DurationMinutes: minutes,
		Active:          true,
	}
}

// ReviewerDecision builds a decision from the reviewer at idx. A missing guess
// yields empty letters, which settles as a full refund.
func ReviewerDecision(w *models.Wager, idx int) Decision {
	if idx < 0 || idx >= len(w.Reviewers) {
		return Decision{Mode: models.SettlementModeReviewerDecision, ReviewerIndex: -1}
	}
	return Decision{
		Mode:          models.SettlementModeReviewerDecision,
		Letters:       w.Guesses[w.Reviewers[idx]],
		ReviewerIndex: idx,
	}
}

// firstGuessingReviewer picks the first reviewer in roster order with a guess
func firstGuessingReviewer(w *models.Wager) Decision {
	for i, r := range w.Reviewers {
		if len(w.Guesses[r]) == models.GuessLength {
			return ReviewerDecision(w, i)
		}
	}
	return Decision{Mode: models.SettlementModeReviewerDecision, ReviewerIndex: -1}
}
