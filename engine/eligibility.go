package engine

import (
	"stakechat/models"
)

// CanAttachStake reports whether new escrow is still accepted
func CanAttachStake(w *models.Wager, t Timers) bool {
	return !w.IsSettled() && t.Main.Active && t.Review.Active
}

// CanSetGuess reports whether actor may submit or replace a guess.
// Reviewers may guess while the main timer runs or while their own cascade
// phase is active, until they have acted. Everyone else needs both timers.
func CanSetGuess(w *models.Wager, actor string, t Timers) bool {
	if w.IsSettled() {
		return false
	}
	if w.IsReviewer(actor) {
		if w.ReviewerActions[actor].HasActed {
			return false
		}
		if t.Main.Active {
			return true
		}
		name, _, ok := ActiveReviewer(w)
		return ok && name == actor && t.Phase != nil && t.Phase.Active
	}
	return t.Main.Active && t.Review.Active
}

// CanToggleVote reports whether actor may like or dislike. Non-reviewers are
// not bound by the review timer.
func CanToggleVote(w *models.Wager, actor string) bool {
	if w.IsSettled() {
		return false
	}
	if w.IsReviewer(actor) {
		return !w.ReviewerActions[actor].HasActed
	}
	return true
}

// AllParticipantsVoted reports whether every staker has liked or disliked
func AllParticipantsVoted(w *models.Wager) bool {
	for _, s := range w.Stakes {
		if !w.HasVoted(s.Username) {
			return false
		}
	}
	return true
}

// UnanimousLikeLetters returns the shared guess of every staker who liked.
// It fails when no staker liked or any liker lacks a full guess.
func UnanimousLikeLetters(w *models.Wager) (string, bool) {
	letters := ""
	for _, s := range w.Stakes {
		if !w.HasLiked(s.Username) {
			continue
		}
		g := w.Guesses[s.Username]
		if len(g) != models.GuessLength {
			return "", false
		}
		if letters == "" {
			letters = g
		} else if g != letters {
			return "", false
		}
	}
	return letters, letters != ""
}

// unanimousDecision settles by consensus. A lone staker has nobody to agree
// with, so at least two stakes are required.
func unanimousDecision(w *models.Wager) (Decision, bool) {
	if len(w.Stakes) < 2 || !AllParticipantsVoted(w) {
		return Decision{}, false
	}
	letters, ok := UnanimousLikeLetters(w)
	if !ok {
		return Decision{}, false
	}
	return Decision{Mode: models.SettlementModeUnanimousLikes, Letters: letters, ReviewerIndex: -1}, true
}

// AutoDecision returns the automatic settlement decision if one is permitted
func AutoDecision(w *models.Wager, t Timers) (Decision, bool) {
	if w.IsSettled() {
		return Decision{}, false
	}
	if d, ok := unanimousDecision(w); ok {
		return d, true
	}
	if !t.Review.Active && AllParticipantsVoted(w) {
		return firstGuessingReviewer(w), true
	}
	return Decision{}, false
}

// ImmediateDecision is the subset of AutoDecision that fires without waiting
// for timers.
func ImmediateDecision(w *models.Wager) (Decision, bool) {
	if w.IsSettled() {
		return Decision{}, false
	}
	return unanimousDecision(w)
}

// CanAutoSettle reports whether automatic settlement is permitted
func CanAutoSettle(w *models.Wager, t Timers) bool {
	_, ok := AutoDecision(w, t)
	return ok
}

// CanForceDecision reports whether actor may force a reviewer decision now
func CanForceDecision(w *models.Wager, actor string, t Timers) bool {
	if w.IsSettled() || CanAutoSettle(w, t) {
		return false
	}
	name, _, ok := ActiveReviewer(w)
	if !ok || name != actor || !w.ReviewerActions[actor].HasActed {
		return false
	}
	return t.Phase == nil || t.Phase.Active
}
