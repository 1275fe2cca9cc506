// Package engine holds the pure rules of a wager: timer evaluation, eligibility,
// the reviewer cascade and settlement arithmetic. Nothing here performs I/O; every
// function takes the wager snapshot and the current instant.
package engine

import (
	"time"

	"stakechat/models"
)

// TimerState is the derived view of a timer at an instant
type TimerState struct {
	ElapsedMinutes   int
	RemainingMinutes int
	Active           bool
}

// EvaluateTimer computes whole elapsed minutes since the timer started.
// A timer flagged expired is always inactive.
func EvaluateTimer(t models.Timer, now time.Time) TimerState {
	return evaluate(t.StartedAt, t.DurationMinutes, t.Expired, now)
}

// EvaluatePhase applies the same arithmetic to a reviewer phase
func EvaluatePhase(p models.ReviewerPhase, now time.Time) TimerState {
	return evaluate(p.StartedAt, p.DurationMinutes, p.Expired, now)
}

func evaluate(startedAt time.Time, duration int, expired bool, now time.Time) TimerState {
	elapsed := 0
	if now.After(startedAt) {
		elapsed = int(now.Sub(startedAt) / time.Minute)
	}
	if expired {
		return TimerState{ElapsedMinutes: elapsed}
	}
	remaining := max(0, duration-elapsed)
	return TimerState{
		ElapsedMinutes:   elapsed,
		RemainingMinutes: remaining,
		Active:           remaining > 0,
	}
}

// Timers bundles every timer of a wager evaluated at one instant
type Timers struct {
	Now    time.Time
	Main   TimerState
	Review TimerState
	// Phase is the active cascade phase, nil when no phase is running
	Phase *TimerState
}

// EvaluateTimers evaluates the main, review and active phase timers
func EvaluateTimers(w *models.Wager, now time.Time) Timers {
	t := Timers{
		Now:    now,
		Main:   EvaluateTimer(w.MainTimer, now),
		Review: EvaluateTimer(w.ReviewTimer, now),
	}
	if phase := activePhase(w); phase != nil {
		ps := EvaluatePhase(*phase, now)
		t.Phase = &ps
	}
	return t
}

// BothExpired reports whether the main and review timers have run out
func (t Timers) BothExpired() bool {
	return !t.Main.Active && !t.Review.Active
}
