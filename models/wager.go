package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxReviewers caps the reviewer roster of a single wager
const MaxReviewers = 10

// GuessLength is the number of letters in a guess
const GuessLength = 2

// CoinMode controls how stakes may be attached and how winnings are split
type CoinMode string

const (
	CoinModeEqual        CoinMode = "equal"
	CoinModeProportional CoinMode = "proportional"
)

// Valid reports whether the coin mode is a known value
func (m CoinMode) Valid() bool {
	return m == CoinModeEqual || m == CoinModeProportional
}

// Stake is one participant's escrowed amount
type Stake struct {
	Username string          `json:"username"`
	Amount   decimal.Decimal `json:"amount"`
}

// Timer is a minute-granularity countdown anchored at StartedAt
type Timer struct {
	DurationMinutes int       `json:"duration_minutes"`
	StartedAt       time.Time `json:"started_at"`
	Expired         bool      `json:"expired"`
}

// ReviewerAction captures what a reviewer has submitted so far
type ReviewerAction struct {
	Guess    string     `json:"guess,omitempty"`
	Liked    bool       `json:"liked"`
	Disliked bool       `json:"disliked"`
	HasActed bool       `json:"has_acted"`
	ActedAt  *time.Time `json:"acted_at,omitempty"`
}

// ReviewerPhase is one reviewer's decision window in a cascade
type ReviewerPhase struct {
	ReviewerIndex   int       `json:"reviewer_index"`
	StartedAt       time.Time `json:"started_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Active          bool      `json:"active"`
	Expired         bool      `json:"expired"`
}

// ReviewerCascade tracks sequential reviewer phases for multi-reviewer wagers
type ReviewerCascade struct {
	CurrentIndex int             `json:"current_index"`
	Phases       []ReviewerPhase `json:"phases"`
	Concluded    bool            `json:"concluded"`
}

// Wager is a message carrying a stake-and-guess game
type Wager struct {
	ID                   uuid.UUID                 `db:"id" json:"id"`
	Sender               string                    `db:"sender" json:"sender"`
	Recipient            *string                   `db:"recipient" json:"recipient,omitempty"`
	GroupID              *string                   `db:"group_id" json:"group_id,omitempty"`
	Content              string                    `db:"content" json:"content"`
	CoinMode             CoinMode                  `db:"coin_mode" json:"coin_mode"`
	MainTimer            Timer                     `db:"main_timer" json:"main_timer"`
	ReviewTimer          Timer                     `db:"review_timer" json:"review_timer"`
	Reviewers            []string                  `db:"reviewers" json:"reviewers"`
	ReviewerPhaseMinutes int                       `db:"reviewer_phase_minutes" json:"reviewer_phase_minutes"`
	Stakes               []Stake                   `db:"stakes" json:"stakes"`
	Guesses              map[string]string         `db:"guesses" json:"guesses"`
	Likes                []string                  `db:"likes" json:"likes"`
	Dislikes             []string                  `db:"dislikes" json:"dislikes"`
	ReviewerActions      map[string]ReviewerAction `db:"reviewer_actions" json:"reviewer_actions"`
	Cascade              ReviewerCascade           `db:"cascade" json:"cascade"`
	Settlement           *Settlement               `db:"settlement" json:"settlement,omitempty"`
	IsPublic             bool                      `db:"is_public" json:"is_public"`
	PublicBy             *string                   `db:"public_by" json:"public_by,omitempty"`
	PublicAt             *time.Time                `db:"public_at" json:"public_at,omitempty"`
	ForwardedFrom        *uuid.UUID                `db:"forwarded_from" json:"forwarded_from,omitempty"`
	CreatedAt            time.Time                 `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time                 `db:"updated_at" json:"updated_at"`
}

// IsSettled reports whether the settlement result has been written
func (w *Wager) IsSettled() bool {
	return w.Settlement != nil
}

// StakeOf returns the escrowed amount for a user, zero if none
func (w *Wager) StakeOf(username string) decimal.Decimal {
	for _, s := range w.Stakes {
		if s.Username == username {
			return s.Amount
		}
	}
	return decimal.Zero
}

// HasStake reports whether the user has attached a stake
func (w *Wager) HasStake(username string) bool {
	for _, s := range w.Stakes {
		if s.Username == username {
			return true
		}
	}
	return false
}

// AddStake adds amount to the user's stake, appending a new entry on first attach
func (w *Wager) AddStake(username string, amount decimal.Decimal) {
	for i := range w.Stakes {
		if w.Stakes[i].Username == username {
			w.Stakes[i].Amount = w.Stakes[i].Amount.Add(amount)
			return
		}
	}
	w.Stakes = append(w.Stakes, Stake{Username: username, Amount: amount})
}

// Stakers returns staker usernames in attachment order
func (w *Wager) Stakers() []string {
	names := make([]string, 0, len(w.Stakes))
	for _, s := range w.Stakes {
		names = append(names, s.Username)
	}
	return names
}

// TotalStaked sums every escrowed amount
func (w *Wager) TotalStaked() decimal.Decimal {
	total := decimal.Zero
	for _, s := range w.Stakes {
		total = total.Add(s.Amount)
	}
	return total
}

// ReviewerIndex returns the roster position of a reviewer, or -1
func (w *Wager) ReviewerIndex(username string) int {
	return slices.Index(w.Reviewers, username)
}

// IsReviewer reports whether the user is on the reviewer roster
func (w *Wager) IsReviewer(username string) bool {
	return w.ReviewerIndex(username) >= 0
}

// HasLiked reports whether the user is in the like set
func (w *Wager) HasLiked(username string) bool {
	return slices.Contains(w.Likes, username)
}

// HasDisliked reports whether the user is in the dislike set
func (w *Wager) HasDisliked(username string) bool {
	return slices.Contains(w.Dislikes, username)
}

// HasVoted reports whether the user has liked or disliked
func (w *Wager) HasVoted(username string) bool {
	return w.HasLiked(username) || w.HasDisliked(username)
}

// IsParticipant reports whether the user is sender, recipient, reviewer or staker
func (w *Wager) IsParticipant(username string) bool {
	if w.Sender == username || (w.Recipient != nil && *w.Recipient == username) {
		return true
	}
	return w.IsReviewer(username) || w.HasStake(username)
}

// Clone returns a deep copy so callers can mutate without aliasing
func (w *Wager) Clone() *Wager {
	if w == nil {
		return nil
	}
	c := *w
	c.Recipient = cloneString(w.Recipient)
	c.GroupID = cloneString(w.GroupID)
	c.PublicBy = cloneString(w.PublicBy)
	if w.PublicAt != nil {
		t := *w.PublicAt
		c.PublicAt = &t
	}
	if w.ForwardedFrom != nil {
		id := *w.ForwardedFrom
		c.ForwardedFrom = &id
	}
	c.Reviewers = slices.Clone(w.Reviewers)
	c.Stakes = slices.Clone(w.Stakes)
	c.Likes = slices.Clone(w.Likes)
	c.Dislikes = slices.Clone(w.Dislikes)
	c.Guesses = make(map[string]string, len(w.Guesses))
	for k, v := range w.Guesses {
		c.Guesses[k] = v
	}
	c.ReviewerActions = make(map[string]ReviewerAction, len(w.ReviewerActions))
	for k, v := range w.ReviewerActions {
		if v.ActedAt != nil {
			t := *v.ActedAt
			v.ActedAt = &t
		}
		c.ReviewerActions[k] = v
	}
	c.Cascade.Phases = slices.Clone(w.Cascade.Phases)
	c.Settlement = w.Settlement.Clone()
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
