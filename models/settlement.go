package models

import (
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// SettlementMode identifies which rule decided the winners
type SettlementMode string

const (
	SettlementModeUnanimousLikes   SettlementMode = "unanimous_likes"
	SettlementModeReviewerDecision SettlementMode = "reviewer_decision"
)

// Settlement is the write-once outcome of a wager
type Settlement struct {
	Mode                  SettlementMode             `json:"mode"`
	DecidingReviewerIndex *int                       `json:"deciding_reviewer_index,omitempty"`
	DecidingReviewer      string                     `json:"deciding_reviewer,omitempty"`
	DecidingLetters       string                     `json:"deciding_letters,omitempty"`
	Winners               []string                   `json:"winners"`
	Losers                []string                   `json:"losers"`
	Distributed           map[string]decimal.Decimal `json:"distributed"`
	Returned              map[string]decimal.Decimal `json:"returned"`
	PenaltyDistributed    map[string]decimal.Decimal `json:"penalty_distributed"`
	ReviewerBonus         decimal.Decimal            `json:"reviewer_bonus"`
	Unallocated           decimal.Decimal            `json:"unallocated"`
	SettledAt             time.Time                  `json:"settled_at"`
}

// Credit is one ledger credit produced by a settlement
type Credit struct {
	Username string
	Amount   decimal.Decimal
	Type     TransactionType
}

// Credits lists every non-zero payout in a stable order: returns, distributions,
// penalty shares, then the reviewer bonus.
func (s *Settlement) Credits() []Credit {
	var credits []Credit
	appendSorted := func(m map[string]decimal.Decimal, t TransactionType) {
		for _, name := range slices.Sorted(maps.Keys(m)) {
			if m[name].IsPositive() {
				credits = append(credits, Credit{Username: name, Amount: m[name], Type: t})
			}
		}
	}
	appendSorted(s.Returned, TransactionTypeSettlementReturn)
	appendSorted(s.Distributed, TransactionTypeSettlementDistribution)
	appendSorted(s.PenaltyDistributed, TransactionTypeSettlementPenalty)
	if s.ReviewerBonus.IsPositive() && s.DecidingReviewer != "" {
		credits = append(credits, Credit{Username: s.DecidingReviewer, Amount: s.ReviewerBonus, Type: TransactionTypeSettlementReviewerBonus})
	}
	return credits
}

// TotalAccounted sums every payout plus the unallocated remainder
func (s *Settlement) TotalAccounted() decimal.Decimal {
	total := s.ReviewerBonus.Add(s.Unallocated)
	for _, m := range []map[string]decimal.Decimal{s.Distributed, s.Returned, s.PenaltyDistributed} {
		for _, v := range m {
			total = total.Add(v)
		}
	}
	return total
}

// IsWinner reports whether the user is in the winner set
func (s *Settlement) IsWinner(username string) bool {
	return slices.Contains(s.Winners, username)
}

// Clone returns a deep copy
func (s *Settlement) Clone() *Settlement {
	if s == nil {
		return nil
	}
	c := *s
	if s.DecidingReviewerIndex != nil {
		idx := *s.DecidingReviewerIndex
		c.DecidingReviewerIndex = &idx
	}
	c.Winners = slices.Clone(s.Winners)
	c.Losers = slices.Clone(s.Losers)
	c.Distributed = maps.Clone(s.Distributed)
	c.Returned = maps.Clone(s.Returned)
	c.PenaltyDistributed = maps.Clone(s.PenaltyDistributed)
	return &c
}
