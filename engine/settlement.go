package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"stakechat/models"
)

// PenaltyUnit is taken from each loser's stake in reviewer-decided settlements
var PenaltyUnit = decimal.NewFromInt(1)

// Decision names the rule and letters that decide a settlement
type Decision struct {
	Mode    models.SettlementMode
	Letters string
	// ReviewerIndex is the deciding reviewer's roster position, -1 for none
	ReviewerIndex int
}

// distributor splits an amount among winners
type distributor interface {
	split(amount decimal.Decimal, winners []models.Stake) (shares []decimal.Decimal, leftover decimal.Decimal)
}

// equalSplit floors amount/n per winner and gives the remainder to the first
type equalSplit struct{}

func (equalSplit) split(amount decimal.Decimal, winners []models.Stake) ([]decimal.Decimal, decimal.Decimal) {
	shares := make([]decimal.Decimal, len(winners))
	if len(winners) == 0 {
		return shares, amount
	}
	n := decimal.NewFromInt(int64(len(winners)))
	per := amount.Div(n).Floor()
	for i := range shares {
		shares[i] = per
	}
	shares[0] = shares[0].Add(amount.Sub(per.Mul(n)))
	return shares, decimal.Zero
}

// proportionalSplit floors each winner's stake-weighted share. The fractional
// remainder is not redistributed and is reported as leftover.
type proportionalSplit struct{}

func (proportionalSplit) split(amount decimal.Decimal, winners []models.Stake) ([]decimal.Decimal, decimal.Decimal) {
	shares := make([]decimal.Decimal, len(winners))
	total := decimal.Zero
	for _, w := range winners {
		total = total.Add(w.Amount)
	}
	if len(winners) == 0 || !total.IsPositive() {
		return shares, amount
	}
	paid := decimal.Zero
	for i, w := range winners {
		shares[i] = amount.Mul(w.Amount).Div(total).Floor()
		paid = paid.Add(shares[i])
	}
	return shares, amount.Sub(paid)
}

func distributorFor(mode models.CoinMode) distributor {
	if mode == models.CoinModeProportional {
		return proportionalSplit{}
	}
	return equalSplit{}
}

// Settle computes the settlement result for a wager. It does not mutate w.
func Settle(w *models.Wager, d Decision, now time.Time) *models.Settlement {
	s := &models.Settlement{
		Mode:               d.Mode,
		DecidingLetters:    d.Letters,
		Winners:            []string{},
		Losers:             []string{},
		Distributed:        map[string]decimal.Decimal{},
		Returned:           map[string]decimal.Decimal{},
		PenaltyDistributed: map[string]decimal.Decimal{},
		ReviewerBonus:      decimal.Zero,
		Unallocated:        decimal.Zero,
		SettledAt:          now,
	}
	if d.ReviewerIndex >= 0 && d.ReviewerIndex < len(w.Reviewers) {
		idx := d.ReviewerIndex
		s.DecidingReviewerIndex = &idx
		s.DecidingReviewer = w.Reviewers[idx]
	}

	var winners, losers []models.Stake
	if d.Letters != "" {
		for _, st := range w.Stakes {
			if isWinner(w, d, st.Username) {
				winners = append(winners, st)
				s.Winners = append(s.Winners, st.Username)
			} else {
				losers = append(losers, st)
				s.Losers = append(s.Losers, st.Username)
			}
		}
	}

	// Nobody to pay out to: every stake goes home untouched
	if len(winners) == 0 {
		for _, st := range w.Stakes {
			credit(s.Returned, st.Username, st.Amount)
		}
		return s
	}

	for _, st := range winners {
		credit(s.Returned, st.Username, st.Amount)
	}

	// Forfeits are pooled over all losers and floored once per winner, so
	// the proportional leak stays below len(winners).
	pool, forfeit := decimal.Zero, decimal.Zero
	for _, st := range losers {
		penalty := decimal.Zero
		if d.Mode == models.SettlementModeReviewerDecision && w.Guesses[st.Username] != d.Letters {
			penalty = decimal.Min(PenaltyUnit, st.Amount)
		}
		pool = pool.Add(penalty)
		forfeit = forfeit.Add(st.Amount.Sub(penalty))
	}

	if forfeit.IsPositive() {
		shares, leftover := distributorFor(w.CoinMode).split(forfeit, winners)
		for i, share := range shares {
			credit(s.Distributed, winners[i].Username, share)
		}
		s.Unallocated = leftover
	}
	if pool.IsPositive() {
		distributePenalties(s, pool, winners)
	}
	return s
}

func isWinner(w *models.Wager, d Decision, username string) bool {
	if w.Guesses[username] != d.Letters {
		return false
	}
	if d.Mode == models.SettlementModeUnanimousLikes {
		return w.HasLiked(username)
	}
	return true
}

// distributePenalties splits the pool over the winners and the deciding
// reviewer, remainder to the first recipient.
func distributePenalties(s *models.Settlement, pool decimal.Decimal, winners []models.Stake) {
	recipients := make([]models.Stake, 0, len(winners)+1)
	recipients = append(recipients, winners...)
	if s.DecidingReviewer != "" && !s.IsWinner(s.DecidingReviewer) {
		recipients = append(recipients, models.Stake{Username: s.DecidingReviewer})
	}
	shares, _ := equalSplit{}.split(pool, recipients)
	for i, share := range shares {
		name := recipients[i].Username
		if name == s.DecidingReviewer && !s.IsWinner(name) {
			s.ReviewerBonus = s.ReviewerBonus.Add(share)
			continue
		}
		credit(s.PenaltyDistributed, name, share)
	}
}

func credit(m map[string]decimal.Decimal, name string, amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	m[name] = m[name].Add(amount)
}

// Conclude writes the settlement onto the wager and closes every timer
func Conclude(w *models.Wager, s *models.Settlement) {
	w.Settlement = s
	w.MainTimer.Expired = true
	w.ReviewTimer.Expired = true
	for i := range w.Cascade.Phases {
		if w.Cascade.Phases[i].Active {
			w.Cascade.Phases[i].Active = false
			w.Cascade.Phases[i].Expired = true
		}
	}
	if UsesCascade(w) {
		w.Cascade.Concluded = true
	}
}
