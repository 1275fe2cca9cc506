package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"stakechat/config"
	"stakechat/engine"
	"stakechat/events"
	"stakechat/models"
)

const (
	maxTimerMinutes = 7 * 24 * 60
	publicListLimit = 50
)

type wagerService struct {
	uowFactory      UnitOfWorkFactory
	clock           Clock
	locks           *wagerLocks
	tickConcurrency int
}

// NewWagerService creates a new wager orchestrator
func NewWagerService(uowFactory UnitOfWorkFactory, clock Clock, cfg *config.Config) WagerService {
	concurrency := cfg.TickConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &wagerService{
		uowFactory:      uowFactory,
		clock:           clock,
		locks:           newWagerLocks(),
		tickConcurrency: concurrency,
	}
}

// CreateWager validates and opens a new wager with both timers starting now
func (s *wagerService) CreateWager(ctx context.Context, req CreateWagerRequest) (*models.Wager, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wager, err := s.openWager(ctx, uow, req, nil)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"wagerID":   wager.ID,
		"sender":    wager.Sender,
		"reviewers": len(wager.Reviewers),
		"coinMode":  wager.CoinMode,
	}).Info("Wager created")
	return wager, nil
}

func (s *wagerService) openWager(ctx context.Context, uow UnitOfWork, req CreateWagerRequest, forwardedFrom *uuid.UUID) (*models.Wager, error) {
	sender, err := uow.AccountRepository().GetByUsername(ctx, req.Sender)
	if err != nil {
		return nil, fmt.Errorf("failed to get sender account: %w", err)
	}
	if sender == nil {
		return nil, validationError("sender %s has no account", req.Sender)
	}

	now := s.clock.Now()
	wager := &models.Wager{
		ID:                   uuid.New(),
		Sender:               req.Sender,
		Recipient:            optionalString(req.Recipient),
		GroupID:              optionalString(req.GroupID),
		Content:              req.Content,
		CoinMode:             req.CoinMode,
		MainTimer:            models.Timer{DurationMinutes: req.MainTimerMinutes, StartedAt: now},
		ReviewTimer:          models.Timer{DurationMinutes: req.ReviewTimerMinutes, StartedAt: now},
		Reviewers:            req.Reviewers,
		ReviewerPhaseMinutes: req.ReviewerPhaseMinutes,
		Stakes:               []models.Stake{},
		Guesses:              map[string]string{},
		Likes:                []string{},
		Dislikes:             []string{},
		ReviewerActions:      map[string]models.ReviewerAction{},
		ForwardedFrom:        forwardedFrom,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := uow.WagerRepository().Save(ctx, wager); err != nil {
		return nil, fmt.Errorf("failed to save wager: %w", err)
	}

	uow.EventBus().Publish(events.WagerCreatedEvent{
		WagerID:       wager.ID,
		Sender:        wager.Sender,
		Recipient:     wager.Recipient,
		GroupID:       wager.GroupID,
		Reviewers:     wager.Reviewers,
		ForwardedFrom: forwardedFrom,
	})
	return wager, nil
}

func validateCreateRequest(req CreateWagerRequest) error {
	if strings.TrimSpace(req.Sender) == "" {
		return validationError("sender is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return validationError("content is required")
	}
	if err := validateTarget(req.Recipient, req.GroupID); err != nil {
		return err
	}
	if !req.CoinMode.Valid() {
		return validationError("coin mode must be %q or %q", models.CoinModeEqual, models.CoinModeProportional)
	}
	if err := validateMinutes("main timer", req.MainTimerMinutes); err != nil {
		return err
	}
	if err := validateMinutes("review timer", req.ReviewTimerMinutes); err != nil {
		return err
	}
	if len(req.Reviewers) == 0 || len(req.Reviewers) > models.MaxReviewers {
		return validationError("between 1 and %d reviewers are required", models.MaxReviewers)
	}
	seen := make(map[string]bool, len(req.Reviewers))
	for _, r := range req.Reviewers {
		if strings.TrimSpace(r) == "" {
			return validationError("reviewer names cannot be empty")
		}
		if seen[r] {
			return validationError("reviewer %s is listed twice", r)
		}
		seen[r] = true
	}
	if len(req.Reviewers) > 1 {
		if err := validateMinutes("reviewer phase", req.ReviewerPhaseMinutes); err != nil {
			return err
		}
	}
	return nil
}

func validateTarget(recipient, groupID string) error {
	hasRecipient := strings.TrimSpace(recipient) != ""
	hasGroup := strings.TrimSpace(groupID) != ""
	if hasRecipient == hasGroup {
		return validationError("exactly one of recipient or group is required")
	}
	return nil
}

func validateMinutes(name string, minutes int) error {
	if minutes < 1 || minutes > maxTimerMinutes {
		return validationError("%s must be between 1 and %d minutes", name, maxTimerMinutes)
	}
	return nil
}

// AttachStake escrows amount from actor into the wager
func (s *wagerService) AttachStake(ctx context.Context, wagerID uuid.UUID, actor string, amount decimal.Decimal) (*models.Wager, error) {
	if actor == "" {
		return nil, validationError("actor is required")
	}
	if err := validateAmount("stake", amount); err != nil {
		return nil, err
	}

	return s.mutate(ctx, wagerID, "attach_stake", func(uow UnitOfWork, w *models.Wager, t engine.Timers) error {
		if err := requireOpen(w); err != nil {
			return err
		}
		if !engine.CanAttachStake(w, t) {
			return timerClosedError("stakes can no longer be attached")
		}
		if w.CoinMode == models.CoinModeEqual && len(w.Stakes) > 0 {
			if w.HasStake(actor) {
				return validationError("equal mode allows one stake per participant")
			}
			if required := w.Stakes[0].Amount; !amount.Equal(required) {
				return validationError("equal mode requires a stake of exactly %s", required)
			}
		}

		_, err := debitAccount(ctx, uow, actor, amount, models.TransactionTypeStakeEscrow, &w.ID, map[string]any{
			"wager_id": w.ID.String(),
		})
		if err != nil {
			if errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrNotFound) {
				return newError(KindOf(err), "%s cannot stake %s: %v", actor, amount, err)
			}
			return fmt.Errorf("failed to debit stake: %w", err)
		}

		w.AddStake(actor, amount)
		uow.EventBus().Publish(events.StakeAttachedEvent{
			WagerID:     w.ID,
			Username:    actor,
			Amount:      amount,
			TotalStaked: w.TotalStaked(),
		})
		return nil
	})
}

// SetGuess records actor's two-letter guess
func (s *wagerService) SetGuess(ctx context.Context, wagerID uuid.UUID, actor string, letters string) (*models.Wager, error) {
	if actor == "" {
		return nil, validationError("actor is required")
	}
	guess, err := normalizeGuess(letters)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, wagerID, "set_guess", func(uow UnitOfWork, w *models.Wager, t engine.Timers) error {
		if err := requireOpen(w); err != nil {
			return err
		}
		if w.ReviewerActions[actor].HasActed {
			return timerClosedError("reviewer %s has already decided", actor)
		}
		if !engine.CanSetGuess(w, actor, t) {
			return timerClosedError("guesses are closed")
		}
		w.Guesses[actor] = guess
		s.syncReviewerAction(w, actor)
		return nil
	})
}

func normalizeGuess(letters string) (string, error) {
	guess := strings.ToUpper(strings.TrimSpace(letters))
	if len(guess) != models.GuessLength {
		return "", validationError("guess must be exactly %d letters", models.GuessLength)
	}
	for _, r := range guess {
		if r < 'A' || r > 'Z' {
			return "", validationError("guess must contain letters A-Z only")
		}
	}
	return guess, nil
}

// ToggleLike adds actor to the like set, or removes them if already there
func (s *wagerService) ToggleLike(ctx context.Context, wagerID uuid.UUID, actor string) (*models.Wager, error) {
	return s.toggleVote(ctx, wagerID, actor, true)
}

// ToggleDislike adds actor to the dislike set, or removes them if already there
func (s *wagerService) ToggleDislike(ctx context.Context, wagerID uuid.UUID, actor string) (*models.Wager, error) {
	return s.toggleVote(ctx, wagerID, actor, false)
}

func (s *wagerService) toggleVote(ctx context.Context, wagerID uuid.UUID, actor string, like bool) (*models.Wager, error) {
	if actor == "" {
		return nil, validationError("actor is required")
	}
	op := "toggle_dislike"
	if like {
		op = "toggle_like"
	}

	return s.mutate(ctx, wagerID, op, func(uow UnitOfWork, w *models.Wager, t engine.Timers) error {
		if err := requireOpen(w); err != nil {
			return err
		}
		if !engine.CanToggleVote(w, actor) {
			return timerClosedError("reviewer %s has already decided", actor)
		}
		if like {
			w.Likes, w.Dislikes = toggle(w.Likes, w.Dislikes, actor)
		} else {
			w.Dislikes, w.Likes = toggle(w.Dislikes, w.Likes, actor)
		}
		s.syncReviewerAction(w, actor)
		return nil
	})
}

// toggle flips membership of name in set and removes it from the opposite set
func toggle(set, opposite []string, name string) ([]string, []string) {
	for i, n := range set {
		if n == name {
			return append(set[:i:i], set[i+1:]...), opposite
		}
	}
	out := opposite[:0:0]
	for _, n := range opposite {
		if n != name {
			out = append(out, n)
		}
	}
	return append(set, name), out
}

// syncReviewerAction mirrors a reviewer's guess and vote into their action
// record and freezes it once both are present.
func (s *wagerService) syncReviewerAction(w *models.Wager, actor string) {
	if !w.IsReviewer(actor) {
		return
	}
	a := w.ReviewerActions[actor]
	a.Guess = w.Guesses[actor]
	a.Liked = w.HasLiked(actor)
	a.Disliked = w.HasDisliked(actor)
	if a.Guess != "" && (a.Liked || a.Disliked) {
		now := s.clock.Now()
		a.HasActed = true
		a.ActedAt = &now
	}
	w.ReviewerActions[actor] = a
}

// ForceReviewerDecision lets the active reviewer close their window early
func (s *wagerService) ForceReviewerDecision(ctx context.Context, wagerID uuid.UUID, actor string) (*models.Wager, error) {
	if actor == "" {
		return nil, validationError("actor is required")
	}

	return s.mutate(ctx, wagerID, "force_decision", func(uow UnitOfWork, w *models.Wager, t engine.Timers) error {
		if err := requireOpen(w); err != nil {
			return err
		}
		if !w.IsReviewer(actor) {
			return ineligibleError("%s is not a reviewer", actor)
		}
		name, idx, ok := engine.ActiveReviewer(w)
		if !ok || name != actor {
			return ineligibleError("%s is not the active reviewer", actor)
		}
		if t.Phase != nil && !t.Phase.Active {
			return timerClosedError("reviewer phase has ended")
		}
		if !w.ReviewerActions[actor].HasActed {
			return ineligibleError("%s must submit a guess and a vote first", actor)
		}
		if engine.CanAutoSettle(w, t) {
			return ineligibleError("wager settles automatically")
		}

		now := t.Now
		if !engine.UsesCascade(w) {
			return s.settle(ctx, uow, w, engine.ReviewerDecision(w, idx), now)
		}
		engine.StartCascade(w, now)
		return s.resolvePhase(ctx, uow, w, now)
	})
}

// MarkPublic lists the wager publicly. Repeated calls are no-ops.
func (s *wagerService) MarkPublic(ctx context.Context, wagerID uuid.UUID, actor string) (*models.Wager, error) {
	if actor == "" {
		return nil, validationError("actor is required")
	}

	return s.mutate(ctx, wagerID, "mark_public", func(uow UnitOfWork, w *models.Wager, t engine.Timers) error {
		if !w.IsParticipant(actor) {
			return ineligibleError("%s is not part of this wager", actor)
		}
		if w.IsPublic {
			return nil
		}
		now := t.Now
		w.IsPublic = true
		w.PublicBy = &actor
		w.PublicAt = &now
		uow.EventBus().Publish(events.WagerPublishedEvent{WagerID: w.ID, By: actor})
		return nil
	})
}

// ForwardWager opens a fresh copy of a wager for a new audience
func (s *wagerService) ForwardWager(ctx context.Context, wagerID uuid.UUID, actor string, req ForwardRequest) (*models.Wager, error) {
	if actor == "" {
		return nil, validationError("actor is required")
	}
	if err := validateTarget(req.Recipient, req.GroupID); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	original, err := uow.WagerRepository().GetByID(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wager: %w", err)
	}
	if original == nil {
		return nil, notFoundError("wager %s not found", wagerID)
	}

	forwarded, err := s.openWager(ctx, uow, CreateWagerRequest{
		Sender:               actor,
		Recipient:            req.Recipient,
		GroupID:              req.GroupID,
		Content:              original.Content,
		CoinMode:             original.CoinMode,
		MainTimerMinutes:     original.MainTimer.DurationMinutes,
		ReviewTimerMinutes:   original.ReviewTimer.DurationMinutes,
		ReviewerPhaseMinutes: original.ReviewerPhaseMinutes,
		Reviewers:            original.Reviewers,
	}, &original.ID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"wagerID":       forwarded.ID,
		"forwardedFrom": original.ID,
		"actor":         actor,
	}).Info("Wager forwarded")
	return forwarded, nil
}

// GetWager returns a wager after applying any due transitions
func (s *wagerService) GetWager(ctx context.Context, wagerID uuid.UUID) (*models.Wager, error) {
	return s.Tick(ctx, wagerID)
}

// ListForUser returns wagers the user sent, received or reviews
func (s *wagerService) ListForUser(ctx context.Context, username string) ([]*models.Wager, error) {
	return s.list(ctx, "user", func(repo WagerRepository) ([]*models.Wager, error) {
		return repo.ListForUser(ctx, username)
	})
}

// ListForGroup returns wagers posted to a group
func (s *wagerService) ListForGroup(ctx context.Context, groupID string) ([]*models.Wager, error) {
	return s.list(ctx, "group", func(repo WagerRepository) ([]*models.Wager, error) {
		return repo.ListForGroup(ctx, groupID)
	})
}

// ListPublic returns the most recent public wagers
func (s *wagerService) ListPublic(ctx context.Context) ([]*models.Wager, error) {
	return s.list(ctx, "public", func(repo WagerRepository) ([]*models.Wager, error) {
		return repo.ListPublic(ctx, publicListLimit)
	})
}

func (s *wagerService) list(ctx context.Context, scope string, fn func(WagerRepository) ([]*models.Wager, error)) ([]*models.Wager, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wagers, err := fn(uow.WagerRepository())
	if err != nil {
		return nil, fmt.Errorf("failed to list %s wagers: %w", scope, err)
	}
	return wagers, nil
}

// Tick applies due transitions to one wager and persists them if anything changed
func (s *wagerService) Tick(ctx context.Context, wagerID uuid.UUID) (*models.Wager, error) {
	release := s.locks.lock(wagerID)
	defer release()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	w, err := s.load(ctx, uow, wagerID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	changed, err := s.advance(ctx, uow, w, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return w, nil
	}

	if err := s.persist(ctx, uow, w, now); err != nil {
		return nil, err
	}
	return w, nil
}

// TickAll ticks every unsettled wager with bounded parallelism and records
// the pass. A failing wager does not stop the others.
func (s *wagerService) TickAll(ctx context.Context) (*models.SettlementRun, error) {
	run := &models.SettlementRun{StartedAt: s.clock.Now()}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	ids, err := uow.WagerRepository().ListUnsettledIDs(ctx)
	uow.Rollback()
	if err != nil {
		return nil, fmt.Errorf("failed to list unsettled wagers: %w", err)
	}

	var (
		mu       sync.Mutex
		failures []error
		settled  []string
	)
	var g errgroup.Group
	g.SetLimit(s.tickConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			w, err := s.Tick(ctx, id)
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.WithFields(log.Fields{
					"wagerID": id,
					"error":   err,
				}).Error("Failed to tick wager")
				failures = append(failures, fmt.Errorf("wager %s: %w", id, err))
				return nil
			}
			if w.IsSettled() {
				settled = append(settled, id.String())
			}
			return nil
		})
	}
	// Cancellation is a shutdown, not a pass: nothing is recorded
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("settlement pass interrupted: %w", err)
	}

	run.FinishedAt = s.clock.Now()
	run.WagersChecked = len(ids)
	run.WagersSettled = len(settled)
	run.Failures = len(failures)
	run.ExecutionSummary = map[string]any{
		"settled_wager_ids": settled,
		"concurrency":       s.tickConcurrency,
	}
	if err := s.recordRun(ctx, run); err != nil {
		failures = append(failures, err)
	}

	log.WithFields(log.Fields{
		"wagers":   run.WagersChecked,
		"settled":  run.WagersSettled,
		"failures": run.Failures,
	}).Debug("Tick pass complete")
	return run, errors.Join(failures...)
}

func (s *wagerService) recordRun(ctx context.Context, run *models.SettlementRun) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.SettlementRunRepository().Create(ctx, run); err != nil {
		return fmt.Errorf("failed to record settlement run: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LatestSettlementRun returns the most recent recorded worker pass
func (s *wagerService) LatestSettlementRun(ctx context.Context) (*models.SettlementRun, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	run, err := uow.SettlementRunRepository().GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest settlement run: %w", err)
	}
	if run == nil {
		return nil, notFoundError("no settlement run recorded yet")
	}
	return run, nil
}

// mutate runs one command against a locked wager. Due transitions are applied
// before the command sees the wager and again after it, then the snapshot is
// saved and committed together with every ledger entry the command produced.
func (s *wagerService) mutate(ctx context.Context, wagerID uuid.UUID, op string, fn func(UnitOfWork, *models.Wager, engine.Timers) error) (*models.Wager, error) {
	release := s.locks.lock(wagerID)
	defer release()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	w, err := s.load(ctx, uow, wagerID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	advanced, err := s.advance(ctx, uow, w, now)
	if err != nil {
		return nil, err
	}
	if err := fn(uow, w, engine.EvaluateTimers(w, now)); err != nil {
		// A rejected command still keeps the transitions that were already due
		if advanced && KindOf(err) != "" {
			if perr := s.persist(ctx, uow, w, now); perr != nil {
				return nil, perr
			}
		}
		return nil, err
	}
	if _, err := s.advance(ctx, uow, w, now); err != nil {
		return nil, err
	}

	if err := s.persist(ctx, uow, w, now); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"wagerID": wagerID,
		"op":      op,
		"settled": w.IsSettled(),
	}).Debug("Wager command applied")
	return w, nil
}

func (s *wagerService) persist(ctx context.Context, uow UnitOfWork, w *models.Wager, now time.Time) error {
	w.UpdatedAt = now
	if err := uow.WagerRepository().Save(ctx, w); err != nil {
		return fmt.Errorf("failed to save wager: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *wagerService) load(ctx context.Context, uow UnitOfWork, wagerID uuid.UUID) (*models.Wager, error) {
	w, err := uow.WagerRepository().GetByIDForUpdate(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wager: %w", err)
	}
	if w == nil {
		return nil, notFoundError("wager %s not found", wagerID)
	}
	return w, nil
}

func requireOpen(w *models.Wager) error {
	if w.IsSettled() {
		return newError(KindAlreadySettled, "wager %s is already settled", w.ID)
	}
	return nil
}

// advance applies whatever the clock and the current votes make due:
// unanimous settlement, the end of the review period, or the next cascade step.
func (s *wagerService) advance(ctx context.Context, uow UnitOfWork, w *models.Wager, now time.Time) (bool, error) {
	if w.IsSettled() {
		return false, nil
	}
	if d, ok := engine.ImmediateDecision(w); ok {
		return true, s.settle(ctx, uow, w, d, now)
	}

	timers := engine.EvaluateTimers(w, now)
	switch engine.StateOf(w) {
	case engine.CascadeConcluded:
		return true, s.settle(ctx, uow, w, engine.ReviewerDecision(w, len(w.Reviewers)-1), now)

	case engine.CascadeActive:
		if timers.BothExpired() {
			if d, ok := engine.AutoDecision(w, timers); ok {
				return true, s.settle(ctx, uow, w, d, now)
			}
		}
		if engine.PhaseExpired(w, now) {
			return true, s.resolvePhase(ctx, uow, w, now)
		}
		return false, nil

	default:
		if !timers.BothExpired() {
			return false, nil
		}
		if d, ok := engine.AutoDecision(w, timers); ok {
			return true, s.settle(ctx, uow, w, d, now)
		}
		if engine.StartCascade(w, now) {
			s.publishPhaseStarted(uow, w)
			return true, nil
		}
		return true, s.settle(ctx, uow, w, engine.ReviewerDecision(w, 0), now)
	}
}

// resolvePhase closes the active phase and either opens the next one or
// settles with the last reviewer's letters.
func (s *wagerService) resolvePhase(ctx context.Context, uow UnitOfWork, w *models.Wager, now time.Time) error {
	if engine.ResolvePhase(w, now) {
		return s.settle(ctx, uow, w, engine.ReviewerDecision(w, len(w.Reviewers)-1), now)
	}
	s.publishPhaseStarted(uow, w)
	return nil
}

func (s *wagerService) publishPhaseStarted(uow UnitOfWork, w *models.Wager) {
	idx := w.Cascade.CurrentIndex
	phase := w.Cascade.Phases[len(w.Cascade.Phases)-1]
	uow.EventBus().Publish(events.ReviewerPhaseStartedEvent{
		WagerID:         w.ID,
		Reviewer:        w.Reviewers[idx],
		ReviewerIndex:   idx,
		StartedAt:       phase.StartedAt,
		DurationMinutes: phase.DurationMinutes,
	})
	log.WithFields(log.Fields{
		"wagerID":  w.ID,
		"reviewer": w.Reviewers[idx],
		"index":    idx,
	}).Info("Reviewer phase started")
}

// settle computes the result, writes it onto the wager and pays every credit.
// It runs inside the caller's transaction, so the whole batch lands or none of it.
func (s *wagerService) settle(ctx context.Context, uow UnitOfWork, w *models.Wager, d engine.Decision, now time.Time) error {
	if w.IsSettled() {
		return requireOpen(w)
	}

	result := engine.Settle(w, d, now)
	engine.Conclude(w, result)

	for _, c := range result.Credits() {
		_, err := creditAccount(ctx, uow, c.Username, c.Amount, c.Type, &w.ID, map[string]any{
			"wager_id":        w.ID.String(),
			"settlement_mode": string(result.Mode),
		})
		if err != nil {
			return fmt.Errorf("failed to apply settlement: %w", err)
		}
	}

	uow.EventBus().Publish(events.WagerSettledEvent{
		WagerID:    w.ID,
		Content:    w.Content,
		Settlement: result.Clone(),
	})

	log.WithFields(log.Fields{
		"wagerID":     w.ID,
		"mode":        result.Mode,
		"winners":     len(result.Winners),
		"losers":      len(result.Losers),
		"unallocated": result.Unallocated.String(),
	}).Info("Wager settled")
	return nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
