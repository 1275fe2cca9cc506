package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stakechat/models"
	"stakechat/service"
)

func (s *Server) createWager(w http.ResponseWriter, r *http.Request) {
	var req service.CreateWagerRequest
	if !decode(w, r, &req) {
		return
	}
	req.Sender = actorFrom(r.Context())

	wager, err := s.wagers.CreateWager(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wager)
}

func (s *Server) getWager(w http.ResponseWriter, r *http.Request) {
	id, ok := wagerID(w, r)
	if !ok {
		return
	}
	wager, err := s.wagers.GetWager(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wager)
}

func (s *Server) attachStake(w http.ResponseWriter, r *http.Request) {
	id, ok := wagerID(w, r)
	if !ok {
		return
	}
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, r, func(ctx context.Context) (*models.Wager, error) {
		return s.wagers.AttachStake(ctx, id, actorFrom(ctx), req.Amount)
	})
}

func (s *Server) setGuess(w http.ResponseWriter, r *http.Request) {
	id, ok := wagerID(w, r)
	if !ok {
		return
	}
	var req struct {
		Letters string `json:"letters"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, r, func(ctx context.Context) (*models.Wager, error) {
		return s.wagers.SetGuess(ctx, id, actorFrom(ctx), req.Letters)
	})
}

func (s *Server) toggleLike(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.wagers.ToggleLike)
}

func (s *Server) toggleDislike(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.wagers.ToggleDislike)
}

func (s *Server) forceDecision(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.wagers.ForceReviewerDecision)
}

func (s *Server) markPublic(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.wagers.MarkPublic)
}

func (s *Server) forward(w http.ResponseWriter, r *http.Request) {
	id, ok := wagerID(w, r)
	if !ok {
		return
	}
	var req service.ForwardRequest
	if !decode(w, r, &req) {
		return
	}

	wager, err := s.wagers.ForwardWager(r.Context(), id, actorFrom(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wager)
}

func (s *Server) listForUser(w http.ResponseWriter, r *http.Request) {
	s.list(w, r, func(ctx context.Context) ([]*models.Wager, error) {
		return s.wagers.ListForUser(ctx, chi.URLParam(r, "username"))
	})
}

func (s *Server) listForGroup(w http.ResponseWriter, r *http.Request) {
	s.list(w, r, func(ctx context.Context) ([]*models.Wager, error) {
		return s.wagers.ListForGroup(ctx, chi.URLParam(r, "groupID"))
	})
}

func (s *Server) listPublic(w http.ResponseWriter, r *http.Request) {
	s.list(w, r, s.wagers.ListPublic)
}

// command runs an actor command that takes only the wager id
func (s *Server) command(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID, string) (*models.Wager, error)) {
	id, ok := wagerID(w, r)
	if !ok {
		return
	}
	s.respond(w, r, func(ctx context.Context) (*models.Wager, error) {
		return fn(ctx, id, actorFrom(ctx))
	})
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, fn func(context.Context) (*models.Wager, error)) {
	wager, err := fn(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wager)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, fn func(context.Context) ([]*models.Wager, error)) {
	wagers, err := fn(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wagers == nil {
		wagers = []*models.Wager{}
	}
	writeJSON(w, http.StatusOK, wagers)
}

func (s *Server) latestSettlementRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.wagers.LatestSettlementRun(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
