package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"stakechat/service"
)

// ActorHeader names the caller of a command. Identity is trusted as given.
const ActorHeader = "X-Actor"

type Server struct {
	accounts  service.AccountService
	transfers service.TransferService
	wagers    service.WagerService
}

func NewServer(accounts service.AccountService, transfers service.TransferService, wagers service.WagerService) *Server {
	return &Server{accounts: accounts, transfers: transfers, wagers: wagers}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Queries
		r.Get("/accounts/{username}", s.getAccount)
		r.Get("/accounts/{username}/history", s.getHistory)
		r.Get("/wagers/public", s.listPublic)
		r.Get("/wagers/{id}", s.getWager)
		r.Get("/users/{username}/wagers", s.listForUser)
		r.Get("/groups/{groupID}/wagers", s.listForGroup)
		r.Get("/settlement-runs/latest", s.latestSettlementRun)

		// Commands
		r.Group(func(r chi.Router) {
			r.Use(requireActor)

			r.Post("/accounts", s.openAccount)
			r.Post("/transfers", s.transfer)

			r.Post("/wagers", s.createWager)
			r.Post("/wagers/{id}/stakes", s.attachStake)
			r.Put("/wagers/{id}/guess", s.setGuess)
			r.Post("/wagers/{id}/like", s.toggleLike)
			r.Post("/wagers/{id}/dislike", s.toggleDislike)
			r.Post("/wagers/{id}/force-decision", s.forceDecision)
			r.Post("/wagers/{id}/public", s.markPublic)
			r.Post("/wagers/{id}/forward", s.forward)
		})
	})

	return r
}

// ── Middleware ────────────────────────────────────────

type ctxKey string

const ctxActor ctxKey = "actor"

func requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(ActorHeader))
		if actor == "" {
			jsonErr(w, http.StatusUnauthorized, "missing "+ActorHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"duration":  time.Since(start).String(),
			"requestId": middleware.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}

// ── Helpers ───────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

func jsonErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps a business error kind to its HTTP status
func statusFor(kind service.ErrorKind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindInsufficientFunds:
		return http.StatusPaymentRequired
	case service.KindTimerClosed, service.KindAlreadySettled:
		return http.StatusConflict
	case service.KindIneligibleActor:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := service.KindOf(err)
	if kind == "" {
		log.WithFields(log.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"requestId": middleware.GetReqID(r.Context()),
			"error":     err,
		}).Error("Request failed")
		jsonErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	var we *service.WagerError
	errors.As(err, &we)
	writeJSON(w, statusFor(kind), map[string]string{
		"error": we.Message,
		"kind":  string(kind),
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func wagerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid wager id")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
