package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-service/dto"
	"github.com/radieske/prediction-market-poc/internal/market-service/engine"
)

// WalletClient é a fatia do cliente de carteira que o fluxo de aposta usa:
// reserva antes de aplicar no ledger, commit no sucesso, refund na rejeição.
type WalletClient interface {
	Reserve(ctx context.Context, userID string, cents int64, externalRef string) (string, error)
	Commit(ctx context.Context, userID, externalRef string) error
	Refund(ctx context.Context, userID, externalRef string) error
}

// Metrics agrupa os contadores Prometheus do serviço (registrados no main).
type Metrics struct {
	MarketsCreated   prometheus.Counter
	BetsPlaced       prometheus.Counter
	MarketsResolved  prometheus.Counter
	MarketsCancelled prometheus.Counter
	ClaimsPaid       prometheus.Counter
}

type Server struct {
	log     *zap.Logger
	ledger  *engine.Ledger
	wcli    WalletClient
	metrics *Metrics
}

func NewServer(log *zap.Logger, l *engine.Ledger, w WalletClient, m *Metrics) *Server {
	return &Server{log: log, ledger: l, wcli: w, metrics: m}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/markets", s.createMarket)
	r.Get("/v1/markets/{id}", s.getMarket)
	r.Get("/v1/markets/{id}/odds", s.getOdds)
	r.Post("/v1/markets/{id}/bets", s.placeBet)
	r.Post("/v1/markets/{id}/resolve", s.resolve)
	r.Post("/v1/markets/{id}/cancel", s.cancel)
	r.Post("/v1/markets/{id}/claim", s.claim)
	r.Post("/v1/markets/{id}/refund", s.refund)
	r.Get("/v1/markets/{id}/positions/{userId}", s.getPosition)
	r.Get("/v1/markets/{id}/positions/{userId}/payout", s.computePayout)
	return r
}

// userID vem do header X-User-ID; autenticação de verdade fica no gateway.
func userID(r *http.Request) string { return r.Header.Get("X-User-ID") }

func marketID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

func (s *Server) createMarket(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "X-User-ID required"})
		return
	}
	var req dto.CreateMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	duration, err := time.ParseDuration(req.Duration)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid duration"})
		return
	}

	id, err := s.ledger.CreateMarket(r.Context(), uid, req.Question, req.Description, duration)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.MarketsCreated.Inc()
	}
	writeJSON(w, http.StatusCreated, dto.CreateMarketResponse{MarketID: id})
}

func (s *Server) getMarket(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid market id"})
		return
	}
	m, err := s.ledger.GetMarket(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) getOdds(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid market id"})
		return
	}
	yes, no, err := s.ledger.Odds(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OddsResponse{MarketID: id, YesPct: yes, NoPct: no})
}

// placeBet faz o fluxo completo de aposta:
//  1. reserva o stake na carteira (external_ref = betID)
//  2. cota+aplica no ledger como unidade atômica
//  3. commit da reserva no sucesso; refund na rejeição
func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "X-User-ID required"})
		return
	}
	id, err := marketID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid market id"})
		return
	}
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	outcome, err := engine.ParseOutcome(req.Outcome)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "outcome must be yes|no"})
		return
	}
	if req.StakeCents <= 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid payload"})
		return
	}

	betID := uuid.NewString()
	if _, err := s.wcli.Reserve(r.Context(), uid, req.StakeCents, betID); err != nil {
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "wallet reserve failed"})
		return
	}

	shares, err := s.ledger.PlaceBet(r.Context(), id, uid, outcome, req.StakeCents, betID)
	if err != nil {
		// devolve a reserva; se o refund falhar o wallet-service é idempotente e o retry resolve
		if rerr := s.wcli.Refund(r.Context(), uid, betID); rerr != nil {
			s.log.Warn("wallet refund failed", zap.String("betId", betID), zap.Error(rerr))
		}
		writeError(w, err)
		return
	}
	if err := s.wcli.Commit(r.Context(), uid, betID); err != nil {
		s.log.Warn("wallet commit failed", zap.String("betId", betID), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.BetsPlaced.Inc()
	}

	yes, no, _ := s.ledger.Odds(id)
	writeJSON(w, http.StatusCreated, dto.PlaceBetResponse{
		BetID:  betID,
		Shares: shares,
		YesPct: yes,
		NoPct:  no,
	})
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	id, err := marketID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid market id"})
		return
	}
	var req dto.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	outcome, err := engine.ParseOutcome(req.Outcome)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "outcome must be yes|no"})
		return
	}
	if err := s.ledger.Resolve(r.Context(), id, uid, outcome); err != nil {
		writeError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.MarketsResolved.Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	id, err := marketID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid market id"})
		return
	}
	if err := s.ledger.Cancel(r.Context(), id, uid); err != nil {
		writeError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.MarketsCancelled.Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) claim(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "X-User-ID required"})
		return
	}
	id, err := marketID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid market id"})
		return
	}
	net, err := s.ledger.Claim(r.Context(), id, uid)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ClaimsPaid.Inc()
	}
	writeJSON(w, http.StatusOK, dto.ClaimResponse{NetCents: net})
}

func (s *Server) refund(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "X-User-ID required"})
		return
	}
	id, err := marketID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid market id"})
		return
	}
	amount, err := s.ledger.ClaimRefund(r.Context(), id, uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.RefundResponse{AmountCents: amount})
}

func (s *Server) getPosition(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid market id"})
		return
	}
	p, err := s.ledger.GetPosition(id, chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) computePayout(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid market id"})
		return
	}
	amount, err := s.ledger.ComputePayout(id, chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PayoutResponse{AmountCents: amount})
}

// writeError mapeia os erros tipados do ledger para status HTTP.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrPaused):
		status = http.StatusServiceUnavailable
	case errors.Is(err, engine.ErrTransferFailed):
		status = http.StatusBadGateway
	case errors.Is(err, engine.ErrMarketClosed),
		errors.Is(err, engine.ErrStakeOutOfBounds),
		errors.Is(err, engine.ErrInvalidStake),
		errors.Is(err, engine.ErrNotYetClosed),
		errors.Is(err, engine.ErrResolutionExpired),
		errors.Is(err, engine.ErrAlreadyFinalized),
		errors.Is(err, engine.ErrNothingToClaim),
		errors.Is(err, engine.ErrAlreadyClaimed):
		status = http.StatusConflict
	}
	writeJSON(w, status, dto.ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
