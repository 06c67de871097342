package handler

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/betlinkd/internal/codec"
	"github.com/alanyoungcy/betlinkd/internal/domain"
)

// BetHandler serves registration and inspection of linked bets.
type BetHandler struct {
	bets   domain.BetStore
	evals  domain.EvaluationStore
	logger *slog.Logger
}

// NewBetHandler creates a BetHandler.
func NewBetHandler(bets domain.BetStore, evals domain.EvaluationStore, logger *slog.Logger) *BetHandler {
	return &BetHandler{
		bets:   bets,
		evals:  evals,
		logger: logHandler(logger, "bets"),
	}
}

// registerRequest is the body of POST /api/bets: the hex-encoded static
// payload as handed over by the settlement framework.
type registerRequest struct {
	Payload string `json:"payload"`
}

// betResponse is the JSON view of a registered bet.
type betResponse struct {
	ID            string     `json:"id"`
	SellToken     string     `json:"sell_token"`
	BuyToken      string     `json:"buy_token"`
	Receiver      string     `json:"receiver"`
	SellAmount    string     `json:"sell_amount"`
	MinBuyAmount  string     `json:"min_buy_amount"`
	ValidFrom     uint64     `json:"valid_from"`
	ValidUntil    uint64     `json:"valid_until"`
	ConditionRef  string     `json:"condition_ref"`
	Active        bool       `json:"active"`
	LastDecision  string     `json:"last_decision,omitempty"`
	LastReason    string     `json:"last_reason,omitempty"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toBetResponse(b domain.RegisteredBet) betResponse {
	return betResponse{
		ID:            b.ID,
		SellToken:     b.Bet.SellToken.Hex(),
		BuyToken:      b.Bet.BuyToken.Hex(),
		Receiver:      b.Bet.Receiver.Hex(),
		SellAmount:    b.Bet.SellAmount.String(),
		MinBuyAmount:  b.Bet.MinBuyAmount.String(),
		ValidFrom:     b.Bet.ValidFrom,
		ValidUntil:    b.Bet.ValidUntil,
		ConditionRef:  b.Bet.ConditionRef.Hex(),
		Active:        b.Active,
		LastDecision:  string(b.LastDecision),
		LastReason:    string(b.LastReason),
		LastCheckedAt: b.LastCheckedAt,
		CreatedAt:     b.CreatedAt,
	}
}

// decodePayload parses the hex payload field into a LinkedBet.
func decodePayload(raw string) (domain.LinkedBet, error) {
	data, err := hex.DecodeString(strings.TrimPrefix(raw, "0x"))
	if err != nil {
		return domain.LinkedBet{}, domain.ErrBadPayload
	}
	return codec.DecodeBet(data)
}

// RegisterBet decodes, field-validates, and stores a new linked bet.
// POST /api/bets
func (h *BetHandler) RegisterBet(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	bet, err := decodePayload(req.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}

	// Structural and start-date rules must hold at registration time. The
	// status-dependent check is left to the watcher: the venue may not know
	// the condition yet at submission.
	if err := bet.ValidateFields(time.Now()); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":  err.Error(),
			"reason": string(domain.ReasonForValidation(err)),
		})
		return
	}

	reg := domain.RegisteredBet{
		ID:     uuid.New().String(),
		Bet:    bet,
		Active: true,
	}
	if err := h.bets.Create(r.Context(), reg); err != nil {
		h.logger.ErrorContext(r.Context(), "create bet failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to store bet")
		return
	}

	reg.CreatedAt = time.Now().UTC()
	writeJSON(w, http.StatusCreated, toBetResponse(reg))
}

// ListBets returns active bets.
// GET /api/bets
func (h *BetHandler) ListBets(w http.ResponseWriter, r *http.Request) {
	bets, err := h.bets.ListActive(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list bets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list bets")
		return
	}

	out := make([]betResponse, 0, len(bets))
	for _, b := range bets {
		out = append(out, toBetResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetBet returns one bet by ID.
// GET /api/bets/{id}
func (h *BetHandler) GetBet(w http.ResponseWriter, r *http.Request) {
	bet, err := h.bets.GetByID(r.Context(), pathParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "bet not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load bet")
		return
	}
	writeJSON(w, http.StatusOK, toBetResponse(bet))
}

// DeactivateBet removes a bet from the polling rotation.
// DELETE /api/bets/{id}
func (h *BetHandler) DeactivateBet(w http.ResponseWriter, r *http.Request) {
	if err := h.bets.Deactivate(r.Context(), pathParam(r, "id")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "bet not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to deactivate bet")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEvaluations returns the evaluation history of one bet, newest first.
// GET /api/bets/{id}/evaluations
func (h *BetHandler) ListEvaluations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.evals.ListByBet(r.Context(), pathParam(r, "id"), parseListOpts(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list evaluations")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
