package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/betlinkd/internal/domain"
	"github.com/alanyoungcy/betlinkd/internal/poll"
)

// EvaluateHandler serves one-shot evaluations: decode a payload, classify it
// against the live condition status, and return the outcome without
// registering anything.
type EvaluateHandler struct {
	evaluator *poll.Evaluator
	logger    *slog.Logger
}

// NewEvaluateHandler creates an EvaluateHandler.
func NewEvaluateHandler(evaluator *poll.Evaluator, logger *slog.Logger) *EvaluateHandler {
	return &EvaluateHandler{
		evaluator: evaluator,
		logger:    logHandler(logger, "evaluate"),
	}
}

// orderResponse is the JSON view of a derived swap order.
type orderResponse struct {
	SellToken         string `json:"sell_token"`
	BuyToken          string `json:"buy_token"`
	Receiver          string `json:"receiver"`
	SellAmount        string `json:"sell_amount"`
	BuyAmount         string `json:"buy_amount"`
	ValidTo           uint32 `json:"valid_to"`
	AppData           string `json:"app_data"`
	FeeAmount         string `json:"fee_amount"`
	Kind              string `json:"kind"`
	PartiallyFillable bool   `json:"partially_fillable"`
	SellTokenBalance  string `json:"sell_token_balance"`
	BuyTokenBalance   string `json:"buy_token_balance"`
}

// evaluateResponse is the JSON view of one evaluation outcome.
type evaluateResponse struct {
	Decision  string         `json:"decision"`
	Reason    string         `json:"reason"`
	Order     *orderResponse `json:"order,omitempty"`
	CheckedAt time.Time      `json:"checked_at"`
}

func toOrderResponse(o domain.SwapOrder) *orderResponse {
	return &orderResponse{
		SellToken:         o.SellToken.Hex(),
		BuyToken:          o.BuyToken.Hex(),
		Receiver:          o.Receiver.Hex(),
		SellAmount:        o.SellAmount.String(),
		BuyAmount:         o.BuyAmount.String(),
		ValidTo:           o.ValidTo,
		AppData:           o.AppData.Hex(),
		FeeAmount:         o.FeeAmount.String(),
		Kind:              string(o.Kind),
		PartiallyFillable: o.PartiallyFillable,
		SellTokenBalance:  string(o.SellTokenBalance),
		BuyTokenBalance:   string(o.BuyTokenBalance),
	}
}

// Evaluate classifies a payload once.
// POST /api/evaluate
func (h *EvaluateHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
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

	eval, err := h.evaluator.Evaluate(r.Context(), bet, time.Now())
	if err != nil {
		// Status read failure: the caller's environment problem, distinct
		// from the three-way classification.
		h.logger.WarnContext(r.Context(), "status lookup failed",
			slog.String("ref", bet.ConditionRef.Hex()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "condition status unavailable")
		return
	}

	resp := evaluateResponse{
		Decision:  string(eval.Decision),
		Reason:    string(eval.Reason),
		CheckedAt: eval.CheckedAt,
	}
	if eval.Order != nil {
		resp.Order = toOrderResponse(*eval.Order)
	}
	writeJSON(w, http.StatusOK, resp)
}
