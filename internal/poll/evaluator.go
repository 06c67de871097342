// Package poll implements the liveness-polling state machine for conditional
// orders. Every evaluation recomputes the classification from fresh inputs:
// the evaluator holds no state of its own, performs exactly one status read
// per call, and is safe to call arbitrarily often.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/betlinkd/internal/domain"
)

// ConditionalOrder is the capability a concrete order type must expose to be
// evaluated. Any type that can validate itself against a point in time and a
// condition status, and derive the canonical exchange order, plugs in here;
// domain.LinkedBet is the one implementation in this repository.
type ConditionalOrder interface {
	Ref() common.Hash
	Validate(now time.Time, status domain.ConditionStatus) error
	Derive(now time.Time, status domain.ConditionStatus) (domain.SwapOrder, error)
}

// Evaluator classifies conditional orders against the live status of their
// linked condition.
type Evaluator struct {
	source domain.ConditionSource
	logger *slog.Logger
}

// NewEvaluator creates an Evaluator reading condition statuses from source.
func NewEvaluator(source domain.ConditionSource, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		source: source,
		logger: logger.With(slog.String("component", "evaluator")),
	}
}

// Evaluate classifies one conditional order at the given instant.
//
// The condition lifecycle is one-way: open, then either fully resolved with
// nothing remaining (the bet completed, the swap becomes tradeable) or
// closed with quantity still outstanding (cancelled short, permanently
// dead). A still-open condition always classifies as retry-later.
//
// A non-nil error is returned only when the status read itself fails; that
// is an environment problem, not a property of the order, and is never
// folded into the three-way classification.
func (e *Evaluator) Evaluate(ctx context.Context, order ConditionalOrder, now time.Time) (domain.Evaluation, error) {
	status, err := e.source.GetStatus(ctx, order.Ref())
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("poll: status of %s: %w (%w)",
			order.Ref(), domain.ErrStatusUnavailable, err)
	}

	if err := order.Validate(now, status); err != nil {
		eval := domain.Evaluation{
			Reason:    domain.ReasonForValidation(err),
			CheckedAt: now,
		}
		// Only the start-date rule is temporal; every other validation
		// failure is over immutable fields and can never self-correct.
		if errors.Is(err, domain.ErrInvalidStartDate) {
			eval.Decision = domain.DecisionRetryLater
		} else {
			eval.Decision = domain.DecisionNever
		}
		return eval, nil
	}

	switch {
	case status.ResolvedOrCancelled && status.RemainingZero():
		swap, err := order.Derive(now, status)
		if err != nil {
			// Validate just passed on identical inputs; Derive repeats it.
			return domain.Evaluation{}, fmt.Errorf("poll: derive order for %s: %w", order.Ref(), err)
		}
		e.logger.DebugContext(ctx, "condition filled, order tradeable",
			slog.String("ref", order.Ref().Hex()),
		)
		return domain.Evaluation{
			Decision:  domain.DecisionTradeable,
			Reason:    domain.ReasonConditionFilled,
			Order:     &swap,
			CheckedAt: now,
		}, nil

	case status.ResolvedOrCancelled:
		// Closed with quantity outstanding: cancelled before completion.
		return domain.Evaluation{
			Decision:  domain.DecisionNever,
			Reason:    domain.ReasonConditionCancelled,
			CheckedAt: now,
		}, nil

	default:
		return domain.Evaluation{
			Decision:  domain.DecisionRetryLater,
			Reason:    domain.ReasonConditionOpen,
			CheckedAt: now,
		}, nil
	}
}
