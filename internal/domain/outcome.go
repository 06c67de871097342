package domain

import (
	"errors"
	"time"
)

// Decision is the three-way classification an evaluation produces. The
// scheduler acts on it: offer the order, drop the bet permanently, or
// re-queue it for a later check.
type Decision string

const (
	// DecisionTradeable means the derived order is currently valid and
	// should be offered for execution.
	DecisionTradeable Decision = "tradeable"
	// DecisionNever means the bet can never become tradeable again and must
	// not be polled any further.
	DecisionNever Decision = "never"
	// DecisionRetryLater means the bet is not tradeable now but may become
	// so; check again on a future occasion.
	DecisionRetryLater Decision = "retry_later"
)

// Reason is a short machine-readable tag explaining a decision.
type Reason string

const (
	ReasonSameToken           Reason = "same_token"
	ReasonInvalidToken        Reason = "invalid_token"
	ReasonInvalidStartDate    Reason = "invalid_start_date"
	ReasonInvalidEndDate      Reason = "invalid_end_date"
	ReasonInvalidSellAmount   Reason = "invalid_sell_amount"
	ReasonInvalidMinBuyAmount Reason = "invalid_min_buy_amount"
	ReasonInvalidConditionRef Reason = "invalid_condition_ref"
	ReasonConditionOpen       Reason = "condition_open"
	ReasonConditionCancelled  Reason = "condition_cancelled"
	ReasonConditionFilled     Reason = "condition_filled"
)

// ReasonForValidation maps a validation error to its reason tag. Unknown
// errors map to the empty reason.
func ReasonForValidation(err error) Reason {
	switch {
	case errors.Is(err, ErrSameToken):
		return ReasonSameToken
	case errors.Is(err, ErrInvalidToken):
		return ReasonInvalidToken
	case errors.Is(err, ErrInvalidStartDate):
		return ReasonInvalidStartDate
	case errors.Is(err, ErrInvalidEndDate):
		return ReasonInvalidEndDate
	case errors.Is(err, ErrInvalidSellAmount):
		return ReasonInvalidSellAmount
	case errors.Is(err, ErrInvalidMinBuyAmount):
		return ReasonInvalidMinBuyAmount
	case errors.Is(err, ErrInvalidConditionRef):
		return ReasonInvalidConditionRef
	}
	return ""
}

// Evaluation is the result of one evaluator call. Order is set only when
// Decision is DecisionTradeable.
type Evaluation struct {
	Decision  Decision
	Reason    Reason
	Order     *SwapOrder
	CheckedAt time.Time
}
