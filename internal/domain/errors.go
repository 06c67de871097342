package domain

import "errors"

// Validation errors. All except ErrInvalidStartDate are structural: the
// violated field is immutable, so the bet can never become valid. The start
// date rule is temporal and may pass once time advances.
var (
	ErrSameToken           = errors.New("sell and buy token are identical")
	ErrInvalidToken        = errors.New("token address is unset")
	ErrInvalidStartDate    = errors.New("start date is not in the future")
	ErrInvalidEndDate      = errors.New("end date outside the allowed window")
	ErrInvalidSellAmount   = errors.New("sell amount must be positive")
	ErrInvalidMinBuyAmount = errors.New("minimum buy amount must be positive")
	ErrInvalidConditionRef = errors.New("condition reference does not identify a condition")
)

// Infrastructure errors.
var (
	ErrStatusUnavailable = errors.New("condition status unavailable")
	ErrBadPayload        = errors.New("malformed bet payload")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrLockHeld          = errors.New("lock already held")
	ErrWSDisconnect      = errors.New("websocket disconnected")
)
