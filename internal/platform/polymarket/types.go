package polymarket

import (
	"fmt"
	"math/big"

	"github.com/alanyoungcy/betlinkd/internal/domain"
)

// liveOrderStatus values reported by the venue for a tracked condition.
const (
	statusLive      = "LIVE"
	statusMatched   = "MATCHED"
	statusCancelled = "CANCELLED"
	statusExpired   = "EXPIRED"
)

// APILiveOrder is the venue's JSON record for the bet/order behind a
// condition reference. Sizes are integer unit amounts encoded as decimal
// strings to preserve precision.
type APILiveOrder struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	OriginalSize string `json:"original_size"`
	SizeMatched  string `json:"size_matched"`
}

// ToConditionStatus maps the venue record onto the two-field status this
// core consumes: remaining unmatched quantity, and whether the condition is
// closed (matched out, cancelled, or expired).
func (o APILiveOrder) ToConditionStatus() (domain.ConditionStatus, error) {
	original, err := parseSize(o.OriginalSize)
	if err != nil {
		return domain.ConditionStatus{}, fmt.Errorf("polymarket: original_size %q: %w", o.OriginalSize, err)
	}
	matched, err := parseSize(o.SizeMatched)
	if err != nil {
		return domain.ConditionStatus{}, fmt.Errorf("polymarket: size_matched %q: %w", o.SizeMatched, err)
	}

	remaining := new(big.Int).Sub(original, matched)
	if remaining.Sign() < 0 {
		return domain.ConditionStatus{}, fmt.Errorf("polymarket: size_matched %s exceeds original_size %s",
			o.SizeMatched, o.OriginalSize)
	}

	var closed bool
	switch o.Status {
	case statusLive:
		closed = false
	case statusMatched, statusCancelled, statusExpired:
		closed = true
	default:
		return domain.ConditionStatus{}, fmt.Errorf("polymarket: unknown order status %q", o.Status)
	}

	return domain.ConditionStatus{
		Remaining:           remaining,
		ResolvedOrCancelled: closed,
	}, nil
}

func parseSize(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("not a non-negative decimal integer")
	}
	return v, nil
}

// wsOrderEvent is the real-time order update pushed on the market channel.
// Only the fields the watcher needs are decoded.
type wsOrderEvent struct {
	EventType string `json:"event_type"`
	OrderID   string `json:"id"`
	Status    string `json:"status"`
}
