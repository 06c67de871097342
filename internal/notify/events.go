package notify

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/betlinkd/internal/domain"
)

// Event types emitted by the watcher. Operators filter on these via the
// notify.events config list.
const (
	EventBetTradeable = "bet_tradeable"
	EventBetDead      = "bet_dead"
	EventError        = "error"
)

// BetTradeable announces that a bet's condition completed and its swap order
// is now live.
func (n *Notifier) BetTradeable(ctx context.Context, bet domain.RegisteredBet, order domain.SwapOrder) error {
	msg := fmt.Sprintf(
		"condition %s filled\nsell %s of %s for min %s of %s\nvalid until %d",
		bet.Bet.ConditionRef.Hex(),
		order.SellAmount, order.SellToken.Hex(),
		order.BuyAmount, order.BuyToken.Hex(),
		order.ValidTo,
	)
	return n.Notify(ctx, EventBetTradeable, "Bet tradeable: "+bet.ID, msg)
}

// BetDead announces that a bet was classified as never tradeable and has
// been dropped from the polling rotation.
func (n *Notifier) BetDead(ctx context.Context, bet domain.RegisteredBet, reason domain.Reason) error {
	msg := fmt.Sprintf("condition %s\nreason: %s", bet.Bet.ConditionRef.Hex(), reason)
	return n.Notify(ctx, EventBetDead, "Bet dropped: "+bet.ID, msg)
}
