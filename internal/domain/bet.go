package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// maxValidTo is the exclusive upper bound for a bet's end date. Expiry is
// encoded as a uint32 on the exchange, and the all-ones value is reserved.
const maxValidTo = uint64(1)<<32 - 1

// conditionRefMustBeSet controls the polarity of the condition-reference
// field check. The upstream contract reads as if a zero reference were the
// accepted case, but every live payload observed carries a set reference, so
// a non-zero reference is required here. Flip this one constant if the
// upstream behaviour is ever confirmed the other way.
const conditionRefMustBeSet = true

// LinkedBet is the declarative description of a conditional swap: sell
// SellAmount of SellToken for at least MinBuyAmount of BuyToken, delivered to
// Receiver, inside the [ValidFrom, ValidUntil) window, gated on the external
// condition identified by ConditionRef. It is immutable once decoded.
type LinkedBet struct {
	SellToken    common.Address
	BuyToken     common.Address
	Receiver     common.Address
	SellAmount   *big.Int
	MinBuyAmount *big.Int
	ValidFrom    uint64 // unix seconds, must be in the future at validation
	ValidUntil   uint64 // unix seconds, strictly after ValidFrom
	ConditionRef common.Hash
}

// Ref returns the 256-bit reference of the external condition this bet is
// linked to.
func (b LinkedBet) Ref() common.Hash {
	return b.ConditionRef
}

// ValidateFields applies the pure field and time rules in a fixed order and
// fails fast on the first violation. ErrInvalidStartDate is the only
// temporal error here; everything else is structural and can never
// self-correct.
func (b LinkedBet) ValidateFields(now time.Time) error {
	if b.SellToken == b.BuyToken {
		return ErrSameToken
	}
	if b.SellToken == (common.Address{}) || b.BuyToken == (common.Address{}) {
		return ErrInvalidToken
	}
	if b.ValidFrom <= uint64(now.Unix()) {
		return ErrInvalidStartDate
	}
	if b.ValidUntil <= b.ValidFrom || b.ValidUntil >= maxValidTo {
		return ErrInvalidEndDate
	}
	if b.SellAmount == nil || b.SellAmount.Sign() <= 0 {
		return ErrInvalidSellAmount
	}
	if b.MinBuyAmount == nil || b.MinBuyAmount.Sign() <= 0 {
		return ErrInvalidMinBuyAmount
	}
	if refSet := b.ConditionRef != (common.Hash{}); refSet != conditionRefMustBeSet {
		return ErrInvalidConditionRef
	}
	return nil
}

// Validate runs ValidateFields and then checks the live status of the linked
// condition. A reference whose status shows nothing remaining and no
// resolution flag was never opened on the venue, so it cannot identify a
// real condition.
func (b LinkedBet) Validate(now time.Time, status ConditionStatus) error {
	if err := b.ValidateFields(now); err != nil {
		return err
	}
	if !status.ResolvedOrCancelled && status.RemainingZero() {
		return ErrInvalidConditionRef
	}
	return nil
}

// Derive validates the bet and maps it onto the canonical exchange order.
// It is a pure function of its inputs: the order is recomputed on every call
// and never stored. ValidUntil fits uint32 by construction (checked in
// ValidateFields, never truncated).
func (b LinkedBet) Derive(now time.Time, status ConditionStatus) (SwapOrder, error) {
	if err := b.Validate(now, status); err != nil {
		return SwapOrder{}, err
	}
	return SwapOrder{
		SellToken:         b.SellToken,
		BuyToken:          b.BuyToken,
		Receiver:          b.Receiver,
		SellAmount:        new(big.Int).Set(b.SellAmount),
		BuyAmount:         new(big.Int).Set(b.MinBuyAmount),
		ValidTo:           uint32(b.ValidUntil),
		AppData:           b.ConditionRef,
		FeeAmount:         big.NewInt(0),
		Kind:              OrderKindSell,
		PartiallyFillable: false,
		SellTokenBalance:  BalanceERC20,
		BuyTokenBalance:   BalanceERC20,
	}, nil
}
