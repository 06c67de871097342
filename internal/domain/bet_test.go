package domain

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenA   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	tokenB   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	receiver = common.HexToAddress("0x3333333333333333333333333333333333333333")
	condRef  = common.HexToHash("0x4444444444444444444444444444444444444444444444444444444444444444")
)

// validBet returns a bet that passes every field rule at instant now.
func validBet(now time.Time) LinkedBet {
	return LinkedBet{
		SellToken:    tokenA,
		BuyToken:     tokenB,
		Receiver:     receiver,
		SellAmount:   big.NewInt(100),
		MinBuyAmount: big.NewInt(50),
		ValidFrom:    uint64(now.Unix()) + 100,
		ValidUntil:   uint64(now.Unix()) + 1000,
		ConditionRef: condRef,
	}
}

func TestValidateFields(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	t.Run("valid bet passes", func(t *testing.T) {
		require.NoError(t, validBet(now).ValidateFields(now))
	})

	t.Run("same sell and buy token", func(t *testing.T) {
		b := validBet(now)
		b.BuyToken = b.SellToken
		assert.ErrorIs(t, b.ValidateFields(now), ErrSameToken)
	})

	t.Run("zero sell token", func(t *testing.T) {
		b := validBet(now)
		b.SellToken = common.Address{}
		assert.ErrorIs(t, b.ValidateFields(now), ErrInvalidToken)
	})

	t.Run("zero buy token", func(t *testing.T) {
		b := validBet(now)
		b.BuyToken = common.Address{}
		assert.ErrorIs(t, b.ValidateFields(now), ErrInvalidToken)
	})

	t.Run("start date equal to now", func(t *testing.T) {
		b := validBet(now)
		b.ValidFrom = uint64(now.Unix())
		assert.ErrorIs(t, b.ValidateFields(now), ErrInvalidStartDate)
	})

	t.Run("start date in the past", func(t *testing.T) {
		b := validBet(now)
		b.ValidFrom = uint64(now.Unix()) - 1
		assert.ErrorIs(t, b.ValidateFields(now), ErrInvalidStartDate)
	})

	t.Run("start date one second ahead passes", func(t *testing.T) {
		b := validBet(now)
		b.ValidFrom = uint64(now.Unix()) + 1
		require.NoError(t, b.ValidateFields(now))
	})

	t.Run("end date equal to start date", func(t *testing.T) {
		b := validBet(now)
		b.ValidUntil = b.ValidFrom
		assert.ErrorIs(t, b.ValidateFields(now), ErrInvalidEndDate)
	})

	t.Run("end date before start date", func(t *testing.T) {
		b := validBet(now)
		b.ValidUntil = b.ValidFrom - 1
		assert.ErrorIs(t, b.ValidateFields(now), ErrInvalidEndDate)
	})

	t.Run("end date at uint32 max is reserved", func(t *testing.T) {
		b := validBet(now)
		b.ValidUntil = uint64(1)<<32 - 1
		assert.ErrorIs(t, b.ValidateFields(now), ErrInvalidEndDate)
	})

	t.Run("end date just below uint32 max passes", func(t *testing.T) {
		b := validBet(now)
		b.ValidUntil = uint64(1)<<32 - 2
		require.NoError(t, b.ValidateFields(now))
	})

	t.Run("nil sell amount", func(t *testing.T) {
		b := validBet(now)
		b.SellAmount = nil
		assert.ErrorIs(t, b.ValidateFields(now), ErrInvalidSellAmount)
	})

	t.Run("zero sell amount", func(t *testing.T) {
		b := validBet(now)
		b.SellAmount = big.NewInt(0)
		assert.ErrorIs(t, b.ValidateFields(now), ErrInvalidSellAmount)
	})

	t.Run("zero min buy amount", func(t *testing.T) {
		b := validBet(now)
		b.MinBuyAmount = big.NewInt(0)
		assert.ErrorIs(t, b.ValidateFields(now), ErrInvalidMinBuyAmount)
	})

	t.Run("zero condition ref", func(t *testing.T) {
		b := validBet(now)
		b.ConditionRef = common.Hash{}
		assert.ErrorIs(t, b.ValidateFields(now), ErrInvalidConditionRef)
	})

	t.Run("first violated rule wins", func(t *testing.T) {
		// Same-token is checked before the amount rules.
		b := validBet(now)
		b.BuyToken = b.SellToken
		b.SellAmount = nil
		b.ConditionRef = common.Hash{}
		assert.ErrorIs(t, b.ValidateFields(now), ErrSameToken)
	})
}

func TestValidateAgainstStatus(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	t.Run("open condition with remaining passes", func(t *testing.T) {
		status := ConditionStatus{Remaining: big.NewInt(10), ResolvedOrCancelled: false}
		require.NoError(t, validBet(now).Validate(now, status))
	})

	t.Run("resolved condition passes", func(t *testing.T) {
		status := ConditionStatus{Remaining: big.NewInt(0), ResolvedOrCancelled: true}
		require.NoError(t, validBet(now).Validate(now, status))
	})

	t.Run("unknown ref is rejected", func(t *testing.T) {
		// Nothing remaining and not resolved: the venue never opened this ref.
		status := ConditionStatus{Remaining: big.NewInt(0), ResolvedOrCancelled: false}
		assert.ErrorIs(t, validBet(now).Validate(now, status), ErrInvalidConditionRef)
	})

	t.Run("field rules run before status rules", func(t *testing.T) {
		b := validBet(now)
		b.BuyToken = b.SellToken
		status := ConditionStatus{Remaining: big.NewInt(0), ResolvedOrCancelled: false}
		assert.ErrorIs(t, b.Validate(now, status), ErrSameToken)
	})
}

func TestDerive(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	resolved := ConditionStatus{Remaining: big.NewInt(0), ResolvedOrCancelled: true}

	t.Run("maps every field onto the swap order", func(t *testing.T) {
		b := validBet(now)
		order, err := b.Derive(now, resolved)
		require.NoError(t, err)

		assert.Equal(t, b.SellToken, order.SellToken)
		assert.Equal(t, b.BuyToken, order.BuyToken)
		assert.Equal(t, b.Receiver, order.Receiver)
		assert.Equal(t, b.SellAmount.String(), order.SellAmount.String())
		assert.Equal(t, b.MinBuyAmount.String(), order.BuyAmount.String())
		assert.Equal(t, uint32(b.ValidUntil), order.ValidTo)
		assert.Equal(t, b.ConditionRef, order.AppData)
		assert.Zero(t, order.FeeAmount.Sign())
		assert.Equal(t, OrderKindSell, order.Kind)
		assert.False(t, order.PartiallyFillable)
		assert.Equal(t, BalanceERC20, order.SellTokenBalance)
		assert.Equal(t, BalanceERC20, order.BuyTokenBalance)
	})

	t.Run("amounts are copies", func(t *testing.T) {
		b := validBet(now)
		order, err := b.Derive(now, resolved)
		require.NoError(t, err)

		order.SellAmount.SetInt64(999)
		order.BuyAmount.SetInt64(999)
		assert.Equal(t, "100", b.SellAmount.String())
		assert.Equal(t, "50", b.MinBuyAmount.String())
	})

	t.Run("recomputed on every call", func(t *testing.T) {
		b := validBet(now)
		first, err := b.Derive(now, resolved)
		require.NoError(t, err)
		second, err := b.Derive(now, resolved)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.NotSame(t, first.SellAmount, second.SellAmount)
	})

	t.Run("fails on invalid bet", func(t *testing.T) {
		b := validBet(now)
		b.ValidFrom = uint64(now.Unix()) - 5
		_, err := b.Derive(now, resolved)
		assert.ErrorIs(t, err, ErrInvalidStartDate)
	})
}

func TestRemainingZero(t *testing.T) {
	assert.True(t, ConditionStatus{}.RemainingZero())
	assert.True(t, ConditionStatus{Remaining: big.NewInt(0)}.RemainingZero())
	assert.False(t, ConditionStatus{Remaining: big.NewInt(1)}.RemainingZero())
}

func TestReasonForValidation(t *testing.T) {
	cases := map[error]Reason{
		ErrSameToken:           ReasonSameToken,
		ErrInvalidToken:        ReasonInvalidToken,
		ErrInvalidStartDate:    ReasonInvalidStartDate,
		ErrInvalidEndDate:      ReasonInvalidEndDate,
		ErrInvalidSellAmount:   ReasonInvalidSellAmount,
		ErrInvalidMinBuyAmount: ReasonInvalidMinBuyAmount,
		ErrInvalidConditionRef: ReasonInvalidConditionRef,
	}
	for err, want := range cases {
		assert.Equal(t, want, ReasonForValidation(err))
	}
	assert.Equal(t, Reason(""), ReasonForValidation(ErrBadPayload))
}
