package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// OrderKind indicates which leg of the swap carries the exact amount.
type OrderKind string

const (
	// OrderKindSell means SellAmount is exact and BuyAmount is a minimum.
	OrderKindSell OrderKind = "sell"
	// OrderKindBuy means BuyAmount is exact and SellAmount is a maximum.
	OrderKindBuy OrderKind = "buy"
)

// BalanceSource selects where a leg of the swap is settled from or to.
type BalanceSource string

const (
	// BalanceERC20 settles against the plain token balance of the owner.
	BalanceERC20 BalanceSource = "erc20"
	// BalanceInternal settles against the exchange-internal balance.
	BalanceInternal BalanceSource = "internal"
	// BalanceExternal settles against an external vault balance.
	BalanceExternal BalanceSource = "external"
)

// SwapOrder is the canonical exchange-native order derived from a validated
// LinkedBet. AppData carries the condition reference so the settlement layer
// can route the order back to the bet that produced it. Orders derived from
// linked bets always sell an exact amount, carry no protocol fee, are not
// partially fillable, and settle both legs from plain balances.
type SwapOrder struct {
	SellToken         common.Address
	BuyToken          common.Address
	Receiver          common.Address
	SellAmount        *big.Int
	BuyAmount         *big.Int
	ValidTo           uint32
	AppData           common.Hash
	FeeAmount         *big.Int
	Kind              OrderKind
	PartiallyFillable bool
	SellTokenBalance  BalanceSource
	BuyTokenBalance   BalanceSource
}
