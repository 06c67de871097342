package codec

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betlinkd/internal/domain"
)

func sampleBet() domain.LinkedBet {
	now := uint64(time.Unix(1_700_000_000, 0).Unix())
	return domain.LinkedBet{
		SellToken:    common.HexToAddress("0x1111111111111111111111111111111111111111"),
		BuyToken:     common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Receiver:     common.HexToAddress("0x3333333333333333333333333333333333333333"),
		SellAmount:   big.NewInt(1_000_000),
		MinBuyAmount: big.NewInt(42),
		ValidFrom:    now + 100,
		ValidUntil:   now + 1000,
		ConditionRef: common.HexToHash("0x4444444444444444444444444444444444444444444444444444444444444444"),
	}
}

func TestRoundTrip(t *testing.T) {
	bet := sampleBet()

	payload, err := EncodeBet(bet)
	require.NoError(t, err)
	require.Len(t, payload, PayloadLen)

	got, err := DecodeBet(payload)
	require.NoError(t, err)
	assert.Equal(t, bet, got)
}

func TestRoundTripLargeAmounts(t *testing.T) {
	bet := sampleBet()
	// Full 256-bit amount survives the trip.
	bet.SellAmount, _ = new(big.Int).SetString(
		"ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff", 16)

	payload, err := EncodeBet(bet)
	require.NoError(t, err)
	got, err := DecodeBet(payload)
	require.NoError(t, err)
	assert.Equal(t, bet.SellAmount.String(), got.SellAmount.String())
}

func TestEncodeRejectsOversizedAmounts(t *testing.T) {
	overflow := new(big.Int).Lsh(big.NewInt(1), 256) // 2^256, one bit too wide

	bet := sampleBet()
	bet.SellAmount = overflow
	_, err := EncodeBet(bet)
	assert.ErrorIs(t, err, domain.ErrBadPayload)

	bet = sampleBet()
	bet.MinBuyAmount = overflow
	_, err = EncodeBet(bet)
	assert.ErrorIs(t, err, domain.ErrBadPayload)

	bet = sampleBet()
	bet.SellAmount = big.NewInt(-1)
	_, err = EncodeBet(bet)
	assert.ErrorIs(t, err, domain.ErrBadPayload)
}

func TestDecodeRejectsBadLength(t *testing.T) {
	for _, n := range []int{0, 1, PayloadLen - 1, PayloadLen + 1, 2 * PayloadLen} {
		_, err := DecodeBet(make([]byte, n))
		assert.ErrorIs(t, err, domain.ErrBadPayload, "length %d", n)
	}
}

func TestDecodeRejectsAddressPadding(t *testing.T) {
	// A dirty byte in the high 12 bytes of any address word fails the whole
	// payload.
	for _, wordIdx := range []int{0, 1, 2} {
		payload, err := EncodeBet(sampleBet())
		require.NoError(t, err)
		payload[wordIdx*32+3] = 0x01

		_, err = DecodeBet(payload)
		assert.ErrorIs(t, err, domain.ErrBadPayload, "word %d", wordIdx)
	}
}

func TestDecodeRejectsTimeOverflow(t *testing.T) {
	// Time words only carry 64 bits; anything above must be zero.
	for _, wordIdx := range []int{5, 6} {
		payload, err := EncodeBet(sampleBet())
		require.NoError(t, err)
		payload[wordIdx*32+10] = 0xff

		_, err = DecodeBet(payload)
		assert.ErrorIs(t, err, domain.ErrBadPayload, "word %d", wordIdx)
	}
}

func TestEncodeNilAmounts(t *testing.T) {
	bet := sampleBet()
	bet.SellAmount = nil
	bet.MinBuyAmount = nil

	payload, err := EncodeBet(bet)
	require.NoError(t, err)
	got, err := DecodeBet(payload)
	require.NoError(t, err)
	assert.Zero(t, got.SellAmount.Sign())
	assert.Zero(t, got.MinBuyAmount.Sign())
}
