// Package codec encodes and decodes the static linked-bet payload exchanged
// with the settlement framework. The layout is eight 32-byte big-endian
// words: sell token, buy token, receiver, sell amount, minimum buy amount,
// valid-from, valid-until, condition reference. Addresses and the time
// fields are left-padded with zero bytes; a payload that does not decode to
// exactly these fields fails as a whole.
package codec

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/betlinkd/internal/domain"
)

const (
	wordLen = 32
	// PayloadLen is the exact byte length of an encoded linked bet.
	PayloadLen = 8 * wordLen
)

// DecodeBet decodes a static payload into a LinkedBet. It returns
// domain.ErrBadPayload (wrapped) on any length or padding violation; field
// values themselves are not validated here, that is the job of
// LinkedBet.Validate.
func DecodeBet(payload []byte) (domain.LinkedBet, error) {
	if len(payload) != PayloadLen {
		return domain.LinkedBet{}, fmt.Errorf("codec: payload is %d bytes, want %d: %w",
			len(payload), PayloadLen, domain.ErrBadPayload)
	}

	sellToken, err := addressWord(payload, 0, "sell token")
	if err != nil {
		return domain.LinkedBet{}, err
	}
	buyToken, err := addressWord(payload, 1, "buy token")
	if err != nil {
		return domain.LinkedBet{}, err
	}
	receiver, err := addressWord(payload, 2, "receiver")
	if err != nil {
		return domain.LinkedBet{}, err
	}
	validFrom, err := uint64Word(payload, 5, "valid from")
	if err != nil {
		return domain.LinkedBet{}, err
	}
	validUntil, err := uint64Word(payload, 6, "valid until")
	if err != nil {
		return domain.LinkedBet{}, err
	}

	return domain.LinkedBet{
		SellToken:    sellToken,
		BuyToken:     buyToken,
		Receiver:     receiver,
		SellAmount:   new(big.Int).SetBytes(word(payload, 3)),
		MinBuyAmount: new(big.Int).SetBytes(word(payload, 4)),
		ValidFrom:    validFrom,
		ValidUntil:   validUntil,
		ConditionRef: common.BytesToHash(word(payload, 7)),
	}, nil
}

// EncodeBet is the inverse of DecodeBet. Nil amounts encode as zero; an
// amount that does not fit a 256-bit word cannot be represented and fails
// with domain.ErrBadPayload.
func EncodeBet(bet domain.LinkedBet) ([]byte, error) {
	out := make([]byte, PayloadLen)

	copy(out[0*wordLen+12:], bet.SellToken.Bytes())
	copy(out[1*wordLen+12:], bet.BuyToken.Bytes())
	copy(out[2*wordLen+12:], bet.Receiver.Bytes())
	if err := putAmount(out[3*wordLen:4*wordLen], bet.SellAmount, "sell amount"); err != nil {
		return nil, err
	}
	if err := putAmount(out[4*wordLen:5*wordLen], bet.MinBuyAmount, "minimum buy amount"); err != nil {
		return nil, err
	}
	binary.BigEndian.PutUint64(out[5*wordLen+24:], bet.ValidFrom)
	binary.BigEndian.PutUint64(out[6*wordLen+24:], bet.ValidUntil)
	copy(out[7*wordLen:], bet.ConditionRef.Bytes())

	return out, nil
}

func word(payload []byte, i int) []byte {
	return payload[i*wordLen : (i+1)*wordLen]
}

// addressWord extracts a 20-byte address from word i, rejecting non-zero
// padding in the high 12 bytes.
func addressWord(payload []byte, i int, field string) (common.Address, error) {
	w := word(payload, i)
	for _, b := range w[:12] {
		if b != 0 {
			return common.Address{}, fmt.Errorf("codec: %s word has non-zero padding: %w",
				field, domain.ErrBadPayload)
		}
	}
	return common.BytesToAddress(w[12:]), nil
}

// uint64Word extracts a uint64 from the low 8 bytes of word i, rejecting
// values that overflow 64 bits.
func uint64Word(payload []byte, i int, field string) (uint64, error) {
	w := word(payload, i)
	for _, b := range w[:24] {
		if b != 0 {
			return 0, fmt.Errorf("codec: %s word overflows uint64: %w",
				field, domain.ErrBadPayload)
		}
	}
	return binary.BigEndian.Uint64(w[24:]), nil
}

func putAmount(dst []byte, v *big.Int, field string) error {
	if v == nil {
		return nil
	}
	// FillBytes panics on values that do not fit the word.
	if v.Sign() < 0 || v.BitLen() > 8*wordLen {
		return fmt.Errorf("codec: %s does not fit a 256-bit word: %w", field, domain.ErrBadPayload)
	}
	v.FillBytes(dst)
	return nil
}
