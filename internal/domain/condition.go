package domain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ConditionStatus is the live state of an external condition as reported by
// the venue. Remaining is the unresolved quantity left on the condition;
// ResolvedOrCancelled is set once the condition is no longer open, whether it
// completed or was cancelled. The two fields together drive the three-way
// outcome classification.
type ConditionStatus struct {
	Remaining           *big.Int
	ResolvedOrCancelled bool
}

// RemainingZero reports whether nothing is left unresolved on the condition.
// A nil Remaining counts as zero.
func (s ConditionStatus) RemainingZero() bool {
	return s.Remaining == nil || s.Remaining.Sign() == 0
}

// ConditionSource reads the current status of an external condition. Reads
// may return different results across calls as the venue progresses; a read
// failure is an environment problem and must be surfaced, never folded into
// a classification.
type ConditionSource interface {
	GetStatus(ctx context.Context, ref common.Hash) (ConditionStatus, error)
}
