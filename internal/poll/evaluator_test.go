package poll

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"math/rand"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betlinkd/internal/domain"
)

// stubSource serves a fixed status (or error) and counts reads.
type stubSource struct {
	status domain.ConditionStatus
	err    error
	reads  int
}

func (s *stubSource) GetStatus(ctx context.Context, ref common.Hash) (domain.ConditionStatus, error) {
	s.reads++
	if s.err != nil {
		return domain.ConditionStatus{}, s.err
	}
	return s.status, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBet(now time.Time) domain.LinkedBet {
	return domain.LinkedBet{
		SellToken:    common.HexToAddress("0x1111111111111111111111111111111111111111"),
		BuyToken:     common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Receiver:     common.HexToAddress("0x3333333333333333333333333333333333333333"),
		SellAmount:   big.NewInt(100),
		MinBuyAmount: big.NewInt(50),
		ValidFrom:    uint64(now.Unix()) + 100,
		ValidUntil:   uint64(now.Unix()) + 1000,
		ConditionRef: common.HexToHash("0xabcdabcdabcdabcdabcdabcdabcdabcdabcdabcdabcdabcdabcdabcdabcdabcd"),
	}
}

func openStatus(remaining int64) domain.ConditionStatus {
	return domain.ConditionStatus{Remaining: big.NewInt(remaining), ResolvedOrCancelled: false}
}

func closedStatus(remaining int64) domain.ConditionStatus {
	return domain.ConditionStatus{Remaining: big.NewInt(remaining), ResolvedOrCancelled: true}
}

func TestEvaluateOpenCondition(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	src := &stubSource{status: openStatus(100)}
	e := NewEvaluator(src, testLogger())

	eval, err := e.Evaluate(context.Background(), testBet(now), now)
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionRetryLater, eval.Decision)
	assert.Equal(t, domain.ReasonConditionOpen, eval.Reason)
	assert.Nil(t, eval.Order)
	assert.Equal(t, now, eval.CheckedAt)
	assert.Equal(t, 1, src.reads, "exactly one status read per evaluation")
}

func TestEvaluateConditionFilled(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	bet := testBet(now)
	e := NewEvaluator(&stubSource{status: closedStatus(0)}, testLogger())

	eval, err := e.Evaluate(context.Background(), bet, now)
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionTradeable, eval.Decision)
	assert.Equal(t, domain.ReasonConditionFilled, eval.Reason)
	require.NotNil(t, eval.Order)
	assert.Equal(t, "50", eval.Order.BuyAmount.String())
	assert.Equal(t, uint32(bet.ValidUntil), eval.Order.ValidTo)
	assert.Equal(t, bet.ConditionRef, eval.Order.AppData)
}

func TestEvaluateConditionCancelled(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	// Closed with quantity still outstanding: cancelled before completion.
	e := NewEvaluator(&stubSource{status: closedStatus(25)}, testLogger())

	eval, err := e.Evaluate(context.Background(), testBet(now), now)
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionNever, eval.Decision)
	assert.Equal(t, domain.ReasonConditionCancelled, eval.Reason)
	assert.Nil(t, eval.Order)
}

func TestEvaluateStartDateNotReached(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	bet := testBet(now)
	bet.ValidFrom = uint64(now.Unix()) - 1

	e := NewEvaluator(&stubSource{status: openStatus(100)}, testLogger())
	eval, err := e.Evaluate(context.Background(), bet, now)
	require.NoError(t, err)

	// The start-date rule is the only temporal one; it retries rather than
	// killing the bet.
	assert.Equal(t, domain.DecisionRetryLater, eval.Decision)
	assert.Equal(t, domain.ReasonInvalidStartDate, eval.Reason)
}

func TestEvaluateStructuralErrorIsFinal(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	bet := testBet(now)
	bet.BuyToken = bet.SellToken

	for _, status := range []domain.ConditionStatus{openStatus(100), closedStatus(0), closedStatus(25)} {
		e := NewEvaluator(&stubSource{status: status}, testLogger())
		eval, err := e.Evaluate(context.Background(), bet, now)
		require.NoError(t, err)

		assert.Equal(t, domain.DecisionNever, eval.Decision)
		assert.Equal(t, domain.ReasonSameToken, eval.Reason)
	}
}

func TestEvaluateUnknownRef(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	// Not resolved and nothing remaining: the venue never opened this ref.
	e := NewEvaluator(&stubSource{status: openStatus(0)}, testLogger())

	eval, err := e.Evaluate(context.Background(), testBet(now), now)
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionNever, eval.Decision)
	assert.Equal(t, domain.ReasonInvalidConditionRef, eval.Reason)
}

func TestEvaluateStatusReadFailure(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	readErr := errors.New("connection refused")
	e := NewEvaluator(&stubSource{err: readErr}, testLogger())

	_, err := e.Evaluate(context.Background(), testBet(now), now)
	require.Error(t, err)

	// The transport failure is its own channel, never one of the three
	// decisions, and both the sentinel and the cause stay reachable.
	assert.ErrorIs(t, err, domain.ErrStatusUnavailable)
	assert.ErrorIs(t, err, readErr)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	bet := testBet(now)
	e := NewEvaluator(&stubSource{status: closedStatus(0)}, testLogger())

	first, err := e.Evaluate(context.Background(), bet, now)
	require.NoError(t, err)
	second, err := e.Evaluate(context.Background(), bet, now)
	require.NoError(t, err)

	assert.Equal(t, first.Decision, second.Decision)
	assert.Equal(t, first.Reason, second.Reason)
	assert.Equal(t, first.Order, second.Order)
}

// TestEvaluateLifecycle walks a bet through the one-way condition lifecycle
// and checks the decision sequence never resurrects a dead bet.
func TestEvaluateLifecycle(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	bet := testBet(now)

	t.Run("open then filled", func(t *testing.T) {
		steps := []struct {
			status domain.ConditionStatus
			want   domain.Decision
		}{
			{openStatus(100), domain.DecisionRetryLater},
			{openStatus(40), domain.DecisionRetryLater},
			{closedStatus(0), domain.DecisionTradeable},
			{closedStatus(0), domain.DecisionTradeable}, // stays tradeable
		}
		for i, step := range steps {
			e := NewEvaluator(&stubSource{status: step.status}, testLogger())
			eval, err := e.Evaluate(context.Background(), bet, now)
			require.NoError(t, err)
			assert.Equal(t, step.want, eval.Decision, "step %d", i)
		}
	})

	t.Run("generated walks never resurrect", func(t *testing.T) {
		// Random venue walks: remaining only ever decreases, and once closed
		// the status is frozen. Whatever the walk, the decision sequence must
		// be retry-later up to the close and then stay on one terminal
		// decision; in particular a never must not be followed by tradeable.
		rng := rand.New(rand.NewSource(1))
		for walk := 0; walk < 100; walk++ {
			remaining := rng.Int63n(1000) + 1
			closeAt := rng.Intn(8)
			var (
				closed    bool
				decisions []domain.Decision
			)
			for step := 0; step < 10; step++ {
				if !closed && step >= closeAt {
					closed = true
					if rng.Intn(2) == 0 {
						remaining = 0 // filled
					}
				}
				if !closed && remaining > 0 {
					remaining -= rng.Int63n(remaining + 1)
					if remaining == 0 {
						remaining = 1 // open conditions keep quantity outstanding
					}
				}

				status := domain.ConditionStatus{
					Remaining:           big.NewInt(remaining),
					ResolvedOrCancelled: closed,
				}
				e := NewEvaluator(&stubSource{status: status}, testLogger())
				eval, err := e.Evaluate(context.Background(), bet, now)
				require.NoError(t, err)
				decisions = append(decisions, eval.Decision)
			}

			var sawNever, sawTerminal bool
			for i, d := range decisions {
				switch d {
				case domain.DecisionNever:
					sawNever = true
					sawTerminal = true
				case domain.DecisionTradeable:
					assert.False(t, sawNever, "walk %d: tradeable after never at step %d: %v", walk, i, decisions)
					sawTerminal = true
				case domain.DecisionRetryLater:
					assert.False(t, sawTerminal, "walk %d: retry after terminal at step %d: %v", walk, i, decisions)
				}
			}
		}
	})

	t.Run("open then cancelled", func(t *testing.T) {
		steps := []struct {
			status domain.ConditionStatus
			want   domain.Decision
		}{
			{openStatus(100), domain.DecisionRetryLater},
			{closedStatus(60), domain.DecisionNever},
			{closedStatus(60), domain.DecisionNever}, // stays dead
		}
		for i, step := range steps {
			e := NewEvaluator(&stubSource{status: step.status}, testLogger())
			eval, err := e.Evaluate(context.Background(), bet, now)
			require.NoError(t, err)
			assert.Equal(t, step.want, eval.Decision, "step %d", i)
		}
	})
}
