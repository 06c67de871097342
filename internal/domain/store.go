package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// RegisteredBet is a LinkedBet under management: the decoded payload plus
// scheduler bookkeeping. The bet itself stays immutable; only the polling
// metadata changes.
type RegisteredBet struct {
	ID            string
	Bet           LinkedBet
	Active        bool
	LastDecision  Decision
	LastReason    Reason
	LastCheckedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BetStore persists registered bets and their latest polling decision.
type BetStore interface {
	Create(ctx context.Context, bet RegisteredBet) error
	GetByID(ctx context.Context, id string) (RegisteredBet, error)
	ListActive(ctx context.Context, opts ListOpts) ([]RegisteredBet, error)
	RecordDecision(ctx context.Context, id string, eval Evaluation) error
	Deactivate(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// EvaluationRecord is one row of evaluation history.
type EvaluationRecord struct {
	ID        int64
	BetID     string
	Decision  Decision
	Reason    Reason
	CheckedAt time.Time
}

// EvaluationStore persists an append-only history of evaluation outcomes.
type EvaluationStore interface {
	Insert(ctx context.Context, betID string, eval Evaluation) error
	ListByBet(ctx context.Context, betID string, opts ListOpts) ([]EvaluationRecord, error)
	ListSince(ctx context.Context, since time.Time, opts ListOpts) ([]EvaluationRecord, error)
}
