package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/betlinkd/internal/domain"
)

// EvaluationStore implements domain.EvaluationStore using PostgreSQL.
type EvaluationStore struct {
	pool *pgxpool.Pool
}

// NewEvaluationStore creates a new EvaluationStore backed by the given pool.
func NewEvaluationStore(pool *pgxpool.Pool) *EvaluationStore {
	return &EvaluationStore{pool: pool}
}

// Insert appends one evaluation outcome for a bet.
func (s *EvaluationStore) Insert(ctx context.Context, betID string, eval domain.Evaluation) error {
	const query = `
		INSERT INTO evaluations (bet_id, decision, reason, checked_at)
		VALUES ($1, $2, $3, $4)`

	_, err := s.pool.Exec(ctx, query,
		betID, string(eval.Decision), string(eval.Reason), eval.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert evaluation for bet %s: %w", betID, err)
	}
	return nil
}

// ListByBet returns the evaluation history of one bet, newest first.
func (s *EvaluationStore) ListByBet(ctx context.Context, betID string, opts domain.ListOpts) ([]domain.EvaluationRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, bet_id, decision, reason, checked_at FROM evaluations
		 WHERE bet_id = $1 ORDER BY checked_at DESC LIMIT $2 OFFSET $3`,
		betID, limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list evaluations for bet %s: %w", betID, err)
	}
	defer rows.Close()

	return collectEvaluations(rows)
}

// ListSince returns all evaluations recorded at or after the given time,
// oldest first. Used by the archiver to batch recent history to cold storage.
func (s *EvaluationStore) ListSince(ctx context.Context, since time.Time, opts domain.ListOpts) ([]domain.EvaluationRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 1000
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, bet_id, decision, reason, checked_at FROM evaluations
		 WHERE checked_at >= $1 ORDER BY checked_at LIMIT $2 OFFSET $3`,
		since, limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list evaluations since %s: %w", since, err)
	}
	defer rows.Close()

	return collectEvaluations(rows)
}

func collectEvaluations(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]domain.EvaluationRecord, error) {
	var recs []domain.EvaluationRecord
	for rows.Next() {
		var (
			r                domain.EvaluationRecord
			decision, reason string
		)
		if err := rows.Scan(&r.ID, &r.BetID, &decision, &reason, &r.CheckedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan evaluation: %w", err)
		}
		r.Decision = domain.Decision(decision)
		r.Reason = domain.Reason(reason)
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list evaluations: %w", err)
	}
	return recs, nil
}

// Compile-time interface check.
var _ domain.EvaluationStore = (*EvaluationStore)(nil)
