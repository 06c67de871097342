package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/betlinkd/internal/domain"
)

// BetStore implements domain.BetStore using PostgreSQL. Token addresses and
// the condition reference are stored as hex strings; amounts as NUMERIC(78,0)
// so the full 256-bit range survives the round trip.
type BetStore struct {
	pool *pgxpool.Pool
}

// NewBetStore creates a new BetStore backed by the given connection pool.
func NewBetStore(pool *pgxpool.Pool) *BetStore {
	return &BetStore{pool: pool}
}

// Create inserts a newly registered bet.
func (s *BetStore) Create(ctx context.Context, bet domain.RegisteredBet) error {
	const query = `
		INSERT INTO linked_bets (
			id, sell_token, buy_token, receiver,
			sell_amount, min_buy_amount, valid_from, valid_until,
			condition_ref, active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, NOW(), NOW()
		)`

	_, err := s.pool.Exec(ctx, query,
		bet.ID,
		bet.Bet.SellToken.Hex(), bet.Bet.BuyToken.Hex(), bet.Bet.Receiver.Hex(),
		bet.Bet.SellAmount.String(), bet.Bet.MinBuyAmount.String(),
		int64(bet.Bet.ValidFrom), int64(bet.Bet.ValidUntil),
		bet.Bet.ConditionRef.Hex(), bet.Active,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("postgres: create bet %s: %w", bet.ID, err)
	}
	return nil
}

// GetByID fetches one registered bet.
func (s *BetStore) GetByID(ctx context.Context, id string) (domain.RegisteredBet, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+betSelectCols+` FROM linked_bets WHERE id = $1`, id)

	bet, err := scanBet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RegisteredBet{}, domain.ErrNotFound
		}
		return domain.RegisteredBet{}, fmt.Errorf("postgres: get bet %s: %w", id, err)
	}
	return bet, nil
}

// ListActive returns active bets ordered by creation time.
func (s *BetStore) ListActive(ctx context.Context, opts domain.ListOpts) ([]domain.RegisteredBet, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+betSelectCols+` FROM linked_bets
		 WHERE active ORDER BY created_at LIMIT $1 OFFSET $2`,
		limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list active bets: %w", err)
	}
	defer rows.Close()

	var bets []domain.RegisteredBet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan bet: %w", err)
		}
		bets = append(bets, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list active bets: %w", err)
	}
	return bets, nil
}

// RecordDecision stores the outcome of the latest evaluation on the bet row.
func (s *BetStore) RecordDecision(ctx context.Context, id string, eval domain.Evaluation) error {
	const query = `
		UPDATE linked_bets
		SET last_decision = $1, last_reason = $2, last_checked_at = $3, updated_at = NOW()
		WHERE id = $4`

	tag, err := s.pool.Exec(ctx, query,
		string(eval.Decision), string(eval.Reason), eval.CheckedAt, id,
	)
	if err != nil {
		return fmt.Errorf("postgres: record decision for bet %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Deactivate removes a bet from the polling rotation. Used when a bet
// classifies as never tradeable, or on operator request.
func (s *BetStore) Deactivate(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE linked_bets SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deactivate bet %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the total number of registered bets.
func (s *BetStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM linked_bets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count bets: %w", err)
	}
	return n, nil
}

// Amounts are cast to text so the full NUMERIC(78,0) range scans losslessly.
const betSelectCols = `id, sell_token, buy_token, receiver,
	sell_amount::text, min_buy_amount::text, valid_from, valid_until,
	condition_ref, active, last_decision, last_reason, last_checked_at,
	created_at, updated_at`

func scanBet(scanner interface{ Scan(dest ...any) error }) (domain.RegisteredBet, error) {
	var (
		b                                 domain.RegisteredBet
		sellToken, buyToken, receiver     string
		sellAmount, minBuyAmount, condRef string
		validFrom, validUntil             int64
		lastDecision, lastReason          *string
	)

	err := scanner.Scan(
		&b.ID, &sellToken, &buyToken, &receiver,
		&sellAmount, &minBuyAmount, &validFrom, &validUntil,
		&condRef, &b.Active, &lastDecision, &lastReason, &b.LastCheckedAt,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return domain.RegisteredBet{}, err
	}

	sell, ok := new(big.Int).SetString(sellAmount, 10)
	if !ok {
		return domain.RegisteredBet{}, fmt.Errorf("bad sell_amount %q", sellAmount)
	}
	minBuy, ok := new(big.Int).SetString(minBuyAmount, 10)
	if !ok {
		return domain.RegisteredBet{}, fmt.Errorf("bad min_buy_amount %q", minBuyAmount)
	}

	b.Bet = domain.LinkedBet{
		SellToken:    common.HexToAddress(sellToken),
		BuyToken:     common.HexToAddress(buyToken),
		Receiver:     common.HexToAddress(receiver),
		SellAmount:   sell,
		MinBuyAmount: minBuy,
		ValidFrom:    uint64(validFrom),
		ValidUntil:   uint64(validUntil),
		ConditionRef: common.HexToHash(condRef),
	}
	if lastDecision != nil {
		b.LastDecision = domain.Decision(*lastDecision)
	}
	if lastReason != nil {
		b.LastReason = domain.Reason(*lastReason)
	}
	return b, nil
}

// Compile-time interface check.
var _ domain.BetStore = (*BetStore)(nil)
