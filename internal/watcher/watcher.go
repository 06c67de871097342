// Package watcher drives the polling loop: it re-evaluates every registered
// linked bet on an interval, honors the three-way outcome classification,
// and persists what it decided. The evaluator itself is stateless; all
// scheduling policy (tick interval, concurrency, dead-ref skipping, retry)
// lives here.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/betlinkd/internal/domain"
	"github.com/alanyoungcy/betlinkd/internal/notify"
	"github.com/alanyoungcy/betlinkd/internal/poll"
)

// tickLockTTL bounds how long one replica can hold the tick lock. Must
// comfortably exceed a full sweep.
const tickLockTTL = 2 * time.Minute

// Config holds watcher scheduling parameters.
type Config struct {
	// Interval between full sweeps over the active bets.
	Interval time.Duration
	// Concurrency bounds how many bets are evaluated in parallel per sweep.
	Concurrency int
	// PageSize is the batch size when listing active bets.
	PageSize int
}

// Watcher owns the re-evaluation loop.
type Watcher struct {
	cfg       Config
	evaluator *poll.Evaluator
	bets      domain.BetStore
	evals     domain.EvaluationStore
	dead      domain.DeadSet
	cache     domain.StatusCache
	locks     domain.LockManager
	notifier  *notify.Notifier
	logger    *slog.Logger

	// wake receives condition refs pushed by the WebSocket feed so the
	// affected bets are re-checked before the next tick.
	wake chan common.Hash
}

// New creates a Watcher. locks, cache, dead, evals and notifier may be nil;
// the corresponding behaviour (replica exclusion, cache invalidation on
// wake, dead-ref skipping, history, notifications) is then skipped.
func New(
	cfg Config,
	evaluator *poll.Evaluator,
	bets domain.BetStore,
	evals domain.EvaluationStore,
	dead domain.DeadSet,
	cache domain.StatusCache,
	locks domain.LockManager,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 200
	}
	return &Watcher{
		cfg:       cfg,
		evaluator: evaluator,
		bets:      bets,
		evals:     evals,
		dead:      dead,
		cache:     cache,
		locks:     locks,
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "watcher")),
		wake:      make(chan common.Hash, 64),
	}
}

// Wake schedules an early re-check for every bet linked to ref. Safe to call
// from any goroutine; if the queue is full the update is dropped, the next
// tick covers it anyway.
func (w *Watcher) Wake(ref common.Hash) {
	select {
	case w.wake <- ref:
	default:
	}
}

// Run sweeps all active bets on the configured interval and whenever a wake
// arrives, until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "watcher starting",
		slog.Duration("interval", w.cfg.Interval),
		slog.Int("concurrency", w.cfg.Concurrency),
	)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	// Sweep once at startup so restarts do not wait a full interval.
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		case ref := <-w.wake:
			if w.cache != nil {
				if err := w.cache.Invalidate(ctx, ref); err != nil {
					w.logger.WarnContext(ctx, "cache invalidation failed",
						slog.String("ref", ref.Hex()),
						slog.String("error", err.Error()),
					)
				}
			}
			w.sweep(ctx)
		}
	}
}

// sweep evaluates every active bet once. Failures on individual bets are
// logged and do not abort the sweep.
func (w *Watcher) sweep(ctx context.Context) {
	if w.locks != nil {
		unlock, err := w.locks.Acquire(ctx, "watcher:sweep", tickLockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				w.logger.DebugContext(ctx, "sweep already running on another replica")
				return
			}
			w.logger.WarnContext(ctx, "sweep lock failed, proceeding unlocked",
				slog.String("error", err.Error()),
			)
		} else {
			defer unlock()
		}
	}

	start := time.Now()
	var checked, tradeable, dropped int

	// Snapshot the active set before evaluating. Recording a Never decision
	// deactivates the bet, which would shift later pages under an
	// offset-paged list and let bets escape the sweep.
	var snapshot []domain.RegisteredBet
	opts := domain.ListOpts{Limit: w.cfg.PageSize}
	for {
		bets, err := w.bets.ListActive(ctx, opts)
		if err != nil {
			w.logger.ErrorContext(ctx, "list active bets failed",
				slog.String("error", err.Error()),
			)
			return
		}
		snapshot = append(snapshot, bets...)
		if len(bets) < opts.Limit {
			break
		}
		opts.Offset += len(bets)
	}

	for len(snapshot) > 0 {
		bets := snapshot
		if len(bets) > w.cfg.PageSize {
			bets = bets[:w.cfg.PageSize]
		}
		snapshot = snapshot[len(bets):]

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(w.cfg.Concurrency)
		results := make([]domain.Evaluation, len(bets))
		skipped := make([]bool, len(bets))

		for i, bet := range bets {
			g.Go(func() error {
				eval, skip := w.checkOne(gctx, bet)
				results[i] = eval
				skipped[i] = skip
				return nil
			})
		}
		_ = g.Wait()

		for i, bet := range bets {
			if skipped[i] {
				continue
			}
			checked++
			switch results[i].Decision {
			case domain.DecisionTradeable:
				tradeable++
			case domain.DecisionNever:
				dropped++
			}
			w.record(ctx, bet, results[i])
		}
	}

	w.logger.InfoContext(ctx, "sweep complete",
		slog.Int("checked", checked),
		slog.Int("tradeable", tradeable),
		slog.Int("dropped", dropped),
		slog.Duration("took", time.Since(start)),
	)
}

// checkOne evaluates a single bet. skip is true when no decision was reached
// (dead ref handled elsewhere, or the status read failed).
func (w *Watcher) checkOne(ctx context.Context, bet domain.RegisteredBet) (domain.Evaluation, bool) {
	ref := bet.Bet.Ref()

	if w.dead != nil {
		isDead, err := w.dead.Contains(ctx, ref)
		if err != nil {
			w.logger.WarnContext(ctx, "dead set lookup failed",
				slog.String("bet_id", bet.ID),
				slog.String("error", err.Error()),
			)
		} else if isDead {
			// Bet slipped back in while its ref is already dead; drop it
			// without another venue read.
			if err := w.bets.Deactivate(ctx, bet.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				w.logger.WarnContext(ctx, "deactivate dead bet failed",
					slog.String("bet_id", bet.ID),
					slog.String("error", err.Error()),
				)
			}
			return domain.Evaluation{}, true
		}
	}

	eval, err := w.evaluator.Evaluate(ctx, bet.Bet, time.Now())
	if err != nil {
		// Status read failed: environment problem, retry on a later sweep.
		w.logger.WarnContext(ctx, "evaluation unavailable",
			slog.String("bet_id", bet.ID),
			slog.String("ref", ref.Hex()),
			slog.String("error", err.Error()),
		)
		return domain.Evaluation{}, true
	}
	return eval, false
}

// record persists and broadcasts one decision.
func (w *Watcher) record(ctx context.Context, bet domain.RegisteredBet, eval domain.Evaluation) {
	if err := w.bets.RecordDecision(ctx, bet.ID, eval); err != nil {
		w.logger.WarnContext(ctx, "record decision failed",
			slog.String("bet_id", bet.ID),
			slog.String("error", err.Error()),
		)
	}
	if w.evals != nil {
		if err := w.evals.Insert(ctx, bet.ID, eval); err != nil {
			w.logger.WarnContext(ctx, "insert evaluation failed",
				slog.String("bet_id", bet.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	switch eval.Decision {
	case domain.DecisionTradeable:
		w.logger.InfoContext(ctx, "bet tradeable",
			slog.String("bet_id", bet.ID),
			slog.String("ref", bet.Bet.Ref().Hex()),
		)
		// Notify only on the transition into tradeable; a bet that stays
		// tradeable across sweeps already had its alert.
		if w.notifier != nil && eval.Order != nil && bet.LastDecision != domain.DecisionTradeable {
			if err := w.notifier.BetTradeable(ctx, bet, *eval.Order); err != nil {
				w.logger.WarnContext(ctx, "tradeable notification failed",
					slog.String("bet_id", bet.ID),
					slog.String("error", err.Error()),
				)
			}
		}

	case domain.DecisionNever:
		w.logger.InfoContext(ctx, "bet permanently dead",
			slog.String("bet_id", bet.ID),
			slog.String("ref", bet.Bet.Ref().Hex()),
			slog.String("reason", string(eval.Reason)),
		)
		if w.dead != nil {
			if err := w.dead.Add(ctx, bet.Bet.Ref()); err != nil {
				w.logger.WarnContext(ctx, "dead set add failed",
					slog.String("bet_id", bet.ID),
					slog.String("error", err.Error()),
				)
			}
		}
		if err := w.bets.Deactivate(ctx, bet.ID); err != nil {
			w.logger.WarnContext(ctx, "deactivate bet failed",
				slog.String("bet_id", bet.ID),
				slog.String("error", err.Error()),
			)
		}
		if w.notifier != nil {
			if err := w.notifier.BetDead(ctx, bet, eval.Reason); err != nil {
				w.logger.WarnContext(ctx, "dead notification failed",
					slog.String("bet_id", bet.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
