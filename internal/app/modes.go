package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/betlinkd/internal/domain"
	"github.com/alanyoungcy/betlinkd/internal/platform/polymarket"
	"github.com/alanyoungcy/betlinkd/internal/poll"
	"github.com/alanyoungcy/betlinkd/internal/server"
	"github.com/alanyoungcy/betlinkd/internal/server/handler"
	"github.com/alanyoungcy/betlinkd/internal/watcher"
)

// newEvaluator builds the shared evaluation stack: venue REST client wrapped
// in the Redis-backed status cache, feeding the classifier.
func (a *App) newEvaluator(deps *Dependencies) *poll.Evaluator {
	client := polymarket.NewConditionClient(a.cfg.Polymarket.ClobHost)
	source := poll.NewCachingSource(client, deps.StatusCache, a.logger)
	return poll.NewEvaluator(source, a.logger)
}

// WatchMode runs the polling loop (and, when configured, the WebSocket wake
// feed and the evaluation archive) until the context is cancelled.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watch mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startWatch(ctx, g, deps)
	return g.Wait()
}

// ServerMode runs only the operator HTTP API.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startServer(ctx, g, deps)
	return g.Wait()
}

// FullMode runs the watcher and the HTTP API side by side.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startWatch(ctx, g, deps)
	if a.cfg.Server.Enabled {
		a.startServer(ctx, g, deps)
	}
	return g.Wait()
}

// startWatch registers the watcher goroutines on g.
func (a *App) startWatch(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	evaluator := a.newEvaluator(deps)

	w := watcher.New(
		watcher.Config{
			Interval:    a.cfg.Watch.Interval.Duration,
			Concurrency: a.cfg.Watch.Concurrency,
			PageSize:    a.cfg.Watch.PageSize,
		},
		evaluator,
		deps.Bets,
		deps.Evals,
		deps.Dead,
		deps.StatusCache,
		deps.Locks,
		deps.Notifier,
		a.logger,
	)

	g.Go(func() error {
		return w.Run(ctx)
	})

	// Real-time wake feed: a venue push for a tracked condition invalidates
	// the cached status and triggers an early re-check. The periodic sweep
	// still covers everything, so a feed failure only costs latency.
	if a.cfg.Watch.UseWebsocket && a.cfg.Polymarket.WsHost != "" {
		g.Go(func() error {
			return a.runWakeFeed(ctx, deps, w)
		})
	}

	if deps.Archiver != nil {
		g.Go(func() error {
			return watcher.ArchiveLoop(ctx, deps.Archiver, a.cfg.Watch.ArchiveInterval.Duration, a.logger)
		})
	}
}

// runWakeFeed connects the WebSocket client, subscribes to the condition refs
// of all active bets, and forwards venue updates into the watcher.
func (a *App) runWakeFeed(ctx context.Context, deps *Dependencies, w *watcher.Watcher) error {
	ws := polymarket.NewWSClient(a.cfg.Polymarket.WsHost)
	defer ws.Close()

	ws.OnConditionUpdate(func(orderID, status string) {
		w.Wake(common.HexToHash(orderID))
	})

	if err := ws.Connect(ctx); err != nil {
		// Degrade to tick-only polling rather than bringing the group down.
		a.logger.WarnContext(ctx, "websocket feed unavailable, polling only",
			slog.String("error", err.Error()),
		)
		return nil
	}

	if refs, err := a.activeRefs(ctx, deps); err != nil {
		a.logger.WarnContext(ctx, "could not list active condition refs",
			slog.String("error", err.Error()),
		)
	} else if len(refs) > 0 {
		if err := ws.Subscribe(ctx, refs); err != nil {
			a.logger.WarnContext(ctx, "websocket subscribe failed",
				slog.String("error", err.Error()),
			)
		}
	}

	<-ctx.Done()
	return ctx.Err()
}

// activeRefs collects the distinct condition refs of all active bets.
func (a *App) activeRefs(ctx context.Context, deps *Dependencies) ([]string, error) {
	seen := make(map[common.Hash]struct{})
	var refs []string

	offset := 0
	pageSize := a.cfg.Watch.PageSize
	for {
		page, err := deps.Bets.ListActive(ctx, domain.ListOpts{Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, b := range page {
			if _, ok := seen[b.Bet.ConditionRef]; ok {
				continue
			}
			seen[b.Bet.ConditionRef] = struct{}{}
			refs = append(refs, b.Bet.ConditionRef.Hex())
		}
		if len(page) < pageSize {
			return refs, nil
		}
		offset += pageSize
	}
}

// startServer registers the HTTP API goroutines on g.
func (a *App) startServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	evaluator := a.newEvaluator(deps)

	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(a.logger),
		Bets:     handler.NewBetHandler(deps.Bets, deps.Evals, a.logger),
		Evaluate: handler.NewEvaluateHandler(evaluator, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
	}, handlers, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
