package watcher

import (
	"context"
	"log/slog"
	"time"

	s3blob "github.com/alanyoungcy/betlinkd/internal/blob/s3"
)

// ArchiveLoop uploads the evaluation history accumulated since the previous
// upload to cold storage on the given interval. It runs until the context is
// cancelled and never returns a non-context error: a failed upload is logged
// and retried with the next window extended to cover the gap.
func ArchiveLoop(ctx context.Context, archiver *s3blob.EvalArchiver, interval time.Duration, logger *slog.Logger) error {
	logger = logger.With(slog.String("component", "eval_archiver"))
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	since := time.Now().UTC()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		n, err := archiver.ArchiveSince(ctx, since)
		if err != nil {
			logger.ErrorContext(ctx, "evaluation archive failed",
				slog.String("error", err.Error()),
			)
			continue
		}

		logger.InfoContext(ctx, "evaluation archive uploaded",
			slog.Int64("rows", n),
			slog.Time("since", since),
		)
		since = time.Now().UTC()
	}
}
