package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/betlinkd/internal/domain"
)

// EvalArchiver batches recent evaluation history to object storage as JSONL
// for offline analysis. Archived rows are NOT deleted from the primary
// store; pruning is a separate, explicit operational step executed after the
// archive has been verified.
type EvalArchiver struct {
	writer domain.BlobWriter
	evals  domain.EvaluationStore
}

// NewEvalArchiver creates a new EvalArchiver.
func NewEvalArchiver(writer domain.BlobWriter, evals domain.EvaluationStore) *EvalArchiver {
	return &EvalArchiver{
		writer: writer,
		evals:  evals,
	}
}

// archiveRow is the JSONL line format for one archived evaluation.
type archiveRow struct {
	ID        int64     `json:"id"`
	BetID     string    `json:"bet_id"`
	Decision  string    `json:"decision"`
	Reason    string    `json:"reason"`
	CheckedAt time.Time `json:"checked_at"`
}

// ArchiveSince uploads all evaluations recorded at or after since to
// archive/evaluations/YYYY-MM-DD.jsonl (keyed by the upload day) and returns
// the number of archived rows. An empty window uploads nothing.
func (a *EvalArchiver) ArchiveSince(ctx context.Context, since time.Time) (int64, error) {
	var (
		total int64
		buf   bytes.Buffer
		opts  = domain.ListOpts{Limit: 1000}
	)

	enc := json.NewEncoder(&buf)
	for {
		recs, err := a.evals.ListSince(ctx, since, opts)
		if err != nil {
			return 0, fmt.Errorf("s3blob: archive evaluations query: %w", err)
		}
		if len(recs) == 0 {
			break
		}

		for _, r := range recs {
			row := archiveRow{
				ID:        r.ID,
				BetID:     r.BetID,
				Decision:  string(r.Decision),
				Reason:    string(r.Reason),
				CheckedAt: r.CheckedAt,
			}
			if err := enc.Encode(row); err != nil {
				return 0, fmt.Errorf("s3blob: encode evaluation %d: %w", r.ID, err)
			}
		}

		total += int64(len(recs))
		if len(recs) < opts.Limit {
			break
		}
		opts.Offset += len(recs)
	}

	if total == 0 {
		return 0, nil
	}

	key := fmt.Sprintf("archive/evaluations/%s.jsonl", time.Now().UTC().Format("2006-01-02"))
	if err := a.writer.Put(ctx, key, &buf, "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: upload evaluation archive: %w", err)
	}
	return total, nil
}
