package budget

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/grantledger/internal/logger"
)

// Progress is emitted after each row of an import batch has been attempted.
type Progress struct {
	Done      int
	Total     int
	Succeeded int
}

// ImportFailure records a row that could not be persisted.
type ImportFailure struct {
	Index int // Position in the submitted list
	Row   ParsedRow
	Err   error
}

type ImportOutcome string

const (
	ImportComplete ImportOutcome = "complete"
	ImportPartial  ImportOutcome = "partial"
	ImportFailed   ImportOutcome = "failed"
)

type ImportResult struct {
	Attempted int
	Succeeded int
	Items     []*Item // Created items in submission order
	Failures  []ImportFailure
}

func (r *ImportResult) Failed() int {
	return r.Attempted - r.Succeeded
}

func (r *ImportResult) Outcome() ImportOutcome {
	switch {
	case r.Succeeded == 0:
		return ImportFailed
	case r.Succeeded < r.Attempted:
		return ImportPartial
	default:
		return ImportComplete
	}
}

// Message is the user-facing summary of the batch.
func (r *ImportResult) Message() string {
	switch r.Outcome() {
	case ImportFailed:
		return fmt.Sprintf("no items imported (%d failed)", r.Attempted)
	case ImportPartial:
		return fmt.Sprintf("%d of %d items imported", r.Succeeded, r.Attempted)
	default:
		return fmt.Sprintf("all %d items imported", r.Attempted)
	}
}

type importConfig struct {
	progress chan<- Progress
	workers  int
}

type ImportOption func(*importConfig)

// WithProgress streams a Progress value after every attempted row. The channel is
// not closed by ImportBatch; sends block, so the caller must keep receiving.
func WithProgress(ch chan<- Progress) ImportOption {
	return func(c *importConfig) {
		c.progress = ch
	}
}

// WithWorkers sets how many rows may be persisted at once. The default of 1
// commits strictly in list order.
func WithWorkers(n int) ImportOption {
	return func(c *importConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// ImportBatch persists reviewed rows as budget items of a grant. A failing row is
// recorded and skipped; the rest of the batch still runs. The raw category text of
// each row goes through the category matcher here, so edits made during review apply.
//
// If ctx is cancelled, rows not yet started are reported as failures with ctx.Err().
func (s *Service) ImportBatch(ctx context.Context, grantID uuid.UUID, rows []ParsedRow, opts ...ImportOption) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, ErrNothingToImport
	}

	cfg := importConfig{workers: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	created := make([]*Item, len(rows))
	errs := make([]error, len(rows))

	var (
		mu        sync.Mutex
		done      int
		succeeded int
	)

	commit := func(i int) {
		var item *Item

		err := ctx.Err()
		if err == nil {
			item, err = s.CreateItem(ctx, CreateItemParams{
				GrantID:     grantID,
				Description: rows[i].Description,
				Category:    rows[i].Category,
				Price:       rows[i].Total,
			})
		}

		mu.Lock()
		defer mu.Unlock()

		created[i], errs[i] = item, err
		done++

		if err == nil {
			succeeded++
		}

		if cfg.progress != nil {
			cfg.progress <- Progress{Done: done, Total: len(rows), Succeeded: succeeded}
		}
	}

	if cfg.workers == 1 {
		for i := range rows {
			commit(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(cfg.workers)

		for i := range rows {
			g.Go(func() error {
				commit(i)
				return nil
			})
		}

		_ = g.Wait()
	}

	result := &ImportResult{Attempted: len(rows)}
	log := logger.FromContext(ctx)

	for i, err := range errs {
		if err != nil {
			result.Failures = append(result.Failures, ImportFailure{Index: i, Row: rows[i], Err: err})

			log.Warn().
				Err(err).
				Int("row", rows[i].SourceRow).
				Str("description", rows[i].Description).
				Msg("budget item import failed")

			continue
		}

		result.Items = append(result.Items, created[i])
		result.Succeeded++
	}

	log.Info().
		Str("grant_id", grantID.String()).
		Int("attempted", result.Attempted).
		Int("succeeded", result.Succeeded).
		Msg("budget import finished")

	if result.Succeeded == 0 {
		return result, ErrNothingImported
	}

	return result, nil
}
