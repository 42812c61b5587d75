// Package collect drives the paginated reconstruction of the remote
// patient set: a sequential first pass over the page range, a recovery
// pass over pages that failed it, and order-preserving deduplication of
// the accumulated records.
package collect

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ehr/triage/internal/domain/triage"
)

// Page is one fetched slice of the remote collection. HasNext is nil
// when the service did not report a pagination flag.
type Page struct {
	Records []triage.PatientRecord
	HasNext *bool
}

// Fetcher retrieves a single page, retrying internally up to the given
// attempt budget. A returned error is definitive for that (page, budget)
// call; the collector decides whether the page gets another chance.
type Fetcher interface {
	FetchPage(ctx context.Context, page, budget int) (*Page, error)
}

// Dedup policies for patients that appear on more than one page.
const (
	DedupFirstWins = "first"
	DedupLastWins  = "last"
)

// Options configures a collection run.
type Options struct {
	// MaxPages bounds the first-pass sweep. When the service reports
	// hasNext=false the sweep ends early; MaxPages is the safety bound.
	MaxPages int
	// FirstPassBudget is the per-page attempt budget for the sweep.
	FirstPassBudget int
	// RecoveryBudget is the larger per-page budget for the recovery pass.
	RecoveryBudget int
	// DedupPolicy is DedupFirstWins (default) or DedupLastWins.
	DedupPolicy string
}

// Collector owns the accumulating record list and the pending-retry page
// set for the duration of one run. It is not safe for concurrent use and
// is not meant to be: fetches are strictly sequential.
type Collector struct {
	fetcher Fetcher
	opts    Options
	logger  zerolog.Logger
}

// New creates a Collector.
func New(fetcher Fetcher, opts Options, logger zerolog.Logger) *Collector {
	if opts.DedupPolicy == "" {
		opts.DedupPolicy = DedupFirstWins
	}
	return &Collector{fetcher: fetcher, opts: opts, logger: logger}
}

// Result is the terminal state of a collection run.
type Result struct {
	Records   []triage.PatientRecord
	LostPages []int
}

// Collect runs both passes and returns whatever was gathered. A page
// that fails both passes is logged as permanently lost and excluded;
// the run itself never fails because of a lost page.
func (c *Collector) Collect(ctx context.Context) *Result {
	var (
		collected []triage.PatientRecord
		failed    []int
	)

	for page := 1; page <= c.opts.MaxPages; page++ {
		res, err := c.fetcher.FetchPage(ctx, page, c.opts.FirstPassBudget)
		if err != nil {
			c.logger.Warn().Int("page", page).Err(err).Msg("page failed first pass, queued for recovery")
			failed = append(failed, page)
			continue
		}
		collected = append(collected, res.Records...)
		c.logger.Debug().Int("page", page).Int("records", len(res.Records)).Msg("page collected")
		if res.HasNext != nil && !*res.HasNext {
			c.logger.Info().Int("page", page).Msg("service reports no further pages")
			break
		}
	}

	var lost []int
	for _, page := range failed {
		res, err := c.fetcher.FetchPage(ctx, page, c.opts.RecoveryBudget)
		if err != nil {
			c.logger.Error().Int("page", page).Err(err).Msg("page permanently lost")
			lost = append(lost, page)
			continue
		}
		collected = append(collected, res.Records...)
		c.logger.Info().Int("page", page).Int("records", len(res.Records)).Msg("page recovered")
	}

	deduped := c.dedupe(collected)
	c.logger.Info().
		Int("records", len(deduped)).
		Int("duplicates", len(collected)-len(deduped)).
		Ints("lost_pages", lost).
		Msg("collection complete")

	return &Result{Records: deduped, LostPages: lost}
}

// dedupe enforces the unique patient_id invariant while preserving the
// position of each patient's first occurrence. Under last-wins the later
// record replaces the earlier one in place.
func (c *Collector) dedupe(records []triage.PatientRecord) []triage.PatientRecord {
	seen := make(map[string]int, len(records))
	out := make([]triage.PatientRecord, 0, len(records))
	for _, rec := range records {
		if at, dup := seen[rec.ID]; dup {
			if c.opts.DedupPolicy == DedupLastWins {
				out[at] = rec
			}
			continue
		}
		seen[rec.ID] = len(out)
		out = append(out, rec)
	}
	return out
}
