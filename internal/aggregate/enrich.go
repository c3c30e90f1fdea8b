package aggregate

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// Default bounds of an enrichment batch
const (
	DefaultCandidateCap = 10
	DefaultResultCap    = 5
)

// EnrichOptions bounds an enrichment batch. MaxConcurrency of zero fetches
// every candidate of the truncated prefix at once.
type EnrichOptions struct {
	CandidateCap   int
	ResultCap      int
	MaxConcurrency int
}

func (o EnrichOptions) withDefaults() EnrichOptions {
	if o.CandidateCap <= 0 {
		o.CandidateCap = DefaultCandidateCap
	}
	if o.ResultCap <= 0 {
		o.ResultCap = DefaultResultCap
	}
	return o
}

// DetailFetcher loads the full record behind a summary
type DetailFetcher[S, D any] func(ctx context.Context, summary S) (D, error)

// Transformer merges a summary with its detail. Returning false discards
// the record.
type Transformer[S, D, R any] func(summary S, detail D) (R, bool)

// EnrichResult is the outcome of one batch. Failures holds one error per
// candidate whose detail fetch failed, keyed in the message by candidate id.
type EnrichResult[R any] struct {
	Items      []R
	Matched    int
	Candidates int
	Filtered   int
	Failed     int
	Failures   *multierror.Error
}

// Dropped returns how many fetched candidates did not survive
func (r EnrichResult[R]) Dropped() int {
	return r.Filtered + r.Failed
}

type enrichSlot[R any] struct {
	value R
	keep  bool
	err   error
}

// Enrich truncates summaries to the candidate cap, fetches every
// candidate's detail concurrently, applies transform, and returns the
// survivors in input order capped at the result cap. A failed fetch drops
// that candidate only; Enrich itself never fails.
func Enrich[S, D, R any](
	ctx context.Context,
	summaries []S,
	key func(S) string,
	fetch DetailFetcher[S, D],
	transform Transformer[S, D, R],
	opts EnrichOptions,
) EnrichResult[R] {
	opts = opts.withDefaults()

	candidates := summaries
	if len(candidates) > opts.CandidateCap {
		candidates = candidates[:opts.CandidateCap]
	}

	slots := make([]enrichSlot[R], len(candidates))
	var g errgroup.Group
	if opts.MaxConcurrency > 0 {
		g.SetLimit(opts.MaxConcurrency)
	}
	for i, candidate := range candidates {
		g.Go(func() error {
			detail, err := fetch(ctx, candidate)
			if err != nil {
				slots[i].err = err
				return nil
			}
			slots[i].value, slots[i].keep = transform(candidate, detail)
			return nil
		})
	}
	_ = g.Wait()

	result := EnrichResult[R]{
		Matched:    len(summaries),
		Candidates: len(candidates),
	}
	for i, slot := range slots {
		switch {
		case slot.err != nil:
			result.Failed++
			result.Failures = multierror.Append(result.Failures,
				fmt.Errorf("candidate %s: %w", key(candidates[i]), slot.err))
		case !slot.keep:
			result.Filtered++
		case len(result.Items) < opts.ResultCap:
			result.Items = append(result.Items, slot.value)
		}
	}

	return result
}
