package aggregate

import (
	"context"
	"fmt"

	apperrors "github.com/kagent-dev/zendesk-mcp/pkg/errors"
)

// Page is one bounded slice of a paged remote collection. Next is the
// continuation reference as served; empty means the collection is exhausted.
type Page[T any] struct {
	Items []T
	Next  string
}

// PageFetcher retrieves the page addressed by a relative path.
type PageFetcher[T any] func(ctx context.Context, path string) (Page[T], error)

// PageObserver is called after every page with the 1-based page number and
// the number of items accumulated so far.
type PageObserver func(page, total int)

type paginateOptions struct {
	maxPages  int
	normalize func(string) string
	observers []PageObserver
}

// PaginateOption configures Paginate
type PaginateOption func(*paginateOptions)

// WithMaxPages fails the aggregation once more than n pages would be
// requested. Zero or a negative n means no limit.
func WithMaxPages(n int) PaginateOption {
	return func(o *paginateOptions) { o.maxPages = n }
}

// WithNormalizer maps each continuation reference to the path handed to the
// fetcher for the next page.
func WithNormalizer(normalize func(string) string) PaginateOption {
	return func(o *paginateOptions) {
		if normalize != nil {
			o.normalize = normalize
		}
	}
}

// WithPageObserver registers an observer for completed pages
func WithPageObserver(observer PageObserver) PaginateOption {
	return func(o *paginateOptions) {
		if observer != nil {
			o.observers = append(o.observers, observer)
		}
	}
}

// Paginate fetches seed and every page reachable through continuation
// references, strictly one after another, and returns all items in fetch
// order. Any failed page aborts the run and nothing accumulated so far is
// returned.
//
// Without WithMaxPages, termination depends on the remote side eventually
// omitting the continuation reference.
func Paginate[T any](ctx context.Context, seed string, fetch PageFetcher[T], opts ...PaginateOption) ([]T, error) {
	o := paginateOptions{normalize: func(ref string) string { return ref }}
	for _, opt := range opts {
		opt(&o)
	}

	var items []T
	path := seed
	for page := 1; ; page++ {
		if o.maxPages > 0 && page > o.maxPages {
			return nil, apperrors.Newf(apperrors.ErrCodePageLimit,
				"collection at %s exceeds %d pages", seed, o.maxPages)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pagination of %s interrupted: %w", seed, err)
		}

		p, err := fetch(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("page %d of %s: %w", page, seed, err)
		}

		items = append(items, p.Items...)
		for _, observe := range o.observers {
			observe(page, len(items))
		}

		if p.Next == "" {
			return items, nil
		}
		path = o.normalize(p.Next)
	}
}
