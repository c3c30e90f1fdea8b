package aggregate

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hit struct {
	ID int
}

type detail struct {
	ID     int
	Public bool
}

type merged struct {
	ID int
}

func hitKey(h hit) string { return strconv.Itoa(h.ID) }

func keepPublic(h hit, d detail) (merged, bool) {
	if !d.Public {
		return merged{}, false
	}
	return merged{ID: h.ID}, true
}

func hits(n int) []hit {
	out := make([]hit, n)
	for i := range out {
		out[i] = hit{ID: i + 1}
	}
	return out
}

func ids(items []merged) []int {
	out := make([]int, len(items))
	for i, m := range items {
		out[i] = m.ID
	}
	return out
}

func TestEnrich_FilteredAndFailedCandidates(t *testing.T) {
	fetch := func(_ context.Context, h hit) (detail, error) {
		// Later candidates answer first so completion order differs from input order.
		time.Sleep(time.Duration(10-h.ID) * time.Millisecond)
		switch h.ID {
		case 3:
			return detail{ID: h.ID, Public: false}, nil
		case 7:
			return detail{}, errors.New("connection reset")
		}
		return detail{ID: h.ID, Public: true}, nil
	}

	result := Enrich(context.Background(), hits(10), hitKey, fetch, keepPublic,
		EnrichOptions{CandidateCap: 10, ResultCap: 5})

	assert.Equal(t, []int{1, 2, 4, 5, 6}, ids(result.Items))
	assert.Equal(t, 10, result.Matched)
	assert.Equal(t, 10, result.Candidates)
	assert.Equal(t, 1, result.Filtered)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 2, result.Dropped())
	require.NotNil(t, result.Failures)
	assert.Contains(t, result.Failures.Error(), "candidate 7")
	assert.Contains(t, result.Failures.Error(), "connection reset")
}

func TestEnrich_TruncatesBeforeFetching(t *testing.T) {
	var fetched atomic.Int32
	fetch := func(_ context.Context, h hit) (detail, error) {
		fetched.Add(1)
		return detail{ID: h.ID, Public: true}, nil
	}

	result := Enrich(context.Background(), hits(25), hitKey, fetch, keepPublic,
		EnrichOptions{CandidateCap: 10, ResultCap: 5})

	assert.Equal(t, int32(10), fetched.Load(), "candidates beyond the cap are never fetched")
	assert.Equal(t, 25, result.Matched)
	assert.Equal(t, 10, result.Candidates)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(result.Items))
}

func TestEnrich_OutputBoundedAndOrdered(t *testing.T) {
	tests := []struct {
		name      string
		input     int
		resultCap int
	}{
		{"fewer than cap", 3, 5},
		{"exactly cap", 5, 5},
		{"more than cap", 9, 5},
		{"empty", 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetch := func(_ context.Context, h hit) (detail, error) {
				return detail{ID: h.ID, Public: h.ID%2 == 1}, nil
			}

			result := Enrich(context.Background(), hits(tt.input), hitKey, fetch, keepPublic,
				EnrichOptions{CandidateCap: 10, ResultCap: tt.resultCap})

			assert.LessOrEqual(t, len(result.Items), tt.resultCap)
			assert.LessOrEqual(t, len(result.Items), tt.input)
			got := ids(result.Items)
			for i := 1; i < len(got); i++ {
				assert.Less(t, got[i-1], got[i])
			}
		})
	}
}

func TestEnrich_AllFailed(t *testing.T) {
	fetch := func(_ context.Context, h hit) (detail, error) {
		return detail{}, errors.New("timeout")
	}

	result := Enrich(context.Background(), hits(4), hitKey, fetch, keepPublic, EnrichOptions{})

	assert.Empty(t, result.Items)
	assert.Equal(t, 4, result.Failed)
	assert.Len(t, result.Failures.Errors, 4)
}

func TestEnrich_BoundedConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	fetch := func(_ context.Context, h hit) (detail, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return detail{ID: h.ID, Public: true}, nil
	}

	result := Enrich(context.Background(), hits(10), hitKey, fetch, keepPublic,
		EnrichOptions{CandidateCap: 10, ResultCap: 10, MaxConcurrency: 2})

	assert.Len(t, result.Items, 10)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestEnrichOptions_Defaults(t *testing.T) {
	o := EnrichOptions{}.withDefaults()
	assert.Equal(t, DefaultCandidateCap, o.CandidateCap)
	assert.Equal(t, DefaultResultCap, o.ResultCap)
	assert.Equal(t, 0, o.MaxConcurrency)
}
