package tools

import "context"

// ProgressFunc reports incremental progress of a long running invocation.
// total is zero when unknown.
type ProgressFunc func(progress, total float64, message string)

type progressKey struct{}

// WithProgress attaches a progress reporter to ctx
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	if fn == nil {
		return ctx
	}
	return context.WithValue(ctx, progressKey{}, fn)
}

// ProgressFrom returns the reporter attached to ctx, or a no-op
func ProgressFrom(ctx context.Context) ProgressFunc {
	if fn, ok := ctx.Value(progressKey{}).(ProgressFunc); ok {
		return fn
	}
	return func(float64, float64, string) {}
}
