package mongo

import (
	"context"
	"time"
)

// WithOpTimeout returns ctx unchanged when it is already ≤ d away from expiring
// (or already done); otherwise it wraps ctx in context.WithTimeout(ctx, d).
// The returned cancel is always safe to defer:
//
//	ctx, cancel := WithOpTimeout(parentCtx, d)
//	defer cancel()
func WithOpTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 || ctx.Err() != nil {
		return ctx, func() {}
	}
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) <= d {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
