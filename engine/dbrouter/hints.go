package dbrouter

import (
	"context"
	"maps"
)

// Hints carries optional caller context for a routing decision.
type Hints map[string]any

// Well-known hint keys set by the data-access layer.
const (
	HintOperation = "operation"
	HintInstance  = "instance"
)

type hintsCtxKey struct{}

// WithHints returns a context carrying a copy of hints merged over any hints
// already present in ctx.
func WithHints(ctx context.Context, hints Hints) context.Context {
	merged := HintsFromContext(ctx)
	maps.Copy(merged, hints)
	return context.WithValue(ctx, hintsCtxKey{}, merged)
}

// HintsFromContext returns a copy of the hints stored in ctx. It never
// returns nil, so callers may add keys to the result.
func HintsFromContext(ctx context.Context) Hints {
	out := Hints{}
	if ctx == nil {
		return out
	}
	if h, ok := ctx.Value(hintsCtxKey{}).(Hints); ok {
		maps.Copy(out, h)
	}
	return out
}

// With returns a copy of h with key set to value.
func (h Hints) With(key string, value any) Hints {
	out := make(Hints, len(h)+1)
	maps.Copy(out, h)
	out[key] = value
	return out
}
