package dbrouter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHints(t *testing.T) {
	t.Run("Should return an empty map when context has no hints", func(t *testing.T) {
		h := HintsFromContext(context.Background())
		assert.NotNil(t, h)
		assert.Empty(t, h)
	})

	t.Run("Should merge hints over existing ones", func(t *testing.T) {
		ctx := WithHints(context.Background(), Hints{"a": 1, "b": 1})
		ctx = WithHints(ctx, Hints{"b": 2})
		assert.Equal(t, Hints{"a": 1, "b": 2}, HintsFromContext(ctx))
	})

	t.Run("Should not leak mutations back into the context", func(t *testing.T) {
		ctx := WithHints(context.Background(), Hints{"a": 1})
		h := HintsFromContext(ctx)
		h["a"] = 99
		assert.Equal(t, 1, HintsFromContext(ctx)["a"])
	})

	t.Run("Should copy on With", func(t *testing.T) {
		base := Hints{"a": 1}
		next := base.With(HintOperation, "read")
		assert.NotContains(t, base, HintOperation)
		assert.Equal(t, "read", next[HintOperation])
	})
}
