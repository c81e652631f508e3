package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fel.dev/fel/internal/engine"
)

func TestRebaseMapResolve(t *testing.T) {
	t.Run("unknown commits resolve to themselves", func(t *testing.T) {
		m := engine.RebaseMap{"a": "b"}
		require.Equal(t, "z", m.Resolve("z"))
	})

	t.Run("chains resolve to their fixed point", func(t *testing.T) {
		m := engine.RebaseMap{"a": "b", "b": "c", "c": "d"}
		require.Equal(t, "d", m.Resolve("a"))
		require.Equal(t, "d", m.Resolve("b"))
	})
}

func TestRebaseMapMerge(t *testing.T) {
	t.Run("inherited values are chased through the fresh map", func(t *testing.T) {
		inherited := engine.RebaseMap{"a": "b"}
		fresh := engine.RebaseMap{"b": "c"}

		merged := engine.Merge(inherited, fresh)
		require.Equal(t, "c", merged["a"])
		require.Equal(t, "c", merged["b"])
	})

	t.Run("fresh entries win on conflict", func(t *testing.T) {
		inherited := engine.RebaseMap{"a": "old"}
		fresh := engine.RebaseMap{"a": "new"}

		merged := engine.Merge(inherited, fresh)
		require.Equal(t, "new", merged["a"])
	})

	t.Run("merging empty maps is empty", func(t *testing.T) {
		require.Empty(t, engine.Merge(engine.RebaseMap{}, engine.RebaseMap{}))
	})
}
