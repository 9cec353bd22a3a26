package searcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"triz/tree"
)

func mockCandidates(n int) []*tree.Node {
	nodes := make([]*tree.Node, n)
	for i := range nodes {
		nodes[i] = &tree.Node{ID: string(rune('a' + i)), Level: 1}
	}
	return nodes
}

func TestSelectBatch(t *testing.T) {
	t.Run("probing forces a single node", func(t *testing.T) {
		got := SelectBatch(mockCandidates(3), true, FixedBatch(2))

		require.Equal(t, []string{"a"}, ids(got))
	})

	t.Run("backfill uses the sizer", func(t *testing.T) {
		got := SelectBatch(mockCandidates(3), false, FixedBatch(2))

		require.Equal(t, []string{"a", "b"}, ids(got), "Batch should be the head of the ordered candidates")
	})

	t.Run("batch is bounded by the eligible count", func(t *testing.T) {
		got := SelectBatch(mockCandidates(1), false, FixedBatch(2))

		require.Len(t, got, 1)
	})

	t.Run("non-positive sizes fall back to one", func(t *testing.T) {
		require.Len(t, SelectBatch(mockCandidates(2), false, FixedBatch(0)), 1)
		require.Len(t, SelectBatch(mockCandidates(2), false, nil), 1)
	})

	t.Run("no candidates yields no batch", func(t *testing.T) {
		require.Nil(t, SelectBatch(nil, false, FixedBatch(2)))
	})

	t.Run("appending to a batch does not clobber the candidates", func(t *testing.T) {
		candidates := mockCandidates(3)
		batch := SelectBatch(candidates, true, nil)

		_ = append(batch, &tree.Node{ID: "z"})

		require.Equal(t, "b", candidates[1].ID)
	})
}

func TestRandomBatch(t *testing.T) {
	t.Run("sizes stay within one and max", func(t *testing.T) {
		sizer := NewRandomBatch(2, 42)
		seen := map[int]bool{}
		for i := 0; i < 200; i++ {
			size := sizer.Size(5)
			require.GreaterOrEqual(t, size, 1)
			require.LessOrEqual(t, size, 2)
			seen[size] = true
		}

		require.Len(t, seen, 2, "Both sizes should be drawn over many trials")
	})

	t.Run("invalid max falls back to the default", func(t *testing.T) {
		sizer := NewRandomBatch(0, 1)

		require.Equal(t, DefaultMaxBatch, sizer.max)
	})

	t.Run("same seed gives the same sequence", func(t *testing.T) {
		s1 := NewRandomBatch(2, 7)
		s2 := NewRandomBatch(2, 7)
		for i := 0; i < 20; i++ {
			require.Equal(t, s1.Size(3), s2.Size(3))
		}
	})
}

func TestDeriveSeed(t *testing.T) {
	t.Run("zero keeps clock seeding", func(t *testing.T) {
		require.Zero(t, DeriveSeed(0))
	})

	t.Run("derived stream differs from the source stream", func(t *testing.T) {
		require.NotEqual(t, uint64(7), DeriveSeed(7))
		require.Equal(t, DeriveSeed(7), DeriveSeed(7), "Derivation should be deterministic")

		shared, derived := NewRandomBatch(4, 7), NewRandomBatch(4, DeriveSeed(7))
		sharedSizes, derivedSizes := make([]int, 32), make([]int, 32)
		for i := range sharedSizes {
			sharedSizes[i] = shared.Size(4)
			derivedSizes[i] = derived.Size(4)
		}
		require.NotEqual(t, sharedSizes, derivedSizes)
	})

	t.Run("never derives zero from a non-zero seed", func(t *testing.T) {
		require.NotZero(t, DeriveSeed(0x9e3779b97f4a7c15))
	})
}
