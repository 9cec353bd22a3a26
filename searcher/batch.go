package searcher

import (
	"sync"
	"time"

	"golang.org/x/exp/rand"

	"triz/tree"
)

// DefaultMaxBatch is the largest batch chosen in the backfill regime.
const DefaultMaxBatch = 2

// BatchSizer picks how many eligible nodes go into one tick in the backfill regime.
type BatchSizer interface {
	Size(eligible int) int
}

// FixedBatch always asks for the same batch size.
type FixedBatch int

func (f FixedBatch) Size(int) int {
	return int(f)
}

// RandomBatch draws a size uniformly from [1, max].
type RandomBatch struct {
	mu  sync.Mutex
	max int
	rng *rand.Rand
}

func NewRandomBatch(maxBatch int, seed uint64) *RandomBatch {
	if maxBatch < 1 {
		maxBatch = DefaultMaxBatch
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RandomBatch{max: maxBatch, rng: rand.New(rand.NewSource(seed))}
}

func (r *RandomBatch) Size(int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.rng.Intn(r.max) + 1
}

// DeriveSeed returns a batch sizer seed whose stream is independent of a
// source seeded with seed itself. 0 stays 0 (clock seeded).
func DeriveSeed(seed uint64) uint64 {
	if seed == 0 {
		return 0
	}
	if derived := seed ^ 0x9e3779b97f4a7c15; derived != 0 {
		return derived
	}
	return 1
}

// SelectBatch takes the head of the ordered candidates.
// While probing the batch is a single node, so the first path reaches full
// depth before the tree branches out.
func SelectBatch(candidates []*tree.Node, probing bool, sizer BatchSizer) []*tree.Node {
	if len(candidates) == 0 {
		return nil
	}

	size := 1
	if !probing && sizer != nil {
		size = sizer.Size(len(candidates))
	}
	size = max(1, min(size, len(candidates)))

	return candidates[:size:size]
}
