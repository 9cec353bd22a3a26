package oracle

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"

	"triz/tree"
)

const (
	DefaultMaxChildren = 3
	idSuffixLength     = 12 // 48 bits of entropy
)

// DefaultMethods is the vocabulary used to label generated sub-solutions.
var DefaultMethods = []string{
	"Structure Optimization",
	"Material Selection",
	"Process Improvement",
	"Thermal Analysis",
	"Cost Reduction",
	"AI Integration",
}

type Option func(r *Random)

func WithSeed(seed uint64) Option {
	return func(r *Random) {
		if seed != 0 {
			r.rng = rand.New(rand.NewSource(seed))
		}
	}
}

func WithMaxChildren(n int) Option {
	return func(r *Random) {
		if n > 0 {
			r.maxChildren = n
		}
	}
}

func WithMethods(methods []string) Option {
	return func(r *Random) {
		if len(methods) > 0 {
			r.methods = methods
		}
	}
}

// Random is the stand-in oracle: it produces 1..maxChildren children with
// uniformly random labels and scores.
type Random struct {
	mu          sync.Mutex
	rng         *rand.Rand
	maxChildren int
	methods     []string
}

func NewRandom(options ...Option) *Random {
	r := &Random{ // Default values
		rng:         rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		maxChildren: DefaultMaxChildren,
		methods:     DefaultMethods,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

func (r *Random) Expand(ctx context.Context, node *tree.Node) ([]*tree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.rng.Intn(r.maxChildren) + 1
	children := make([]*tree.Node, 0, count)
	for i := 0; i < count; i++ {
		method := r.methods[r.rng.Intn(len(r.methods))]
		children = append(children, &tree.Node{
			ID:       fmt.Sprintf("%s_%s", node.ID, newSuffix()),
			Prompt:   fmt.Sprintf("%s (Sub-solution %d)", method, i+1),
			Level:    node.Level + 1,
			Score:    r.rng.Float64(),
			Expanded: false,
			Children: []*tree.Node{},
			ParentID: node.ID,
		})
	}
	return children, nil
}

func newSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:idSuffixLength]
}
