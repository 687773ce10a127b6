package pricetable

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator hands out client-side keys for draft entries.
type IDGenerator interface {
	NewKey() string
}

// UUIDGenerator is the production generator.
type UUIDGenerator struct{}

func (UUIDGenerator) NewKey() string { return uuid.NewString() }

// SequenceGenerator yields prefix-1, prefix-2, ...  Each instance counts on
// its own, so tests using separate instances never interfere.
type SequenceGenerator struct {
	Prefix string
	n      atomic.Uint64
}

func (g *SequenceGenerator) NewKey() string {
	p := g.Prefix
	if p == "" {
		p = "entry"
	}
	return p + "-" + strconv.FormatUint(g.n.Add(1), 10)
}
