package jsonld

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// Generator mints fresh blank node identifiers. Expansion and flattening
// request identifiers through this interface and never invent their own.
// Implementations must be safe for concurrent use: a single instance may be
// shared across sibling recursive calls.
type Generator interface {
	FreshBlankNode() string
}

// BlankNodeGenerator issues sequential identifiers of the form _:b0, _:b1,
// and so on. Given the same call sequence it produces the same identifiers,
// which keeps flattened fixtures reproducible.
type BlankNodeGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter int
}

// NewBlankNodeGenerator returns a sequential generator with the conventional
// "b" prefix.
func NewBlankNodeGenerator() *BlankNodeGenerator {
	return &BlankNodeGenerator{prefix: "b"}
}

func (g *BlankNodeGenerator) FreshBlankNode() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := "_:" + g.prefix + strconv.Itoa(g.counter)
	g.counter++
	return id
}

// UUIDGenerator issues UUID-based blank node identifiers. Unlike
// BlankNodeGenerator its output is globally unique rather than reproducible,
// which suits merging documents flattened in separate runs.
type UUIDGenerator struct{}

func (UUIDGenerator) FreshBlankNode() string {
	return "_:" + uuid.NewString()
}
