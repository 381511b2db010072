package engine

import (
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/provtmpl/internal/ir"
)

// IDGenerator produces identifiers for unbound generated variables.
// Implemented by SeededGenerator (default), UUIDv7Generator and
// FixedGenerator (tests).
//
// Generate is called while the plan is built, in plan order: group
// discovery order, then member order, then instance index.
type IDGenerator interface {
	Generate(variable ir.Term, index int) string
}

// SeededGenerator derives name-based UUIDs (version 5) from a seed, the
// variable IRI and the instance index. The engine seeds it with the run
// identity, so identical inputs yield identical identifiers and output
// stays byte-identical across runs.
//
// Thread-safety: SeededGenerator is stateless and safe for concurrent use.
type SeededGenerator struct {
	ns uuid.UUID
}

// NewSeededGenerator creates a generator whose namespace is derived from seed.
func NewSeededGenerator(seed string) SeededGenerator {
	return SeededGenerator{ns: uuid.NewSHA1(uuid.NameSpaceURL, []byte("provtmpl:"+seed))}
}

// Generate returns a hyphenated UUIDv5 string.
func (g SeededGenerator) Generate(variable ir.Term, index int) string {
	return uuid.NewSHA1(g.ns, []byte(variable.Value+"#"+strconv.Itoa(index))).String()
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers.
//
// Output is no longer reproducible across runs when this generator is
// used; choose it when generated identifiers must be globally unique
// rather than stable.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate(ir.Term, int) string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined identifiers for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
//
// Example:
//
//	gen := NewFixedGenerator("id-1", "id-2")
//	gen.Generate(v, 0) // "id-1"
//	gen.Generate(v, 1) // "id-2"
//	gen.Generate(v, 2) // panic: all ids exhausted
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics if all ids have been consumed, to catch test misconfiguration.
func (g *FixedGenerator) Generate(ir.Term, int) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
