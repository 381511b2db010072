package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/provtmpl/internal/ir"
)

// SequenceGenerator issues UUID-shaped identifiers from a logical counter:
// 00000000-0000-0000-0000-000000000001, then ...002, and so on.
//
// Unlike engine.SeededGenerator, the identifiers do not depend on the
// inputs, which keeps golden files readable. The sequence can be reset
// so the same scenario runs repeatedly with identical output.
//
// Implements engine.IDGenerator.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu  sync.Mutex
	seq int64
}

// NewSequenceGenerator creates a generator starting at 0.
//
// The first call to Generate returns ...000000000001.
func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{}
}

// Generate increments the counter and returns it as a UUID string.
func (g *SequenceGenerator) Generate(ir.Term, int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", g.seq)
}

// Current returns the number of identifiers issued so far.
func (g *SequenceGenerator) Current() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence. After Reset, the next identifier ends in 1.
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
