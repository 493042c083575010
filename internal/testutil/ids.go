// Package testutil holds deterministic helpers shared by tests.
package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs issues UUID-shaped record ids from a counter, so archive
// contents are byte-identical across runs. The first id ends in ...0001.
//
// Safe for concurrent use.
type SequentialIDs struct {
	mu  sync.Mutex
	seq int64
}

// NewSequentialIDs returns a generator starting at 1.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// NewID returns the next id. It never fails.
func (g *SequentialIDs) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("00000000-0000-7000-8000-%012d", g.seq), nil
}

// Issued returns how many ids have been handed out.
func (g *SequentialIDs) Issued() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence at 1.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
