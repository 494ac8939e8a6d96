// Package symboltable implements the symbol table interface consumed by the
// Collins-Gisin and polynomial tensor layers: a monotonic map from
// canonical operator sequences to symbol identifiers.
package symboltable

import (
	"sync"

	"github.com/rawblock/moment-algebra/internal/rewrite"
)

// LookupResult is the answer to a Where query.
type LookupResult struct {
	Found       bool
	ID          int
	RealIndex   int
	ImagIndex   int
	IsAliased   bool
	IsHermitian bool
}

// SymbolTable is the interface consumed by the core per §6: a safe-under-
// shared-access query that never forgets an assigned identifier or moves a
// basis key once stable.
type SymbolTable interface {
	Where(seq rewrite.HashedSequence) LookupResult
	Size() int
}

type record struct {
	id        int
	real      int
	imag      int
	aliased   bool
	hermitian bool
}

// InMemory is a basic monotonic symbol table: each freshly-seen canonical
// raw sequence is assigned the next integer id; if its conjugate was
// already registered, it is instead recorded as an alias of that symbol's
// id (the same object, viewed through its Hermitian conjugate).
type InMemory struct {
	mu      sync.RWMutex
	byHash  map[uint64]*record
	nextID  int
	hasher  *rewrite.Hasher
	mode    rewrite.ConjugationMode
	opCount int
}

// NewInMemory builds an empty table keyed against sequences hashed and
// conjugated the same way as the rulebook they were canonicalized by.
func NewInMemory(hasher *rewrite.Hasher, mode rewrite.ConjugationMode, opCount int) *InMemory {
	return &InMemory{
		byHash:  make(map[uint64]*record),
		hasher:  hasher,
		mode:    mode,
		opCount: opCount,
	}
}

// Register assigns (or reuses) a symbol id for seq. The zero sentinel is
// never assigned an id and Register returns -1 for it.
func (t *InMemory) Register(seq rewrite.HashedSequence) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if seq.Zero {
		return -1
	}
	if rec, ok := t.byHash[seq.Hash]; ok {
		return rec.id
	}

	conj := rewrite.Conjugate(t.hasher, t.mode, t.opCount, seq)
	if !conj.Zero {
		if rec, ok := t.byHash[conj.Hash]; ok {
			t.byHash[seq.Hash] = &record{id: rec.id, real: rec.real, imag: rec.imag, aliased: true, hermitian: rec.hermitian}
			return rec.id
		}
	}

	id := t.nextID
	t.nextID++
	hermitian := conj.Hash == seq.Hash
	rec := &record{id: id, real: id, imag: -1, aliased: false, hermitian: hermitian}
	t.byHash[seq.Hash] = rec
	return id
}

// Where answers whether seq already has a registered symbol.
func (t *InMemory) Where(seq rewrite.HashedSequence) LookupResult {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if seq.Zero {
		return LookupResult{Found: false}
	}
	rec, ok := t.byHash[seq.Hash]
	if !ok {
		return LookupResult{Found: false}
	}
	return LookupResult{
		Found:       true,
		ID:          rec.id,
		RealIndex:   rec.real,
		ImagIndex:   rec.imag,
		IsAliased:   rec.aliased,
		IsHermitian: rec.hermitian,
	}
}

// Size returns the number of distinct symbol ids assigned.
func (t *InMemory) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nextID
}
