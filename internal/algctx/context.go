// Package algctx implements the Context interface consumed by the
// Collins-Gisin and polynomial tensor layers: canonicalization of raw
// operator sequences through a rulebook, conjugation, and dictionary
// generation.
package algctx

import (
	"sort"

	"github.com/rawblock/moment-algebra/internal/rewrite"
	"github.com/rawblock/moment-algebra/pkg/models"
)

// Context is the surface the tensor layers require from an algebraic
// context: canonicalization, conjugation, and word generation.
type Context interface {
	Size() int
	Canonicalize(raw []int) rewrite.HashedSequence
	Conjugate(seq rewrite.HashedSequence) rewrite.HashedSequence
	OperatorSequenceGenerator(wordLength int) []rewrite.HashedSequence
}

// AlgebraicContext is the concrete Context backed by a Rulebook. When
// commutative is set, Canonicalize sorts the raw sequence ascending before
// reduction, ahead of insert-time commutator rules handling the general
// noncommutative case.
type AlgebraicContext struct {
	rulebook    *rewrite.Rulebook
	commutative bool
}

// NewAlgebraicContext wraps rb.
func NewAlgebraicContext(rb *rewrite.Rulebook, commutative bool) *AlgebraicContext {
	return &AlgebraicContext{rulebook: rb, commutative: commutative}
}

// Rulebook returns the underlying rulebook.
func (c *AlgebraicContext) Rulebook() *rewrite.Rulebook {
	return c.rulebook
}

// Size returns the raw operator alphabet size.
func (c *AlgebraicContext) Size() int {
	return c.rulebook.OperatorCount()
}

// Canonicalize applies commutativity sorting (if declared) then rulebook
// reduction, returning the canonical signed sequence (or the zero
// sentinel).
func (c *AlgebraicContext) Canonicalize(raw []int) rewrite.HashedSequence {
	working := append([]int(nil), raw...)
	if c.commutative {
		sort.Ints(working)
	}
	seq := rewrite.New(c.rulebook.Hasher(), working, models.SignPlusOne)
	return c.rulebook.Reduce(seq)
}

// Conjugate applies the rulebook's conjugation mode to seq.
func (c *AlgebraicContext) Conjugate(seq rewrite.HashedSequence) rewrite.HashedSequence {
	return rewrite.Conjugate(c.rulebook.Hasher(), c.rulebook.ConjugationMode(), c.rulebook.OperatorCount(), seq)
}

// OperatorSequenceGenerator enumerates every raw word of the given length
// over the full alphabet, canonicalizes each, discards duplicates and the
// zero sentinel, and returns the survivors ordered by ascending hash. Cost
// is O(N^wordLength); callers should keep wordLength small.
func (c *AlgebraicContext) OperatorSequenceGenerator(wordLength int) []rewrite.HashedSequence {
	n := c.Size()
	seen := make(map[uint64]bool)
	var out []rewrite.HashedSequence
	raw := make([]int, wordLength)

	var recurse func(pos int)
	recurse = func(pos int) {
		if pos == wordLength {
			canon := c.Canonicalize(raw)
			if canon.Zero {
				return
			}
			if !seen[canon.Hash] {
				seen[canon.Hash] = true
				out = append(out, canon)
			}
			return
		}
		for o := 0; o < n; o++ {
			raw[pos] = o
			recurse(pos + 1)
		}
	}
	recurse(0)

	sort.Slice(out, func(i, j int) bool { return out[i].Hash < out[j].Hash })
	return out
}
