// Package polynomial implements the polynomial tensor family: probability
// tensors (inclusion-exclusion expansion of implicit outcomes) and
// full-correlator tensors, both built against a Collins-Gisin tensor and a
// polynomial factory.
package polynomial

import (
	"math"
	"sort"
)

// Term is one monomial of a polynomial over either CG tensor offsets or
// resolved symbol identifiers. Constant terms carry Index -1.
type Term struct {
	Coeff float64
	Index int
}

// IsConstant reports whether t is the constant term.
func (t Term) IsConstant() bool {
	return t.Index < 0
}

// Polynomial is a canonical (sorted, merged, zero-elided) sum of terms.
type Polynomial struct {
	Terms []Term
}

// Factory builds canonical polynomials from unordered term lists: like terms
// (same Index) are merged, terms below ZeroTolerance in magnitude are
// elided, and the survivors are sorted by the canonical comparator
// (constant term first, then ascending Index).
type Factory interface {
	Build(terms []Term) Polynomial
	ZeroTolerance() float64
}

// DefaultFactory is the reference Factory implementation.
type DefaultFactory struct {
	Tolerance float64
}

// NewDefaultFactory builds a factory with the given zero tolerance. A
// non-positive tolerance falls back to 1e-9.
func NewDefaultFactory(tolerance float64) *DefaultFactory {
	if tolerance <= 0 {
		tolerance = 1e-9
	}
	return &DefaultFactory{Tolerance: tolerance}
}

// ZeroTolerance returns the magnitude below which a coefficient is treated
// as zero.
func (f *DefaultFactory) ZeroTolerance() float64 {
	return f.Tolerance
}

// Build merges terms sharing an Index, drops near-zero coefficients, and
// sorts the result by the canonical comparator.
func (f *DefaultFactory) Build(terms []Term) Polynomial {
	byIndex := make(map[int]float64)
	order := make([]int, 0, len(terms))
	for _, t := range terms {
		if _, seen := byIndex[t.Index]; !seen {
			order = append(order, t.Index)
		}
		byIndex[t.Index] += t.Coeff
	}

	merged := make([]Term, 0, len(order))
	for _, idx := range order {
		c := byIndex[idx]
		if math.Abs(c) <= f.Tolerance {
			continue
		}
		merged = append(merged, Term{Coeff: c, Index: idx})
	}

	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.IsConstant() != b.IsConstant() {
			return a.IsConstant()
		}
		return a.Index < b.Index
	})
	return Polynomial{Terms: merged}
}

// Sub returns p - other scaled by unit coefficient, unevaluated: it just
// concatenates other's terms negated and rebuilds through f so the result
// stays canonical.
func Sub(f Factory, p, other Polynomial) Polynomial {
	terms := append([]Term(nil), p.Terms...)
	for _, t := range other.Terms {
		terms = append(terms, Term{Coeff: -t.Coeff, Index: t.Index})
	}
	return f.Build(terms)
}

// Scale multiplies every term's coefficient by factor and rebuilds through f.
func Scale(f Factory, p Polynomial, factor float64) Polynomial {
	terms := make([]Term, len(p.Terms))
	for i, t := range p.Terms {
		terms[i] = Term{Coeff: t.Coeff * factor, Index: t.Index}
	}
	return f.Build(terms)
}
