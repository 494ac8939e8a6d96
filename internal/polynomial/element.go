package polynomial

import "github.com/rawblock/moment-algebra/internal/collinsgisin"

// Element is a polynomial tensor's element: a polynomial over CG tensor
// offsets (always present) and, once every referenced offset has a known
// symbol, the corresponding polynomial over symbol identifiers.
type Element struct {
	CGPolynomial     Polynomial
	SymbolPolynomial Polynomial
	HasSymbols       bool
}

// attemptSymbolResolution tries to build elem's SymbolPolynomial from its
// CGPolynomial by looking up each referenced CG offset in cg. It succeeds
// only if every non-constant term resolves; on success it sets HasSymbols.
func attemptSymbolResolution(elem *Element, cg *collinsgisin.Tensor, factory Factory) bool {
	if elem.HasSymbols {
		return true
	}
	terms := make([]Term, 0, len(elem.CGPolynomial.Terms))
	for _, t := range elem.CGPolynomial.Terms {
		if t.IsConstant() {
			terms = append(terms, t)
			continue
		}
		idx, err := cg.Data().Dims.OffsetToIndex(t.Index)
		if err != nil {
			return false
		}
		view, err := cg.Data().At(idx)
		if err != nil {
			return false
		}
		entry := view.Value()
		if !entry.HasSymbol {
			return false
		}
		terms = append(terms, Term{Coeff: t.Coeff, Index: entry.SymbolID})
	}
	elem.SymbolPolynomial = factory.Build(terms)
	elem.HasSymbols = true
	return true
}
