package polynomial

import (
	"github.com/rawblock/moment-algebra/internal/collinsgisin"
	"github.com/rawblock/moment-algebra/internal/tensor"
)

// FullCorrelator is the full-correlator tensor for binary measurements: one
// axis per party, axis value 0 meaning "party not involved" and values 1..
// meaning "measurement choice at that party" (every measurement here has
// exactly one binary outcome column beyond the identity, so party axis size
// equals measurement-count+1).
type FullCorrelator struct {
	cg      *collinsgisin.Tensor
	factory Factory
	data    *tensor.AutoStorageTensor[Element]
}

// NewFullCorrelator builds a full-correlator tensor directly over cg's
// existing dimension layout (each party already sized measurement-count+1
// for the binary case).
func NewFullCorrelator(cg *collinsgisin.Tensor, factory Factory) *FullCorrelator {
	fc := &FullCorrelator{cg: cg, factory: factory}
	fc.data = tensor.NewAutoStorageTensor(cg.Data().Dims, tensor.StorageAutomatic, tensor.DefaultExplicitElementLimit, fc.buildElement)
	return fc
}

func involvedParties(idx []int) []int {
	var out []int
	for d, v := range idx {
		if v > 0 {
			out = append(out, d)
		}
	}
	return out
}

func (fc *FullCorrelator) cgOffset(idx []int, restrictTo map[int]bool) int {
	cgDims := fc.cg.Data().Dims
	cgIdx := make([]int, cgDims.DimensionCount())
	for d, v := range idx {
		if restrictTo != nil && !restrictTo[d] {
			cgIdx[d] = 0
			continue
		}
		cgIdx[d] = v
	}
	return cgDims.IndexToOffset(cgIdx)
}

// buildElement dispatches on k, the number of parties with a nonzero
// coordinate: k=0 is the identity (constant 1); k=1 is 2m-1; k=2 is
// 4mAB-2mA-2mB+1; k>=3 expands via inclusion-exclusion of the +-1 valued
// correlator, Sum over nonempty subsets L of (-1)^(k-|L|) 2^|L| m_L, plus the
// constant (-1)^k term. This matches expanding Prod_i (2*m_i - 1) by hand,
// and the k=2 case above (coefficient 4 on the full pair, i.e. 2^|L| with
// |L|=k=2, not 2^(k-|L|)=2^0).
func (fc *FullCorrelator) buildElement(idx []int) Element {
	parties := involvedParties(idx)
	k := len(parties)

	if k == 0 {
		return Element{CGPolynomial: fc.factory.Build([]Term{{Coeff: 1, Index: -1}})}
	}
	if k == 1 {
		m := fc.cgOffset(idx, nil)
		return Element{CGPolynomial: fc.factory.Build([]Term{
			{Coeff: 2, Index: m},
			{Coeff: -1, Index: -1},
		})}
	}
	if k == 2 {
		mAB := fc.cgOffset(idx, nil)
		restrictA := map[int]bool{parties[0]: true}
		restrictB := map[int]bool{parties[1]: true}
		mA := fc.cgOffset(idx, restrictA)
		mB := fc.cgOffset(idx, restrictB)
		return Element{CGPolynomial: fc.factory.Build([]Term{
			{Coeff: 4, Index: mAB},
			{Coeff: -2, Index: mA},
			{Coeff: -2, Index: mB},
			{Coeff: 1, Index: -1},
		})}
	}

	var terms []Term
	for mask := 1; mask < (1 << k); mask++ {
		size := 0
		restrict := make(map[int]bool, k)
		for i, d := range parties {
			if mask&(1<<i) != 0 {
				restrict[d] = true
				size++
			}
		}
		sign := 1.0
		if (k-size)%2 == 1 {
			sign = -1.0
		}
		coeff := sign * pow2(size)
		terms = append(terms, Term{Coeff: coeff, Index: fc.cgOffset(idx, restrict)})
	}
	constSign := 1.0
	if k%2 == 1 {
		constSign = -1.0
	}
	terms = append(terms, Term{Coeff: constSign, Index: -1})
	return Element{CGPolynomial: fc.factory.Build(terms)}
}

func pow2(n int) float64 {
	v := 1.0
	for i := 0; i < n; i++ {
		v *= 2
	}
	return v
}

// Data exposes the backing tensor.
func (fc *FullCorrelator) Data() *tensor.AutoStorageTensor[Element] {
	return fc.data
}

// FillMissingPolynomials retries symbol resolution for every unresolved
// element, monotonically.
func (fc *FullCorrelator) FillMissingPolynomials(factory Factory) {
	full := fc.data.FullRange()
	for !full.Done() {
		idx := append([]int(nil), full.Index()...)
		entry := full.Current().Value()
		if !entry.HasSymbols {
			if attemptSymbolResolution(&entry, fc.cg, factory) {
				fc.data.Set(idx, entry)
			}
		}
		full.Next()
	}
}
