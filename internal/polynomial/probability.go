package polynomial

import (
	"github.com/rawblock/moment-algebra/internal/collinsgisin"
	"github.com/rawblock/moment-algebra/internal/tensor"
)

// expandedMeasurement describes one measurement's placement within the
// probability tensor's expanded dimension: Explicit measurements contribute
// no implicit outcome (their last CG column is a real entry, not a
// computed 1-Sigma); all others gain one synthetic implicit outcome beyond
// their CG length.
type expandedMeasurement struct {
	ref      collinsgisin.MeasurementRef
	explicit bool
}

// Tensor is the probability tensor: each party dimension is expanded by one
// implicit outcome per non-explicit measurement on that party, and elements
// are built via inclusion-exclusion over the implicit coordinates.
type Tensor struct {
	cg           *collinsgisin.Tensor
	factory      Factory
	measurements []expandedMeasurement
	dims         tensor.Dimensions
	data         *tensor.AutoStorageTensor[Element]
}

// New builds a probability tensor over cg. explicitMeasurements names
// measurement ids (indices into cg.Measurements) that are fully explicit and
// so gain no implicit outcome.
func New(cg *collinsgisin.Tensor, factory Factory, explicitMeasurements map[int]bool) (*Tensor, error) {
	measurements := make([]expandedMeasurement, len(cg.Measurements))
	for i, ref := range cg.Measurements {
		measurements[i] = expandedMeasurement{ref: ref, explicit: explicitMeasurements[i]}
	}

	cgSizes := cg.Data().Dims.Sizes
	sizes := append([]int(nil), cgSizes...)
	for _, m := range measurements {
		if !m.explicit {
			sizes[m.ref.Party]++
		}
	}
	dims, err := tensor.NewDimensions(sizes, false)
	if err != nil {
		return nil, err
	}

	pt := &Tensor{cg: cg, factory: factory, measurements: measurements, dims: dims}
	pt.data = tensor.NewAutoStorageTensor(dims, tensor.StorageAutomatic, tensor.DefaultExplicitElementLimit, pt.buildElement)
	return pt, nil
}

// measurementForParty finds the (possibly absent) measurement occupying
// party d.
func (pt *Tensor) measurementForParty(d int) (expandedMeasurement, bool) {
	for _, m := range pt.measurements {
		if m.ref.Party == d {
			return m, true
		}
	}
	return expandedMeasurement{}, false
}

// implicitCoordinates reports, for idx in the expanded dimension space,
// which party axes currently sit on the synthetic implicit outcome (the
// last coordinate of a non-explicit measurement's expanded range).
func (pt *Tensor) implicitCoordinates(idx []int) []int {
	var implicit []int
	for d, v := range idx {
		m, ok := pt.measurementForParty(d)
		if !ok || m.explicit {
			continue
		}
		lastCoord := m.ref.Offset + m.ref.Length
		if v == lastCoord {
			implicit = append(implicit, d)
		}
	}
	return implicit
}

func (pt *Tensor) buildElement(idx []int) Element {
	implicit := pt.implicitCoordinates(idx)
	if len(implicit) == 0 {
		offset, ok := pt.cgOffsetFor(idx, nil)
		if !ok {
			return Element{CGPolynomial: pt.factory.Build(nil)}
		}
		return Element{CGPolynomial: pt.factory.Build([]Term{{Coeff: 1, Index: offset}})}
	}

	var terms []Term
	n := len(implicit)
	for mask := 0; mask < (1 << n); mask++ {
		subsetSize := 0
		fixed := make(map[int]bool, n)
		for i, d := range implicit {
			if mask&(1<<i) != 0 {
				fixed[d] = true
				subsetSize++
			}
		}
		// The sign is (-1)^|T| where T is the set of positions actually
		// expanded over their measurement's explicit outcomes (the
		// complement of "fixed", which traces a position out by forcing it
		// to the identity column) -- NOT (-1)^|fixed|. The two coincide only
		// when n is even, so a single-implicit-position element (n=1) would
		// otherwise come out negated.
		freeSize := n - subsetSize
		sign := 1.0
		if freeSize%2 == 1 {
			sign = -1.0
		}
		pt.accumulateSubset(idx, implicit, fixed, sign, &terms)
	}
	return Element{CGPolynomial: pt.factory.Build(terms)}
}

// accumulateSubset expands the free (non-fixed) implicit positions over
// their measurement's explicit outcome range, summing a signed CG term for
// each combination; the fixed implicit positions are held at their current
// (expanded, synthetic) coordinate and simply excluded from the emitted CG
// index (the CG tensor has no column for the implicit outcome itself: fixing
// an implicit position contributes no operator, matching the "1" in
// "1 - sum"). When that leaves the CG identity entry (offset 0), the term is
// emitted as the constant term (Index -1).
func (pt *Tensor) accumulateSubset(idx, implicit []int, fixed map[int]bool, sign float64, terms *[]Term) {
	free := make([]int, 0, len(implicit))
	for _, d := range implicit {
		if !fixed[d] {
			free = append(free, d)
		}
	}
	if len(free) == 0 {
		offset, ok := pt.cgOffsetFor(idx, fixed)
		if ok && offset != 0 {
			*terms = append(*terms, Term{Coeff: sign, Index: offset})
		} else {
			*terms = append(*terms, Term{Coeff: sign, Index: -1})
		}
		return
	}

	d := free[0]
	m, _ := pt.measurementForParty(d)
	working := append([]int(nil), idx...)
	for outcome := 0; outcome < m.ref.Length; outcome++ {
		working[d] = m.ref.Offset + outcome
		pt.accumulateSubsetFree(working, implicit, fixed, free[1:], sign, terms)
	}
}

func (pt *Tensor) accumulateSubsetFree(idx, implicit []int, fixed map[int]bool, remaining []int, sign float64, terms *[]Term) {
	if len(remaining) == 0 {
		offset, ok := pt.cgOffsetFor(idx, fixed)
		if ok {
			*terms = append(*terms, Term{Coeff: sign, Index: offset})
		} else {
			*terms = append(*terms, Term{Coeff: sign, Index: -1})
		}
		return
	}
	d := remaining[0]
	m, _ := pt.measurementForParty(d)
	working := append([]int(nil), idx...)
	for outcome := 0; outcome < m.ref.Length; outcome++ {
		working[d] = m.ref.Offset + outcome
		pt.accumulateSubsetFree(working, implicit, fixed, remaining[1:], sign, terms)
	}
}

// cgOffsetFor maps an expanded-space index (with every implicit-but-fixed
// axis ignored, i.e. treated as the CG identity outcome 0) to a CG tensor
// offset.
func (pt *Tensor) cgOffsetFor(idx []int, fixed map[int]bool) (int, bool) {
	cgDims := pt.cg.Data().Dims
	cgIdx := make([]int, cgDims.DimensionCount())
	for d := range cgIdx {
		if fixed != nil && fixed[d] {
			cgIdx[d] = 0
			continue
		}
		v := idx[d]
		if v >= cgDims.Sizes[d] {
			return 0, false
		}
		cgIdx[d] = v
	}
	return cgDims.IndexToOffset(cgIdx), true
}

// Data exposes the backing tensor.
func (pt *Tensor) Data() *tensor.AutoStorageTensor[Element] {
	return pt.data
}

// FillMissingPolynomials retries symbol resolution for every unresolved
// element, monotonically.
func (pt *Tensor) FillMissingPolynomials(factory Factory) {
	full := pt.data.FullRange()
	for !full.Done() {
		idx := append([]int(nil), full.Index()...)
		entry := full.Current().Value()
		if !entry.HasSymbols {
			if attemptSymbolResolution(&entry, pt.cg, factory) {
				pt.data.Set(idx, entry)
			}
		}
		full.Next()
	}
}
