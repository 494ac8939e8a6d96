package tensor

// MultiDimensionalOffsetIndexIterator iterates lexicographically over a
// rectangular half-open box [min, max), incrementing the last coordinate
// fastest (forward / last-index-major order). It is single-threaded and not
// shareable across goroutines; a concurrent consumer must construct its own
// copy and iterate that.
type MultiDimensionalOffsetIndexIterator struct {
	numIndices  int
	globalIndex int
	min         []int
	max         []int
	indices     []int
	done        bool
}

// NewMultiDimensionalOffsetIndexIterator builds an iterator over [min, max).
// It starts "done" if there are no indices or any axis is already empty
// (min[i] == max[i]).
func NewMultiDimensionalOffsetIndexIterator(min, max []int) *MultiDimensionalOffsetIndexIterator {
	it := &MultiDimensionalOffsetIndexIterator{
		numIndices: len(min),
		min:        append([]int(nil), min...),
		max:        append([]int(nil), max...),
		indices:    append([]int(nil), min...),
	}
	if it.numIndices == 0 {
		it.done = true
	}
	for n := 0; n < it.numIndices; n++ {
		if it.min[n] == it.max[n] {
			it.done = true
		}
	}
	if it.done {
		product := 1
		for _, m := range it.max {
			product *= m
		}
		it.globalIndex = product
	}
	return it
}

// Done reports whether iteration has finished.
func (it *MultiDimensionalOffsetIndexIterator) Done() bool {
	return it.done
}

// Index returns the current coordinate tuple. Callers must not retain or
// mutate the returned slice across a call to Next.
func (it *MultiDimensionalOffsetIndexIterator) Index() []int {
	return it.indices
}

// LowerLimits returns the box's inclusive lower bound.
func (it *MultiDimensionalOffsetIndexIterator) LowerLimits() []int {
	return it.min
}

// UpperLimits returns the box's exclusive upper bound.
func (it *MultiDimensionalOffsetIndexIterator) UpperLimits() []int {
	return it.max
}

// Global returns the number of steps taken since construction (0 on the
// first valid element). An iterator that is done at construction reports
// the product of its upper limits instead. When the box spans the whole
// tensor from the
// origin, this coincides with the tensor's linear offset; otherwise callers
// needing the true tensor offset should convert Index() via
// Dimensions.IndexToOffset.
func (it *MultiDimensionalOffsetIndexIterator) Global() int {
	return it.globalIndex
}

// Next advances to the next coordinate tuple in last-index-major order.
// Calling Next after Done reports true is a no-op.
func (it *MultiDimensionalOffsetIndexIterator) Next() {
	if it.done {
		return
	}
	depth := it.numIndices - 1
	for {
		it.indices[depth]++
		if it.indices[depth] >= it.max[depth] {
			it.indices[depth] = it.min[depth]
			if depth > 0 {
				depth--
				continue
			}
			it.done = true
			break
		}
		break
	}
	it.globalIndex++
}

// Clone returns an independent copy of the iterator at its current position.
func (it *MultiDimensionalOffsetIndexIterator) Clone() *MultiDimensionalOffsetIndexIterator {
	clone := &MultiDimensionalOffsetIndexIterator{
		numIndices:  it.numIndices,
		globalIndex: it.globalIndex,
		min:         append([]int(nil), it.min...),
		max:         append([]int(nil), it.max...),
		indices:     append([]int(nil), it.indices...),
		done:        it.done,
	}
	return clone
}
