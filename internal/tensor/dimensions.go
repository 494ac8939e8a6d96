package tensor

import "fmt"

// Dimensions is a finite list of positive integers (d0,...,d[D-1])
// describing the shape of a tensor, together with derived strides and
// element count.
type Dimensions struct {
	Sizes          []int
	Strides        []int
	ElementCount   int
	LastIndexMajor bool
}

// NewDimensions builds a Dimensions from sizes, computing strides in
// last-index-major order (stride[0]=1, stride[i+1]=stride[i]*sizes[i]) unless
// firstIndexMajor is set, in which case the roles of the first and last axis
// are mirrored (stride[D-1]=1, working backward). Every size must be
// strictly positive.
func NewDimensions(sizes []int, firstIndexMajor bool) (Dimensions, error) {
	for i, d := range sizes {
		if d <= 0 {
			return Dimensions{}, &BadTensorIndexError{
				Kind:   BadDimensionCount,
				Detail: fmt.Sprintf("dimension %d has non-positive size %d", i, d),
			}
		}
	}
	strides := make([]int, len(sizes))
	lastIndexMajor := !firstIndexMajor
	if lastIndexMajor {
		acc := 1
		for i, d := range sizes {
			strides[i] = acc
			acc *= d
		}
		return Dimensions{Sizes: append([]int(nil), sizes...), Strides: strides, ElementCount: acc, LastIndexMajor: true}, nil
	}
	acc := 1
	for i := len(sizes) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= sizes[i]
	}
	return Dimensions{Sizes: append([]int(nil), sizes...), Strides: strides, ElementCount: acc, LastIndexMajor: false}, nil
}

// DimensionCount returns D, the number of axes.
func (d Dimensions) DimensionCount() int {
	return len(d.Sizes)
}

// ValidateIndex checks idx has the right dimension count and every
// coordinate is within [0, size).
func (d Dimensions) ValidateIndex(idx []int) error {
	return d.validate(idx, false)
}

// ValidateIndexInclusive is like ValidateIndex but allows coordinate == size
// (for past-the-end slice upper bounds).
func (d Dimensions) ValidateIndexInclusive(idx []int) error {
	return d.validate(idx, true)
}

func (d Dimensions) validate(idx []int, inclusive bool) error {
	if len(idx) != len(d.Sizes) {
		return &BadTensorIndexError{
			Kind:   BadDimensionCount,
			Detail: fmt.Sprintf("expected %d coordinates, got %d", len(d.Sizes), len(idx)),
		}
	}
	for i, v := range idx {
		limit := d.Sizes[i]
		if inclusive {
			if v < 0 || v > limit {
				return &BadTensorIndexError{
					Kind:   IndexOutOfRange,
					Detail: fmt.Sprintf("coordinate %d value %d out of inclusive range [0,%d]", i, v, limit),
				}
			}
			continue
		}
		if v < 0 || v >= limit {
			return &BadTensorIndexError{
				Kind:   IndexOutOfRange,
				Detail: fmt.Sprintf("coordinate %d value %d out of range [0,%d)", i, v, limit),
			}
		}
	}
	return nil
}

// ValidateRange ensures min <= max componentwise and both are within the
// inclusive range (min exclusive-upper-bound semantics live in the caller:
// this only validates the box is well-formed).
func (d Dimensions) ValidateRange(min, max []int) error {
	if err := d.ValidateIndexInclusive(min); err != nil {
		return err
	}
	if err := d.ValidateIndexInclusive(max); err != nil {
		return err
	}
	for i := range min {
		if min[i] > max[i] {
			return &BadTensorIndexError{
				Kind:   WrongOrder,
				Detail: fmt.Sprintf("coordinate %d min %d exceeds max %d", i, min[i], max[i]),
			}
		}
	}
	return nil
}

// IndexToOffset multiplies idx componentwise with the strides. Does not
// validate; callers that need validation should call ValidateIndex first.
func (d Dimensions) IndexToOffset(idx []int) int {
	offset := 0
	for i, v := range idx {
		offset += v * d.Strides[i]
	}
	return offset
}

// IndexToOffsetChecked validates idx before converting.
func (d Dimensions) IndexToOffsetChecked(idx []int) (int, error) {
	if err := d.ValidateIndex(idx); err != nil {
		return 0, err
	}
	return d.IndexToOffset(idx), nil
}

// OffsetToIndex performs divmod by the dimensions in stride order, the
// inverse of IndexToOffset.
func (d Dimensions) OffsetToIndex(offset int) ([]int, error) {
	if offset < 0 || offset >= d.ElementCount {
		return nil, &BadTensorIndexError{
			Kind:   OffsetOutOfRange,
			Detail: fmt.Sprintf("offset %d out of range [0,%d)", offset, d.ElementCount),
		}
	}
	idx := make([]int, len(d.Sizes))
	if d.LastIndexMajor {
		for n := 0; n < len(d.Sizes); n++ {
			idx[n] = offset % d.Sizes[n]
			offset /= d.Sizes[n]
		}
		return idx, nil
	}
	for n := 0; n < len(d.Sizes); n++ {
		idx[n] = offset / d.Strides[n]
		offset %= d.Strides[n]
	}
	return idx, nil
}
