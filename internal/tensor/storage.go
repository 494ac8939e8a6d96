package tensor

// StorageType is the mode an AutoStorageTensor materializes its elements in.
type StorageType int

const (
	// StorageAutomatic defers the choice to element-count deduction at
	// construction time (see DefaultExplicitElementLimit).
	StorageAutomatic StorageType = iota
	// StorageExplicit materializes every element up front into a
	// contiguous owned slice.
	StorageExplicit
	// StorageVirtual computes elements on demand and stores nothing.
	StorageVirtual
)

func (s StorageType) String() string {
	switch s {
	case StorageExplicit:
		return "Explicit"
	case StorageVirtual:
		return "Virtual"
	default:
		return "Automatic"
	}
}

// DefaultExplicitElementLimit is the reference threshold below which
// Automatic storage mode deduction chooses Explicit.
const DefaultExplicitElementLimit = 1024

// ElementMaker computes the element value at idx on demand. Used by Virtual
// storage mode, and by Explicit mode at construction time to fill the
// backing slice.
type ElementMaker[T any] func(idx []int) T

// ElementView is a tagged-union handle over a tensor element: it either
// borrows from Explicit-mode backing storage or owns a freshly constructed
// Virtual-mode value. Both present the same value semantics via Value().
type ElementView[T any] struct {
	borrowed   *T
	owned      T
	isBorrowed bool
}

// Value returns the element, copying out of backing storage when borrowed.
func (e ElementView[T]) Value() T {
	if e.isBorrowed {
		return *e.borrowed
	}
	return e.owned
}

// IsBorrowed reports whether this view aliases tensor-owned storage (true in
// Explicit mode) rather than holding a freshly computed value (Virtual mode).
func (e ElementView[T]) IsBorrowed() bool {
	return e.isBorrowed
}

func borrowedView[T any](p *T) ElementView[T] {
	return ElementView[T]{borrowed: p, isBorrowed: true}
}

func ownedView[T any](v T) ElementView[T] {
	return ElementView[T]{owned: v}
}

// AutoStorageTensor is a multi-dimensional container whose elements are
// either materialized up front (Explicit) or generated on demand (Virtual).
// The mode is decided once, at construction, from a hint plus the tensor's
// element count.
type AutoStorageTensor[T any] struct {
	Dims        Dimensions
	storageType StorageType
	data        []T
	elementFunc ElementMaker[T]
	threshold   int
}

// NewAutoStorageTensor builds a tensor over dims. hint pins the storage mode
// unless it is StorageAutomatic, in which case the mode is deduced from
// dims.ElementCount against threshold (Explicit if <= threshold, else
// Virtual). maker is required in both modes: Explicit mode calls it once per
// element at construction to fill the backing slice; Virtual mode calls it
// on every access.
func NewAutoStorageTensor[T any](dims Dimensions, hint StorageType, threshold int, maker ElementMaker[T]) *AutoStorageTensor[T] {
	resolved := hint
	if hint == StorageAutomatic {
		if dims.ElementCount <= threshold {
			resolved = StorageExplicit
		} else {
			resolved = StorageVirtual
		}
	}
	t := &AutoStorageTensor[T]{
		Dims:        dims,
		storageType: resolved,
		elementFunc: maker,
		threshold:   threshold,
	}
	if resolved == StorageExplicit {
		t.materialize()
	}
	return t
}

func (t *AutoStorageTensor[T]) materialize() {
	t.data = make([]T, t.Dims.ElementCount)
	it := NewMultiDimensionalOffsetIndexIterator(make([]int, t.Dims.DimensionCount()), t.Dims.Sizes)
	for !it.Done() {
		offset := t.Dims.IndexToOffset(it.Index())
		t.data[offset] = t.elementFunc(it.Index())
		it.Next()
	}
}

// StorageType returns the resolved mode (never StorageAutomatic once
// constructed).
func (t *AutoStorageTensor[T]) StorageType() StorageType {
	return t.storageType
}

// Data returns the materialized backing slice. Only valid in Explicit mode;
// returns ErrNoDataStored otherwise.
func (t *AutoStorageTensor[T]) Data() ([]T, error) {
	if t.storageType != StorageExplicit {
		return nil, ErrNoDataStored
	}
	return t.data, nil
}

// At returns a view of the element at idx, validating idx first.
func (t *AutoStorageTensor[T]) At(idx []int) (ElementView[T], error) {
	if err := t.Dims.ValidateIndex(idx); err != nil {
		return ElementView[T]{}, err
	}
	return t.atNoChecks(idx), nil
}

func (t *AutoStorageTensor[T]) atNoChecks(idx []int) ElementView[T] {
	if t.storageType == StorageExplicit {
		offset := t.Dims.IndexToOffset(idx)
		return borrowedView(&t.data[offset])
	}
	return ownedView(t.elementFunc(idx))
}

// Set overwrites the element at idx. Only valid in Explicit mode; returns
// ErrNoDataStored otherwise, since Virtual mode keeps no backing slice to
// overwrite (its elements are recomputed from elementFunc on every access).
func (t *AutoStorageTensor[T]) Set(idx []int, value T) error {
	if t.storageType != StorageExplicit {
		return ErrNoDataStored
	}
	if err := t.Dims.ValidateIndex(idx); err != nil {
		return err
	}
	t.data[t.Dims.IndexToOffset(idx)] = value
	return nil
}

// AtOffset is like At but addresses the element by its linear offset.
func (t *AutoStorageTensor[T]) AtOffset(offset int) (ElementView[T], error) {
	idx, err := t.Dims.OffsetToIndex(offset)
	if err != nil {
		return ElementView[T]{}, err
	}
	return t.atNoChecks(idx), nil
}

// Splice constructs a TensorRange over the sub-box [min, max).
func (t *AutoStorageTensor[T]) Splice(min, max []int) (*TensorRange[T], error) {
	if err := t.Dims.ValidateRange(min, max); err != nil {
		return nil, err
	}
	return &TensorRange[T]{
		tensor: t,
		it:     NewMultiDimensionalOffsetIndexIterator(min, max),
	}, nil
}

// FullRange constructs a TensorRange over the entire tensor.
func (t *AutoStorageTensor[T]) FullRange() *TensorRange[T] {
	min := make([]int, t.Dims.DimensionCount())
	r, _ := t.Splice(min, t.Dims.Sizes)
	return r
}
