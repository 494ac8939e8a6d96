package tensor

import "testing"

func sumIdx(idx []int) int {
	s := 0
	for _, v := range idx {
		s += v
	}
	return s
}

func TestNewAutoStorageTensorAutomaticPicksExplicitBelowThreshold(t *testing.T) {
	d, _ := NewDimensions([]int{2, 2}, false)
	tn := NewAutoStorageTensor(d, StorageAutomatic, 1024, sumIdx)
	if tn.StorageType() != StorageExplicit {
		t.Errorf("Expected small tensor under Automatic mode to resolve to Explicit. Got: %s", tn.StorageType())
	}
}

func TestNewAutoStorageTensorAutomaticPicksVirtualAboveThreshold(t *testing.T) {
	d, _ := NewDimensions([]int{4, 4}, false)
	tn := NewAutoStorageTensor(d, StorageAutomatic, 4, sumIdx)
	if tn.StorageType() != StorageVirtual {
		t.Errorf("Expected a tensor exceeding the threshold under Automatic mode to resolve to Virtual. Got: %s", tn.StorageType())
	}
}

func TestExplicitTensorAtAndSet(t *testing.T) {
	d, _ := NewDimensions([]int{3, 3}, false)
	tn := NewAutoStorageTensor(d, StorageExplicit, 1024, sumIdx)
	v, err := tn.At([]int{1, 2})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v.Value() != 3 || !v.IsBorrowed() {
		t.Errorf("Expected an Explicit-mode view to borrow the materialized value 3. Got: %d, borrowed=%v", v.Value(), v.IsBorrowed())
	}
	if err := tn.Set([]int{1, 2}, 99); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	v2, _ := tn.At([]int{1, 2})
	if v2.Value() != 99 {
		t.Errorf("Expected Set to overwrite the materialized element. Got: %d", v2.Value())
	}
}

func TestVirtualTensorAtRecomputesAndRejectsSet(t *testing.T) {
	d, _ := NewDimensions([]int{3, 3}, false)
	tn := NewAutoStorageTensor(d, StorageVirtual, 0, sumIdx)
	v, err := tn.At([]int{1, 2})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v.Value() != 3 || v.IsBorrowed() {
		t.Errorf("Expected a Virtual-mode view to own a freshly computed value 3. Got: %d, borrowed=%v", v.Value(), v.IsBorrowed())
	}
	if err := tn.Set([]int{0, 0}, 5); err == nil {
		t.Errorf("Expected Set to fail on a Virtual-mode tensor")
	}
	if _, err := tn.Data(); err == nil {
		t.Errorf("Expected Data to fail on a Virtual-mode tensor")
	}
}

func TestAutoStorageTensorAtRejectsBadIndex(t *testing.T) {
	d, _ := NewDimensions([]int{2, 2}, false)
	tn := NewAutoStorageTensor(d, StorageExplicit, 1024, sumIdx)
	if _, err := tn.At([]int{2, 0}); err == nil {
		t.Errorf("Expected an out-of-range index to be rejected")
	}
}

func TestAutoStorageTensorAtOffset(t *testing.T) {
	d, _ := NewDimensions([]int{2, 2}, false)
	tn := NewAutoStorageTensor(d, StorageExplicit, 1024, sumIdx)
	v, err := tn.AtOffset(d.IndexToOffset([]int{1, 1}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v.Value() != 2 {
		t.Errorf("Expected AtOffset to address the same element as At. Got: %d", v.Value())
	}
}
