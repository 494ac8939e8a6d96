package tensor

import "testing"

func TestTensorRangeFullRangeVisitsEveryElement(t *testing.T) {
	d, _ := NewDimensions([]int{2, 2}, false)
	tn := NewAutoStorageTensor(d, StorageExplicit, 1024, sumIdx)
	r := tn.FullRange()
	count := 0
	for !r.Done() {
		count++
		r.Next()
	}
	if count != 4 {
		t.Errorf("Expected FullRange to visit all 4 elements. Got: %d", count)
	}
}

func TestTensorRangeSpliceRestrictsToSubBox(t *testing.T) {
	d, _ := NewDimensions([]int{4, 4}, false)
	tn := NewAutoStorageTensor(d, StorageExplicit, 1024, sumIdx)
	r, err := tn.Splice([]int{1, 1}, []int{3, 3})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if r.Count() != 4 {
		t.Errorf("Expected a 2x2 sub-box to report Count 4. Got: %d", r.Count())
	}
	seen := 0
	for !r.Done() {
		idx := r.Index()
		if idx[0] < 1 || idx[0] >= 3 || idx[1] < 1 || idx[1] >= 3 {
			t.Errorf("Splice range visited a coordinate outside its box: %v", idx)
		}
		seen++
		r.Next()
	}
	if seen != 4 {
		t.Errorf("Expected to visit exactly 4 elements. Got: %d", seen)
	}
}

func TestTensorRangeCurrentMatchesOffset(t *testing.T) {
	d, _ := NewDimensions([]int{3, 3}, false)
	tn := NewAutoStorageTensor(d, StorageExplicit, 1024, sumIdx)
	r := tn.FullRange()
	r.Next()
	r.Next()
	wantOffset := d.IndexToOffset(r.Index())
	if r.Offset() != wantOffset {
		t.Errorf("Expected Offset to match IndexToOffset of the current index. Expected %d, got %d", wantOffset, r.Offset())
	}
	if r.Current().Value() != sumIdx(r.Index()) {
		t.Errorf("Expected Current to reflect the element at the current index")
	}
}

func TestTensorRangeCloneIsIndependent(t *testing.T) {
	d, _ := NewDimensions([]int{2, 2}, false)
	tn := NewAutoStorageTensor(d, StorageExplicit, 1024, sumIdx)
	r := tn.FullRange()
	r.Next()
	clone := r.Clone()
	r.Next()
	if clone.Index()[0] == r.Index()[0] && clone.Index()[1] == r.Index()[1] {
		t.Errorf("Expected a cloned range to not advance alongside its source")
	}
}

func TestSpliceRejectsBadRange(t *testing.T) {
	d, _ := NewDimensions([]int{4, 4}, false)
	tn := NewAutoStorageTensor(d, StorageExplicit, 1024, sumIdx)
	if _, err := tn.Splice([]int{3, 0}, []int{1, 2}); err == nil {
		t.Errorf("Expected Splice to reject a range whose min exceeds its max")
	}
}
