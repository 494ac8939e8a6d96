// Package collinsgisin implements the Collins-Gisin coordinate tensor: the
// basis of measurement-outcome moments for N parties, backed by an
// AutoStorageTensor and populated against a symbol table.
package collinsgisin

import (
	"fmt"
	"sync"

	"github.com/rawblock/moment-algebra/internal/algctx"
	"github.com/rawblock/moment-algebra/internal/rewrite"
	"github.com/rawblock/moment-algebra/internal/symboltable"
	"github.com/rawblock/moment-algebra/internal/tensor"
)

// MeasurementRef locates a global measurement id within the party/dimension
// layout: party is the dimension index, Offset is where the measurement's
// outcomes begin within that dimension (index 0, the identity outcome, is
// never part of a measurement), and Length is its outcome count.
type MeasurementRef struct {
	Party  int
	Offset int
	Length int
}

// Entry is one element of the Collins-Gisin tensor: the canonical operator
// sequence at that coordinate, together with whatever the symbol table knows
// about it.
type Entry struct {
	Sequence  rewrite.HashedSequence
	SymbolID  int
	RealIndex int
	Aliased   bool
	Hermitian bool
	HasSymbol bool
}

// Tensor holds the per-party operator layout (Parties[d][0] is always the
// identity outcome and contributes no operator to the concatenated
// sequence), the backing AutoStorageTensor of Entry, and the missing-symbol
// set used by the refresh protocol.
type Tensor struct {
	mu           sync.RWMutex
	ctx          algctx.Context
	table        symboltable.SymbolTable
	Parties      [][]int
	Measurements []MeasurementRef
	data         *tensor.AutoStorageTensor[Entry]
	missing      map[int]bool
}

// New builds a Collins-Gisin tensor over the given party operator lists
// (Parties[d] has length dim_d; element 0 is the identity outcome) and
// global measurement table. hint/threshold steer storage mode exactly like
// AutoStorageTensor.
func New(ctx algctx.Context, table symboltable.SymbolTable, parties [][]int, measurements []MeasurementRef, hint tensor.StorageType, threshold int) (*Tensor, error) {
	sizes := make([]int, len(parties))
	for i, p := range parties {
		sizes[i] = len(p)
	}
	dims, err := tensor.NewDimensions(sizes, false)
	if err != nil {
		return nil, err
	}

	t := &Tensor{
		ctx:          ctx,
		table:        table,
		Parties:      parties,
		Measurements: measurements,
		missing:      make(map[int]bool),
	}
	t.data = tensor.NewAutoStorageTensor(dims, hint, threshold, t.buildElement)

	if t.data.StorageType() == tensor.StorageExplicit {
		full := t.data.FullRange()
		for !full.Done() {
			offset := full.Offset()
			entry := full.Current().Value()
			if !entry.HasSymbol {
				t.missing[offset] = true
			}
			full.Next()
		}
	}
	return t, nil
}

func (t *Tensor) buildElement(idx []int) Entry {
	var raw []int
	for d, choice := range idx {
		if choice == 0 {
			continue
		}
		raw = append(raw, t.Parties[d][choice])
	}
	seq := t.ctx.Canonicalize(raw)
	entry := Entry{Sequence: seq, RealIndex: -1}
	if seq.Zero {
		return entry
	}
	res := t.table.Where(seq)
	if res.Found {
		entry.SymbolID = res.ID
		entry.RealIndex = res.RealIndex
		entry.Aliased = res.IsAliased
		entry.Hermitian = res.IsHermitian
		entry.HasSymbol = true
	}
	return entry
}

// FillMissingSymbols retries symbol resolution for every entry recorded as
// missing, following the §4.8 lock-upgrade discipline: shared lock first;
// if nothing is missing, return immediately; otherwise release, take the
// exclusive lock, retry each miss, release, and re-acquire the shared lock
// before returning. Reports whether the missing set is now empty.
func (t *Tensor) FillMissingSymbols() bool {
	t.mu.RLock()
	if len(t.missing) == 0 {
		t.mu.RUnlock()
		return true
	}
	t.mu.RUnlock()

	t.mu.Lock()
	for offset := range t.missing {
		idx, err := t.data.Dims.OffsetToIndex(offset)
		if err != nil {
			continue
		}
		view, err := t.data.AtOffset(offset)
		if err != nil {
			continue
		}
		entry := view.Value()
		if entry.Sequence.Zero {
			delete(t.missing, offset)
			continue
		}
		res := t.table.Where(entry.Sequence)
		if res.Found {
			entry.SymbolID = res.ID
			entry.RealIndex = res.RealIndex
			entry.Aliased = res.IsAliased
			entry.Hermitian = res.IsHermitian
			entry.HasSymbol = true
			t.data.Set(idx, entry)
			delete(t.missing, offset)
		}
	}
	done := len(t.missing) == 0
	t.mu.Unlock()

	t.mu.RLock()
	defer t.mu.RUnlock()
	return done
}

// MeasurementToRange translates a list of measurement ids (optionally with
// fixed outcomes) into a TensorRange over the corresponding box: parties not
// referenced span their full range, a referenced party with a fixed
// non-negative outcome collapses to that single offset, and a referenced
// party with no fixed outcome spans its measurement's outcome range.
func (t *Tensor) MeasurementToRange(mmtIDs []int, outcomes []int) (*tensor.TensorRange[Entry], error) {
	dims := t.data.Dims
	min := make([]int, dims.DimensionCount())
	max := make([]int, dims.DimensionCount())
	for d, p := range t.Parties {
		min[d] = 0
		max[d] = len(p)
	}

	seenParty := make(map[int]bool)
	for i, mid := range mmtIDs {
		if mid < 0 || mid >= len(t.Measurements) {
			return nil, &BadCGError{Kind: MissingIndex, Detail: fmt.Sprintf("measurement id %d has no entry", mid)}
		}
		ref := t.Measurements[mid]
		if seenParty[ref.Party] {
			return nil, &BadCGError{Kind: DuplicateParty, Detail: fmt.Sprintf("party %d referenced twice", ref.Party)}
		}
		seenParty[ref.Party] = true

		if outcomes != nil && i < len(outcomes) && outcomes[i] >= 0 {
			outcome := outcomes[i]
			if outcome >= ref.Length {
				return nil, &BadCGError{Kind: BadMeasurementIndex, Detail: fmt.Sprintf("outcome %d out of range for measurement %d (length %d)", outcome, mid, ref.Length)}
			}
			min[ref.Party] = ref.Offset + outcome
			max[ref.Party] = ref.Offset + outcome + 1
		} else {
			min[ref.Party] = ref.Offset
			max[ref.Party] = ref.Offset + ref.Length
		}
	}

	return t.data.Splice(min, max)
}

// At returns the entry at idx, erroring MissingSymbols if it has not been
// resolved yet.
func (t *Tensor) At(idx []int) (Entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	view, err := t.data.At(idx)
	if err != nil {
		return Entry{}, err
	}
	entry := view.Value()
	if !entry.Sequence.Zero && !entry.HasSymbol {
		return entry, &BadCGError{Kind: MissingSymbols, Detail: "symbol not yet resolved; call FillMissingSymbols"}
	}
	return entry, nil
}

// Data exposes the backing tensor for lower layers (polynomial expansion)
// that need raw coordinate access without the missing-symbol guard.
func (t *Tensor) Data() *tensor.AutoStorageTensor[Entry] {
	return t.data
}
