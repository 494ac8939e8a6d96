package symboltable

import (
	"testing"

	"github.com/rawblock/moment-algebra/internal/rewrite"
	"github.com/rawblock/moment-algebra/pkg/models"
)

func TestRegisterAssignsMonotonicIDs(t *testing.T) {
	h := rewrite.NewHasher(3)
	tbl := NewInMemory(h, rewrite.SelfAdjoint, 3)
	a := rewrite.New(h, []int{0}, models.SignPlusOne)
	b := rewrite.New(h, []int{1}, models.SignPlusOne)

	id1 := tbl.Register(a)
	id2 := tbl.Register(b)
	if id1 != 0 || id2 != 1 {
		t.Errorf("Expected sequential ids starting at 0. Got: %d, %d", id1, id2)
	}
	if tbl.Size() != 2 {
		t.Errorf("Expected Size to report 2 registered symbols. Got: %d", tbl.Size())
	}
}

func TestRegisterIsIdempotentForTheSameSequence(t *testing.T) {
	h := rewrite.NewHasher(3)
	tbl := NewInMemory(h, rewrite.SelfAdjoint, 3)
	a := rewrite.New(h, []int{0, 1}, models.SignPlusOne)
	id1 := tbl.Register(a)
	id2 := tbl.Register(a)
	if id1 != id2 {
		t.Errorf("Expected registering the same sequence twice to return the same id. Got: %d, %d", id1, id2)
	}
	if tbl.Size() != 1 {
		t.Errorf("Expected Size to count one distinct symbol. Got: %d", tbl.Size())
	}
}

func TestRegisterAliasesConjugatePair(t *testing.T) {
	h := rewrite.NewHasher(4)
	tbl := NewInMemory(h, rewrite.Bunched, 4)
	a := rewrite.New(h, []int{0}, models.SignPlusOne)
	aConj := rewrite.Conjugate(h, rewrite.Bunched, 4, a)

	id := tbl.Register(a)
	aliasID := tbl.Register(aConj)
	if aliasID != id {
		t.Errorf("Expected registering a conjugate to alias the original's id. Got original=%d, conjugate=%d", id, aliasID)
	}
	res := tbl.Where(aConj)
	if !res.IsAliased {
		t.Errorf("Expected the conjugate lookup to report IsAliased")
	}
}

func TestRegisterZeroSentinelReturnsNegativeOne(t *testing.T) {
	h := rewrite.NewHasher(3)
	tbl := NewInMemory(h, rewrite.SelfAdjoint, 3)
	if id := tbl.Register(rewrite.Zero()); id != -1 {
		t.Errorf("Expected registering the zero sentinel to return -1. Got: %d", id)
	}
	if tbl.Size() != 0 {
		t.Errorf("Expected the zero sentinel to never consume an id slot. Got size %d", tbl.Size())
	}
}

func TestWhereReportsNotFoundBeforeRegistration(t *testing.T) {
	h := rewrite.NewHasher(3)
	tbl := NewInMemory(h, rewrite.SelfAdjoint, 3)
	seq := rewrite.New(h, []int{0, 1}, models.SignPlusOne)
	if res := tbl.Where(seq); res.Found {
		t.Errorf("Expected Where to report not found before Register is called")
	}
}

func TestWhereReportsHermitianForSelfConjugateSequence(t *testing.T) {
	h := rewrite.NewHasher(3)
	tbl := NewInMemory(h, rewrite.SelfAdjoint, 3)
	seq := rewrite.New(h, []int{0}, models.SignPlusOne)
	tbl.Register(seq)
	res := tbl.Where(seq)
	if !res.IsHermitian {
		t.Errorf("Expected a SelfAdjoint single-operator sequence to be its own conjugate and thus Hermitian")
	}
}
