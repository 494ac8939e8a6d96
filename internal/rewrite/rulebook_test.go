package rewrite

import (
	"context"
	"testing"

	"github.com/rawblock/moment-algebra/pkg/models"
)

func TestRulebookOperatorCountUnderConjugationModes(t *testing.T) {
	if rb := NewRulebook(3, SelfAdjoint, true); rb.OperatorCount() != 3 {
		t.Errorf("Expected SelfAdjoint operator count to equal generator count. Got: %d", rb.OperatorCount())
	}
	if rb := NewRulebook(3, Bunched, true); rb.OperatorCount() != 6 {
		t.Errorf("Expected Bunched operator count to be double the generator count. Got: %d", rb.OperatorCount())
	}
}

func TestRulebookAddRuleBasic(t *testing.T) {
	rb := NewRulebook(3, SelfAdjoint, false)
	h := rb.Hasher()
	r, err := NewRule(New(h, []int{0, 1}, models.SignPlusOne), New(h, []int{2}, models.SignPlusOne))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	n, err := rb.AddRule(r)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != 1 || rb.Len() != 1 {
		t.Errorf("Expected exactly one rule inserted. Got n=%d, Len()=%d", n, rb.Len())
	}
}

func TestRulebookAddRuleTrivialIsNoOp(t *testing.T) {
	rb := NewRulebook(3, SelfAdjoint, false)
	h := rb.Hasher()
	s := New(h, []int{0, 1}, models.SignPlusOne)
	r, _ := NewRule(s, s)
	n, err := rb.AddRule(r)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != 0 || rb.Len() != 0 {
		t.Errorf("Expected a trivial rule to insert nothing. Got n=%d, Len()=%d", n, rb.Len())
	}
}

func TestRulebookAddRuleConflictingSignsForcesZero(t *testing.T) {
	rb := NewRulebook(3, SelfAdjoint, false)
	h := rb.Hasher()
	lhs := New(h, []int{0, 1}, models.SignPlusOne)
	rhsPlus := New(h, []int{2}, models.SignPlusOne)
	rhsMinus := New(h, []int{2}, models.SignMinusOne)

	r1, _ := NewRule(lhs, rhsPlus)
	if _, err := rb.AddRule(r1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	r2, _ := NewRule(lhs, rhsMinus)
	if _, err := rb.AddRule(r2); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	seq := New(h, []int{0, 1}, models.SignPlusOne)
	if got := rb.Reduce(seq); !got.Zero {
		t.Errorf("Expected two rules mapping the same LHS to +c and -c to force that LHS to zero. Got: %v", got)
	}
}

func TestRulebookReduceRestartsFromFirstRule(t *testing.T) {
	rb := NewRulebook(4, SelfAdjoint, false)
	h := rb.Hasher()
	r1, _ := NewRule(New(h, []int{0, 1}, models.SignPlusOne), New(h, []int{2}, models.SignPlusOne))
	r2, _ := NewRule(New(h, []int{2, 3}, models.SignPlusOne), New(h, []int{1}, models.SignPlusOne))
	if _, err := rb.AddRule(r1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := rb.AddRule(r2); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// [0,1,3] -> [2,3] (via r1) -> [1] (via r2)
	seq := New(h, []int{0, 1, 3}, models.SignPlusOne)
	got := rb.Reduce(seq)
	if got.Zero || len(got.Raw) != 1 || got.Raw[0] != 1 {
		t.Errorf("Expected full reduction to [1]. Got: %v", got)
	}
}

func TestRulebookReduceOfZeroIsZero(t *testing.T) {
	rb := NewRulebook(3, SelfAdjoint, false)
	if got := rb.Reduce(Zero()); !got.Zero {
		t.Errorf("Expected reducing the zero sentinel to remain zero")
	}
}

func TestRulebookReduceRuleset(t *testing.T) {
	rb := NewRulebook(4, SelfAdjoint, false)
	h := rb.Hasher()
	r1, _ := NewRule(New(h, []int{0, 1}, models.SignPlusOne), New(h, []int{2}, models.SignPlusOne))
	r2, _ := NewRule(New(h, []int{2, 3}, models.SignPlusOne), New(h, []int{1}, models.SignPlusOne))
	rb.AddRule(r1)
	rb.AddRule(r2)
	before := rb.Len()
	rb.ReduceRuleset()
	if rb.Len() > before {
		t.Errorf("Expected ReduceRuleset to never increase the rule count. Before: %d, after: %d", before, rb.Len())
	}
	// Idempotent under repeated calls.
	after1 := rb.Rules()
	rb.ReduceRuleset()
	after2 := rb.Rules()
	if len(after1) != len(after2) {
		t.Errorf("Expected ReduceRuleset to be stable under repeated calls")
	}
}

func TestRulebookTryNewCombination(t *testing.T) {
	rb := NewRulebook(4, SelfAdjoint, false)
	h := rb.Hasher()
	r1, _ := NewRule(New(h, []int{0, 1}, models.SignPlusOne), New(h, []int{2}, models.SignPlusOne))
	r2, _ := NewRule(New(h, []int{1, 2}, models.SignPlusOne), New(h, []int{0}, models.SignPlusOne))
	rb.AddRule(r1)
	rb.AddRule(r2)
	before := rb.Len()
	if !rb.TryNewCombination() {
		t.Fatalf("Expected at least one new combination from an overlapping pair of rules")
	}
	if rb.Len() <= before {
		t.Errorf("Expected TryNewCombination to add at least one rule. Before: %d, after: %d", before, rb.Len())
	}
}

func TestRulebookCompleteReachesConfluence(t *testing.T) {
	rb := NewRulebook(4, SelfAdjoint, false)
	h := rb.Hasher()
	r1, _ := NewRule(New(h, []int{0, 1}, models.SignPlusOne), New(h, []int{2}, models.SignPlusOne))
	r2, _ := NewRule(New(h, []int{1, 2}, models.SignPlusOne), New(h, []int{0}, models.SignPlusOne))
	rb.AddRule(r1)
	rb.AddRule(r2)

	complete, err := rb.Complete(context.Background(), 1000, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !complete {
		t.Errorf("Expected completion to converge on a confluent ruleset")
	}
	if !rb.IsComplete(false) {
		t.Errorf("Expected IsComplete to confirm confluence after Complete returns true")
	}
}

func TestRulebookCompleteMockModeDoesNotMutate(t *testing.T) {
	rb := NewRulebook(4, SelfAdjoint, false)
	h := rb.Hasher()
	r1, _ := NewRule(New(h, []int{0, 1}, models.SignPlusOne), New(h, []int{2}, models.SignPlusOne))
	r2, _ := NewRule(New(h, []int{1, 2}, models.SignPlusOne), New(h, []int{0}, models.SignPlusOne))
	rb.AddRule(r1)
	rb.AddRule(r2)
	before := rb.Len()

	if _, err := rb.Complete(context.Background(), 0, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rb.Len() != before {
		t.Errorf("Expected mock-mode Complete (maxIterations=0) to never mutate the ruleset. Before: %d, after: %d", before, rb.Len())
	}
}

func TestRulebookCompleteRespectsCancellation(t *testing.T) {
	rb := NewRulebook(4, SelfAdjoint, false)
	h := rb.Hasher()
	r1, _ := NewRule(New(h, []int{0, 1}, models.SignPlusOne), New(h, []int{2}, models.SignPlusOne))
	r2, _ := NewRule(New(h, []int{1, 2}, models.SignPlusOne), New(h, []int{0}, models.SignPlusOne))
	rb.AddRule(r1)
	rb.AddRule(r2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rb.Complete(ctx, 1000, nil)
	if err == nil {
		t.Errorf("Expected Complete to report an error when its context is already cancelled")
	}
}

func TestRulebookGenerateCommutators(t *testing.T) {
	rb := NewRulebook(3, SelfAdjoint, false)
	n := rb.GenerateCommutators()
	// 3 operators: pairs (1,0),(2,0),(2,1) -> 3 commutator rules
	if n != 3 {
		t.Errorf("Expected 3 commutator rules over a 3-operator alphabet. Got: %d", n)
	}
	h := rb.Hasher()
	seq := New(h, []int{2, 0}, models.SignPlusOne)
	reduced := rb.Reduce(seq)
	want := []int{0, 2}
	if reduced.Zero || len(reduced.Raw) != 2 || reduced.Raw[0] != want[0] || reduced.Raw[1] != want[1] {
		t.Errorf("Expected [2,0] to reduce to [0,2] under full commutativity. Got: %v", reduced)
	}
}

func TestRulebookGenerateNormalOperatorRulesSelfAdjointNoOp(t *testing.T) {
	rb := NewRulebook(3, SelfAdjoint, true)
	if n := rb.GenerateNormalOperatorRules(); n != 0 {
		t.Errorf("Expected GenerateNormalOperatorRules to be a no-op under SelfAdjoint. Got: %d", n)
	}
}

func TestRulebookGenerateNormalOperatorRulesBunched(t *testing.T) {
	rb := NewRulebook(2, Bunched, true)
	n := rb.GenerateNormalOperatorRules()
	if n != 2 {
		t.Errorf("Expected one normal-operator rule per generator (2). Got: %d", n)
	}
}
