package polynomial

import (
	"testing"

	"github.com/rawblock/moment-algebra/internal/algctx"
	"github.com/rawblock/moment-algebra/internal/collinsgisin"
	"github.com/rawblock/moment-algebra/internal/rewrite"
	"github.com/rawblock/moment-algebra/internal/symboltable"
	"github.com/rawblock/moment-algebra/internal/tensor"
)

// newProbabilityFixture builds the S5 scenario: two parties, one binary
// measurement each, CG dims (2,2), so the expanded probability tensor has
// dims (3,3) once the implicit outcome is appended to each party.
func newProbabilityFixture(t *testing.T) (*Tensor, *collinsgisin.Tensor, Factory) {
	t.Helper()
	rb := rewrite.NewRulebook(2, rewrite.SelfAdjoint, true)
	ctx := algctx.NewAlgebraicContext(rb, false)
	table := symboltable.NewInMemory(rb.Hasher(), rewrite.SelfAdjoint, 2)

	parties := [][]int{{0, 0}, {0, 1}}
	measurements := []collinsgisin.MeasurementRef{
		{Party: 0, Offset: 1, Length: 1},
		{Party: 1, Offset: 1, Length: 1},
	}
	cg, err := collinsgisin.New(ctx, table, parties, measurements, tensor.StorageExplicit, 1024)
	if err != nil {
		t.Fatalf("Unexpected error building the Collins-Gisin tensor: %v", err)
	}
	table.Register(ctx.Canonicalize(nil))
	table.Register(ctx.Canonicalize([]int{0}))
	table.Register(ctx.Canonicalize([]int{1}))
	table.Register(ctx.Canonicalize([]int{0, 1}))
	if !cg.FillMissingSymbols() {
		t.Fatalf("Expected every sequence to resolve once registered")
	}

	factory := NewDefaultFactory(1e-9)
	pt, err := New(cg, factory, nil)
	if err != nil {
		t.Fatalf("Unexpected error building the probability tensor: %v", err)
	}
	return pt, cg, factory
}

func TestProbabilityTensorDimensionsGainOneImplicitOutcomePerParty(t *testing.T) {
	pt, _, _ := newProbabilityFixture(t)
	sizes := pt.dims.Sizes
	if len(sizes) != 2 || sizes[0] != 3 || sizes[1] != 3 {
		t.Fatalf("Expected expanded dims (3,3), got %v", sizes)
	}
}

func TestProbabilityTensorExplicitOutcomeIsBareCGOffset(t *testing.T) {
	pt, cg, _ := newProbabilityFixture(t)
	view, err := pt.Data().At([]int{1, 0})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	elem := view.Value()
	cgOffset := cg.Data().Dims.IndexToOffset([]int{1, 0})
	if len(elem.CGPolynomial.Terms) != 1 || elem.CGPolynomial.Terms[0].Index != cgOffset || elem.CGPolynomial.Terms[0].Coeff != 1 {
		t.Errorf("Expected a bare reference to CG offset %d with coefficient 1, got %+v", cgOffset, elem.CGPolynomial.Terms)
	}
}

// TestProbabilityTensorImplicitImplicitIsOneMinusSums is spec scenario S5:
// the element at PT-index (2,2) (both parties on their implicit outcome)
// must equal 1 - P(a0) - P(b0) + P(a0,b0).
func TestProbabilityTensorImplicitImplicitIsOneMinusSums(t *testing.T) {
	pt, cg, factory := newProbabilityFixture(t)
	view, err := pt.Data().At([]int{2, 2})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	elem := view.Value()

	cgDims := cg.Data().Dims
	a0 := cgDims.IndexToOffset([]int{1, 0})
	b0 := cgDims.IndexToOffset([]int{0, 1})
	a0b0 := cgDims.IndexToOffset([]int{1, 1})

	expected := factory.Build([]Term{
		{Coeff: 1, Index: -1},
		{Coeff: -1, Index: a0},
		{Coeff: -1, Index: b0},
		{Coeff: 1, Index: a0b0},
	})

	if !polynomialsEqual(elem.CGPolynomial, expected) {
		t.Errorf("Expected 1 - P(a0) - P(b0) + P(a0,b0), got %+v want %+v", elem.CGPolynomial.Terms, expected.Terms)
	}
}

func TestProbabilityTensorSingleImplicitIsOneMinusExplicit(t *testing.T) {
	pt, cg, factory := newProbabilityFixture(t)
	// Party 0 implicit (coordinate 2), party 1 explicit outcome 0 (coordinate 1).
	view, err := pt.Data().At([]int{2, 1})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	elem := view.Value()

	cgDims := cg.Data().Dims
	b0 := cgDims.IndexToOffset([]int{0, 1})
	a0b0 := cgDims.IndexToOffset([]int{1, 1})

	expected := factory.Build([]Term{
		{Coeff: 1, Index: b0},
		{Coeff: -1, Index: a0b0},
	})

	if !polynomialsEqual(elem.CGPolynomial, expected) {
		t.Errorf("Expected P(b0) - P(a0,b0), got %+v want %+v", elem.CGPolynomial.Terms, expected.Terms)
	}
}

func TestFillMissingPolynomialsResolvesSymbolPolynomial(t *testing.T) {
	pt, _, factory := newProbabilityFixture(t)
	pt.FillMissingPolynomials(factory)

	view, err := pt.Data().At([]int{2, 2})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	elem := view.Value()
	if !elem.HasSymbols {
		t.Errorf("Expected the fully-resolved implicit-implicit element to carry a symbol polynomial")
	}
}

func polynomialsEqual(a, b Polynomial) bool {
	if len(a.Terms) != len(b.Terms) {
		return false
	}
	for i := range a.Terms {
		if a.Terms[i].Index != b.Terms[i].Index {
			return false
		}
		diff := a.Terms[i].Coeff - b.Terms[i].Coeff
		if diff < 0 {
			diff = -diff
		}
		if diff > 1e-9 {
			return false
		}
	}
	return true
}
