package rewrite

import (
	"fmt"

	"github.com/rawblock/moment-algebra/pkg/models"
)

// Rule is one oriented rewrite rule LHS -> sign*RHS. By construction the LHS
// is always nonzero and carries SignPlusOne; any sign on the raw LHS passed
// to NewRule is folded onto the RHS.
type Rule struct {
	LHS HashedSequence
	RHS HashedSequence
}

// NewRule constructs a rule from a candidate LHS/RHS pair, normalizing the
// LHS sign onto the RHS and validating that LHS is nonzero and LHS >= RHS in
// shortlex (hash) order.
func NewRule(lhs, rhs HashedSequence) (Rule, error) {
	if lhs.Zero {
		return Rule{}, &InvalidRuleError{Reason: "left-hand side must be nonzero"}
	}
	if lhs.Sign != models.SignPlusOne {
		rhs = rhs.MulSign(lhs.Sign.Conjugate())
		lhs = lhs.WithSign(models.SignPlusOne)
	}
	if !rhs.Zero && lhs.Hash < rhs.Hash {
		return Rule{}, &InvalidRuleError{
			Reason: fmt.Sprintf("left-hand side hash %d is below right-hand side hash %d", lhs.Hash, rhs.Hash),
		}
	}
	return Rule{LHS: lhs, RHS: rhs}, nil
}

// Delta is |RHS|-|LHS|, always non-positive.
func (r Rule) Delta() int {
	return r.RHS.Len() - r.LHS.Len()
}

// RuleSign is the sign carried by the RHS.
func (r Rule) RuleSign() models.SignTag {
	return r.RHS.Sign
}

// ImpliesZero reports whether applying this rule collapses a match to the
// zero sentinel.
func (r Rule) ImpliesZero() bool {
	return r.RHS.Zero
}

// Trivial reports whether the rule is a no-op: LHS and RHS are the same raw
// sequence with sign +1.
func (r Rule) Trivial() bool {
	return !r.RHS.Zero && r.LHS.Hash == r.RHS.Hash && r.RHS.Sign == models.SignPlusOne
}

// MatchesAnywhere returns the index of the first occurrence of LHS as a
// contiguous substring of seq.Raw, or -1 if absent.
func (r Rule) MatchesAnywhere(seq HashedSequence) int {
	if seq.Zero {
		return -1
	}
	return IndexOf(seq.Raw, r.LHS.Raw)
}

// ApplyMatchWithHint replaces the occurrence of LHS at position hint within
// seq with RHS, returning the rewritten sequence. The resulting sign is
// seq.Sign multiplied by the rule's RHS sign. Returns ErrBadHint if hint
// does not point at an occurrence of LHS.
func (r Rule) ApplyMatchWithHint(h *Hasher, seq HashedSequence, hint int) (HashedSequence, error) {
	if seq.Zero {
		return HashedSequence{}, ErrBadHint
	}
	lhsLen := len(r.LHS.Raw)
	if hint < 0 || hint+lhsLen > len(seq.Raw) {
		return HashedSequence{}, ErrBadHint
	}
	if !sliceEqual(seq.Raw[hint:hint+lhsLen], r.LHS.Raw) {
		return HashedSequence{}, ErrBadHint
	}
	newSign := seq.Sign.Mul(r.RHS.Sign)
	if r.RHS.Zero {
		return Zero(), nil
	}
	raw := make([]int, 0, len(seq.Raw)-lhsLen+len(r.RHS.Raw))
	raw = append(raw, seq.Raw[:hint]...)
	raw = append(raw, r.RHS.Raw...)
	raw = append(raw, seq.Raw[hint+lhsLen:]...)
	return New(h, raw, newSign), nil
}

// Combine overlaps the suffix of r's LHS with the prefix of other's LHS,
// forming the joint string, reducing it by both rules, and emitting the
// oriented rule (higher hash) -> (lower hash) with the combined sign. It
// returns (nil, false) when the overlap is zero, when a hint does not apply,
// or when both reductions are zero; reductions that agree come back as a
// trivial rule with true, which callers filter out.
func (r Rule) Combine(other Rule, h *Hasher) (*Rule, bool) {
	k := SuffixPrefixOverlap(r.LHS.Raw, other.LHS.Raw)
	if k == 0 {
		return nil, false
	}
	joint := Concat(r.LHS.Raw, other.LHS.Raw[k:])
	seqJoint := New(h, joint, models.SignPlusOne)

	reducedByR, err1 := r.ApplyMatchWithHint(h, seqJoint, 0)
	reducedByOther, err2 := other.ApplyMatchWithHint(h, seqJoint, len(r.LHS.Raw)-k)
	if err1 != nil || err2 != nil {
		return nil, false
	}

	lhs, rhs := reducedByR, reducedByOther
	if lhs.Less(rhs) {
		lhs, rhs = rhs, lhs
	}
	if lhs.Zero {
		// Both sides reduced to zero: no information gained.
		return nil, false
	}

	rule, err := NewRule(lhs, rhs)
	if err != nil {
		return nil, false
	}
	return &rule, true
}

// Implies reports whether other is subsumed by r: other's LHS contains r's
// LHS as a substring at some offset, and substituting r's RHS at that offset
// (with the same prefix/suffix context) reproduces other's RHS exactly.
func (r Rule) Implies(other Rule) bool {
	pos := IndexOf(other.LHS.Raw, r.LHS.Raw)
	if pos < 0 {
		return false
	}
	prefix := other.LHS.Raw[:pos]
	suffix := other.LHS.Raw[pos+len(r.LHS.Raw):]

	if r.RHS.Zero {
		return other.RHS.Zero
	}
	if other.RHS.Zero {
		return false
	}
	expected := Concat(Concat(prefix, r.RHS.Raw), suffix)
	return sliceEqual(expected, other.RHS.Raw) && other.RHS.Sign == r.RHS.Sign
}

// Conjugate returns the rule obtained by conjugating both sides under mode
// and re-orienting so the higher-hash side becomes the LHS.
func (r Rule) Conjugate(h *Hasher, mode ConjugationMode, size int) (Rule, error) {
	cl := Conjugate(h, mode, size, r.LHS)
	cr := Conjugate(h, mode, size, r.RHS)
	lhs, rhs := cl, cr
	if lhs.Less(rhs) {
		lhs, rhs = rhs, lhs
	}
	return NewRule(lhs, rhs)
}

func (r Rule) String() string {
	return fmt.Sprintf("%s -> %s", HashedSequence{Raw: r.LHS.Raw, Sign: models.SignPlusOne}.String(), r.RHS.String())
}
