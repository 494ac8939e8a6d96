package rewrite

import "fmt"

// InvalidRuleError is returned when a rule's construction orientation is
// violated: the LHS would have to be zero, or the LHS hashes below a nonzero
// RHS in shortlex order after sign normalization (equal hashes are allowed).
type InvalidRuleError struct {
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("rewrite: invalid rule: %s", e.Reason)
}

// ErrBadHint is returned by Rule.ApplyMatchWithHint when the hint does not
// point at an occurrence of the rule's LHS, or when applying it would leave
// a negative remaining length. It is recovered locally inside Combine, which
// treats it as "no overlap rule" rather than propagating it.
var ErrBadHint = &badHintError{}

type badHintError struct{}

func (e *badHintError) Error() string {
	return "rewrite: bad hint: no match at the given position"
}
