package models

import "fmt"

// SignTag is one of the four elements of the cyclic group Z/4 under
// multiplication: +1, +i, -1, -i. A separate Zero sentinel (see
// HashedSequence.IsZero) represents the absorbing element and is never a
// fifth value of this type.
type SignTag int8

const (
	SignPlusOne SignTag = iota
	SignPlusI
	SignMinusOne
	SignMinusI
)

// String renders the sign the way the rest of this package prints monomial
// coefficients.
func (s SignTag) String() string {
	switch s {
	case SignPlusOne:
		return "+1"
	case SignPlusI:
		return "+i"
	case SignMinusOne:
		return "-1"
	case SignMinusI:
		return "-i"
	default:
		return fmt.Sprintf("SignTag(%d)", int8(s))
	}
}

// Mul multiplies two sign tags under Z/4 (addition of exponents mod 4, where
// exponent(+1)=0, exponent(+i)=1, exponent(-1)=2, exponent(-i)=3).
func (s SignTag) Mul(other SignTag) SignTag {
	return SignTag((int8(s) + int8(other)) % 4)
}

// Negate returns s multiplied by SignMinusOne.
func (s SignTag) Negate() SignTag {
	return s.Mul(SignMinusOne)
}

// Conjugate returns the complex conjugate of the sign: +1 and -1 are fixed,
// +i and -i swap.
func (s SignTag) Conjugate() SignTag {
	switch s {
	case SignPlusI:
		return SignMinusI
	case SignMinusI:
		return SignPlusI
	default:
		return s
	}
}

// Real reports whether the sign has no imaginary component.
func (s SignTag) Real() bool {
	return s == SignPlusOne || s == SignMinusOne
}
