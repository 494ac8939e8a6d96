package models

import "testing"

func TestSignTagMul(t *testing.T) {
	// i * i = -1
	if got := SignPlusI.Mul(SignPlusI); got != SignMinusOne {
		t.Errorf("Expected +i * +i to be -1. Got: %s", got)
	}
	// -1 * -1 = +1
	if got := SignMinusOne.Mul(SignMinusOne); got != SignPlusOne {
		t.Errorf("Expected -1 * -1 to be +1. Got: %s", got)
	}
	// -i * i = +1
	if got := SignMinusI.Mul(SignPlusI); got != SignPlusOne {
		t.Errorf("Expected -i * +i to be +1. Got: %s", got)
	}
}

func TestSignTagNegate(t *testing.T) {
	if got := SignPlusOne.Negate(); got != SignMinusOne {
		t.Errorf("Expected Negate(+1) to be -1. Got: %s", got)
	}
	if got := SignPlusI.Negate(); got != SignMinusI {
		t.Errorf("Expected Negate(+i) to be -i. Got: %s", got)
	}
}

func TestSignTagConjugate(t *testing.T) {
	cases := []struct {
		in   SignTag
		want SignTag
	}{
		{SignPlusOne, SignPlusOne},
		{SignMinusOne, SignMinusOne},
		{SignPlusI, SignMinusI},
		{SignMinusI, SignPlusI},
	}
	for _, c := range cases {
		if got := c.in.Conjugate(); got != c.want {
			t.Errorf("Conjugate(%s): expected %s, got %s", c.in, c.want, got)
		}
	}
}

func TestSignTagReal(t *testing.T) {
	if !SignPlusOne.Real() || !SignMinusOne.Real() {
		t.Errorf("Expected +1 and -1 to be real")
	}
	if SignPlusI.Real() || SignMinusI.Real() {
		t.Errorf("Expected +i and -i to not be real")
	}
}
