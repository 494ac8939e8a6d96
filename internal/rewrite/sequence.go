package rewrite

import (
	"strings"

	"github.com/rawblock/moment-algebra/pkg/models"
)

// HashedSequence is an ordered finite sequence of operator identifiers
// together with a cached shortlex hash, a sign tag, and a zero flag. Two
// sequences are equal iff their (Zero, Raw, Sign) triples agree; Hash alone
// is not sufficient since it ignores sign, but two sequences with the same
// Raw always carry the same Hash.
type HashedSequence struct {
	Raw  []int
	Hash uint64
	Sign models.SignTag
	Zero bool
}

// New builds a HashedSequence from a raw operator string and sign, computing
// its hash with h.
func New(h *Hasher, raw []int, sign models.SignTag) HashedSequence {
	r := make([]int, len(raw))
	copy(r, raw)
	return HashedSequence{Raw: r, Hash: h.Hash(r), Sign: sign}
}

// Zero returns the zero sentinel: hash 0, empty raw, positive sign, Zero
// set. The sign on a zero sequence carries no meaning but is normalized to
// SignPlusOne so two zero sequences always compare equal.
func Zero() HashedSequence {
	return HashedSequence{Zero: true, Sign: models.SignPlusOne}
}

// Identity returns the empty operator sequence (the multiplicative
// identity) with the given sign.
func Identity(h *Hasher, sign models.SignTag) HashedSequence {
	return New(h, nil, sign)
}

// Len returns the length of the raw sequence. The zero sentinel has length 0.
func (s HashedSequence) Len() int {
	return len(s.Raw)
}

// Equal reports whether s and other represent the same signed sequence.
func (s HashedSequence) Equal(other HashedSequence) bool {
	if s.Zero != other.Zero {
		return false
	}
	if s.Zero {
		return true
	}
	if s.Sign != other.Sign {
		return false
	}
	return sliceEqual(s.Raw, other.Raw)
}

// SameRaw reports whether s and other have the same underlying operator
// string, ignoring sign. Both must be non-zero.
func (s HashedSequence) SameRaw(other HashedSequence) bool {
	if s.Zero || other.Zero {
		return s.Zero && other.Zero
	}
	return s.Hash == other.Hash && sliceEqual(s.Raw, other.Raw)
}

// Less reports whether s strictly precedes other in shortlex order. The
// zero sentinel precedes every non-zero sequence, matching its hash of 0
// being below every offset(L>=0) >= 1.
func (s HashedSequence) Less(other HashedSequence) bool {
	if s.Zero && other.Zero {
		return false
	}
	if s.Zero {
		return true
	}
	if other.Zero {
		return false
	}
	return s.Hash < other.Hash
}

// WithSign returns a copy of s with its sign replaced.
func (s HashedSequence) WithSign(sign models.SignTag) HashedSequence {
	s2 := s
	s2.Sign = sign
	return s2
}

// Negate returns a copy of s with its sign negated. The zero sentinel is
// returned unchanged (negating zero is still zero).
func (s HashedSequence) Negate() HashedSequence {
	if s.Zero {
		return s
	}
	return s.WithSign(s.Sign.Negate())
}

// MulSign returns a copy of s with its sign multiplied by extra.
func (s HashedSequence) MulSign(extra models.SignTag) HashedSequence {
	if s.Zero {
		return s
	}
	return s.WithSign(s.Sign.Mul(extra))
}

// String renders the sequence as a signed bracketed list of operator ids,
// e.g. "+1·[0,2,1]", or "0" for the zero sentinel.
func (s HashedSequence) String() string {
	if s.Zero {
		return "0"
	}
	parts := make([]string, len(s.Raw))
	for i, o := range s.Raw {
		parts[i] = itoa(o)
	}
	return s.Sign.String() + "·[" + strings.Join(parts, ",") + "]"
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
