// Package fingerprint derives stable, shareable content identifiers for
// rulebook snapshots and canonical operator sequences, reusing the
// hashing/encoding primitives the rest of the stack already depends on
// rather than hand-rolling a digest format.
package fingerprint

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Sequence computes a content hash for a canonical raw operator sequence
// plus its sign, so two processes that reduced the same word to the same
// normal form can confirm agreement without comparing full rule sets.
func Sequence(raw []int, sign int8) chainhash.Hash {
	buf := make([]byte, 1+8*len(raw))
	buf[0] = byte(sign)
	for i, o := range raw {
		binary.LittleEndian.PutUint64(buf[1+8*i:], uint64(int64(o)))
	}
	return chainhash.HashH(buf)
}

// Rulebook computes a content hash over an ordered list of rule digests
// (each produced by Rule), chaining them the way a merkle leaf list would,
// so the fingerprint changes if any rule is added, removed, or reordered.
func Rulebook(ruleDigests []chainhash.Hash) chainhash.Hash {
	buf := make([]byte, chainhash.HashSize*len(ruleDigests))
	for i, d := range ruleDigests {
		copy(buf[i*chainhash.HashSize:], d[:])
	}
	return chainhash.HashH(buf)
}

// Rule computes a content hash for one rule from its LHS/RHS raw sequences
// and RHS sign.
func Rule(lhsRaw, rhsRaw []int, rhsSign int8, rhsZero bool) chainhash.Hash {
	lhs := Sequence(lhsRaw, 0)
	var rhs chainhash.Hash
	if rhsZero {
		rhs = chainhash.Hash{}
	} else {
		rhs = Sequence(rhsRaw, rhsSign)
	}
	return chainhash.HashH(append(lhs[:], rhs[:]...))
}

// Encode renders a content hash as the plain base58 string (no checksum) used in API
// responses and log lines, reusing btcutil's alphabet rather than adding a
// second encoding dependency.
func Encode(h chainhash.Hash) string {
	return base58.Encode(h[:])
}
