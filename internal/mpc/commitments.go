package mpc

import (
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/luxfi/tbbs/internal/xhash"
)

// Commitments is the opaque binding blob signers exchange before
// revealing any random contribution: a commitment to this party's own
// coin-toss value (used to derive the public per-signature nonces), and
// a commitment to the zero-sharing seed this party contributes toward
// one specific peer. The same type serves both "own" (one per signer)
// and "targeted at peer j" (one per signer pair) roles, matching the
// shape spec.md's data model describes for the Commitments type.
type Commitments struct {
	ShareCommit [64]byte
	ZeroCommit  [64]byte
}

func commitScalar(label string, value fr.Element, salt [32]byte) [64]byte {
	return xhash.Hash512([]byte(label), value.Marshal(), salt[:])
}

func verifyScalarCommitment(label string, commit [64]byte, value fr.Element, salt [32]byte) bool {
	got := commitScalar(label, value, salt)
	return got == commit
}
