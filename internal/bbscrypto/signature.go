package bbscrypto

import (
	"errors"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

var (
	// ErrMessageCountMismatch is returned when a caller supplies a
	// message vector whose length doesn't match the params it was
	// generated against.
	ErrMessageCountMismatch = errors.New("bbscrypto: message count does not match params")
	// ErrInvalidSignature is returned by Verify when the pairing check
	// fails.
	ErrInvalidSignature = errors.New("bbscrypto: signature does not verify")
)

// Signature is a complete BBS signature: the aggregated group element A
// plus the public nonces used to derive it.
type Signature struct {
	A bls12381.G1Affine
	E fr.Element
	S fr.Element
}

// Share is one active signer's additive contribution to the aggregate
// signature A = B^{1/(x+e)}. Per-signer shares are plain G1 points; the
// coordinator finishes a signature by summing them with Aggregate (called
// from Coordinator.aggregate in internal/coordinator/coordinator.go).
type Share struct {
	SignerContribution bls12381.G1Affine
}

// NewShare builds a single signer's share of the aggregate signature.
// b is B=ComputeB(params, messages, nonces), maskedR is that signer's
// Phase1Output.MaskedR[batchIndex], and dInverse is the global inverse
// of d = R*(x+e) the coordinator reconstructs once it has every active
// signer's Phase2Output (see internal/mpc for the full derivation). The
// sum of every active signer's Share.SignerContribution is exactly
// B^{1/(x+e)}, because the masked R values sum to the true blinding
// factor R across the active set.
func NewShare(b bls12381.G1Affine, maskedR fr.Element, dInverse fr.Element) Share {
	var exponent fr.Element
	exponent.Mul(&maskedR, &dInverse)

	var jac bls12381.G1Jac
	jac.FromAffine(&b)
	var expBig big.Int
	exponent.BigInt(&expBig)
	jac.ScalarMultiplication(&jac, &expBig)

	var aff bls12381.G1Affine
	aff.FromJacobian(&jac)
	return Share{SignerContribution: aff}
}

// Aggregate sums per-signer shares into the final signature A value.
func Aggregate(shares []Share, e, s fr.Element) Signature {
	var acc bls12381.G1Jac
	for i := range shares {
		var jac bls12381.G1Jac
		jac.FromAffine(&shares[i].SignerContribution)
		acc.AddAssign(&jac)
	}
	var a bls12381.G1Affine
	a.FromJacobian(&acc)
	return Signature{A: a, E: e, S: s}
}

// Verify checks e(A, W + P2^e) == e(B, P2), the standard BBS pairing
// equation, where W is the aggregate public key and B is recomputed
// from params/messages/nonces.
func Verify(params *Params, pk PublicKey, messages []fr.Element, sig Signature) error {
	b, err := ComputeB(params, messages, Nonces{E: sig.E, S: sig.S})
	if err != nil {
		return err
	}

	var p2eJac bls12381.G2Jac
	p2eJac.FromAffine(&params.P2)
	var eBig big.Int
	sig.E.BigInt(&eBig)
	p2eJac.ScalarMultiplication(&p2eJac, &eBig)

	var wJac bls12381.G2Jac
	wJac.FromAffine(&pk.W)
	wJac.AddAssign(&p2eJac)

	var lhsExponent bls12381.G2Affine
	lhsExponent.FromJacobian(&wJac)

	result, err := bls12381.Pair(
		[]bls12381.G1Affine{sig.A, negG1(b)},
		[]bls12381.G2Affine{lhsExponent, params.P2},
	)
	if err != nil {
		return err
	}
	if !result.IsOne() {
		return ErrInvalidSignature
	}
	return nil
}

func negG1(p bls12381.G1Affine) bls12381.G1Affine {
	var neg bls12381.G1Affine
	neg.Neg(&p)
	return neg
}
