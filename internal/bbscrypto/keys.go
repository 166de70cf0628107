package bbscrypto

import (
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// PublicKey is the aggregate BBS public key W = P2^x, shared by every
// signer and every verifier.
type PublicKey struct {
	W bls12381.G2Affine
}

// DerivePublicKey computes W = P2^secret for a given aggregate secret
// key. internal/dealer calls this once, at key-generation time, and
// never again: individual signers only ever see their own Shamir share
// of secret, never secret itself.
func DerivePublicKey(params *Params, secret fr.Element) PublicKey {
	var jac bls12381.G2Jac
	jac.FromAffine(&params.P2)
	var secretBig big.Int
	secret.BigInt(&secretBig)
	jac.ScalarMultiplication(&jac, &secretBig)
	var aff bls12381.G2Affine
	aff.FromJacobian(&jac)
	return PublicKey{W: aff}
}

// Nonces is the public, Fiat-Shamir-derived pair (e, s) every active
// signer computes identically once round 1 relay has fed it every
// peer's coin-toss contribution.
type Nonces struct {
	E fr.Element
	S fr.Element
}

// DeriveNonces is the exported entry point internal/mpc's Phase1.Finish
// calls so every signer derives (e, s) from the identical transcript
// shape this package defines; see deriveNonces for that shape.
func DeriveNonces(protocolID []byte, batchIndex int, contributions [][]byte) Nonces {
	e, s := deriveNonces(protocolID, batchIndex, contributions)
	return Nonces{E: e, S: s}
}

// ComputeB computes B = P1 + Q1*s + Q2*domain + sum(H_i * m_i), the
// message-and-nonce-dependent base point every signer's share is raised
// to a fractional power of. domain is typically derived from the
// aggregate public key and the params themselves in a full BBS
// deployment; here it folds in the same nonce transcript that produced
// s, keeping every quantity here a pure function of public data.
func ComputeB(params *Params, messages []fr.Element, nonces Nonces) (bls12381.G1Affine, error) {
	if len(messages) != params.MessageCount {
		return bls12381.G1Affine{}, ErrMessageCountMismatch
	}

	var acc bls12381.G1Jac
	acc.FromAffine(&params.P1)

	addTerm := func(base *bls12381.G1Affine, scalar *fr.Element) {
		var jac bls12381.G1Jac
		jac.FromAffine(base)
		var scalarBig big.Int
		scalar.BigInt(&scalarBig)
		jac.ScalarMultiplication(&jac, &scalarBig)
		acc.AddAssign(&jac)
	}

	addTerm(&params.Q1, &nonces.S)

	var domain fr.Element
	domain.Add(&nonces.E, &nonces.S)
	addTerm(&params.Q2, &domain)

	for i, m := range messages {
		addTerm(&params.H[i], &m)
	}

	var out bls12381.G1Affine
	out.FromJacobian(&acc)
	return out, nil
}
