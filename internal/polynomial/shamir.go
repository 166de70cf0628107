// Package polynomial implements Shamir secret sharing and Lagrange
// interpolation over the BLS12-381 scalar field, grounded on the
// teacher's pkg/math/polynomial (same Lagrange-coefficient shape,
// generalized from a curve-agnostic curve.Scalar to the single fixed
// field this service needs).
package polynomial

import (
	"io"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/luxfi/tbbs/internal/party"
)

// Polynomial is f(x) = c0 + c1*x + ... + c_deg*x^deg over Fr, with c0
// the shared secret.
type Polynomial struct {
	coeffs []fr.Element
}

// New samples a degree-deg polynomial with constant term secret, drawing
// the remaining coefficients from rng (32 bytes per coefficient,
// interpreted as WireCodec does: big-endian, reduced mod the field
// order).
func New(secret fr.Element, degree int, rng io.Reader) (*Polynomial, error) {
	coeffs := make([]fr.Element, degree+1)
	coeffs[0] = secret
	buf := make([]byte, 32)
	for i := 1; i <= degree; i++ {
		if _, err := io.ReadFull(rng, buf); err != nil {
			return nil, err
		}
		coeffs[i].SetBytes(buf)
	}
	return &Polynomial{coeffs: coeffs}, nil
}

// Evaluate computes f(x).
func (p *Polynomial) Evaluate(x fr.Element) fr.Element {
	var result fr.Element
	for i := len(p.coeffs) - 1; i >= 0; i-- {
		result.Mul(&result, &x)
		result.Add(&result, &p.coeffs[i])
	}
	return result
}

// Shares evaluates the polynomial at Scalar(id) for every id in ids,
// producing one Shamir share per party.
func (p *Polynomial) Shares(ids party.Set) map[party.ID]fr.Element {
	out := make(map[party.ID]fr.Element, len(ids))
	for _, id := range ids {
		out[id] = p.Evaluate(IDScalar(id))
	}
	return out
}

// IDScalar converts a party ID into its Fr representation (evaluation
// point for Shamir sharing: party i is evaluated at x=i).
func IDScalar(id party.ID) fr.Element {
	var s fr.Element
	s.SetUint64(uint64(id))
	return s
}

// Lagrange returns, for the active set ids, the coefficient lambda_i
// such that sum_i lambda_i * f(i) = f(0) for any polynomial f of degree
// < len(ids). These are the weights the signing protocol multiplies
// each party's raw Shamir share by, so that summing the (masked)
// weighted shares across the active set reconstructs the master secret
// exactly (spec.md data-model invariant on Phase1Output).
func Lagrange(ids party.Set) map[party.ID]fr.Element {
	out := make(map[party.ID]fr.Element, len(ids))
	for _, i := range ids {
		xi := IDScalar(i)
		num := one()
		den := one()
		for _, j := range ids {
			if j == i {
				continue
			}
			xj := IDScalar(j)

			// num *= (0 - xj) = -xj
			var negXj fr.Element
			negXj.Neg(&xj)
			num.Mul(&num, &negXj)

			// den *= (xi - xj)
			var diff fr.Element
			diff.Sub(&xi, &xj)
			den.Mul(&den, &diff)
		}
		var invDen fr.Element
		invDen.Inverse(&den)
		var lambda fr.Element
		lambda.Mul(&num, &invDen)
		out[i] = lambda
	}
	return out
}

func one() fr.Element {
	var e fr.Element
	e.SetOne()
	return e
}
