package polynomial

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/tbbs/internal/party"
	"github.com/luxfi/tbbs/internal/xhash"
)

func TestSharesReconstructViaLagrange(t *testing.T) {
	var secret fr.Element
	secret.SetUint64(424242)

	rng := xhash.NewStream(1, "test-secret")
	poly, err := New(secret, 2, rng)
	require.NoError(t, err)

	active := party.NewSet(1, 2, 3)
	shares := poly.Shares(active)
	lambdas := Lagrange(active)

	var recon fr.Element
	for _, id := range active {
		share := shares[id]
		lambda := lambdas[id]
		var term fr.Element
		term.Mul(&share, &lambda)
		recon.Add(&recon, &term)
	}

	require.True(t, recon.Equal(&secret))
}

func TestLagrangeDifferentActiveSetsStillReconstruct(t *testing.T) {
	var secret fr.Element
	secret.SetUint64(7)

	rng := xhash.NewStream(2, "test-secret-2")
	poly, err := New(secret, 3, rng)
	require.NoError(t, err)

	all := party.NewSet(1, 2, 3, 4, 5)

	for _, active := range []party.Set{
		party.NewSet(1, 2, 3, 4),
		party.NewSet(2, 3, 4, 5),
	} {
		shares := poly.Shares(all)
		lambdas := Lagrange(active)
		var recon fr.Element
		for _, id := range active {
			share := shares[id]
			lambda := lambdas[id]
			var term fr.Element
			term.Mul(&share, &lambda)
			recon.Add(&recon, &term)
		}
		require.True(t, recon.Equal(&secret))
	}
}
