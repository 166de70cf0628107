package dealer

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/tbbs/internal/bbscrypto"
	"github.com/luxfi/tbbs/internal/party"
	"github.com/luxfi/tbbs/internal/polynomial"
	"github.com/luxfi/tbbs/internal/xhash"
)

func TestGenerateDistributesOnlyToCommittee(t *testing.T) {
	rng := xhash.NewStream(1, "dealer-test")
	d, err := Generate(rng, 3, 3, 5)
	require.NoError(t, err)

	require.Equal(t, party.NewSet(1, 2, 3), d.Committee())

	for _, id := range []party.ID{1, 2, 3} {
		_, err := d.ShareFor(id)
		require.NoError(t, err)
	}
	for _, id := range []party.ID{4, 5} {
		_, err := d.ShareFor(id)
		require.Error(t, err)
	}
}

func TestSharesReconstructAggregateKey(t *testing.T) {
	rng := xhash.NewStream(2, "dealer-test-2")
	d, err := Generate(rng, 2, 3, 4)
	require.NoError(t, err)

	active := d.Committee()
	lambdas := polynomial.Lagrange(active)

	var sum fr.Element
	for _, id := range active {
		km, err := d.ShareFor(id)
		require.NoError(t, err)
		lambda := lambdas[id]
		weighted := km.SkShare
		weighted.Mul(&weighted, &lambda)
		sum.Add(&sum, &weighted)
	}

	expectedPK := d.PublicKey()
	recomputedPK := bbscrypto.DerivePublicKey(d.Params(), sum)
	require.Equal(t, expectedPK.W.Marshal(), recomputedPK.W.Marshal())
}
