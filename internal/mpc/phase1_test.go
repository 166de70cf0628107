package mpc

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/tbbs/internal/party"
	"github.com/luxfi/tbbs/internal/polynomial"
	"github.com/luxfi/tbbs/internal/xhash"
)

func runPhase1(t *testing.T, active party.Set, shares map[party.ID]fr.Element) map[party.ID]*Phase1Output {
	t.Helper()

	instances := make(map[party.ID]*Phase1)
	ownCommit := make(map[party.ID]Commitments)
	zeroCommit := make(map[party.ID]map[party.ID]Commitments)

	for _, id := range active {
		rng := xhash.NewStream(uint64(id), "phase1-test")
		p1, own, zero, err := NewPhase1(rng, id, active, shares[id], []byte("test"), 0, 1)
		require.NoError(t, err)
		instances[id] = p1
		ownCommit[id] = own
		zeroCommit[id] = zero
	}

	// step 1: feed commitments
	for _, i := range active {
		for _, j := range active {
			if i == j {
				continue
			}
			require.NoError(t, instances[i].ReceiveCommitment(j, ownCommit[j], zeroCommit[j][i]))
		}
	}

	// step 2: feed reveals
	for _, i := range active {
		for _, j := range active {
			if i == j {
				continue
			}
			share, salt := instances[j].ShareAndSalt()
			zeroShare, zeroSalt, err := instances[j].ZeroShareAndSaltFor(i)
			require.NoError(t, err)
			require.NoError(t, instances[i].ReceiveShares(j, share, salt, zeroShare, zeroSalt))
		}
	}

	out := make(map[party.ID]*Phase1Output)
	for _, i := range active {
		o, err := instances[i].Finish()
		require.NoError(t, err)
		out[i] = o
	}
	return out
}

func TestPhase1MaskedSharesSumToWeightedSecretPlusE(t *testing.T) {
	active := party.NewSet(1, 2, 3)

	var secret fr.Element
	secret.SetUint64(555)
	rng := xhash.NewStream(9, "secret-poly")
	poly, err := polynomial.New(secret, 2, rng)
	require.NoError(t, err)
	shares := poly.Shares(active)

	outs := runPhase1(t, active, shares)

	var sum fr.Element
	for _, o := range outs {
		sum.Add(&sum, &o.MaskedSigningKeyShare[0])
	}

	first := outs[active[0]]
	var expected fr.Element
	expected.Add(&secret, &first.E)
	require.True(t, sum.Equal(&expected))

	for _, o := range outs {
		require.True(t, o.E.Equal(&first.E))
		require.True(t, o.S.Equal(&first.S))
	}
}

func TestPhase1FinishBeforeAllPeersIncomplete(t *testing.T) {
	active := party.NewSet(1, 2, 3)
	rng := xhash.NewStream(1, "incomplete")
	var skShare fr.Element
	skShare.SetUint64(1)
	p1, _, _, err := NewPhase1(rng, 1, active, skShare, []byte("test"), 0, 1)
	require.NoError(t, err)
	_, err = p1.Finish()
	require.ErrorIs(t, err, ErrIncompletePeerData)
}
