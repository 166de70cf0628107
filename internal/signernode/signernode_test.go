package signernode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/tbbs/internal/dealer"
	"github.com/luxfi/tbbs/internal/mpc"
	"github.com/luxfi/tbbs/internal/party"
	"github.com/luxfi/tbbs/internal/xhash"
)

func newTestPool(t *testing.T, active party.Set) *mpc.BaseOTPool {
	t.Helper()
	return mpc.NewBaseOTPool(1, active)
}

func TestSetKeyShareIdempotent(t *testing.T) {
	rng := xhash.NewStream(1, "dealer")
	d, err := dealer.Generate(rng, 1, 2, 2)
	require.NoError(t, err)
	km, err := d.ShareFor(1)
	require.NoError(t, err)

	n := New(1, xhash.NewStream(1, "signer-1"))
	require.NoError(t, n.SetKeyShare(km))
	require.NoError(t, n.SetKeyShare(km))
}

func TestSetKeyShareRejectsConflictingSecondCall(t *testing.T) {
	rng := xhash.NewStream(2, "dealer-2")
	d, err := dealer.Generate(rng, 1, 2, 3)
	require.NoError(t, err)
	km1, err := d.ShareFor(1)
	require.NoError(t, err)
	km2, err := d.ShareFor(2)
	require.NoError(t, err)

	n := New(1, xhash.NewStream(1, "signer"))
	require.NoError(t, n.SetKeyShare(km1))
	require.ErrorIs(t, n.SetKeyShare(km2), ErrAlreadyInitialized)
}

func TestRound2InitBeforeRound1FinishIsWrongState(t *testing.T) {
	rng := xhash.NewStream(3, "dealer-3")
	d, err := dealer.Generate(rng, 1, 2, 2)
	require.NoError(t, err)
	km, err := d.ShareFor(1)
	require.NoError(t, err)

	n := New(1, xhash.NewStream(1, "signer"))
	require.NoError(t, n.SetKeyShare(km))

	pool := newTestPool(t, party.NewSet(1, 2))
	_, err = n.Round2Init(party.NewSet(1, 2), pool)
	require.ErrorIs(t, err, ErrWrongState)
}
