package coordinator

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/tbbs/internal/dealer"
	"github.com/luxfi/tbbs/internal/mpc"
	"github.com/luxfi/tbbs/internal/party"
	"github.com/luxfi/tbbs/internal/signernode"
	"github.com/luxfi/tbbs/internal/xhash"
)

func newInProcessCommittee(t *testing.T, active party.Set, d *dealer.KeyDealer) map[party.ID]SignerLink {
	t.Helper()
	links := make(map[party.ID]SignerLink, len(active))
	for _, id := range active {
		km, err := d.ShareFor(id)
		require.NoError(t, err)

		node := signernode.New(id, xhash.NewStream(uint64(id), "signer-rng"))
		require.NoError(t, node.SetKeyShare(km))
		links[id] = node
	}
	return links
}

func TestCoordinatorSignEndToEnd(t *testing.T) {
	rng := xhash.NewStream(42, "dealer-rng")
	d, err := dealer.Generate(rng, 2, 3, 5)
	require.NoError(t, err)

	active := party.NewSet(1, 2, 3)
	links := newInProcessCommittee(t, active, d)

	pool := mpc.NewBaseOTPool(99, active)

	messages := make([]fr.Element, 2)
	messages[0].SetUint64(100)
	messages[1].SetUint64(200)

	c := &Coordinator{
		Active:     active,
		ProtocolID: []byte("test-deployment"),
		BatchIndex: 0,
		BatchSize:  1,
		Links:      links,
		Pool:       pool,
		Params:     d.Params(),
		PK:         d.PublicKey(),
	}

	sig, err := c.Sign(messages)
	require.NoError(t, err)
	require.NotNil(t, sig)
	require.Equal(t, Done, c.State())
}

func TestCoordinatorSignActiveSetListedInAnyOrderVerifies(t *testing.T) {
	rng := xhash.NewStream(7, "dealer-rng-2")
	d, err := dealer.Generate(rng, 1, 3, 5)
	require.NoError(t, err)

	messages := []fr.Element{{}}
	messages[0].SetUint64(9)

	for _, active := range []party.Set{party.NewSet(1, 2, 3), party.NewSet(2, 3, 1)} {
		links := newInProcessCommittee(t, active, d)
		pool := mpc.NewBaseOTPool(11, active)

		c := &Coordinator{
			Active:     active,
			ProtocolID: []byte("subset-test"),
			BatchIndex: 0,
			BatchSize:  1,
			Links:      links,
			Pool:       pool,
			Params:     d.Params(),
			PK:         d.PublicKey(),
		}

		sig, err := c.Sign(messages)
		require.NoError(t, err)
		require.NotNil(t, sig)
	}
}

func TestCoordinatorSignFailsWithIncompleteLinks(t *testing.T) {
	rng := xhash.NewStream(3, "dealer-rng-3")
	d, err := dealer.Generate(rng, 1, 3, 5)
	require.NoError(t, err)

	active := party.NewSet(1, 2, 3)
	links := newInProcessCommittee(t, active, d)
	delete(links, party.ID(3))

	pool := mpc.NewBaseOTPool(5, active)
	messages := []fr.Element{{}}
	messages[0].SetUint64(1)

	c := &Coordinator{
		Active:     active,
		ProtocolID: []byte("missing-link"),
		BatchIndex: 0,
		BatchSize:  1,
		Links:      links,
		Pool:       pool,
		Params:     d.Params(),
		PK:         d.PublicKey(),
	}

	_, err = c.Sign(messages)
	require.Error(t, err)
	require.Equal(t, Failed, c.State())
}
