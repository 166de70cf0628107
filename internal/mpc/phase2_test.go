package mpc

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/tbbs/internal/party"
	"github.com/luxfi/tbbs/internal/xhash"
)

// runPhase2 reproduces the coordinator's relay ordering exactly
// (internal/coordinator/relay.go): every sender's Message1 to every
// receiver is delivered first, then every resulting Message2 is routed
// back to its originating sender.
func runPhase2(t *testing.T, active party.Set, maskedKeyShares, maskedRs map[party.ID]fr.Element) map[party.ID]*Phase2Output {
	t.Helper()

	pool := NewBaseOTPool(42, active)

	instances := make(map[party.ID]*Phase2)
	allMsg1 := make(map[party.ID]map[party.ID]Message1) // sender -> receiver -> msg

	for _, id := range active {
		rng := xhash.NewStream(uint64(id)+100, "phase2-test")
		p2, out, err := NewPhase2(rng, id, active.Without(id), pool, maskedKeyShares[id], maskedRs[id])
		require.NoError(t, err)
		instances[id] = p2
		allMsg1[id] = out
	}

	type pending struct {
		from, to party.ID
		msg      Message2
	}
	var msg2s []pending

	for _, sender := range active {
		for receiver, m1 := range allMsg1[sender] {
			m2, err := instances[receiver].ReceiveMessage1(sender, m1)
			require.NoError(t, err)
			msg2s = append(msg2s, pending{from: receiver, to: sender, msg: m2})
		}
	}

	for _, p := range msg2s {
		require.NoError(t, instances[p.to].ReceiveMessage2(p.from, p.msg))
	}

	out := make(map[party.ID]*Phase2Output)
	for _, id := range active {
		o, err := instances[id].Finish()
		require.NoError(t, err)
		out[id] = o
	}
	return out
}

func TestPhase2SharesSumToProductOfSums(t *testing.T) {
	active := party.NewSet(1, 2, 3)

	maskedKeyShares := map[party.ID]fr.Element{}
	maskedRs := map[party.ID]fr.Element{}
	var totalA, totalB fr.Element
	for i, id := range active {
		var a, b fr.Element
		a.SetUint64(uint64(10 + i))
		b.SetUint64(uint64(20 + i))
		maskedKeyShares[id] = a
		maskedRs[id] = b
		totalA.Add(&totalA, &a)
		totalB.Add(&totalB, &b)
	}

	outs := runPhase2(t, active, maskedKeyShares, maskedRs)

	var sum fr.Element
	for _, o := range outs {
		sum.Add(&sum, &o.DShare)
	}

	var expected fr.Element
	expected.Mul(&totalA, &totalB)
	require.True(t, sum.Equal(&expected))
}

func TestPhase2FinishBeforeMessagesIncomplete(t *testing.T) {
	active := party.NewSet(1, 2)
	pool := NewBaseOTPool(1, active)
	rng := xhash.NewStream(1, "incomplete")
	var a, b fr.Element
	a.SetUint64(1)
	b.SetUint64(2)
	p2, _, err := NewPhase2(rng, 1, active.Without(1), pool, a, b)
	require.NoError(t, err)
	_, err = p2.Finish()
	require.ErrorIs(t, err, ErrIncompletePeerData)
}
