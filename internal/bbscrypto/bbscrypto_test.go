package bbscrypto

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/tbbs/internal/xhash"
)

func TestSingleSignerSignAndVerify(t *testing.T) {
	rng := xhash.NewStream(1, "test-params")
	params, err := GenerateParams(rng, 3)
	require.NoError(t, err)

	keyRNG := xhash.NewStream(1, "test-key")
	secret, err := sampleScalar(keyRNG)
	require.NoError(t, err)
	pk := DerivePublicKey(params, secret)

	messages := make([]fr.Element, 3)
	for i := range messages {
		messages[i].SetUint64(uint64(100 + i))
	}

	nonces := DeriveNonces([]byte("test-protocol"), 0, [][]byte{[]byte("contribution-1")})
	b, err := ComputeB(params, messages, nonces)
	require.NoError(t, err)

	// With a single "signer" holding the whole secret, maskedR=R and
	// d=R*(secret+e) collapse to the plain single-signer BBS equation:
	// dInverse = 1/(secret+e).
	var xPlusE fr.Element
	xPlusE.Add(&secret, &nonces.E)
	var dInverse fr.Element
	dInverse.Inverse(&xPlusE)

	var r fr.Element
	r.SetUint64(1)
	share := NewShare(b, r, dInverse)
	sig := Aggregate([]Share{share}, nonces.E, nonces.S)

	require.NoError(t, Verify(params, pk, messages, sig))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	rng := xhash.NewStream(2, "test-params-2")
	params, err := GenerateParams(rng, 2)
	require.NoError(t, err)

	keyRNG := xhash.NewStream(2, "test-key-2")
	secret, err := sampleScalar(keyRNG)
	require.NoError(t, err)
	pk := DerivePublicKey(params, secret)

	messages := make([]fr.Element, 2)
	messages[0].SetUint64(1)
	messages[1].SetUint64(2)

	nonces := DeriveNonces([]byte("test-protocol-2"), 0, [][]byte{[]byte("c")})
	b, err := ComputeB(params, messages, nonces)
	require.NoError(t, err)

	var xPlusE fr.Element
	xPlusE.Add(&secret, &nonces.E)
	var dInverse fr.Element
	dInverse.Inverse(&xPlusE)
	var r fr.Element
	r.SetUint64(1)
	share := NewShare(b, r, dInverse)
	sig := Aggregate([]Share{share}, nonces.E, nonces.S)

	tampered := make([]fr.Element, 2)
	tampered[0].SetUint64(99)
	tampered[1].SetUint64(2)

	require.ErrorIs(t, Verify(params, pk, tampered, sig), ErrInvalidSignature)
}
