package mpc

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/tbbs/internal/bbscrypto"
	"github.com/luxfi/tbbs/internal/party"
	"github.com/luxfi/tbbs/internal/polynomial"
	"github.com/luxfi/tbbs/internal/xhash"
)

// TestThresholdSignatureEndToEnd drives Phase1 and Phase2 across a
// 3-of-5 active set and checks that the resulting aggregate signature
// verifies under the BBS pairing equation, proving out the full
// masked-share/zero-sharing/Gilboa-multiplication chain end to end.
func TestThresholdSignatureEndToEnd(t *testing.T) {
	active := party.NewSet(2, 4, 5)

	paramsRNG := xhash.NewStream(1, "e2e-params")
	params, err := bbscrypto.GenerateParams(paramsRNG, 2)
	require.NoError(t, err)

	var secret fr.Element
	secret.SetUint64(777777)
	polyRNG := xhash.NewStream(1, "e2e-poly")
	poly, err := polynomial.New(secret, 2, polyRNG)
	require.NoError(t, err)
	allParties := party.Range(1, 5)
	shares := poly.Shares(allParties)

	pk := bbscrypto.DerivePublicKey(params, secret)

	phase1Outs := runPhase1(t, active, shares)

	maskedKeyShares := make(map[party.ID]fr.Element, len(active))
	maskedRs := make(map[party.ID]fr.Element, len(active))
	for id, out := range phase1Outs {
		maskedKeyShares[id] = out.MaskedSigningKeyShare[0]
		maskedRs[id] = out.MaskedR[0]
	}

	phase2Outs := runPhase2(t, active, maskedKeyShares, maskedRs)

	var dGlobal fr.Element
	for _, out := range phase2Outs {
		dGlobal.Add(&dGlobal, &out.DShare)
	}
	var dInverse fr.Element
	dInverse.Inverse(&dGlobal)

	messages := make([]fr.Element, 2)
	messages[0].SetUint64(42)
	messages[1].SetUint64(43)

	first := phase1Outs[active[0]]
	nonces := bbscrypto.Nonces{E: first.E, S: first.S}
	b, err := bbscrypto.ComputeB(params, messages, nonces)
	require.NoError(t, err)

	shareList := make([]bbscrypto.Share, 0, len(active))
	for _, id := range active {
		share := bbscrypto.NewShare(b, maskedRs[id], dInverse)
		shareList = append(shareList, share)
	}
	sig := bbscrypto.Aggregate(shareList, nonces.E, nonces.S)

	require.NoError(t, bbscrypto.Verify(params, pk, messages, sig))
}
