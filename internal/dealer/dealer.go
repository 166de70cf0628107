// Package dealer implements the one-shot trusted key generation step
// the coordinator runs once per deployment: a Shamir sharing of a fresh
// aggregate secret key, distributed only to the threshold-sized signing
// committee, grounded on the BootstrapDealer shape in
// _examples/luxfi-threshold/protocols/lss/dealer/dealer.go (a
// coordinator-held struct that hands out shares and broadcasts public
// material) and on original_source/src/tbbs_sign.rs's
// trusted_party_keygen.
package dealer

import (
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/luxfi/tbbs/internal/bbscrypto"
	"github.com/luxfi/tbbs/internal/party"
	"github.com/luxfi/tbbs/internal/polynomial"
)

// KeyMaterial is everything a single signer needs to participate in
// signing: its own Shamir share plus the public params and aggregate
// public key shared by every party in the deployment.
type KeyMaterial struct {
	Params    *bbscrypto.Params
	PublicKey bbscrypto.PublicKey
	SkShare   fr.Element
}

// KeyDealer runs the trusted one-shot keygen: sample a fresh secret,
// derive W = P2^secret, Shamir-share the secret across the threshold
// committee {1..threshold}, and discard the raw secret and polynomial
// immediately after.
type KeyDealer struct {
	params *bbscrypto.Params
	pk     bbscrypto.PublicKey
	shares map[party.ID]fr.Element
}

// Generate produces a fresh aggregate key and threshold-of-total Shamir
// sharing. Only parties 1..threshold receive a share; parties beyond
// threshold exist in the deployment topology but never hold signing key
// material, matching spec.md's invariant that the dealer distributes
// shares "to parties 1..t only."
func Generate(rng io.Reader, messageCount, threshold, total int) (*KeyDealer, error) {
	if threshold < 1 || threshold > total {
		return nil, fmt.Errorf("dealer: invalid threshold %d of %d", threshold, total)
	}

	params, err := bbscrypto.GenerateParams(rng, messageCount)
	if err != nil {
		return nil, fmt.Errorf("dealer: generating params: %w", err)
	}

	var secret fr.Element
	buf := make([]byte, 32)
	if _, err := io.ReadFull(rng, buf); err != nil {
		return nil, fmt.Errorf("dealer: sampling secret: %w", err)
	}
	secret.SetBytes(buf)

	pk := bbscrypto.DerivePublicKey(params, secret)

	poly, err := polynomial.New(secret, threshold-1, rng)
	if err != nil {
		return nil, fmt.Errorf("dealer: building sharing polynomial: %w", err)
	}
	committee := party.Range(1, party.ID(threshold))
	shares := poly.Shares(committee)

	// secret and poly fall out of scope here; nothing retains them.
	return &KeyDealer{params: params, pk: pk, shares: shares}, nil
}

// Params returns the public parameter set every signer and verifier
// needs.
func (d *KeyDealer) Params() *bbscrypto.Params { return d.params }

// PublicKey returns the aggregate public key.
func (d *KeyDealer) PublicKey() bbscrypto.PublicKey { return d.pk }

// ShareFor returns the Shamir share for a committee member, or an error
// if id is outside {1..threshold}.
func (d *KeyDealer) ShareFor(id party.ID) (KeyMaterial, error) {
	share, ok := d.shares[id]
	if !ok {
		return KeyMaterial{}, fmt.Errorf("dealer: party %d is not in the signing committee", id)
	}
	return KeyMaterial{Params: d.params, PublicKey: d.pk, SkShare: share}, nil
}

// Committee returns the set of party IDs that hold a signing share.
func (d *KeyDealer) Committee() party.Set {
	ids := make(party.Set, 0, len(d.shares))
	for id := range d.shares {
		ids = append(ids, id)
	}
	return party.NewSet(ids...)
}
