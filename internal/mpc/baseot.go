package mpc

import (
	"fmt"

	"github.com/luxfi/tbbs/internal/party"
	"github.com/luxfi/tbbs/internal/xhash"
)

// Kappa is the statistical/bit-length parameter the Gilboa-style
// OT-multiplication in Phase2 runs over: one OT leg pair per bit of the
// field element being multiplied. It matches the original deployment's
// KAPPA constant (original_source/src/constant.rs) and is at least the Fr
// modulus's bit length (255), so every bit of a masked share is covered.
const Kappa = 256

// OTLeg is one bit position's pair of pre-shared pad seeds for a single
// ordered (sender, receiver) base-OT instance.
type OTLeg struct {
	Seed0 [32]byte
	Seed1 [32]byte
}

// BaseOTPool holds, for every ordered pair of active parties, a
// deterministic table of Kappa OT legs. Real deployments would replace
// this with an actual base-OT handshake (e.g. Simplest-OT) run once
// between every pair and then extended per session via IKNP; this
// reference pool generates the same pairwise table deterministically
// from a shared seed instead, which spec.md's §4.5/§9 flag explicitly as
// the protocol's intended extension point. Every active party is hander
// the same pool, so this is not a confidentiality boundary in this
// implementation — only a structural stand-in for one.
type BaseOTPool struct {
	seed uint64
	legs map[pairKey][]OTLeg
}

type pairKey struct {
	sender, receiver party.ID
}

// NewBaseOTPool deterministically materializes the pairwise OT tables
// for every ordered pair drawn from parties, keyed by seed.
func NewBaseOTPool(seed uint64, parties party.Set) *BaseOTPool {
	pool := &BaseOTPool{seed: seed, legs: make(map[pairKey][]OTLeg)}
	for _, sender := range parties {
		for _, receiver := range parties {
			if sender == receiver {
				continue
			}
			pool.legs[pairKey{sender, receiver}] = generateLegs(seed, sender, receiver)
		}
	}
	return pool
}

func generateLegs(seed uint64, sender, receiver party.ID) []OTLeg {
	stream := xhash.NewStream(seed, fmt.Sprintf("baseot:%d->%d", sender, receiver))
	legs := make([]OTLeg, Kappa)
	for k := 0; k < Kappa; k++ {
		_, _ = stream.Read(legs[k].Seed0[:])
		_, _ = stream.Read(legs[k].Seed1[:])
	}
	return legs
}

// Entry returns the Kappa-leg table a (sender, receiver) Gilboa instance
// consumes. Both roles read the same table in this reference pool: the
// sender uses both seeds of every leg to encrypt its two OT messages,
// the receiver uses only the seed matching its own secret bit to decrypt
// one of them.
func (p *BaseOTPool) Entry(sender, receiver party.ID) ([]OTLeg, error) {
	legs, ok := p.legs[pairKey{sender, receiver}]
	if !ok {
		return nil, fmt.Errorf("mpc: no base-OT entry for %d->%d", sender, receiver)
	}
	return legs, nil
}
