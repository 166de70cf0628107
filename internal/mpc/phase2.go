package mpc

import (
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/luxfi/tbbs/internal/party"
	"github.com/luxfi/tbbs/internal/xhash"
)

// Message1 is the Gilboa OT-multiplication message the sender of an
// ordered pair (i, j) emits toward the receiver: one ciphertext pair per
// bit position, encrypted under that bit's pre-shared OT leg.
type Message1 struct {
	Pairs [Kappa][2]fr.Element
}

// Message2 is the receiver's reply: a check digest over its locally
// decoded share, letting the sender's side of the exchange confirm the
// instance ran to completion before Phase2 is allowed to finish. It
// carries no information the sender could use to recover the receiver's
// secret input.
type Message2 struct {
	Check [64]byte
}

// Phase2Output is this signer's additive share of d = R*(x+e), the
// public scalar the coordinator reconstructs by summing every active
// signer's Phase2Output before inverting it to build signature shares.
type Phase2Output struct {
	DShare fr.Element
}

type pairState struct {
	sent     bool
	share    fr.Element // this party's share as sender of this instance
	received bool
	ack      bool
}

// Phase2 drives one signer's side of the OT-based multiplication round.
// A single instance plays both roles at once: sender toward every peer
// (using this signer's own masked signing-key share) and receiver from
// every peer (using this signer's own masked blinding value), because
// every ordered pair among the active set runs its own Gilboa instance.
type Phase2 struct {
	self   party.ID
	others party.Set
	pool   *BaseOTPool

	a fr.Element // masked signing-key share, this signer's sender-side secret
	b fr.Element // masked R, this signer's receiver-side secret

	diagonal fr.Element

	asSender   map[party.ID]*pairState
	asReceiver map[party.ID]*pairState
}

// NewPhase2 initializes Phase2 and immediately produces this signer's
// outgoing Message1 for every peer (the sender side of each instance
// requires no input from the peer to construct).
func NewPhase2(rng io.Reader, self party.ID, others party.Set, pool *BaseOTPool, maskedSigningKeyShare, maskedR fr.Element) (*Phase2, map[party.ID]Message1, error) {
	var diag fr.Element
	diag.Mul(&maskedSigningKeyShare, &maskedR)

	p := &Phase2{
		self:       self,
		others:     others,
		pool:       pool,
		a:          maskedSigningKeyShare,
		b:          maskedR,
		diagonal:   diag,
		asSender:   make(map[party.ID]*pairState, len(others)),
		asReceiver: make(map[party.ID]*pairState, len(others)),
	}

	out := make(map[party.ID]Message1, len(others))
	for _, peer := range others {
		p.asReceiver[peer] = &pairState{}

		legs, err := pool.Entry(self, peer)
		if err != nil {
			return nil, nil, err
		}

		var msg Message1
		var shareAsSender fr.Element
		for k := 0; k < Kappa; k++ {
			beta, err := sampleScalar(rng)
			if err != nil {
				return nil, nil, err
			}
			var negBeta fr.Element
			negBeta.Neg(&beta)
			shareAsSender.Add(&shareAsSender, &negBeta)

			var m1 fr.Element
			m1 = beta

			var twoToK big.Int
			twoToK.Lsh(big.NewInt(1), uint(k))
			var twoToKScalar fr.Element
			twoToKScalar.SetBigInt(&twoToK)

			var term fr.Element
			term.Mul(&p.a, &twoToKScalar)
			var m2 fr.Element
			m2.Add(&beta, &term)

			msg.Pairs[k][0] = otEncrypt(legs[k].Seed0, m1)
			msg.Pairs[k][1] = otEncrypt(legs[k].Seed1, m2)
		}

		p.asSender[peer] = &pairState{sent: true, share: shareAsSender}
		out[peer] = msg
	}

	return p, out, nil
}

// ReceiveMessage1 is called with self acting as receiver against sender,
// decoding sender's encrypted OT legs using self's own bits of its
// masked R value. It returns the Message2 to route back to sender.
func (p *Phase2) ReceiveMessage1(sender party.ID, msg Message1) (Message2, error) {
	ps, ok := p.asReceiver[sender]
	if !ok {
		return Message2{}, ErrUnknownPeer
	}
	if ps.received {
		return Message2{}, ErrAlreadyReceived
	}

	legs, err := p.pool.Entry(sender, p.self)
	if err != nil {
		return Message2{}, err
	}

	var bBig big.Int
	p.b.BigInt(&bBig)

	var share fr.Element
	for k := 0; k < Kappa; k++ {
		bit := bBig.Bit(k)
		seed := legs[k].Seed0
		if bit == 1 {
			seed = legs[k].Seed1
		}
		decoded := otDecrypt(seed, msg.Pairs[k][bit])
		share.Add(&share, &decoded)
	}

	ps.received = true
	ps.share = share

	check := xhash.Hash512([]byte("gilboa-check"), share.Marshal())
	return Message2{Check: check}, nil
}

// ReceiveMessage2 absorbs sender's acknowledgement for the instance
// where self was the original Message1 sender, gating Finish.
func (p *Phase2) ReceiveMessage2(peer party.ID, msg Message2) error {
	ps, ok := p.asSender[peer]
	if !ok {
		return ErrUnknownPeer
	}
	if !ps.sent {
		return ErrIncompletePeerData
	}
	if ps.ack {
		return ErrAlreadyReceived
	}
	ps.ack = true
	return nil
}

// Finish closes out round 2, returning ErrIncompletePeerData unless this
// signer has both sent and been acknowledged as sender, and received as
// receiver, for every active peer.
func (p *Phase2) Finish() (*Phase2Output, error) {
	total := p.diagonal
	for _, peer := range p.others {
		sender := p.asSender[peer]
		receiver := p.asReceiver[peer]
		if sender == nil || !sender.ack || receiver == nil || !receiver.received {
			return nil, ErrIncompletePeerData
		}
		total.Add(&total, &sender.share)
		total.Add(&total, &receiver.share)
	}
	return &Phase2Output{DShare: total}, nil
}

func otEncrypt(seed [32]byte, value fr.Element) fr.Element {
	pad := xhash.Hash512([]byte("gilboa-pad"), seed[:])
	var padScalar fr.Element
	padScalar.SetBytes(pad[:32])
	var out fr.Element
	out.Add(&value, &padScalar)
	return out
}

func otDecrypt(seed [32]byte, ciphertext fr.Element) fr.Element {
	pad := xhash.Hash512([]byte("gilboa-pad"), seed[:])
	var padScalar fr.Element
	padScalar.SetBytes(pad[:32])
	var out fr.Element
	out.Sub(&ciphertext, &padScalar)
	return out
}
