// Package signernode implements one signer's local state machine:
// accept a key share once, then drive round 1 and round 2 of however
// many signing sessions the coordinator asks for, grounded on
// original_source/src/signer.rs's Signer struct and the teacher's
// round.Session/round.Helper per-party state pattern
// (_examples/luxfi-threshold/pkg/protocol/handler.go).
package signernode

import (
	"errors"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/luxfi/tbbs/internal/bbscrypto"
	"github.com/luxfi/tbbs/internal/dealer"
	"github.com/luxfi/tbbs/internal/mpc"
	"github.com/luxfi/tbbs/internal/party"
)

// State is this signer's lifecycle position within one signing session.
// A SignerNode starts at Idle and is reset to Idle after every
// successful Round2Finish, independent of whether it has already called SetKeyShare
// (key material survives across sessions; round state does not).
type State int

const (
	Idle State = iota
	Round1Open
	Round1Finished
	Round2Open
)

// ErrAlreadyInitialized is returned by SetKeyShare when called a second
// time with key material that conflicts with what is already stored
// (spec.md §4.1: "idempotent; a conflicting second call is an error").
var ErrAlreadyInitialized = errors.New("signernode: key share already set")

// ErrNotInitialized is returned by round operations before SetKeyShare
// has succeeded.
var ErrNotInitialized = errors.New("signernode: key share not set")

// ErrWrongState is returned when a round method is called out of
// sequence (e.g. round2_init before round1_finish).
var ErrWrongState = errors.New("signernode: wrong state for requested operation")

// SignerNode is one party's durable, single-goroutine-owned protocol
// state. The coordinator's transport layer serializes all calls into a
// node through its own per-peer locking, so SignerNode itself need not
// be internally synchronized.
type SignerNode struct {
	self party.ID

	rng  io.Reader
	key  *dealer.KeyMaterial
	init bool

	state State

	phase1 *mpc.Phase1
	phase2 *mpc.Phase2

	lastPhase1Output *mpc.Phase1Output
	pool             *mpc.BaseOTPool
}

// New constructs a SignerNode for party self, reading randomness from
// rng (a deterministic seeded stream in test/demo deployments).
func New(self party.ID, rng io.Reader) *SignerNode {
	return &SignerNode{self: self, rng: rng, state: Idle}
}

// SetKeyShare installs this signer's key material. It is idempotent:
// calling it again with the same SkShare is a no-op; calling it again
// with a different SkShare returns ErrAlreadyInitialized. Only SkShare is
// compared; the Params and PublicKey of a second call are ignored.
func (n *SignerNode) SetKeyShare(km dealer.KeyMaterial) error {
	if n.init {
		if !n.key.SkShare.Equal(&km.SkShare) {
			return ErrAlreadyInitialized
		}
		return nil
	}
	n.key = &km
	n.init = true
	return nil
}

// Round1Init starts round 1 (randomness generation) against the given
// active set and batch parameters, returning this signer's own
// commitment and its per-peer zero-sharing commitments for the
// coordinator to relay.
func (n *SignerNode) Round1Init(active party.Set, protocolID []byte, batchIndex, batchSize int) (mpc.Commitments, map[party.ID]mpc.Commitments, error) {
	if !n.init {
		return mpc.Commitments{}, nil, ErrNotInitialized
	}
	if n.state != Idle {
		return mpc.Commitments{}, nil, ErrWrongState
	}

	p1, own, zero, err := mpc.NewPhase1(n.rng, n.self, active, n.key.SkShare, protocolID, batchIndex, batchSize)
	if err != nil {
		return mpc.Commitments{}, nil, fmt.Errorf("signernode: round1 init: %w", err)
	}
	n.phase1 = p1
	n.state = Round1Open
	return own, zero, nil
}

// ShareAndSalt exposes this signer's coin-toss reveal for the
// coordinator to relay to every peer.
func (n *SignerNode) ShareAndSalt() (fr.Element, [32]byte, error) {
	if n.phase1 == nil {
		return fr.Element{}, [32]byte{}, ErrWrongState
	}
	s, salt := n.phase1.ShareAndSalt()
	return s, salt, nil
}

// ZeroShareAndSaltFor exposes this signer's zero-sharing reveal targeted
// at a specific peer.
func (n *SignerNode) ZeroShareAndSaltFor(peer party.ID) (fr.Element, [32]byte, error) {
	if n.phase1 == nil {
		return fr.Element{}, [32]byte{}, ErrWrongState
	}
	return n.phase1.ZeroShareAndSaltFor(peer)
}

// AbsorbCommitment feeds one peer's commitments into round 1 (the
// coordinator's first relay pass, before any reveals flow).
func (n *SignerNode) AbsorbCommitment(peer party.ID, own, zeroForSelf mpc.Commitments) error {
	if n.phase1 == nil || n.state != Round1Open {
		return ErrWrongState
	}
	return n.phase1.ReceiveCommitment(peer, own, zeroForSelf)
}

// AbsorbShares feeds one peer's revealed share and zero-share into round
// 1 (the coordinator's second relay pass).
func (n *SignerNode) AbsorbShares(peer party.ID, share fr.Element, shareSalt [32]byte, zeroShare fr.Element, zeroSalt [32]byte) error {
	if n.phase1 == nil || n.state != Round1Open {
		return ErrWrongState
	}
	return n.phase1.ReceiveShares(peer, share, shareSalt, zeroShare, zeroSalt)
}

// Round1Finish closes out round 1, returning this signer's Phase1Output
// for the coordinator to collect.
func (n *SignerNode) Round1Finish() (*mpc.Phase1Output, error) {
	if n.phase1 == nil || n.state != Round1Open {
		return nil, ErrWrongState
	}
	out, err := n.phase1.Finish()
	if err != nil {
		return nil, err
	}
	n.lastPhase1Output = out
	n.state = Round1Finished
	return out, nil
}

// Round2Init starts round 2 (OT-based multiplication) against the same
// active set, using pool for the pairwise base-OT legs and this
// signer's own Phase1Output from the just-finished round 1. It returns
// this signer's outgoing Message1 batch for the coordinator to relay.
func (n *SignerNode) Round2Init(active party.Set, pool *mpc.BaseOTPool) (map[party.ID]mpc.Message1, error) {
	if n.state != Round1Finished || n.lastPhase1Output == nil {
		return nil, ErrWrongState
	}

	others := active.Without(n.self)
	p2, out, err := mpc.NewPhase2(n.rng, n.self, others, pool, n.lastPhase1Output.MaskedSigningKeyShare[0], n.lastPhase1Output.MaskedR[0])
	if err != nil {
		return nil, fmt.Errorf("signernode: round2 init: %w", err)
	}
	n.phase2 = p2
	n.pool = pool
	n.state = Round2Open
	return out, nil
}

// AbsorbMessage1 processes an inbound Message1 from sender, returning
// the Message2 to route back.
func (n *SignerNode) AbsorbMessage1(sender party.ID, msg mpc.Message1) (mpc.Message2, error) {
	if n.phase2 == nil || n.state != Round2Open {
		return mpc.Message2{}, ErrWrongState
	}
	return n.phase2.ReceiveMessage1(sender, msg)
}

// AbsorbMessage2 processes an inbound Message2 acknowledgement from
// peer.
func (n *SignerNode) AbsorbMessage2(peer party.ID, msg mpc.Message2) error {
	if n.phase2 == nil || n.state != Round2Open {
		return ErrWrongState
	}
	return n.phase2.ReceiveMessage2(peer, msg)
}

// Round2Finish closes out round 2, returning this signer's
// Phase2Output, and resets this signer back to Idle so it can take part
// in another signing session.
func (n *SignerNode) Round2Finish() (*mpc.Phase2Output, error) {
	if n.phase2 == nil || n.state != Round2Open {
		return nil, ErrWrongState
	}
	out, err := n.phase2.Finish()
	if err != nil {
		return nil, err
	}
	n.phase1 = nil
	n.phase2 = nil
	n.lastPhase1Output = nil
	n.state = Idle
	return out, nil
}

// LastPhase1Output exposes the output of the round 1 finished in the
// current session. It is nil before Round1Finish and again once
// Round2Finish has reset the node; the coordinator builds signature
// shares from the Phase1Output that Round1Finish returned instead.
func (n *SignerNode) LastPhase1Output() *mpc.Phase1Output { return n.lastPhase1Output }

// KeyMaterial exposes this signer's installed key material (params and
// public key only; callers outside this package never see SkShare
// directly through any other accessor).
func (n *SignerNode) KeyMaterial() (*bbscrypto.Params, bbscrypto.PublicKey, error) {
	if !n.init {
		return nil, bbscrypto.PublicKey{}, ErrNotInitialized
	}
	return n.key.Params, n.key.PublicKey, nil
}

// State returns the signer's current round state.
func (n *SignerNode) State() State { return n.state }
