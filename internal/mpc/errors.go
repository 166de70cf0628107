package mpc

import "errors"

// ErrIncompletePeerData is returned by Phase1.Finish and Phase2.Finish
// when the caller tries to close out a round before every active peer's
// contribution has been absorbed. It is the Go analogue of the
// IncompletePeerData condition spec.md's round1_finish names explicitly;
// Phase2 finishes under the same shape of precondition so it reuses the
// sentinel rather than inventing a parallel one.
var ErrIncompletePeerData = errors.New("mpc: round cannot finish, peer data is incomplete")

// ErrAlreadyReceived is returned when a duplicate commitment, share, or
// message arrives for a peer that has already supplied one. The
// coordinator's relay reports it, like every other relay failure, as a
// KindCrypto error; KindDuplicateMessage is not assigned to it.
var ErrAlreadyReceived = errors.New("mpc: duplicate message for this peer")

// ErrCommitmentMismatch is returned when a revealed value does not hash
// to the commitment previously bound for that peer.
var ErrCommitmentMismatch = errors.New("mpc: revealed value does not match commitment")

// ErrUnknownPeer is returned when a message names a peer outside the
// active set this round was initialized with.
var ErrUnknownPeer = errors.New("mpc: message from a peer outside the active set")
