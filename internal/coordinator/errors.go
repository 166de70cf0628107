// Package coordinator drives the multi-party signing state machine from
// the coordinator's side: request round 1, relay commitments and
// reveals, request round 2, relay the OT-multiplication messages, then
// aggregate the resulting per-signer shares into a single BBS
// signature. Grounded on the MultiHandler round-state-machine shape in
// _examples/luxfi-threshold/pkg/protocol/handler.go and the
// AuthenticationService orchestration in
// original_source/src/auth_service.rs.
package coordinator

import "errors"

// Kind classifies a coordinator-level failure, matching spec.md's
// error-handling taxonomy so callers (cmd/tbbs, tests) can branch on
// category without string-matching messages.
type Kind int

const (
	// KindState covers calls made outside their expected state-machine
	// position (e.g. a round-2 message arriving before round 1 closed).
	KindState Kind = iota
	// KindDuplicateMessage covers a peer's second delivery of a message
	// this round has already consumed.
	KindDuplicateMessage
	// KindDecode covers a malformed or undecodable wire payload.
	KindDecode
	// KindCrypto covers a failure inside the MPC primitives themselves
	// (commitment mismatch, OT-check failure).
	KindCrypto
	// KindIncompletePeerData covers a round that was asked to finish
	// before every active peer's contribution arrived.
	KindIncompletePeerData
	// KindIntegrity covers the final backstop: an aggregated signature
	// that does not verify under the aggregate public key.
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindState:
		return "state"
	case KindDuplicateMessage:
		return "duplicate_message"
	case KindDecode:
		return "decode"
	case KindCrypto:
		return "crypto"
	case KindIncompletePeerData:
		return "incomplete_peer_data"
	case KindIntegrity:
		return "integrity"
	default:
		return "unknown"
	}
}

// Error wraps an underlying failure with its Kind, letting callers
// recover a structured category via errors.As while still reporting a
// useful message.
type Error struct {
	Kind  Kind
	Party uint16
	Err   error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": party " + itoa(e.Party) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func itoa(v uint16) string {
	if v == 0 {
		return "0"
	}
	digits := [5]byte{}
	i := len(digits)
	for v > 0 {
		i--
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	return string(digits[i:])
}

// wrap builds a coordinator *Error for party from err, classified as
// kind.
func wrap(kind Kind, party uint16, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Party: party, Err: err}
}

// ErrNotEnoughActiveParties is returned when a signing run is requested
// against fewer than threshold parties.
var ErrNotEnoughActiveParties = errors.New("coordinator: active set smaller than threshold")
