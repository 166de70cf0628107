// Package protocol defines the tagged-union message envelope exchanged
// between coordinator and signers, grounded on the request/response
// variants in original_source/src/signer_server.rs and
// original_source/src/auth_server.rs (Message::{Start, SkShares,
// Round1Request, Round1Response, Round1FinalRequest,
// Round1FinalResponse, Round2Request, Round2Response}), encoded as JSON
// the way the teacher's pkg/protocol/handler.go encodes round content:
// one discriminated Go struct per variant, opaque blob fields carrying
// wire.EncodeOpaque output.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Kind names a message variant. Unrecognized kinds are tolerated by
// transport readers (spec.md §4.4: "unrecognized variants ... are
// tolerated, not fatal"): the transport passes them to its handler, and
// the handlers in internal/coordinator return without acting or logging.
type Kind string

const (
	KindStart               Kind = "start"
	KindSkShares            Kind = "sk_shares"
	KindRound1Request       Kind = "round1_request"
	KindRound1Response      Kind = "round1_response"
	KindRound1FinalRequest  Kind = "round1_final_request"
	KindRound1FinalResponse Kind = "round1_final_response"
	KindRound2Request       Kind = "round2_request"
	KindRound2Response      Kind = "round2_response"
	KindRevealRequest       Kind = "reveal_request"
	KindRevealResponse      Kind = "reveal_response"

	// KindCall and KindReply carry every round-driving RPC a
	// RemoteSigner makes (all ten SignerLink methods, Round1Init through
	// Round2Finish): a method tag plus an opaque CBOR request or response
	// body, rather than one bespoke pair of structs per method.
	// RemoteSigner and SignerServer send no other kind.
	KindCall  Kind = "call"
	KindReply Kind = "reply"
)

// Envelope is the line-delimited-JSON wire frame every message crosses
// the network as: a discriminant tag plus a raw payload, decoded into
// one of the Payload types below once the tag is known.
type Envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Encode wraps a typed payload into an Envelope ready for line-delimited
// JSON transmission.
func Encode(kind Kind, payload interface{}) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("protocol: marshaling %s payload: %w", kind, err)
	}
	return Envelope{Kind: kind, Payload: raw}, nil
}

// Start carries only the sender's party id: it signals the coordinator that a signer's
// listener is up and ready to receive key-share material.
type Start struct {
	FromParty uint16 `json:"from_party"`
}

// SkShares is the coordinator's one-shot delivery of a signer's Shamir
// share of the aggregate secret key, plus the params/public-key material
// every signer needs for later signing.
type SkShares struct {
	ToParty      uint16 `json:"to_party"`
	SkShareB64   string `json:"sk_share"`
	ParamsB64    string `json:"params"`
	PublicKeyB64 string `json:"public_key"`
}

// Round1Request asks a signer to start round 1 against a given active
// set and batch index.
type Round1Request struct {
	ActiveParties []uint16 `json:"active_parties"`
	BatchIndex    int      `json:"batch_index"`
	BatchSize     int      `json:"batch_size"`
}

// Round1Response carries a signer's own commitments plus its per-peer
// zero-sharing commitments back to the coordinator for relay.
type Round1Response struct {
	FromParty          uint16            `json:"from_party"`
	OwnCommitmentB64   string            `json:"own_commitment"`
	ZeroCommitmentsB64 map[string]string `json:"zero_commitments"`
}

// Round1FinalRequest relays every peer's commitments and reveals back
// into a signer's Phase1 instance so it can call Finish.
type Round1FinalRequest struct {
	CommitmentsB64 map[string]string `json:"commitments"`
	SharesB64      map[string]string `json:"shares"`
}

// Round1FinalResponse carries a signer's Phase1Output (opaque-encoded)
// back to the coordinator once round 1 has finished.
type Round1FinalResponse struct {
	FromParty       uint16 `json:"from_party"`
	Phase1OutputB64 string `json:"phase1_output"`
}

// Round2Request asks a signer to start round 2 against the given active
// set. It carries no masked signing-key share or masked R; a signer's
// Phase2 takes both from that signer's own most recent Phase1Output.
type Round2Request struct {
	ActiveParties []uint16 `json:"active_parties"`
}

// Round2Response carries a signer's outgoing Message1 map (one entry
// per peer) back to the coordinator for relay, and later (once the
// relay completes) the signer's own Phase2Output.
type Round2Response struct {
	FromParty        uint16            `json:"from_party"`
	Message1ByPeerB64 map[string]string `json:"message1_by_peer"`
	Phase2OutputB64   string            `json:"phase2_output,omitempty"`
}

// RevealRequest asks a signer to open its already-committed round-1
// coin-toss and zero-sharing values, sent only once the coordinator has
// relayed every active party's commitments (the second half of the
// commit-then-reveal protocol).
type RevealRequest struct {
	ToParty uint16 `json:"to_party"`
}

// RevealResponse carries a signer's coin-toss reveal plus its per-peer
// zero-sharing reveals back to the coordinator for relay.
type RevealResponse struct {
	FromParty        uint16            `json:"from_party"`
	ShareB64         string            `json:"share"`
	ShareSaltB64     string            `json:"share_salt"`
	ZeroSharesB64    map[string]string `json:"zero_shares"`
	ZeroSaltsB64     map[string]string `json:"zero_salts"`
}

// Call is a generic RPC request: Method names the SignerLink operation
// being invoked, RequestID correlates it with the matching Reply, and
// Body carries a wire.EncodeOpaque-encoded argument struct.
type Call struct {
	RequestID uint64 `json:"request_id"`
	Method    string `json:"method"`
	Body      string `json:"body"`
}

// Reply answers a Call with the same RequestID, carrying either an
// opaque result Body or a non-empty Err.
type Reply struct {
	RequestID uint64 `json:"request_id"`
	Body      string `json:"body,omitempty"`
	Err       string `json:"err,omitempty"`
}
