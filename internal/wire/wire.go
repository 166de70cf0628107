// Package wire implements the canonical binary encoding and
// base64/JSON transport wrapping every protocol message crosses the
// network in, grounded on original_source/src/wire.rs and
// original_source/src/helper/encoder.rs (the same canonical-bytes +
// base64 + JSON-map shape, reproduced with gnark-crypto/CBOR in place of
// ark-serialize) and on the teacher's CBOR use in
// pkg/protocol/handler.go for round-content marshaling.
package wire

import (
	"encoding/base64"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/fxamacker/cbor/v2"

	"github.com/luxfi/tbbs/internal/party"
)

// ScalarBytes returns the canonical 32-byte big-endian encoding of a
// scalar field element, matching the original's encode_sk_share shape
// (left-padded, fixed-width, so every encoded share is exactly 32
// bytes regardless of its numeric value).
func ScalarBytes(s fr.Element) [32]byte {
	var out [32]byte
	b := s.Bytes()
	copy(out[:], b[:])
	return out
}

// ScalarFromBytes decodes a canonical 32-byte scalar.
func ScalarFromBytes(b [32]byte) fr.Element {
	var s fr.Element
	s.SetBytes(b[:])
	return s
}

// ToBase64 base64-encodes raw canonical bytes for embedding in a JSON
// envelope field.
func ToBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// FromBase64 decodes a base64 string produced by ToBase64.
func FromBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// EncodeScalar returns the base64 form of a scalar's canonical bytes.
func EncodeScalar(s fr.Element) string {
	b := ScalarBytes(s)
	return ToBase64(b[:])
}

// DecodeScalar parses a base64-encoded canonical scalar. Inputs shorter
// than 32 bytes are left-padded with leading zeros rather than
// rejected, matching the original's tolerant big-endian decode; only
// inputs that could never fit are rejected.
func DecodeScalar(s string) (fr.Element, error) {
	raw, err := FromBase64(s)
	if err != nil {
		return fr.Element{}, fmt.Errorf("wire: decoding scalar: %w", err)
	}
	if len(raw) > 32 {
		return fr.Element{}, fmt.Errorf("wire: scalar must be at most 32 bytes, got %d", len(raw))
	}
	var buf [32]byte
	copy(buf[32-len(raw):], raw)
	return ScalarFromBytes(buf), nil
}

// EncodeOpaque CBOR-marshals a structured payload (Phase1Output,
// Commitments, Message1, Message2, Phase2Output, and so on) and wraps it
// in base64, matching the teacher's CBOR-for-round-content convention
// (pkg/protocol/handler.go) fused with the original's base64-wrapping
// convention (wire.rs's Canonical<T>). Only exported fields are encoded,
// so mpc.Phase1 and mpc.Phase2, whose state is all unexported, encode as
// an empty map and do not round trip.
func EncodeOpaque(v interface{}) (string, error) {
	raw, err := cbor.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("wire: cbor marshal: %w", err)
	}
	return ToBase64(raw), nil
}

// DecodeOpaque reverses EncodeOpaque into v.
func DecodeOpaque(s string, v interface{}) error {
	raw, err := FromBase64(s)
	if err != nil {
		return fmt.Errorf("wire: decoding opaque blob: %w", err)
	}
	if err := cbor.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("wire: cbor unmarshal: %w", err)
	}
	return nil
}

// EncodeMap renders a map keyed by party.ID as the original's
// encode_map does: a JSON object whose keys are decimal party ids and
// whose values are base64 CBOR blobs, letting Go's encoding/json round
// trip it without a custom MarshalJSON on the caller's map type.
func EncodeMap(values map[party.ID]interface{}) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for id, v := range values {
		enc, err := EncodeOpaque(v)
		if err != nil {
			return nil, fmt.Errorf("wire: encoding entry for party %d: %w", id, err)
		}
		out[fmt.Sprintf("%d", id)] = enc
	}
	return out, nil
}
