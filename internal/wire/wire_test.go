package wire

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"
)

func TestScalarRoundTrip(t *testing.T) {
	var s fr.Element
	s.SetUint64(123456789)

	encoded := EncodeScalar(s)
	decoded, err := DecodeScalar(encoded)
	require.NoError(t, err)
	require.True(t, s.Equal(&decoded))
}

func TestScalarBytesFixedWidth(t *testing.T) {
	var zero fr.Element
	b := ScalarBytes(zero)
	require.Len(t, b, 32)
}

type dummyPayload struct {
	A int
	B string
}

func TestOpaqueRoundTrip(t *testing.T) {
	in := dummyPayload{A: 7, B: "hello"}
	encoded, err := EncodeOpaque(in)
	require.NoError(t, err)

	var out dummyPayload
	require.NoError(t, DecodeOpaque(encoded, &out))
	require.Equal(t, in, out)
}

func TestDecodeScalarLeftPadsShortInput(t *testing.T) {
	decoded, err := DecodeScalar(ToBase64([]byte{1, 2, 3}))
	require.NoError(t, err)

	var want fr.Element
	want.SetUint64(0x010203)
	require.True(t, want.Equal(&decoded))
}

func TestDecodeScalarRejectsOverlongInput(t *testing.T) {
	_, err := DecodeScalar(ToBase64(make([]byte, 33)))
	require.Error(t, err)
}
