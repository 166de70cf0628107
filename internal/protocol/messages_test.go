package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEnvelope(t *testing.T) {
	env, err := Encode(KindRound1Request, Round1Request{
		ActiveParties: []uint16{1, 2, 3},
		BatchIndex:    0,
		BatchSize:     1,
	})
	require.NoError(t, err)
	require.Equal(t, KindRound1Request, env.Kind)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded Envelope
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, KindRound1Request, decoded.Kind)

	var payload Round1Request
	require.NoError(t, json.Unmarshal(decoded.Payload, &payload))
	require.Equal(t, []uint16{1, 2, 3}, payload.ActiveParties)
}

func TestUnrecognizedKindDecodesEnvelopeButNotPayload(t *testing.T) {
	raw := []byte(`{"kind":"some_future_variant","payload":{"anything":1}}`)
	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	require.Equal(t, Kind("some_future_variant"), env.Kind)
}
