package transport

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/tbbs/internal/party"
	"github.com/luxfi/tbbs/internal/protocol"
)

func jsonLine(env protocol.Envelope) ([]byte, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append(raw, '\n'), nil
}

func TestSendAndReceiveRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan protocol.Envelope, 1)
	server := New(func(from party.ID, env protocol.Envelope) {
		received <- env
	})

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		server.Adopt(party.ID(1), conn)
	}()

	client := New(nil)
	require.NoError(t, client.Dial(party.ID(0), ln.Addr().String()))

	env, err := protocol.Encode(protocol.KindStart, protocol.Start{FromParty: 1})
	require.NoError(t, err)
	require.NoError(t, client.Send(party.ID(0), env))

	select {
	case got := <-received:
		require.Equal(t, protocol.KindStart, got.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestSendToUnknownPeerErrors(t *testing.T) {
	client := New(nil)
	env, err := protocol.Encode(protocol.KindStart, protocol.Start{FromParty: 1})
	require.NoError(t, err)
	err = client.Send(party.ID(99), env)
	require.Error(t, err)
}

func TestMalformedLineDoesNotCrashReadLoop(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan protocol.Envelope, 1)
	server := New(func(from party.ID, env protocol.Envelope) {
		received <- env
	})

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		server.Adopt(party.ID(1), conn)
	}()

	raw, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	_, err = raw.Write([]byte("not json\n"))
	require.NoError(t, err)

	env, err := protocol.Encode(protocol.KindStart, protocol.Start{FromParty: 2})
	require.NoError(t, err)
	encoded, err := jsonLine(env)
	require.NoError(t, err)
	_, err = raw.Write(encoded)
	require.NoError(t, err)

	select {
	case got := <-received:
		require.Equal(t, protocol.KindStart, got.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message after malformed line")
	}
}
