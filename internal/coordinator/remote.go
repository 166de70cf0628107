package coordinator

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/luxfi/tbbs/internal/mpc"
	"github.com/luxfi/tbbs/internal/party"
	"github.com/luxfi/tbbs/internal/protocol"
	"github.com/luxfi/tbbs/internal/transport"
	"github.com/luxfi/tbbs/internal/wire"
)

func decodeJSON(raw json.RawMessage, v interface{}) error {
	return json.Unmarshal(raw, v)
}

// CallTimeout bounds how long a RemoteSigner waits for a reply before
// giving up. A coordinator driving a real network deployment expects
// signers to answer within one RTT plus local compute; anything longer
// means the peer is gone.
const CallTimeout = 30 * time.Second

// RemoteSigner implements SignerLink over a network connection,
// translating every synchronous call into a request/reply pair carried
// by transport.PeerTransport, so Coordinator.Sign drives a remote signer
// process exactly the way it drives an in-process signernode.SignerNode.
type RemoteSigner struct {
	peer      party.ID
	transport *transport.PeerTransport

	nextID  uint64
	pending sync.Map // uint64 -> chan protocol.Reply
}

// NewRemoteSigner returns a RemoteSigner addressing peer over t. The
// caller must have already Dial'd or Adopt'd a connection for peer on t.
func NewRemoteSigner(peer party.ID, t *transport.PeerTransport) *RemoteSigner {
	return &RemoteSigner{peer: peer, transport: t}
}

// Deliver routes an inbound Reply envelope to the pending call it
// answers. Wire it into the transport's Handler for this peer.
func (r *RemoteSigner) Deliver(env protocol.Envelope) {
	if env.Kind != protocol.KindReply {
		return
	}
	var reply protocol.Reply
	if err := decodeJSON(env.Payload, &reply); err != nil {
		return
	}
	if ch, ok := r.pending.LoadAndDelete(reply.RequestID); ok {
		ch.(chan protocol.Reply) <- reply
	}
}

func (r *RemoteSigner) call(method string, arg interface{}, out interface{}) error {
	body, err := wire.EncodeOpaque(arg)
	if err != nil {
		return fmt.Errorf("coordinator: encoding %s request: %w", method, err)
	}

	id := atomic.AddUint64(&r.nextID, 1)
	ch := make(chan protocol.Reply, 1)
	r.pending.Store(id, ch)
	defer r.pending.Delete(id)

	env, err := protocol.Encode(protocol.KindCall, protocol.Call{RequestID: id, Method: method, Body: body})
	if err != nil {
		return fmt.Errorf("coordinator: encoding %s call envelope: %w", method, err)
	}
	if err := r.transport.Send(r.peer, env); err != nil {
		return fmt.Errorf("coordinator: sending %s to party %d: %w", method, r.peer, err)
	}

	select {
	case reply := <-ch:
		if reply.Err != "" {
			return fmt.Errorf("coordinator: party %d rejected %s: %s", r.peer, method, reply.Err)
		}
		if out == nil {
			return nil
		}
		if err := wire.DecodeOpaque(reply.Body, out); err != nil {
			return fmt.Errorf("coordinator: decoding %s reply: %w", method, err)
		}
		return nil
	case <-time.After(CallTimeout):
		return fmt.Errorf("coordinator: %s to party %d timed out", method, r.peer)
	}
}

type round1InitArg struct {
	Active     party.Set
	ProtocolID []byte
	BatchIndex int
	BatchSize  int
}

type round1InitResult struct {
	Own  mpc.Commitments
	Zero map[party.ID]mpc.Commitments
}

func (r *RemoteSigner) Round1Init(active party.Set, protocolID []byte, batchIndex, batchSize int) (mpc.Commitments, map[party.ID]mpc.Commitments, error) {
	var res round1InitResult
	if err := r.call("round1_init", round1InitArg{Active: active, ProtocolID: protocolID, BatchIndex: batchIndex, BatchSize: batchSize}, &res); err != nil {
		return mpc.Commitments{}, nil, err
	}
	return res.Own, res.Zero, nil
}

type shareAndSaltResult struct {
	Value fr.Element
	Salt  [32]byte
}

func (r *RemoteSigner) ShareAndSalt() (fr.Element, [32]byte, error) {
	var res shareAndSaltResult
	if err := r.call("share_and_salt", struct{}{}, &res); err != nil {
		return fr.Element{}, [32]byte{}, err
	}
	return res.Value, res.Salt, nil
}

func (r *RemoteSigner) ZeroShareAndSaltFor(peer party.ID) (fr.Element, [32]byte, error) {
	var res shareAndSaltResult
	if err := r.call("zero_share_and_salt_for", peer, &res); err != nil {
		return fr.Element{}, [32]byte{}, err
	}
	return res.Value, res.Salt, nil
}

type absorbCommitmentArg struct {
	Peer        party.ID
	Own         mpc.Commitments
	ZeroForSelf mpc.Commitments
}

func (r *RemoteSigner) AbsorbCommitment(peer party.ID, own, zeroForSelf mpc.Commitments) error {
	return r.call("absorb_commitment", absorbCommitmentArg{Peer: peer, Own: own, ZeroForSelf: zeroForSelf}, nil)
}

type absorbSharesArg struct {
	Peer      party.ID
	Share     fr.Element
	ShareSalt [32]byte
	ZeroShare fr.Element
	ZeroSalt  [32]byte
}

func (r *RemoteSigner) AbsorbShares(peer party.ID, share fr.Element, shareSalt [32]byte, zeroShare fr.Element, zeroSalt [32]byte) error {
	return r.call("absorb_shares", absorbSharesArg{Peer: peer, Share: share, ShareSalt: shareSalt, ZeroShare: zeroShare, ZeroSalt: zeroSalt}, nil)
}

func (r *RemoteSigner) Round1Finish() (*mpc.Phase1Output, error) {
	var out mpc.Phase1Output
	if err := r.call("round1_finish", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type round2InitArg struct {
	Active party.Set
}

func (r *RemoteSigner) Round2Init(active party.Set, pool *mpc.BaseOTPool) (map[party.ID]mpc.Message1, error) {
	// The base-OT pool is a shared, pre-distributed setup artifact (see
	// mpc.BaseOTPool) that every signer process already holds a copy of
	// out of band; it is never shipped over this connection.
	var out map[party.ID]mpc.Message1
	if err := r.call("round2_init", round2InitArg{Active: active}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type absorbMessage1Arg struct {
	Sender party.ID
	Msg    mpc.Message1
}

func (r *RemoteSigner) AbsorbMessage1(sender party.ID, msg mpc.Message1) (mpc.Message2, error) {
	var out mpc.Message2
	if err := r.call("absorb_message1", absorbMessage1Arg{Sender: sender, Msg: msg}, &out); err != nil {
		return mpc.Message2{}, err
	}
	return out, nil
}

type absorbMessage2Arg struct {
	Peer party.ID
	Msg  mpc.Message2
}

func (r *RemoteSigner) AbsorbMessage2(peer party.ID, msg mpc.Message2) error {
	return r.call("absorb_message2", absorbMessage2Arg{Peer: peer, Msg: msg}, nil)
}

func (r *RemoteSigner) Round2Finish() (*mpc.Phase2Output, error) {
	var out mpc.Phase2Output
	if err := r.call("round2_finish", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
