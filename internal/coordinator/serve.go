package coordinator

import (
	"fmt"

	"github.com/luxfi/tbbs/internal/mpc"
	"github.com/luxfi/tbbs/internal/party"
	"github.com/luxfi/tbbs/internal/protocol"
	"github.com/luxfi/tbbs/internal/transport"
	"github.com/luxfi/tbbs/internal/wire"
)

// SignerServer answers a RemoteSigner's Call envelopes by dispatching
// them to a local SignerLink (normally a *signernode.SignerNode), the
// mirror image of RemoteSigner: together they let a signernode.SignerNode
// started as its own process participate in a Coordinator's run exactly
// as an in-process one does.
type SignerServer struct {
	self      party.ID
	coordinID party.ID
	link      SignerLink
	transport *transport.PeerTransport
	otPool    *mpc.BaseOTPool
}

// NewSignerServer returns a server answering calls from coordinID (the
// coordinator's party id on this transport) on behalf of link.
func NewSignerServer(self, coordinID party.ID, link SignerLink, t *transport.PeerTransport) *SignerServer {
	return &SignerServer{self: self, coordinID: coordinID, link: link, transport: t}
}

// Handle processes one inbound envelope, replying over the transport
// when it is a Call this server understands. Wire it into the
// transport's Handler.
func (s *SignerServer) Handle(from party.ID, env protocol.Envelope) {
	if env.Kind != protocol.KindCall {
		return
	}
	var call protocol.Call
	if err := decodeJSON(env.Payload, &call); err != nil {
		return
	}
	body, callErr := s.dispatch(call)
	s.reply(call.RequestID, body, callErr)
}

func (s *SignerServer) reply(requestID uint64, body string, callErr error) {
	reply := protocol.Reply{RequestID: requestID, Body: body}
	if callErr != nil {
		reply.Err = callErr.Error()
	}
	env, err := protocol.Encode(protocol.KindReply, reply)
	if err != nil {
		return
	}
	_ = s.transport.Send(s.coordinID, env)
}

func (s *SignerServer) dispatch(call protocol.Call) (string, error) {
	switch call.Method {
	case "round1_init":
		var arg round1InitArg
		if err := wire.DecodeOpaque(call.Body, &arg); err != nil {
			return "", err
		}
		own, zero, err := s.link.Round1Init(arg.Active, arg.ProtocolID, arg.BatchIndex, arg.BatchSize)
		if err != nil {
			return "", err
		}
		return wire.EncodeOpaque(round1InitResult{Own: own, Zero: zero})

	case "share_and_salt":
		value, salt, err := s.link.ShareAndSalt()
		if err != nil {
			return "", err
		}
		return wire.EncodeOpaque(shareAndSaltResult{Value: value, Salt: salt})

	case "zero_share_and_salt_for":
		var peer party.ID
		if err := wire.DecodeOpaque(call.Body, &peer); err != nil {
			return "", err
		}
		value, salt, err := s.link.ZeroShareAndSaltFor(peer)
		if err != nil {
			return "", err
		}
		return wire.EncodeOpaque(shareAndSaltResult{Value: value, Salt: salt})

	case "absorb_commitment":
		var arg absorbCommitmentArg
		if err := wire.DecodeOpaque(call.Body, &arg); err != nil {
			return "", err
		}
		if err := s.link.AbsorbCommitment(arg.Peer, arg.Own, arg.ZeroForSelf); err != nil {
			return "", err
		}
		return "", nil

	case "absorb_shares":
		var arg absorbSharesArg
		if err := wire.DecodeOpaque(call.Body, &arg); err != nil {
			return "", err
		}
		if err := s.link.AbsorbShares(arg.Peer, arg.Share, arg.ShareSalt, arg.ZeroShare, arg.ZeroSalt); err != nil {
			return "", err
		}
		return "", nil

	case "round1_finish":
		out, err := s.link.Round1Finish()
		if err != nil {
			return "", err
		}
		return wire.EncodeOpaque(out)

	case "round2_init":
		var arg round2InitArg
		if err := wire.DecodeOpaque(call.Body, &arg); err != nil {
			return "", err
		}
		out, err := s.link.Round2Init(arg.Active, s.pool())
		if err != nil {
			return "", err
		}
		return wire.EncodeOpaque(out)

	case "absorb_message1":
		var arg absorbMessage1Arg
		if err := wire.DecodeOpaque(call.Body, &arg); err != nil {
			return "", err
		}
		out, err := s.link.AbsorbMessage1(arg.Sender, arg.Msg)
		if err != nil {
			return "", err
		}
		return wire.EncodeOpaque(out)

	case "absorb_message2":
		var arg absorbMessage2Arg
		if err := wire.DecodeOpaque(call.Body, &arg); err != nil {
			return "", err
		}
		if err := s.link.AbsorbMessage2(arg.Peer, arg.Msg); err != nil {
			return "", err
		}
		return "", nil

	case "round2_finish":
		out, err := s.link.Round2Finish()
		if err != nil {
			return "", err
		}
		return wire.EncodeOpaque(out)

	default:
		return "", fmt.Errorf("coordinator: unknown rpc method %q", call.Method)
	}
}

// pool returns the base-OT pool this server was configured with. Set by
// SetPool before the signing run reaches round 2.
func (s *SignerServer) pool() *mpc.BaseOTPool { return s.otPool }

// SetPool installs the shared base-OT pool every signer process holds a
// copy of out of band, so round2_init calls can be dispatched locally.
func (s *SignerServer) SetPool(pool *mpc.BaseOTPool) { s.otPool = pool }
