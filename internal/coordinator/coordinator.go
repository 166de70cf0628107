package coordinator

import (
	"fmt"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/luxfi/tbbs/internal/bbscrypto"
	"github.com/luxfi/tbbs/internal/mpc"
	"github.com/luxfi/tbbs/internal/party"
	"github.com/luxfi/tbbs/internal/timing"
)

// State is the coordinator's position in one signing run.
type State int

const (
	Idle State = iota
	AwaitingRound1
	RelayingRound1
	AwaitingRound1Final
	AwaitingRound2
	RelayingMessage1
	Aggregating
	Done
	Failed
)

// Coordinator drives one signing run to completion across the active
// signer set, using links as its view of each signer (in-process or
// over the network — see SignerLink).
type Coordinator struct {
	Active     party.Set
	Threshold  int
	ProtocolID []byte
	BatchIndex int
	BatchSize  int

	Links  map[party.ID]SignerLink
	Pool   *mpc.BaseOTPool
	Params *bbscrypto.Params
	PK     bbscrypto.PublicKey

	Sink *timing.Sink

	state State
}

// State reports the coordinator's current position, useful for tests
// and for surfacing progress in cmd/tbbs.
func (c *Coordinator) State() State { return c.state }

// Sign drives a complete signing run for messages, returning the
// resulting aggregate BBS signature. When Threshold is non-zero, Sign
// fails with ErrNotEnoughActiveParties if Active has fewer members; a
// larger Active set is accepted, and a zero Threshold skips the check.
// Callers decide which committee members are active before constructing
// a Coordinator.
func (c *Coordinator) Sign(messages []fr.Element) (*bbscrypto.Signature, error) {
	if c.Threshold > 0 && len(c.Active) < c.Threshold {
		c.state = Failed
		return nil, ErrNotEnoughActiveParties
	}
	for _, id := range c.Active {
		if _, ok := c.Links[id]; !ok {
			c.state = Failed
			return nil, wrap(KindState, uint16(id), fmt.Errorf("coordinator: no link registered for active party %d", id))
		}
	}

	if c.Sink == nil {
		c.Sink = timing.NewSink()
	}

	c.state = AwaitingRound1
	c.Sink.Start(timing.LabelRound1, time.Now())

	ownCommit := make(map[party.ID]mpc.Commitments, len(c.Active))
	zeroCommit := make(map[party.ID]map[party.ID]mpc.Commitments, len(c.Active))
	for _, id := range c.Active {
		own, zero, err := c.Links[id].Round1Init(c.Active, c.ProtocolID, c.BatchIndex, c.BatchSize)
		if err != nil {
			c.state = Failed
			return nil, wrap(KindState, uint16(id), err)
		}
		ownCommit[id] = own
		zeroCommit[id] = zero
	}

	c.state = RelayingRound1
	if err := relayRound1Commitments(c.Active, c.Links, ownCommit, zeroCommit); err != nil {
		c.state = Failed
		return nil, err
	}

	shareReveal := make(map[party.ID]reveal, len(c.Active))
	zeroReveal := make(map[party.ID]map[party.ID]reveal, len(c.Active))
	for _, id := range c.Active {
		value, salt, err := c.Links[id].ShareAndSalt()
		if err != nil {
			c.state = Failed
			return nil, wrap(KindState, uint16(id), err)
		}
		shareReveal[id] = reveal{value: value, salt: salt}

		perPeer := make(map[party.ID]reveal, len(c.Active)-1)
		for _, peer := range c.Active {
			if peer == id {
				continue
			}
			zv, zs, err := c.Links[id].ZeroShareAndSaltFor(peer)
			if err != nil {
				c.state = Failed
				return nil, wrap(KindState, uint16(id), err)
			}
			perPeer[peer] = reveal{value: zv, salt: zs}
		}
		zeroReveal[id] = perPeer
	}

	if err := relayRound1Shares(c.Active, c.Links, shareReveal, zeroReveal); err != nil {
		c.state = Failed
		return nil, err
	}

	c.state = AwaitingRound1Final
	phase1Outputs := make(map[party.ID]*mpc.Phase1Output, len(c.Active))
	for _, id := range c.Active {
		out, err := c.Links[id].Round1Finish()
		if err != nil {
			c.state = Failed
			return nil, wrap(KindIncompletePeerData, uint16(id), err)
		}
		phase1Outputs[id] = out
	}
	c.Sink.Stop(timing.LabelRound1, time.Now())

	c.state = AwaitingRound2
	c.Sink.Start(timing.LabelRound2, time.Now())
	outgoing := make(map[party.ID]map[party.ID]mpc.Message1, len(c.Active))
	for _, id := range c.Active {
		msgs, err := c.Links[id].Round2Init(c.Active, c.Pool)
		if err != nil {
			c.state = Failed
			return nil, wrap(KindState, uint16(id), err)
		}
		outgoing[id] = msgs
	}

	c.state = RelayingMessage1
	if err := relayRound2Messages(c.Active, c.Links, outgoing); err != nil {
		c.state = Failed
		return nil, err
	}

	phase2Outputs := make(map[party.ID]*mpc.Phase2Output, len(c.Active))
	for _, id := range c.Active {
		out, err := c.Links[id].Round2Finish()
		if err != nil {
			c.state = Failed
			return nil, wrap(KindIncompletePeerData, uint16(id), err)
		}
		phase2Outputs[id] = out
	}
	c.Sink.Stop(timing.LabelRound2, time.Now())

	c.state = Aggregating
	sig, err := c.aggregate(messages, phase1Outputs, phase2Outputs)
	if err != nil {
		c.state = Failed
		return nil, err
	}

	c.Sink.Start(timing.LabelTokenVerify, time.Now())
	verifyErr := bbscrypto.Verify(c.Params, c.PK, messages, *sig)
	c.Sink.Stop(timing.LabelTokenVerify, time.Now())
	if verifyErr != nil {
		c.state = Failed
		return nil, wrap(KindIntegrity, 0, verifyErr)
	}

	c.state = Done
	return sig, nil
}

func (c *Coordinator) aggregate(messages []fr.Element, phase1Outputs map[party.ID]*mpc.Phase1Output, phase2Outputs map[party.ID]*mpc.Phase2Output) (*bbscrypto.Signature, error) {
	c.Sink.Start(timing.LabelTokenIssue, time.Now())
	defer c.Sink.Stop(timing.LabelTokenIssue, time.Now())

	var dGlobal fr.Element
	for _, out := range phase2Outputs {
		dGlobal.Add(&dGlobal, &out.DShare)
	}
	if dGlobal.IsZero() {
		return nil, wrap(KindCrypto, 0, fmt.Errorf("coordinator: reconstructed d is zero, cannot invert"))
	}
	var dInverse fr.Element
	dInverse.Inverse(&dGlobal)

	first := phase1Outputs[c.Active[0]]
	nonces := bbscrypto.Nonces{E: first.E, S: first.S}
	b, err := bbscrypto.ComputeB(c.Params, messages, nonces)
	if err != nil {
		return nil, wrap(KindCrypto, 0, err)
	}

	shares := make([]bbscrypto.Share, 0, len(c.Active))
	for _, id := range c.Active {
		out := phase1Outputs[id]
		shares = append(shares, bbscrypto.NewShare(b, out.MaskedR[0], dInverse))
	}
	sig := bbscrypto.Aggregate(shares, nonces.E, nonces.S)
	return &sig, nil
}
