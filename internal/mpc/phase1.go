package mpc

import (
	"io"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/luxfi/tbbs/internal/bbscrypto"
	"github.com/luxfi/tbbs/internal/party"
	"github.com/luxfi/tbbs/internal/polynomial"
	"github.com/luxfi/tbbs/internal/xhash"
)

// Phase1Output is what a signer's round-1 randomness generation step
// produces once every active peer's commitment and reveal has been
// absorbed: this signer's masked, Lagrange-weighted signing-key share
// and masked blinding contribution, plus the public per-signature
// nonces every signer derives identically from the same transcript.
type Phase1Output struct {
	MaskedSigningKeyShare []fr.Element
	MaskedR               []fr.Element
	E                     fr.Element
	S                     fr.Element
}

type peerCommit struct {
	commitments Commitments
	shareValue  fr.Element
	shareSalt   [32]byte
	zeroValue   fr.Element
	zeroSalt    [32]byte
	haveCommit  bool
	haveReveal  bool
}

// Phase1 drives one signer's side of the randomness-generation round:
// a commit-then-reveal coin toss (deriving the public (e, s) nonces
// unbiased by any single party) fused with a pairwise zero-sharing
// sub-protocol that masks each signer's Lagrange-weighted key share and
// blinding contribution so their sum, and only their sum, is
// meaningful.
type Phase1 struct {
	self       party.ID
	active     party.Set
	others     party.Set
	protocolID []byte
	batchIndex int
	batchSize  int
	designated bool // true if self is the lowest id in the active set

	ownRandom []fr.Element // this party's coin-toss contribution, per batch slot
	ownSalt   [32]byte

	zeroSeedFor map[party.ID][]fr.Element // this party's own zero-sharing seed targeted at each peer, per batch slot
	zeroSaltFor map[party.ID][32]byte

	r []fr.Element // this party's private blinding contribution, per batch slot

	keyShareWeighted fr.Element // lambda_self * sk_share

	peers map[party.ID]*peerCommit
}

// NewPhase1 initializes a fresh round-1 instance for self, against the
// active set active (which must include self), using skShare (this
// party's raw Shamir share of the aggregate secret key).
func NewPhase1(rng io.Reader, self party.ID, active party.Set, skShare fr.Element, protocolID []byte, batchIndex, batchSize int) (*Phase1, Commitments, map[party.ID]Commitments, error) {
	others := active.Without(self)

	lambdas := polynomial.Lagrange(active)
	var weighted fr.Element
	weighted.Mul(&lambdas[self], &skShare)

	designated := true
	for _, id := range active {
		if id < self {
			designated = false
			break
		}
	}

	p := &Phase1{
		self:             self,
		active:           party.NewSet(active...),
		others:           others,
		protocolID:       append([]byte(nil), protocolID...),
		batchIndex:       batchIndex,
		batchSize:        batchSize,
		designated:       designated,
		zeroSeedFor:      make(map[party.ID][]fr.Element, len(others)),
		zeroSaltFor:      make(map[party.ID][32]byte, len(others)),
		keyShareWeighted: weighted,
		peers:            make(map[party.ID]*peerCommit, len(others)),
	}

	p.ownRandom = make([]fr.Element, batchSize)
	for i := range p.ownRandom {
		s, err := sampleScalar(rng)
		if err != nil {
			return nil, Commitments{}, nil, err
		}
		p.ownRandom[i] = s
	}
	if _, err := readExact(rng, p.ownSalt[:]); err != nil {
		return nil, Commitments{}, nil, err
	}

	p.r = make([]fr.Element, batchSize)
	for i := range p.r {
		s, err := sampleScalar(rng)
		if err != nil {
			return nil, Commitments{}, nil, err
		}
		p.r[i] = s
	}

	zeroCommitments := make(map[party.ID]Commitments, len(others))
	for _, peer := range others {
		seeds := make([]fr.Element, batchSize)
		for i := range seeds {
			s, err := sampleScalar(rng)
			if err != nil {
				return nil, Commitments{}, nil, err
			}
			seeds[i] = s
		}
		var salt [32]byte
		if _, err := readExact(rng, salt[:]); err != nil {
			return nil, Commitments{}, nil, err
		}
		p.zeroSeedFor[peer] = seeds
		p.zeroSaltFor[peer] = salt

		p.peers[peer] = &peerCommit{}
		zeroCommitments[peer] = Commitments{
			ZeroCommit: commitScalar("zero-share", seeds[0], salt),
		}
	}

	ownCommitments := Commitments{
		ShareCommit: commitScalar("coin-toss", p.ownRandom[0], p.ownSalt),
	}

	return p, ownCommitments, zeroCommitments, nil
}

// ShareAndSalt returns this party's own coin-toss reveal, identical for
// every peer it is sent to.
func (p *Phase1) ShareAndSalt() (fr.Element, [32]byte) {
	return p.ownRandom[0], p.ownSalt
}

// ZeroShareAndSaltFor returns the zero-sharing reveal this party sends
// specifically to peer.
func (p *Phase1) ZeroShareAndSaltFor(peer party.ID) (fr.Element, [32]byte, error) {
	seeds, ok := p.zeroSeedFor[peer]
	if !ok {
		return fr.Element{}, [32]byte{}, ErrUnknownPeer
	}
	return seeds[0], p.zeroSaltFor[peer], nil
}

// ReceiveCommitment absorbs peer's own coin-toss commitment and the
// zero-sharing commitment peer targeted at self, binding both before
// either is revealed.
func (p *Phase1) ReceiveCommitment(peer party.ID, ownCommitment, zeroCommitmentForSelf Commitments) error {
	pc, ok := p.peers[peer]
	if !ok {
		return ErrUnknownPeer
	}
	if pc.haveCommit {
		return ErrAlreadyReceived
	}
	pc.commitments = Commitments{
		ShareCommit: ownCommitment.ShareCommit,
		ZeroCommit:  zeroCommitmentForSelf.ZeroCommit,
	}
	pc.haveCommit = true
	return nil
}

// ReceiveShares absorbs peer's revealed coin-toss value and the
// zero-sharing seed peer contributed toward self, verifying both against
// the commitments bound earlier.
func (p *Phase1) ReceiveShares(peer party.ID, share fr.Element, shareSalt [32]byte, zeroShare fr.Element, zeroSalt [32]byte) error {
	pc, ok := p.peers[peer]
	if !ok {
		return ErrUnknownPeer
	}
	if !pc.haveCommit {
		return ErrIncompletePeerData
	}
	if pc.haveReveal {
		return ErrAlreadyReceived
	}
	if !verifyScalarCommitment("coin-toss", pc.commitments.ShareCommit, share, shareSalt) {
		return ErrCommitmentMismatch
	}
	if !verifyScalarCommitment("zero-share", pc.commitments.ZeroCommit, zeroShare, zeroSalt) {
		return ErrCommitmentMismatch
	}
	pc.shareValue = share
	pc.shareSalt = shareSalt
	pc.zeroValue = zeroShare
	pc.zeroSalt = zeroSalt
	pc.haveReveal = true
	return nil
}

// Finish closes out round 1, returning ErrIncompletePeerData unless
// every peer in the active set has both committed and revealed.
func (p *Phase1) Finish() (*Phase1Output, error) {
	for _, peer := range p.others {
		pc := p.peers[peer]
		if pc == nil || !pc.haveReveal {
			return nil, ErrIncompletePeerData
		}
	}

	// Build the coin-toss transcript in a canonical order (sorted by
	// party id, the same order for every active signer) so every
	// signer derives an identical (e, s) pair regardless of which
	// peers its own "others" set happens to list first.
	contributions := make([][]byte, 0, len(p.active))
	for _, id := range p.active {
		if id == p.self {
			contributions = append(contributions, p.ownRandom[0].Marshal())
			continue
		}
		contributions = append(contributions, p.peers[id].shareValue.Marshal())
	}
	nonces := bbscrypto.DeriveNonces(p.protocolID, p.batchIndex, contributions)
	e, s := nonces.E, nonces.S

	var keyMask, rMask fr.Element
	for _, peer := range p.others {
		pc := p.peers[peer]
		mine := p.zeroSeedFor[peer][0]

		var zKey fr.Element
		keyFromMine := xhash.Hash512([]byte("zero-mask-key"), mine.Marshal())
		keyFromPeer := xhash.Hash512([]byte("zero-mask-key"), pc.zeroValue.Marshal())
		var a, b fr.Element
		a.SetBytes(keyFromMine[:32])
		b.SetBytes(keyFromPeer[:32])
		zKey.Sub(&a, &b)
		keyMask.Add(&keyMask, &zKey)

		var zR fr.Element
		rFromMine := xhash.Hash512([]byte("zero-mask-r"), mine.Marshal())
		rFromPeer := xhash.Hash512([]byte("zero-mask-r"), pc.zeroValue.Marshal())
		var c, d fr.Element
		c.SetBytes(rFromMine[:32])
		d.SetBytes(rFromPeer[:32])
		zR.Sub(&c, &d)
		rMask.Add(&rMask, &zR)
	}

	maskedKeyShare := p.keyShareWeighted
	maskedKeyShare.Add(&maskedKeyShare, &keyMask)
	if p.designated {
		maskedKeyShare.Add(&maskedKeyShare, &e)
	}

	maskedR := p.r[0]
	maskedR.Add(&maskedR, &rMask)

	return &Phase1Output{
		MaskedSigningKeyShare: []fr.Element{maskedKeyShare},
		MaskedR:               []fr.Element{maskedR},
		E:                     e,
		S:                     s,
	}, nil
}

func sampleScalar(rng io.Reader) (fr.Element, error) {
	var buf [32]byte
	if _, err := readExact(rng, buf[:]); err != nil {
		return fr.Element{}, err
	}
	var s fr.Element
	s.SetBytes(buf[:])
	return s, nil
}

func readExact(rng io.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := rng.Read(buf[total:])
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
		total += n
	}
	return total, nil
}
