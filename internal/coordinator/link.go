package coordinator

import (
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/luxfi/tbbs/internal/mpc"
	"github.com/luxfi/tbbs/internal/party"
)

// SignerLink is the coordinator's view of one signer, regardless of
// whether the signer lives in the same process (see
// internal/signernode.SignerNode, which satisfies this interface
// directly) or across the network (see RemoteSigner in remote.go). Its
// method set mirrors SignerNode's round-driving API one-to-one so
// either can back a Coordinator without the orchestration logic caring
// which.
type SignerLink interface {
	Round1Init(active party.Set, protocolID []byte, batchIndex, batchSize int) (mpc.Commitments, map[party.ID]mpc.Commitments, error)
	ShareAndSalt() (fr.Element, [32]byte, error)
	ZeroShareAndSaltFor(peer party.ID) (fr.Element, [32]byte, error)
	AbsorbCommitment(peer party.ID, own, zeroForSelf mpc.Commitments) error
	AbsorbShares(peer party.ID, share fr.Element, shareSalt [32]byte, zeroShare fr.Element, zeroSalt [32]byte) error
	Round1Finish() (*mpc.Phase1Output, error)
	Round2Init(active party.Set, pool *mpc.BaseOTPool) (map[party.ID]mpc.Message1, error)
	AbsorbMessage1(sender party.ID, msg mpc.Message1) (mpc.Message2, error)
	AbsorbMessage2(peer party.ID, msg mpc.Message2) error
	Round2Finish() (*mpc.Phase2Output, error)
}
