// Command tbbs drives a threshold BBS signing deployment: dealer
// generates and distributes key material, signer runs one committee
// member's long-lived process, coordinator drives a full signing run
// across the active set, and verify checks a resulting signature
// offline. Grounded on the threshold-cli subcommand layout in
// _examples/luxfi-threshold/cmd/threshold-cli/main.go.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/spf13/cobra"

	"github.com/luxfi/tbbs/internal/bbscrypto"
	"github.com/luxfi/tbbs/internal/config"
	"github.com/luxfi/tbbs/internal/coordinator"
	"github.com/luxfi/tbbs/internal/dealer"
	"github.com/luxfi/tbbs/internal/mpc"
	"github.com/luxfi/tbbs/internal/party"
	"github.com/luxfi/tbbs/internal/protocol"
	"github.com/luxfi/tbbs/internal/signernode"
	"github.com/luxfi/tbbs/internal/timing"
	"github.com/luxfi/tbbs/internal/transport"
	"github.com/luxfi/tbbs/internal/wire"
)

var (
	dataDir string
	otSeed  uint64
	host    string

	rootCmd = &cobra.Command{
		Use:   "tbbs",
		Short: "Threshold BBS signature deployment tooling",
		Long:  `Generate, serve, and drive a distributed threshold BBS signing committee.`,
	}

	dealerCmd = &cobra.Command{
		Use:   "dealer",
		Short: "Generate and distribute committee key material",
		RunE:  runDealer,
	}

	signerCmd = &cobra.Command{
		Use:   "signer",
		Short: "Run one committee member's signer process",
		RunE:  runSigner,
	}

	coordinatorCmd = &cobra.Command{
		Use:   "coordinator",
		Short: "Drive one signing run across the active committee",
		RunE:  runCoordinator,
	}

	verifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Verify a signature produced by the coordinator",
		RunE:  runVerify,
	}
)

// The dealer, signer, and coordinator subcommands read their deployment
// shape (NODE_ID, TOTAL_NODES, THRESHOLD_SIGNERS, MESSAGE_COUNT,
// CURRENT_RUN) from the environment via config.FromEnv, matching the
// original's Config::from_env; verify reads no environment. Cobra flags
// cover operational settings (where to read/write on disk, which host to
// bind/dial, per-invocation values such as the messages to sign), and
// --threshold, --total, --messages, and --node-id override the matching
// environment value when given explicitly.
func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "./tbbs-data", "Directory holding key material and run output")
	rootCmd.PersistentFlags().Uint64Var(&otSeed, "ot-seed", 1, "Shared base-OT pool seed every process in the deployment must agree on")
	rootCmd.PersistentFlags().StringVar(&host, "host", "127.0.0.1", "Host every signer listens on / the coordinator dials")

	dealerCmd.Flags().Int("threshold", 0, "Override THRESHOLD_SIGNERS (signing committee size)")
	dealerCmd.Flags().Int("total", 0, "Override TOTAL_NODES (committee + observers)")
	dealerCmd.Flags().Int("messages", 0, "Override MESSAGE_COUNT (BBS parameter message slots)")
	dealerCmd.Flags().String("out", "", "Directory to write generated key material to (defaults to --data-dir)")

	signerCmd.Flags().Int("node-id", 0, "Override NODE_ID (this process's party id)")

	coordinatorCmd.Flags().Int("threshold", 0, "Override THRESHOLD_SIGNERS (active signer count for this run)")
	coordinatorCmd.Flags().Int("batch-index", 0, "Batch index within this deployment's message schedule")
	coordinatorCmd.Flags().Int("batch-size", 1, "Batch size passed to round 1")
	coordinatorCmd.Flags().StringSlice("messages", nil, "Hex-encoded scalar messages to sign (one per BBS message slot)")

	verifyCmd.Flags().String("signature", "", "Signature file written by coordinator (required)")
	verifyCmd.Flags().StringSlice("messages", nil, "Hex-encoded scalar messages the signature should cover")
	verifyCmd.MarkFlagRequired("signature")

	rootCmd.AddCommand(dealerCmd, signerCmd, coordinatorCmd, verifyCmd)
}

// overrideInt returns the flag's value if the caller explicitly set it
// on the command line, falling back to fall otherwise.
func overrideInt(cmd *cobra.Command, name string, fall int) int {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}
	return fall
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tbbs: %v\n", err)
		os.Exit(1)
	}
}

func runDealer(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("reading deployment configuration: %w", err)
	}

	threshold := overrideInt(cmd, "threshold", cfg.ThresholdSigners)
	total := overrideInt(cmd, "total", cfg.TotalNodes)
	messages := overrideInt(cmd, "messages", cfg.MessageCount)

	out := dataDir
	if o, _ := cmd.Flags().GetString("out"); o != "" {
		out = o
	}

	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	d, err := dealer.Generate(rand.Reader, messages, threshold, total)
	if err != nil {
		return fmt.Errorf("generating committee key material: %w", err)
	}

	paramsEnc, err := wire.EncodeOpaque(d.Params())
	if err != nil {
		return fmt.Errorf("encoding params: %w", err)
	}
	pkEnc, err := wire.EncodeOpaque(d.PublicKey())
	if err != nil {
		return fmt.Errorf("encoding public key: %w", err)
	}
	if err := os.WriteFile(filepath.Join(out, "params.json"), []byte(paramsEnc), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(out, "public_key.json"), []byte(pkEnc), 0o644); err != nil {
		return err
	}

	for _, id := range d.Committee() {
		km, err := d.ShareFor(id)
		if err != nil {
			return err
		}
		shareEnc := wire.EncodeScalar(km.SkShare)
		path := filepath.Join(out, fmt.Sprintf("share-%d.json", id))
		if err := os.WriteFile(path, []byte(shareEnc), 0o600); err != nil {
			return fmt.Errorf("writing share for party %d: %w", id, err)
		}
	}

	fmt.Printf("Generated committee of %d (threshold) out of %d parties.\n", threshold, total)
	fmt.Printf("Params and public key written to %s.\n", out)
	return nil
}

func loadKeyMaterial(id party.ID) (dealer.KeyMaterial, error) {
	var km dealer.KeyMaterial

	paramsRaw, err := os.ReadFile(filepath.Join(dataDir, "params.json"))
	if err != nil {
		return km, fmt.Errorf("reading params: %w", err)
	}
	var params bbscrypto.Params
	if err := wire.DecodeOpaque(string(paramsRaw), &params); err != nil {
		return km, fmt.Errorf("decoding params: %w", err)
	}

	pkRaw, err := os.ReadFile(filepath.Join(dataDir, "public_key.json"))
	if err != nil {
		return km, fmt.Errorf("reading public key: %w", err)
	}
	var pk bbscrypto.PublicKey
	if err := wire.DecodeOpaque(string(pkRaw), &pk); err != nil {
		return km, fmt.Errorf("decoding public key: %w", err)
	}

	shareRaw, err := os.ReadFile(filepath.Join(dataDir, fmt.Sprintf("share-%d.json", id)))
	if err != nil {
		return km, fmt.Errorf("reading share for party %d: %w", id, err)
	}
	share, err := wire.DecodeScalar(string(shareRaw))
	if err != nil {
		return km, fmt.Errorf("decoding share for party %d: %w", id, err)
	}

	return dealer.KeyMaterial{Params: &params, PublicKey: pk, SkShare: share}, nil
}

func runSigner(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("reading deployment configuration: %w", err)
	}

	nodeID := overrideInt(cmd, "node-id", int(cfg.NodeID))
	self := party.ID(nodeID)

	km, err := loadKeyMaterial(self)
	if err != nil {
		return fmt.Errorf("loading key material: %w", err)
	}

	node := signernode.New(self, rand.Reader)
	if err := node.SetKeyShare(km); err != nil {
		return fmt.Errorf("installing key share: %w", err)
	}

	addr := net.JoinHostPort(host, strconv.Itoa(config.BasePort+nodeID))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	defer ln.Close()
	fmt.Printf("signer %d listening on %s\n", nodeID, addr)

	conn, err := ln.Accept()
	if err != nil {
		return fmt.Errorf("accepting coordinator connection: %w", err)
	}

	coordinatorID := party.ID(0)
	t := transport.New(nil)
	server := coordinator.NewSignerServer(self, coordinatorID, node, t)
	t.SetHandler(server.Handle)
	t.Adopt(coordinatorID, conn)
	server.SetPool(mpc.NewBaseOTPool(otSeed, party.Range(1, party.ID(cfg.ThresholdSigners))))

	select {}
}

func runCoordinator(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("reading deployment configuration: %w", err)
	}

	threshold := overrideInt(cmd, "threshold", cfg.ThresholdSigners)
	batchIndex, _ := cmd.Flags().GetInt("batch-index")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	messageHexes, _ := cmd.Flags().GetStringSlice("messages")

	messages, err := decodeMessages(messageHexes)
	if err != nil {
		return err
	}

	active := party.Range(1, party.ID(threshold))

	paramsRaw, err := os.ReadFile(filepath.Join(dataDir, "params.json"))
	if err != nil {
		return fmt.Errorf("reading params: %w", err)
	}
	var params bbscrypto.Params
	if err := wire.DecodeOpaque(string(paramsRaw), &params); err != nil {
		return fmt.Errorf("decoding params: %w", err)
	}
	pkRaw, err := os.ReadFile(filepath.Join(dataDir, "public_key.json"))
	if err != nil {
		return fmt.Errorf("reading public key: %w", err)
	}
	var pk bbscrypto.PublicKey
	if err := wire.DecodeOpaque(string(pkRaw), &pk); err != nil {
		return fmt.Errorf("decoding public key: %w", err)
	}

	time.Sleep(config.DialGracePeriod)

	links := make(map[party.ID]coordinator.SignerLink, len(active))
	for _, id := range active {
		addr := net.JoinHostPort(host, strconv.Itoa(config.BasePort+int(id)))
		t := transport.New(nil)
		remote := coordinator.NewRemoteSigner(id, t)
		t.SetHandler(func(from party.ID, env protocol.Envelope) {
			remote.Deliver(env)
		})
		if err := t.Dial(id, addr); err != nil {
			return fmt.Errorf("dialing signer %d at %s: %w", id, addr, err)
		}
		links[id] = remote
	}

	pool := mpc.NewBaseOTPool(otSeed, active)

	c := &coordinator.Coordinator{
		Active:     active,
		ProtocolID: []byte("tbbs-deployment"),
		BatchIndex: batchIndex,
		BatchSize:  batchSize,
		Links:      links,
		Pool:       pool,
		Params:     &params,
		PK:         pk,
		Sink:       timing.NewSink(),
	}

	sig, err := c.Sign(messages)
	if err != nil {
		return fmt.Errorf("signing run failed: %w", err)
	}

	sigEnc, err := wire.EncodeOpaque(sig)
	if err != nil {
		return fmt.Errorf("encoding signature: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "signature.json"), []byte(sigEnc), 0o644); err != nil {
		return fmt.Errorf("writing signature: %w", err)
	}

	runTag := time.Now().Unix()
	if cfg.CurrentRun != 0 {
		runTag = int64(cfg.CurrentRun)
	}
	if _, err := c.Sink.Flush(dataDir, runTag); err != nil {
		return fmt.Errorf("flushing timings: %w", err)
	}

	fmt.Println("Signature produced and verified; written to signature.json")
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	sigFile, _ := cmd.Flags().GetString("signature")
	messageHexes, _ := cmd.Flags().GetStringSlice("messages")

	messages, err := decodeMessages(messageHexes)
	if err != nil {
		return err
	}

	paramsRaw, err := os.ReadFile(filepath.Join(dataDir, "params.json"))
	if err != nil {
		return fmt.Errorf("reading params: %w", err)
	}
	var params bbscrypto.Params
	if err := wire.DecodeOpaque(string(paramsRaw), &params); err != nil {
		return fmt.Errorf("decoding params: %w", err)
	}
	pkRaw, err := os.ReadFile(filepath.Join(dataDir, "public_key.json"))
	if err != nil {
		return fmt.Errorf("reading public key: %w", err)
	}
	var pk bbscrypto.PublicKey
	if err := wire.DecodeOpaque(string(pkRaw), &pk); err != nil {
		return fmt.Errorf("decoding public key: %w", err)
	}

	sigRaw, err := os.ReadFile(sigFile)
	if err != nil {
		return fmt.Errorf("reading signature: %w", err)
	}
	var sig bbscrypto.Signature
	if err := wire.DecodeOpaque(string(sigRaw), &sig); err != nil {
		return fmt.Errorf("decoding signature: %w", err)
	}

	if err := bbscrypto.Verify(&params, pk, messages, sig); err != nil {
		fmt.Println("INVALID:", err)
		return err
	}
	fmt.Println("VALID")
	return nil
}

func decodeMessages(hexes []string) ([]fr.Element, error) {
	out := make([]fr.Element, len(hexes))
	for i, h := range hexes {
		raw, err := hex.DecodeString(strings.TrimPrefix(h, "0x"))
		if err != nil {
			return nil, fmt.Errorf("decoding message %d: %w", i, err)
		}
		out[i].SetBytes(raw)
	}
	return out, nil
}
