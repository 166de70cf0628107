// Package config reads the environment-variable configuration every
// binary in this deployment starts from, grounded on
// original_source/src/config.rs's Config::from_env (NODE_ID/TOTAL_NODES
// required, exit 1 with a message on missing or non-numeric values) and
// original_source/src/constant.rs's deployment defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/luxfi/tbbs/internal/party"
)

// Defaults for the optional environment variables FromEnv reads, plus
// the fixed network constants.
const (
	DefaultThresholdSigners = 5
	DefaultMessageCount     = 5
	DefaultCurrentRun       = 0

	// BasePort is the coordinator's fixed listen port; signer i listens
	// on BasePort+i.
	BasePort = 8000

	// DialGracePeriod is how long a freshly started process sleeps
	// before dialing its peers, giving every other process time to bind
	// its listener first (original_source/src/signer_server.rs sleeps 2s,
	// auth_server.rs sleeps 3s; this package uses the larger of the two
	// as a single shared constant).
	DialGracePeriod = 3 * time.Second
)

// Config is the environment-derived configuration shared by the
// coordinator, dealer, and signer binaries.
type Config struct {
	NodeID           party.ID
	TotalNodes       int
	ThresholdSigners int
	MessageCount     int
	CurrentRun       int
}

// FromEnv reads NODE_ID and TOTAL_NODES (required) plus
// THRESHOLD_SIGNERS/MESSAGE_COUNT/CURRENT_RUN (optional, defaulted),
// returning a descriptive error rather than exiting the process
// directly — callers in cmd/tbbs print the error and exit(1)
// themselves, the same externally observable behavior as the original's
// from_env, without baking process-exit into a library package.
func FromEnv() (Config, error) {
	nodeID, err := requireUint("NODE_ID")
	if err != nil {
		return Config{}, err
	}
	totalNodes, err := requireUint("TOTAL_NODES")
	if err != nil {
		return Config{}, err
	}

	threshold, err := optionalUint("THRESHOLD_SIGNERS", DefaultThresholdSigners)
	if err != nil {
		return Config{}, err
	}
	messageCount, err := optionalUint("MESSAGE_COUNT", DefaultMessageCount)
	if err != nil {
		return Config{}, err
	}
	currentRun, err := optionalUint("CURRENT_RUN", DefaultCurrentRun)
	if err != nil {
		return Config{}, err
	}

	return Config{
		NodeID:           party.ID(nodeID),
		TotalNodes:       totalNodes,
		ThresholdSigners: threshold,
		MessageCount:     messageCount,
		CurrentRun:       currentRun,
	}, nil
}

// ListenPort returns the TCP port a signer with this config's NodeID
// listens on; the coordinator (node 0) always listens on BasePort.
func (c Config) ListenPort() int {
	return BasePort + int(c.NodeID)
}

func requireUint(name string) (int, error) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return 0, fmt.Errorf("config: required environment variable %s is not set", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("config: %s must be a non-negative integer, got %q", name, raw)
	}
	return v, nil
}

func optionalUint(name string, def int) (int, error) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("config: %s must be a non-negative integer, got %q", name, raw)
	}
	return v, nil
}
