package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromEnvRequiresNodeIDAndTotalNodes(t *testing.T) {
	require.NoError(t, os.Unsetenv("NODE_ID"))
	require.NoError(t, os.Unsetenv("TOTAL_NODES"))
	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnvAppliesDefaults(t *testing.T) {
	t.Setenv("NODE_ID", "2")
	t.Setenv("TOTAL_NODES", "8")
	require.NoError(t, os.Unsetenv("THRESHOLD_SIGNERS"))
	require.NoError(t, os.Unsetenv("MESSAGE_COUNT"))
	require.NoError(t, os.Unsetenv("CURRENT_RUN"))

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.EqualValues(t, 2, cfg.NodeID)
	require.Equal(t, 8, cfg.TotalNodes)
	require.Equal(t, DefaultThresholdSigners, cfg.ThresholdSigners)
	require.Equal(t, DefaultMessageCount, cfg.MessageCount)
	require.Equal(t, 8002, cfg.ListenPort())
}

func TestFromEnvRejectsNonNumeric(t *testing.T) {
	t.Setenv("NODE_ID", "not-a-number")
	t.Setenv("TOTAL_NODES", "8")
	_, err := FromEnv()
	require.Error(t, err)
}
