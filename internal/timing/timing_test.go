package timing

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartStopRecordsElapsed(t *testing.T) {
	s := NewSink()
	base := time.Unix(1000, 0)
	s.Start(LabelRound1, base)
	require.NoError(t, s.Stop(LabelRound1, base.Add(2*time.Second)))

	snap := s.Snapshot()
	require.InDelta(t, 2.0, snap[LabelRound1], 0.001)
}

func TestStopWithoutStartErrors(t *testing.T) {
	s := NewSink()
	err := s.Stop(LabelRound2, time.Now())
	require.Error(t, err)
}

func TestFlushWritesJSONFile(t *testing.T) {
	s := NewSink()
	base := time.Unix(500, 0)
	s.Start(LabelTokenIssue, base)
	require.NoError(t, s.Stop(LabelTokenIssue, base.Add(500*time.Millisecond)))

	dir := t.TempDir()
	path, err := s.Flush(dir, 123456)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "timings_123456.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "token_issue")
}
