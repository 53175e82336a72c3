package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodeworks/lode/internal/history"
	"github.com/lodeworks/lode/internal/resource"
)

// seedHistoryDB creates a history database with a fixed, deterministic
// event sequence and returns its path.
func seedHistoryDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "events.db")
	s, err := history.Open(path)
	require.NoError(t, err)
	defer s.Close()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	seed := []history.Event{
		{ID: "evt-1", Resource: "chunk-a", Kind: resource.KindChunk, Outcome: history.OutcomeFallbackUsed, Attempts: 1, At: base},
		{ID: "evt-2", Resource: "hero", Kind: resource.KindComponent, Outcome: history.OutcomeFallbackUsed, Attempts: 1, At: base.Add(time.Minute)},
		{ID: "evt-3", Resource: "chunk-b", Kind: resource.KindChunk, Outcome: history.OutcomeRetriedThenSucceeded, Attempts: 3, At: base.Add(2 * time.Minute)},
		{ID: "evt-4", Resource: "sidebar", Kind: resource.KindComponent, Outcome: history.OutcomeRetriedThenFailed, Attempts: 2, At: base.Add(3 * time.Minute)},
	}
	for _, e := range seed {
		require.NoError(t, s.Append(context.Background(), e))
	}
	return path
}

func TestStatsText(t *testing.T) {
	path := seedHistoryDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewStatsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", path})

	err := cmd.Execute()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "stats_text", buf.Bytes())
}

func TestStatsJSON(t *testing.T) {
	path := seedHistoryDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewStatsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", path})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var stats history.Stats
	require.NoError(t, json.Unmarshal(data, &stats))

	assert.Equal(t, 4, stats.TotalEvents)
	assert.Equal(t, 1, stats.ChunkFallbacks)
	assert.Equal(t, 1, stats.ComponentFallbacks)
	assert.Equal(t, 3, stats.RetryAttempts)
	assert.Equal(t, 3, stats.SuccessfulFallbacks)
}

// seedEmptyHistoryDB creates an empty history database and returns its path.
func seedEmptyHistoryDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.db")
	s, err := history.Open(path)
	require.NoError(t, err)
	s.Close()
	return path
}

func TestStatsEmptyDatabase(t *testing.T) {
	path := seedEmptyHistoryDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewStatsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", path})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "total events:         0")
}

func TestStatsUnopenableDatabase(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewStatsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", filepath.Join(t.TempDir(), "no", "such", "dir", "events.db")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "E002")
}

func TestStatsRequiresDBFlag(t *testing.T) {
	cmd := NewStatsCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db")
}
