package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wopr-sim/wopr/internal/config"
	"github.com/wopr-sim/wopr/internal/storage"
	"github.com/wopr-sim/wopr/pkg/core"
)

// Verify Backend implements storage interfaces
var (
	_ storage.Backend    = (*Backend)(nil)
	_ storage.Uploadable = (*Backend)(nil)
)

func testGame() *core.Game {
	return &core.Game{
		ID:         uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		Seed:       42,
		MaxActions: 3,
		StartDate:  time.Date(1983, 1, 1, 0, 0, 0, 0, time.UTC),
		StartedAt:  time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC),
	}
}

func TestRecordBeforeStart(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()})

	assert.ErrorIs(t, b.RecordEvent(&core.EventRecord{}), ErrNoGame)
	assert.ErrorIs(t, b.RecordLaunch(&core.LaunchRecord{}), ErrNoGame)
	assert.ErrorIs(t, b.RecordFlight(&core.FlightRecord{}), ErrNoGame)
	assert.ErrorIs(t, b.RecordTurn(&core.TurnRecord{}), ErrNoGame)
	assert.ErrorIs(t, b.EndGame(&core.Result{}), ErrNoGame)
	assert.Empty(t, b.GetExportedFilePath())
}

func TestStartGameResets(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()})
	require.NoError(t, b.Init())

	require.NoError(t, b.StartGame(testGame()))
	require.NoError(t, b.RecordEvent(&core.EventRecord{Seq: 1, Message: "first"}))
	require.NoError(t, b.RecordTurn(&core.TurnRecord{Turn: 1}))

	require.NoError(t, b.StartGame(testGame()))
	if len(b.events) != 0 || len(b.turns) != 0 {
		t.Errorf("expected empty recording after restart, got %d events %d turns", len(b.events), len(b.turns))
	}
}

func TestEndGameWritesJSON(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir})
	require.NoError(t, b.StartGame(testGame()))

	require.NoError(t, b.RecordEvent(&core.EventRecord{Seq: 1, Turn: 1, Category: "info", Message: "STRATEGIC COMMAND ONLINE"}))
	require.NoError(t, b.RecordLaunch(&core.LaunchRecord{WeaponID: 1, Side: "USA", Kind: "ICBM", Target: "MOSCOW", LaunchTurn: 1, Transit: 2}))
	require.NoError(t, b.RecordFlight(&core.FlightRecord{WeaponID: 1, Turn: 2, RegionKey: "ussr_west", Damage: 0.35, Casualties: 8}))
	require.NoError(t, b.RecordTurn(&core.TurnRecord{Turn: 1, Defcon: 4}))

	require.NoError(t, b.EndGame(&core.Result{Outcome: "win", Text: "VICTORY", FinalTurn: 2}))

	path := b.GetExportedFilePath()
	assert.Equal(t, filepath.Join(dir, "wopr_20260212_213836_6ba7b810.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var export map[string]any
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, float64(1), export["version"])
	assert.Equal(t, "win", export["outcome"])
	assert.Len(t, export["events"], 1)
	assert.Len(t, export["launches"], 1)
	assert.Len(t, export["flights"], 1)
	assert.Len(t, export["turns"], 1)

	meta := b.GetExportMetadata()
	assert.Equal(t, testGame().ID, meta.GameID)
	assert.Equal(t, "win", meta.Outcome)
	assert.Equal(t, 2, meta.FinalTurn)
	assert.Equal(t, int64(len(data)), meta.Size)
}

func TestEndGameWritesGzip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: true})
	require.NoError(t, b.StartGame(testGame()))
	require.NoError(t, b.EndGame(&core.Result{Outcome: "draw", FinalTurn: 1}))

	path := b.GetExportedFilePath()
	if !strings.HasSuffix(path, ".json.gz") {
		t.Fatalf("expected gzip export, got %s", path)
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var export map[string]any
	require.NoError(t, json.NewDecoder(gz).Decode(&export))
	assert.Equal(t, "draw", export["outcome"])
	assert.Equal(t, "1983-01-01", export["startDate"])
}
