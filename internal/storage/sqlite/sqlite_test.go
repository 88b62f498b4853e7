package sqlitestorage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wopr-sim/wopr/internal/database"
	"github.com/wopr-sim/wopr/internal/model"
	"github.com/wopr-sim/wopr/internal/storage"
	"github.com/wopr-sim/wopr/pkg/core"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func newTestBackend(t *testing.T, cfg Config) *Backend {
	t.Helper()
	db, err := database.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return newWithDB(cfg, db, nil)
}

func TestEndGame_DumpsToDisk(t *testing.T) {
	dumpPath := filepath.Join(t.TempDir(), "wopr.db")
	b := newTestBackend(t, Config{DumpPath: dumpPath, DumpInterval: time.Hour})
	require.NoError(t, b.Init())

	g := &core.Game{ID: uuid.New(), Seed: 3, StartedAt: time.Now().UTC()}
	require.NoError(t, b.StartGame(g))
	require.NoError(t, b.RecordEvent(&core.EventRecord{GameID: g.ID, Seq: 1, Message: "GREETINGS PROFESSOR FALKEN"}))
	require.NoError(t, b.EndGame(&core.Result{GameID: g.ID, Outcome: "draw", FinalTurn: 1}))
	require.NoError(t, b.Close())

	disk, err := database.OpenSQLite(dumpPath)
	require.NoError(t, err)

	var row model.Game
	require.NoError(t, disk.First(&row, "id = ?", g.ID).Error)
	assert.Equal(t, "draw", row.Outcome)

	var count int64
	require.NoError(t, disk.Model(&model.GameEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDumpLoop(t *testing.T) {
	dumpPath := filepath.Join(t.TempDir(), "periodic.db")
	b := newTestBackend(t, Config{DumpPath: dumpPath, DumpInterval: 20 * time.Millisecond})
	require.NoError(t, b.Init())
	defer b.Close()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(dumpPath)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestNoDumpPath(t *testing.T) {
	b := newTestBackend(t, Config{})
	require.NoError(t, b.Init())
	assert.NoError(t, b.Dump())
	assert.NoError(t, b.Close())
	// second close is a no-op
	assert.NoError(t, b.Close())
}

func TestFlush_WritesQueuedAndDumps(t *testing.T) {
	dumpPath := filepath.Join(t.TempDir(), "saved.db")
	b := newTestBackend(t, Config{DumpPath: dumpPath, DumpInterval: time.Hour})
	require.NoError(t, b.Init())
	defer b.Close()

	g := &core.Game{ID: uuid.New(), Seed: 9, StartedAt: time.Now().UTC()}
	require.NoError(t, b.StartGame(g))
	require.NoError(t, b.RecordEvent(&core.EventRecord{GameID: g.ID, Seq: 1, Message: "SHALL WE PLAY A GAME?"}))
	require.NoError(t, b.Flush())

	disk, err := database.OpenSQLite(dumpPath)
	require.NoError(t, err)
	var count int64
	require.NoError(t, disk.Model(&model.GameEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
