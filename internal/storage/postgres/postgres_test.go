package postgres

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wopr-sim/wopr/internal/config"
	"github.com/wopr-sim/wopr/internal/model"
	"github.com/wopr-sim/wopr/internal/storage"
	"github.com/wopr-sim/wopr/pkg/core"
	"gorm.io/gorm"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func TestNew(t *testing.T) {
	b := New(Dependencies{})
	require.NotNil(t, b)
	assert.Nil(t, b.Backend)
	assert.NoError(t, b.Close())
}

func TestInit_ConnectFails(t *testing.T) {
	b := New(Dependencies{Config: config.DBConfig{
		Host:     "127.0.0.1",
		Port:     "1",
		Username: "wopr",
		Password: "wopr",
		Database: "wopr",
	}})

	err := b.Init()
	require.Error(t, err)
}

func TestInitClose_InjectedDB(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	b := New(Dependencies{DB: db})
	require.NoError(t, b.Init())
	require.NotNil(t, b.Backend)

	g := &core.Game{ID: uuid.New(), StartedAt: time.Now().UTC()}
	require.NoError(t, b.StartGame(g))
	require.NoError(t, b.RecordTurn(&core.TurnRecord{GameID: g.ID, Turn: 1, Defcon: 5}))
	require.NoError(t, b.EndGame(&core.Result{GameID: g.ID, Outcome: "loss", FinalTurn: 1}))

	var snaps []model.TurnSnapshot
	require.NoError(t, db.Find(&snaps).Error)
	require.Len(t, snaps, 1)
	assert.Equal(t, 5, snaps[0].Defcon)

	require.NoError(t, b.Close())
}
