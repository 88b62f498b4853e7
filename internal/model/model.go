package model

import (
	"time"

	"github.com/google/uuid"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Game{},
	&GameEvent{},
	&Launch{},
	&Flight{},
	&TurnSnapshot{},
}

// Game is one recorded playthrough. Outcome fields stay empty until the
// game ends.
type Game struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Seed        int64      `json:"seed"`
	MaxActions  int        `json:"maxActions"`
	StartDate   time.Time  `json:"startDate"`
	StartedAt   time.Time  `json:"startedAt" gorm:"index:idx_game_started_at"`
	EndedAt     *time.Time `json:"endedAt"`
	Outcome     string     `json:"outcome" gorm:"size:16"`
	OutcomeText string     `json:"outcomeText" gorm:"size:255"`
	FinalTurn   int        `json:"finalTurn"`
	FinalDefcon int        `json:"finalDefcon"`
	USAPop      float64    `json:"usaPop"`
	USSRPop     float64    `json:"ussrPop"`
	TotalEvents int        `json:"totalEvents"`
}

func (*Game) TableName() string {
	return "games"
}

// GameEvent is one narrated line of the game log.
type GameEvent struct {
	ID       uint      `json:"id" gorm:"primarykey;autoIncrement"`
	GameID   uuid.UUID `json:"gameId" gorm:"type:uuid;index:idx_event_game_seq,priority:1"`
	Seq      int       `json:"seq" gorm:"index:idx_event_game_seq,priority:2"`
	Turn     int       `json:"turn"`
	Category string    `json:"category" gorm:"size:16"`
	Message  string    `json:"message" gorm:"size:255"`
	Time     time.Time `json:"time"`
}

func (*GameEvent) TableName() string {
	return "game_events"
}

// Launch is a weapon entering flight. Path is the projected trajectory,
// empty when the target has no route.
type Launch struct {
	ID         uint            `json:"id" gorm:"primarykey;autoIncrement"`
	GameID     uuid.UUID       `json:"gameId" gorm:"type:uuid;index:idx_launch_game"`
	WeaponID   int             `json:"weaponId"`
	Side       string          `json:"side" gorm:"size:8"`
	Kind       string          `json:"kind" gorm:"size:8"`
	Target     string          `json:"target" gorm:"size:64"`
	TargetKey  string          `json:"targetKey" gorm:"size:32"`
	LaunchTurn int             `json:"launchTurn"`
	Transit    int             `json:"transit"`
	Path       geom.LineString `json:"path" gorm:"type:geometry"`
}

func (*Launch) TableName() string {
	return "launches"
}

// Flight is the outcome of a weapon leaving flight.
type Flight struct {
	ID            uint      `json:"id" gorm:"primarykey;autoIncrement"`
	GameID        uuid.UUID `json:"gameId" gorm:"type:uuid;index:idx_flight_game"`
	WeaponID      int       `json:"weaponId"`
	Side          string    `json:"side" gorm:"size:8"`
	Kind          string    `json:"kind" gorm:"size:8"`
	Target        string    `json:"target" gorm:"size:64"`
	RegionKey     string    `json:"regionKey" gorm:"size:32"`
	Turn          int       `json:"turn"`
	Intercepted   bool      `json:"intercepted"`
	TargetingLost bool      `json:"targetingLost"`
	Damage        float64   `json:"damage"`
	SiloDestroyed bool      `json:"siloDestroyed"`
	ICBMsLost     int       `json:"icbmsLost"`
	Casualties    int       `json:"casualties"`
}

func (*Flight) TableName() string {
	return "flights"
}

// TurnSnapshot is the state at the end of a week. Per-side and per-region
// detail is kept as JSON.
type TurnSnapshot struct {
	ID           uint           `json:"id" gorm:"primarykey;autoIncrement"`
	GameID       uuid.UUID      `json:"gameId" gorm:"type:uuid;index:idx_turn_game_turn,priority:1"`
	Turn         int            `json:"turn" gorm:"index:idx_turn_game_turn,priority:2"`
	Defcon       int            `json:"defcon"`
	Tension      int            `json:"tension"`
	AIState      string         `json:"aiState" gorm:"size:16"`
	AIAggression int            `json:"aiAggression"`
	Inaction     int            `json:"inaction"`
	Sides        datatypes.JSON `json:"sides" gorm:"type:jsonb;default:'[]'"`
	Regions      datatypes.JSON `json:"regions" gorm:"type:jsonb;default:'[]'"`
}

func (*TurnSnapshot) TableName() string {
	return "turn_snapshots"
}
