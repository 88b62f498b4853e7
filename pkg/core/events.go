// pkg/core/events.go
package core

import (
	"time"

	"github.com/google/uuid"
)

// EventRecord is one narrated line of the game log.
type EventRecord struct {
	GameID   uuid.UUID `json:"gameId"`
	Seq      int       `json:"seq"`
	Turn     int       `json:"turn"`
	Category string    `json:"category"`
	Message  string    `json:"message"`
	Time     time.Time `json:"time"`
}

// LaunchRecord is a weapon entering flight. Trajectory is a WKT LineString
// in EPSG:3857, empty when the target has no route.
type LaunchRecord struct {
	GameID     uuid.UUID `json:"gameId"`
	WeaponID   int       `json:"weaponId"`
	Side       string    `json:"side"`
	Kind       string    `json:"kind"`
	Target     string    `json:"target"`
	TargetKey  string    `json:"targetKey"`
	LaunchTurn int       `json:"launchTurn"`
	Transit    int       `json:"transit"`
	Trajectory string    `json:"trajectory,omitempty"`
}

// FlightRecord is a weapon leaving flight.
type FlightRecord struct {
	GameID        uuid.UUID `json:"gameId"`
	WeaponID      int       `json:"weaponId"`
	Side          string    `json:"side"`
	Kind          string    `json:"kind"`
	Target        string    `json:"target"`
	RegionKey     string    `json:"regionKey,omitempty"`
	Turn          int       `json:"turn"`
	Intercepted   bool      `json:"intercepted"`
	TargetingLost bool      `json:"targetingLost"`
	Damage        float64   `json:"damage"`
	SiloDestroyed bool      `json:"siloDestroyed"`
	ICBMsLost     int       `json:"icbmsLost"`
	Casualties    int       `json:"casualties"`
}
