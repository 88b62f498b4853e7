// pkg/core/game.go
package core

import (
	"time"

	"github.com/google/uuid"
)

// Game describes one recorded playthrough.
type Game struct {
	ID         uuid.UUID `json:"id"`
	Seed       int64     `json:"seed"`
	MaxActions int       `json:"maxActions"`
	StartDate  time.Time `json:"startDate"` // in-game calendar date of week 1
	StartedAt  time.Time `json:"startedAt"` // wall clock
}

// Result is written once when a game ends.
type Result struct {
	GameID      uuid.UUID `json:"gameId"`
	Outcome     string    `json:"outcome"` // "win", "loss" or "draw"
	Text        string    `json:"text"`
	FinalTurn   int       `json:"finalTurn"`
	Defcon      int       `json:"defcon"`
	EndedAt     time.Time `json:"endedAt"`
	USAPop      float64   `json:"usaPop"`
	USSRPop     float64   `json:"ussrPop"`
	TotalEvents int       `json:"totalEvents"`
}

// UploadMetadata describes an exported recording file.
type UploadMetadata struct {
	GameID    uuid.UUID `json:"gameId"`
	Outcome   string    `json:"outcome"`
	FinalTurn int       `json:"finalTurn"`
	Size      int64     `json:"size"`
}
