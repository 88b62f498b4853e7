package game

import (
	"fmt"
	"time"
)

// Category tags an event for display styling.
type Category int

const (
	CategoryInfo Category = iota
	CategoryWarning
	CategoryAlert
	CategorySuccess
	CategoryError
	CategoryIntel
	CategoryLaunch
	CategoryImpact
)

var categoryNames = [...]string{"info", "warning", "alert", "success", "error", "intel", "launch", "impact"}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Event is one narrated line of the game log.
type Event struct {
	Seq      int       `json:"seq"`
	Turn     int       `json:"turn"`
	Category Category  `json:"category"`
	Message  string    `json:"message"`
	Time     time.Time `json:"time"`
}

// Text returns the message prefixed with its turn, e.g. "[T03] DEFCON RAISED".
func (e Event) Text() string {
	return fmt.Sprintf("[T%02d] %s", e.Turn, e.Message)
}

// DisplayEvents is how many recent events the console shows.
const DisplayEvents = 12

// Recent returns the last n events of the log, oldest first.
func Recent(events []Event, n int) []Event {
	if n <= 0 {
		return nil
	}
	if len(events) <= n {
		return events
	}
	return events[len(events)-n:]
}
