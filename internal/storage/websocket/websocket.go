// Package websocket streams game records to a display server.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/wopr-sim/wopr/pkg/core"
	"github.com/wopr-sim/wopr/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend streams game data over WebSocket to a display server.
// It implements storage.Backend but not storage.Uploadable.
type Backend struct {
	stream *stream
	log    *slog.Logger
}

// New creates a new WebSocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		stream: newStream(cfg.URL, cfg.Secret, logger),
		log:    logger,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.stream.open()
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	b.stream.stop()
	if n := b.stream.dropped.Load(); n > 0 {
		b.log.Warn("Display stream dropped frames", "count", n)
	}
	return nil
}

// Dropped returns how many frames were discarded because the outbox was full.
func (b *Backend) Dropped() int64 {
	return b.stream.dropped.Load()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	env, err := streaming.NewEnvelope(msgType, payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.stream.send(data)
	return nil
}

// StartGame sends the game header and waits for the server ack.
func (b *Backend) StartGame(g *core.Game) error {
	data, err := marshalEnvelope(streaming.TypeStartGame, streaming.StartGamePayload{Game: g})
	if err != nil {
		return err
	}

	b.stream.header.Store(&data)
	return b.stream.await(data, streaming.TypeStartGame, ackTimeout)
}

// EndGame sends end_game and waits for the server ack.
func (b *Backend) EndGame(r *core.Result) error {
	data, err := marshalEnvelope(streaming.TypeEndGame, streaming.EndGamePayload{Result: r})
	if err != nil {
		return err
	}
	err = b.stream.await(data, streaming.TypeEndGame, ackTimeout)
	b.stream.header.Store(nil)
	return err
}

func (b *Backend) RecordEvent(e *core.EventRecord) error {
	return b.sendEnvelope(streaming.TypeEvent, e)
}

func (b *Backend) RecordLaunch(l *core.LaunchRecord) error {
	return b.sendEnvelope(streaming.TypeLaunch, l)
}

func (b *Backend) RecordFlight(f *core.FlightRecord) error {
	return b.sendEnvelope(streaming.TypeFlight, f)
}

func (b *Backend) RecordTurn(t *core.TurnRecord) error {
	return b.sendEnvelope(streaming.TypeTurn, t)
}
