package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wopr-sim/wopr/internal/storage"
	"github.com/wopr-sim/wopr/pkg/core"
	"github.com/wopr-sim/wopr/pkg/streaming"
)

// Compile-time interface check.
var _ storage.Backend = (*Backend)(nil)

// testServer creates an httptest server that upgrades to WebSocket,
// records received messages, and sends acks for start_game/end_game.
func testServer(t *testing.T) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ml.setSecret(r.URL.Query().Get("secret"))
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)

			if env.Type == streaming.TypeStartGame || env.Type == streaming.TypeEndGame {
				ack := streaming.AckMessage{Type: "ack", For: env.Type}
				data, _ := json.Marshal(ack)
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)

	return srv, ml
}

type messageLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
	secret   string
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) setSecret(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secret = s
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStartAndEndGame(t *testing.T) {
	srv, ml := testServer(t)

	b := New(Config{URL: wsURL(srv), Secret: "joshua"}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	g := &core.Game{ID: uuid.New(), Seed: 1}
	require.NoError(t, b.StartGame(g))
	require.NoError(t, b.EndGame(&core.Result{GameID: g.ID, Outcome: "draw"}))

	msgs := ml.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, streaming.TypeStartGame, msgs[0].Type)
	assert.Equal(t, streaming.TypeEndGame, msgs[1].Type)

	var start streaming.StartGamePayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &start))
	assert.Equal(t, g.ID, start.Game.ID)

	var end streaming.EndGamePayload
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &end))
	assert.Equal(t, "draw", end.Result.Outcome)

	ml.mu.Lock()
	assert.Equal(t, "joshua", ml.secret)
	ml.mu.Unlock()

	assert.Nil(t, b.stream.header.Load(), "header cleared after end_game")
}

func TestFireAndForgetMessages(t *testing.T) {
	srv, ml := testServer(t)

	b := New(Config{URL: wsURL(srv)}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	id := uuid.New()
	require.NoError(t, b.RecordEvent(&core.EventRecord{GameID: id, Seq: 1, Message: "DEFCON 3"}))
	require.NoError(t, b.RecordLaunch(&core.LaunchRecord{GameID: id, WeaponID: 1, Target: "MOSCOW"}))
	require.NoError(t, b.RecordFlight(&core.FlightRecord{GameID: id, WeaponID: 1, Intercepted: true}))
	require.NoError(t, b.RecordTurn(&core.TurnRecord{GameID: id, Turn: 1}))

	require.Eventually(t, func() bool {
		return len(ml.all()) == 4
	}, 2*time.Second, 10*time.Millisecond)

	msgs := ml.all()
	types := []string{msgs[0].Type, msgs[1].Type, msgs[2].Type, msgs[3].Type}
	assert.Equal(t, []string{streaming.TypeEvent, streaming.TypeLaunch, streaming.TypeFlight, streaming.TypeTurn}, types)

	var launch core.LaunchRecord
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &launch))
	assert.Equal(t, "MOSCOW", launch.Target)
}

func TestStartGame_AckTimeoutWhenClosed(t *testing.T) {
	srv, _ := testServer(t)

	b := New(Config{URL: wsURL(srv)}, nil)
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())

	err := b.StartGame(&core.Game{ID: uuid.New()})
	if err == nil {
		t.Fatal("expected error after close")
	}
	assert.ErrorIs(t, err, errStreamClosed)
}

func TestClose_WithoutInit(t *testing.T) {
	b := New(Config{URL: "ws://127.0.0.1:1/nowhere"}, nil)
	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close())
}

func TestSend_DropsWhenOutboxFull(t *testing.T) {
	b := New(Config{URL: "ws://unused"}, nil)
	for i := 0; i < outboxSize+3; i++ {
		require.NoError(t, b.RecordTurn(&core.TurnRecord{Turn: i}))
	}
	assert.Equal(t, int64(3), b.Dropped())
}

func TestReconnect_ReplaysHeader(t *testing.T) {
	var (
		mu      sync.Mutex
		headers int
		conns   []*ws.Conn
	)
	upgrader := ws.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		conns = append(conns, c)
		mu.Unlock()
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			var env streaming.Envelope
			if json.Unmarshal(msg, &env) != nil || env.Type != streaming.TypeStartGame {
				continue
			}
			mu.Lock()
			headers++
			mu.Unlock()
			data, _ := json.Marshal(streaming.AckMessage{Type: "ack", For: env.Type})
			_ = c.WriteMessage(ws.TextMessage, data)
		}
	}))
	defer srv.Close()

	b := New(Config{URL: wsURL(srv)}, nil)
	require.NoError(t, b.Init())
	defer b.Close()
	require.NoError(t, b.StartGame(&core.Game{ID: uuid.New()}))

	// drop the first socket from the server side
	mu.Lock()
	_ = conns[0].Close()
	mu.Unlock()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return headers == 2
	}, 5*time.Second, 20*time.Millisecond)
}

func TestInit_BadURL(t *testing.T) {
	b := New(Config{URL: "ws://127.0.0.1:1/nowhere"}, nil)
	assert.Error(t, b.Init())
}

func TestMarshalEnvelope(t *testing.T) {
	data, err := marshalEnvelope(streaming.TypeTurn, map[string]int{"turn": 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"turn","payload":{"turn":3}}`, string(data))
}
