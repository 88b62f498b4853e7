package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/wopr-sim/wopr/pkg/streaming"
)

const (
	outboxSize   = 4096
	ackBuffer    = 8
	redialTries  = 8
	redialMaxGap = 20 * time.Second
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	ackTimeout   = 10 * time.Second
)

var errStreamClosed = errors.New("stream closed")

// stream owns one socket at a time. A single run goroutine does all writes
// and redials after failures; a reader goroutine per socket forwards acks.
type stream struct {
	target string
	secret string
	log    *slog.Logger

	outbox chan []byte
	acks   chan streaming.AckMessage

	// header is the start_game frame of the live game, replayed on redial.
	header atomic.Pointer[[]byte]

	dropped atomic.Int64

	quit     chan struct{}
	stopOnce sync.Once
	finished chan struct{}
}

func newStream(target, secret string, log *slog.Logger) *stream {
	return &stream{
		target: target,
		secret: secret,
		log:    log,
		outbox: make(chan []byte, outboxSize),
		acks:   make(chan streaming.AckMessage, ackBuffer),
		quit:   make(chan struct{}),
	}
}

// open dials once and starts the run loop.
func (s *stream) open() error {
	conn, err := s.dial()
	if err != nil {
		return err
	}
	s.finished = make(chan struct{})
	go s.run(conn)
	return nil
}

func (s *stream) dial() (*ws.Conn, error) {
	u, err := url.Parse(s.target)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	q := u.Query()
	q.Set("secret", s.secret)
	u.RawQuery = q.Encode()

	conn, _, err := ws.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

func (s *stream) run(conn *ws.Conn) {
	defer close(s.finished)
	for conn != nil {
		err := s.pump(conn)
		if err == nil {
			return
		}
		s.log.Warn("Display stream lost", "error", err)
		conn = s.redial()
	}
}

// pump writes outgoing frames and pings until the socket fails or the
// stream is stopped. It returns nil only on a clean stop.
func (s *stream) pump(conn *ws.Conn) error {
	defer conn.Close()

	readErr := make(chan error, 1)
	go s.read(conn, readErr)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-s.quit:
			_ = conn.WriteControl(ws.CloseMessage,
				ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return nil
		case err := <-readErr:
			return err
		case <-ping.C:
			if err := conn.WriteControl(ws.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		case frame := <-s.outbox:
			if err := write(conn, frame); err != nil {
				return err
			}
		}
	}
}

func write(conn *ws.Conn, frame []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteMessage(ws.TextMessage, frame); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// read forwards acks until the socket errors.
func (s *stream) read(conn *ws.Conn, errc chan<- error) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			errc <- fmt.Errorf("read: %w", err)
			return
		}
		var ack streaming.AckMessage
		if err := json.Unmarshal(msg, &ack); err != nil || ack.Type != "ack" {
			s.log.Debug("Ignoring display message", "raw", string(msg))
			continue
		}
		select {
		case s.acks <- ack:
		default:
			s.log.Debug("Ack buffer full, dropping", "for", ack.For)
		}
	}
}

// redial retries with doubling delays and replays the game header. It
// returns nil when stopped or out of attempts.
func (s *stream) redial() *ws.Conn {
	delay := 500 * time.Millisecond
	for attempt := 1; attempt <= redialTries; attempt++ {
		select {
		case <-s.quit:
			return nil
		case <-time.After(delay):
		}
		delay = min(delay*2, redialMaxGap)

		conn, err := s.dial()
		if err != nil {
			s.log.Warn("Display stream redial failed", "attempt", attempt, "error", err)
			continue
		}
		if h := s.header.Load(); h != nil {
			if err := write(conn, *h); err != nil {
				s.log.Warn("Failed to replay game header", "error", err)
				_ = conn.Close()
				continue
			}
		}
		s.log.Info("Display stream reconnected", "attempt", attempt)
		return conn
	}
	s.log.Error("Display stream gave up", "attempts", redialTries)
	return nil
}

// send queues a frame without blocking. Frames are dropped when the outbox
// is full.
func (s *stream) send(frame []byte) {
	select {
	case s.outbox <- frame:
	default:
		if s.dropped.Add(1) == 1 {
			s.log.Warn("Display stream outbox full, dropping frames")
		}
	}
}

// await queues a frame and waits for the matching ack.
func (s *stream) await(frame []byte, ackFor string, timeout time.Duration) error {
	select {
	case <-s.quit:
		return fmt.Errorf("send %s: %w", ackFor, errStreamClosed)
	default:
	}
	s.send(frame)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ack := <-s.acks:
			if ack.For == ackFor {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", ackFor)
		case <-s.quit:
			return fmt.Errorf("await %s: %w", ackFor, errStreamClosed)
		}
	}
}

// stop closes the socket and waits for the run loop.
func (s *stream) stop() {
	s.stopOnce.Do(func() { close(s.quit) })
	if s.finished != nil {
		<-s.finished
	}
}
