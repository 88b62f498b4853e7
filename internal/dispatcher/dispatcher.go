// Package dispatcher routes parsed operator commands to handlers.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/wopr-sim/wopr/internal/dispatcher"

var (
	// ErrUnknownCommand is returned for a command with no handler.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrQueueFull is returned when a non-blocking buffered handler is saturated.
	ErrQueueFull = errors.New("queue full")
	// ErrClosed is returned by Dispatch after Close.
	ErrClosed = errors.New("dispatcher closed")
)

// Queued is the result of a command handed to a buffered handler.
const Queued = "queued"

// Event is a single operator command, e.g. {":LAUNCH:", ["ICBM", "0"]}.
type Event struct {
	Command   string
	Args      []string
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*routeOpts)

type routeOpts struct {
	queueSize int
	blocking  bool
	logged    bool
}

// Buffered runs the handler on its own goroutine behind a queue of size n.
func Buffered(n int) Option {
	return func(o *routeOpts) { o.queueSize = n }
}

// Blocking makes a buffered handler wait for room instead of failing.
func Blocking() Option {
	return func(o *routeOpts) { o.blocking = true }
}

// Logged logs each call and its duration.
func Logged() Option {
	return func(o *routeOpts) { o.logged = true }
}

type route struct {
	handle HandlerFunc
	queue  chan Event // nil for synchronous routes
}

type instruments struct {
	queueDepth metric.Int64ObservableGauge
	processed  metric.Int64Counter
	rejected   metric.Int64Counter
	dropped    metric.Int64Counter
	duration   metric.Float64Histogram
}

// Dispatcher routes commands to registered handlers.
type Dispatcher struct {
	mu     sync.RWMutex
	routes map[string]*route
	closed bool

	workers sync.WaitGroup
	logger  Logger
	inst    instruments
}

// New creates a Dispatcher. Metrics go to the global OTel meter provider.
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		routes: make(map[string]*route),
		logger: logger,
	}
	if err := d.instrument(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dispatcher) instrument() error {
	m := otel.Meter(instrumentationName)
	var err error

	if d.inst.queueDepth, err = m.Int64ObservableGauge(
		"wopr.dispatcher.queue.size",
		metric.WithDescription("Commands waiting in a buffered handler"),
	); err != nil {
		return fmt.Errorf("creating queue size gauge: %w", err)
	}
	if _, err = m.RegisterCallback(d.observeQueues, d.inst.queueDepth); err != nil {
		return fmt.Errorf("registering queue callback: %w", err)
	}
	if d.inst.processed, err = m.Int64Counter(
		"wopr.commands.processed",
		metric.WithDescription("Commands that completed without error"),
	); err != nil {
		return fmt.Errorf("creating processed counter: %w", err)
	}
	if d.inst.rejected, err = m.Int64Counter(
		"wopr.commands.rejected",
		metric.WithDescription("Commands refused by a handler"),
	); err != nil {
		return fmt.Errorf("creating rejected counter: %w", err)
	}
	if d.inst.dropped, err = m.Int64Counter(
		"wopr.commands.dropped",
		metric.WithDescription("Commands dropped due to a full queue"),
	); err != nil {
		return fmt.Errorf("creating dropped counter: %w", err)
	}
	if d.inst.duration, err = m.Float64Histogram(
		"wopr.commands.duration",
		metric.WithDescription("Time spent in synchronous handlers"),
		metric.WithUnit("ms"),
	); err != nil {
		return fmt.Errorf("creating duration histogram: %w", err)
	}
	return nil
}

func (d *Dispatcher) observeQueues(_ context.Context, o metric.Observer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for cmd, r := range d.routes {
		if r.queue != nil {
			o.ObserveInt64(d.inst.queueDepth, int64(len(r.queue)),
				metric.WithAttributes(attribute.String("command", cmd)))
		}
	}
	return nil
}

// Register adds or replaces the handler for command. A replaced buffered
// handler finishes its queue first.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	var o routeOpts
	for _, opt := range opts {
		opt(&o)
	}

	if o.logged {
		h = d.logged(command, h)
	}
	r := &route{handle: h}
	if o.queueSize > 0 {
		r.queue = make(chan Event, o.queueSize)
		d.workers.Add(1)
		go d.work(command, r.queue, h)
		r.handle = d.enqueue(command, r.queue, o.blocking)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if old := d.routes[command]; old != nil && old.queue != nil {
		close(old.queue)
	}
	d.routes[command] = r
}

// Dispatch routes an event to its handler and stamps it if needed.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	d.mu.RLock()
	r, ok := d.routes[e.Command]
	closed := d.closed
	d.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, e.Command)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	start := time.Now()
	result, err := r.handle(e)

	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("command", e.Command))
	d.inst.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	if err != nil {
		d.inst.rejected.Add(ctx, 1, attrs)
	} else {
		d.inst.processed.Add(ctx, 1, attrs)
	}
	return result, err
}

// HasHandler reports whether command is registered.
func (d *Dispatcher) HasHandler(command string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.routes[command]
	return ok
}

// Commands returns the registered command names.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.routes))
	for cmd := range d.routes {
		out = append(out, cmd)
	}
	return out
}

// Close stops accepting commands and waits for buffered handlers to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, r := range d.routes {
		if r.queue != nil {
			close(r.queue)
		}
	}
	d.mu.Unlock()
	d.workers.Wait()
}

func (d *Dispatcher) work(command string, q <-chan Event, h HandlerFunc) {
	defer d.workers.Done()
	for e := range q {
		if _, err := h(e); err != nil {
			d.logger.Error("buffered command failed", "command", command, "error", err)
		}
	}
}

func (d *Dispatcher) enqueue(command string, q chan Event, blocking bool) HandlerFunc {
	cmdAttr := metric.WithAttributes(attribute.String("command", command))
	// The read lock keeps Close and Register from closing q mid-send.
	return func(e Event) (any, error) {
		d.mu.RLock()
		defer d.mu.RUnlock()
		if r := d.routes[command]; d.closed || r == nil || r.queue != q {
			return nil, ErrClosed
		}
		if blocking {
			q <- e
			return Queued, nil
		}
		select {
		case q <- e:
			return Queued, nil
		default:
			d.inst.dropped.Add(context.Background(), 1, cmdAttr)
			return nil, fmt.Errorf("%w: %s", ErrQueueFull, command)
		}
	}
}

func (d *Dispatcher) logged(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling command", "command", command, "args", e.Args)

		result, err := h(e)
		if err != nil {
			d.logger.Error("command failed", "command", command, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("command complete", "command", command, "duration", time.Since(start))
		}
		return result, err
	}
}
