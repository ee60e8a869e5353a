package mqtt

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CoryCharlton/emilys-neopixel/internal/neopixel"
)

// queueDepth bounds the input events waiting for the sender goroutine.
const queueDepth = 64

// ErrQueueClosed is returned by a Queue after Close.
var ErrQueueClosed = errors.New("mqtt: queue closed")

type pendingState struct {
	t     time.Time
	state neopixel.State
}

// Queue hands input events and display states to a sender goroutine so the
// caller never waits on the broker. Input events are dropped when the queue is
// full. States are coalesced: only the newest one waiting is sent. System
// events are passed through synchronously; they are rare and their order
// relative to shutdown matters.
type Queue struct {
	next   Publisher
	logger *slog.Logger

	inputs  chan InputEvent
	dropped atomic.Uint32
	wake    chan struct{}

	mu     sync.Mutex
	state  *pendingState
	closed bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewQueue starts the sender goroutine in front of next.
func NewQueue(next Publisher, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		next:   next,
		logger: logger.With("component", "mqtt-queue"),
		inputs: make(chan InputEvent, queueDepth),
		wake:   make(chan struct{}, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(q.done)
		q.run(ctx)
	}()
	return q
}

// PublishInput enqueues event without blocking.
func (q *Queue) PublishInput(event InputEvent) error {
	if q.isClosed() {
		return ErrQueueClosed
	}
	select {
	case q.inputs <- event:
	default:
		if q.dropped.Add(1) == 1 {
			q.logger.Warn("input queue full, dropping events", "depth", queueDepth)
		}
	}
	return nil
}

// PublishState replaces any state still waiting to be sent.
func (q *Queue) PublishState(t time.Time, state neopixel.State) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.state = &pendingState{t: t, state: state}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// PublishSystem sends event on the caller's goroutine.
func (q *Queue) PublishSystem(event SystemEvent) error {
	return q.next.PublishSystem(event)
}

// Dropped returns how many input events were discarded because the queue was
// full.
func (q *Queue) Dropped() uint32 {
	return q.dropped.Load()
}

// Close stops the sender, sends whatever is still queued and closes next.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	<-q.done
	q.flush()
	return q.next.Close()
}

func (q *Queue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *Queue) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-q.inputs:
			q.sendInput(event)
		case <-q.wake:
			q.sendState()
		}
	}
}

func (q *Queue) flush() {
	for {
		select {
		case event := <-q.inputs:
			q.sendInput(event)
		default:
			q.sendState()
			return
		}
	}
}

func (q *Queue) sendInput(event InputEvent) {
	if err := q.next.PublishInput(event); err != nil {
		q.logger.Warn("publish input failed", "source", event.Source, "err", err)
	}
}

func (q *Queue) sendState() {
	q.mu.Lock()
	p := q.state
	q.state = nil
	q.mu.Unlock()

	if p == nil {
		return
	}
	if err := q.next.PublishState(p.t, p.state); err != nil {
		q.logger.Warn("publish state failed", "err", err)
	}
}
