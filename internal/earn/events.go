package earn

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/mrz1836/sigil-earn/internal/metrics"
)

const (
	// DefaultEventBuffer is the per-flow event queue size.
	DefaultEventBuffer = 32

	// DefaultEventDrain bounds how long a finished flow waits for its
	// observer to take the queued events.
	DefaultEventDrain = 250 * time.Millisecond
)

// WithEvents adapts ch as an Observer. Sends never block; an event is
// dropped when ch is full.
func WithEvents(ch chan<- Event) Option {
	return WithObserver(func(ev Event) {
		select {
		case ch <- ev:
		default:
		}
	})
}

// dispatcher delivers events to one observer in order on its own goroutine.
// Neither emit nor close blocks on the observer; events it never receives
// are counted and dropped.
type dispatcher struct {
	queue   chan Event
	done    chan struct{}
	drain   time.Duration
	metrics *metrics.Metrics
	base    Event

	abandoned atomic.Bool
	closeOnce sync.Once
}

func newDispatcher(observer Observer, size int, drain time.Duration, m *metrics.Metrics, base Event) *dispatcher {
	d := &dispatcher{metrics: m, base: base, drain: drain}
	if observer == nil {
		return d
	}
	if size <= 0 {
		size = DefaultEventBuffer
	}
	if d.drain <= 0 {
		d.drain = DefaultEventDrain
	}
	d.queue = make(chan Event, size)
	d.done = make(chan struct{})
	go func() {
		defer close(d.done)
		for ev := range d.queue {
			if d.abandoned.Load() {
				d.metrics.RecordDroppedEvent()
				continue
			}
			observer(ev)
		}
	}()
	return d
}

func (d *dispatcher) emit(ev Event) {
	if d.queue == nil {
		return
	}
	ev.OperationID = d.base.OperationID
	ev.Intent = d.base.Intent
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	select {
	case d.queue <- ev:
	default:
		d.metrics.RecordDroppedEvent()
	}
}

// close stops accepting events and waits at most the drain timeout for
// queued ones to be delivered. Whatever is still queued after that is
// dropped.
func (d *dispatcher) close() {
	if d.queue == nil {
		return
	}
	d.closeOnce.Do(func() {
		close(d.queue)

		timer := time.NewTimer(d.drain)
		defer timer.Stop()
		select {
		case <-d.done:
		case <-timer.C:
			d.abandoned.Store(true)
		}
	})
}
