package cart

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"storefront.GO/core/logging"
	"storefront.GO/model/domain"
)

// EventType names a ledger notification.
type EventType string

const (
	ItemAdded     EventType = "ItemAdded"
	ItemUpdated   EventType = "ItemUpdated"
	ItemRemoved   EventType = "ItemRemoved"
	LedgerCleared EventType = "LedgerCleared"
	TotalsChanged EventType = "TotalsChanged"
)

// Event is emitted after a mutation has been applied. Line is set for item events and holds
// the removed line for ItemRemoved.
type Event struct {
	Type       EventType        `json:"type"`
	LedgerID   string           `json:"ledger_id,omitempty"`
	Line       *domain.CartLine `json:"line,omitempty"`
	TotalPrice float64          `json:"total_price"`
	ItemCount  int              `json:"item_count"`
	At         time.Time        `json:"at"`
}

// EventSink receives ledger events. Publish must not block.
type EventSink interface {
	Publish(e Event)
}

// Handler consumes events on the dispatcher goroutine.
type Handler func(e Event)

type nopSink struct{}

func (nopSink) Publish(Event) {}

// DefaultEventBuffer is the dispatcher queue length used when none is given.
const DefaultEventBuffer = 256

// Dispatcher fans events out to handlers on its own goroutine. Publish never blocks: when the
// queue is full the event is dropped and a warning is logged.
type Dispatcher struct {
	events   chan Event
	handlers []Handler
	logger   *zap.Logger

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	dropped atomic.Uint64
}

// NewDispatcher starts a dispatcher. Call Close to stop it.
func NewDispatcher(buffer int, logger *zap.Logger, handlers ...Handler) *Dispatcher {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	d := &Dispatcher{
		events:   make(chan Event, buffer),
		handlers: handlers,
		logger:   logging.OrNop(logger),
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for e := range d.events {
		for _, h := range d.handlers {
			d.deliver(h, e)
		}
	}
}

func (d *Dispatcher) deliver(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("cart event handler panicked", zap.String("event", string(e.Type)), zap.Any("panic", r))
		}
	}()
	h(e)
}

// Publish queues e for delivery. Events published after Close are dropped.
func (d *Dispatcher) Publish(e Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.events <- e:
	default:
		n := d.dropped.Add(1)
		d.logger.Warn("cart event dropped", zap.String("event", string(e.Type)), zap.String("ledgerId", e.LedgerID), zap.Uint64("dropped", n))
	}
}

// Dropped counts events lost to a full queue.
func (d *Dispatcher) Dropped() uint64 { return d.dropped.Load() }

// Close stops accepting events, delivers what is queued and waits for the goroutine to exit.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()
	<-d.done
}
