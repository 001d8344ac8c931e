package notify

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is a notification addressed to a single party (rider or driver).
type Event struct {
	Recipient string
	Name      string
	Payload   any
}

// Sink delivers a serialized notification to a connected recipient.
// Delivery is best-effort: a recipient that is not connected is skipped.
type Sink interface {
	Deliver(recipient string, message []byte)
}

// envelope is the wire format written to recipients.
type envelope struct {
	Event     string    `json:"event"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Dispatcher fans out ride lifecycle events to connected parties.
//
// Dispatch never blocks the caller: events are queued on a bounded
// buffer and drained by a background goroutine. When the buffer is
// full the event is dropped and logged. Notifications carry no
// state of record, so losing one never corrupts a ride.
type Dispatcher struct {
	events chan Event
	sink   Sink
	logger *zap.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewDispatcher creates a dispatcher draining into sink and starts its
// delivery goroutine.
func NewDispatcher(sink Sink, bufferSize int, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		events: make(chan Event, bufferSize),
		sink:   sink,
		logger: logger,
		done:   make(chan struct{}),
	}
	go d.drain()
	return d
}

// Dispatch queues an event for delivery. It never blocks: when the
// buffer is full the event is dropped.
func (d *Dispatcher) Dispatch(event Event) {
	select {
	case d.events <- event:
	default:
		d.logger.Warn("notification dropped, buffer full",
			zap.String("event", event.Name),
			zap.String("recipient", event.Recipient))
	}
}

// Close stops the dispatcher after the queued events are delivered.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.events)
	})
	<-d.done
}

func (d *Dispatcher) drain() {
	defer close(d.done)

	for event := range d.events {
		message, err := json.Marshal(envelope{
			Event:     event.Name,
			Data:      event.Payload,
			Timestamp: time.Now().UTC(),
		})
		if err != nil {
			d.logger.Error("notification marshal failed",
				zap.String("event", event.Name), zap.Error(err))
			continue
		}
		d.sink.Deliver(event.Recipient, message)
	}
}
