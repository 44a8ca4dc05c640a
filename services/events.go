package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// Event names
const (
	EventOrderCreated           = "order.created"
	EventOrderUpdated           = "order.updated"
	EventOrderItemStatusChanged = "order.itemStatusChanged"
	EventOrderItemCancelled     = "order.itemCancelled"
	EventPaymentProcessed       = "payment.processed"
	EventTableReleased          = "table.released"
	EventTableUpdated           = "table.updated"
	EventShiftOpened            = "shift.opened"
	EventShiftClosed            = "shift.closed"
)

// Event is a domain event produced by a committed core operation.
type Event struct {
	Name          string      `json:"event"`
	AggregateType string      `json:"aggregate_type"`
	AggregateID   uint        `json:"aggregate_id"`
	Data          interface{} `json:"data"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

func newEvent(name, aggregateType string, aggregateID uint, data interface{}) Event {
	return Event{
		Name:          name,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Data:          data,
		OccurredAt:    time.Now(),
	}
}

func tableReleased(tableID uint) Event {
	return newEvent(EventTableReleased, "table", tableID, map[string]interface{}{"table_id": tableID})
}

// Notifier delivers events to one observer (websocket hub, outbox, broker).
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

type NotifierFunc func(ctx context.Context, event Event) error

func (f NotifierFunc) Notify(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Dispatcher fans committed events out to every notifier. Delivery runs on
// its own goroutine and failures are only logged.
type Dispatcher struct {
	notifiers []Notifier
	Timeout   time.Duration
	wg        sync.WaitGroup
}

func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		Timeout:   5 * time.Second,
	}
}

func (d *Dispatcher) Dispatch(events []Event) {
	if d == nil || len(events) == 0 || len(d.notifiers) == 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(events)
	}()
}

// Wait blocks until in-flight dispatches finish.
func (d *Dispatcher) Wait() {
	if d != nil {
		d.wg.Wait()
	}
}

func (d *Dispatcher) deliver(events []Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
	defer cancel()

	for _, event := range events {
		for _, n := range d.notifiers {
			if err := n.Notify(ctx, event); err != nil {
				utils.ErrorLogger.WithFields(logrus.Fields{
					"event":        event.Name,
					"aggregate_id": event.AggregateID,
				}).Errorf("failed to deliver event: %v", err)
			}
		}
	}
}
