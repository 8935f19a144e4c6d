package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrBusClosed = errors.New("event bus is closed")

type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() any
}

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

func newBaseEvent(eventType string, data map[string]any) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EventID() string       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) Payload() any          { return e.Data }

type Handler func(ctx context.Context, event Event) error

// EventBus is an in-process fan-out of events to subscribed handlers.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	closed   bool
	inflight sync.WaitGroup
	logger   *slog.Logger
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debug("event handler registered",
		"event_type", eventType,
		"total_handlers", len(eb.handlers[eventType]))
}

// subscribers snapshots the handlers of eventType and, for async dispatch,
// registers them as in flight while the lock is held so Close cannot race.
func (eb *EventBus) subscribers(eventType string, async bool) ([]Handler, error) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return nil, ErrBusClosed
	}
	handlers := eb.handlers[eventType]
	if async {
		eb.inflight.Add(len(handlers))
	}
	return handlers, nil
}

// Publish dispatches event to every subscriber on its own goroutine and
// returns immediately. Handler failures are logged, never returned.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	handlers, err := eb.subscribers(event.EventType(), true)
	if err != nil {
		return err
	}
	if len(handlers) == 0 {
		eb.logger.Debug("no handlers for event type", "event_type", event.EventType())
		return nil
	}

	// handlers outlive the request that published the event
	ctx = context.WithoutCancel(ctx)
	for _, h := range handlers {
		h := h
		go func() {
			defer eb.inflight.Done()
			if err := eb.invoke(ctx, h, event); err != nil {
				eb.logger.Error("event handler failed",
					"event_type", event.EventType(),
					"event_id", event.EventID(),
					"error", err)
			}
		}()
	}
	return nil
}

// PublishSync runs the subscribers in registration order and stops at the
// first failure.
func (eb *EventBus) PublishSync(ctx context.Context, event Event) error {
	handlers, err := eb.subscribers(event.EventType(), false)
	if err != nil {
		return err
	}

	for _, h := range handlers {
		if err := eb.invoke(ctx, h, event); err != nil {
			return fmt.Errorf("handler failed for event %s: %w", event.EventType(), err)
		}
	}
	return nil
}

func (eb *EventBus) invoke(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panicked: %v", rec)
		}
	}()
	return h(ctx, event)
}

// Wait blocks until every asynchronously dispatched handler has returned.
func (eb *EventBus) Wait() {
	eb.inflight.Wait()
}

// Close rejects further publishing and drains handlers already in flight.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	eb.closed = true
	eb.mu.Unlock()
	eb.inflight.Wait()
}
