package events

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// Collector consumes interaction events.
type Collector interface {
	Collect(ctx context.Context, e Event) error
}

// Discard drops every event.
type Discard struct{}

// Collect implements Collector.
func (Discard) Collect(context.Context, Event) error { return nil }

// Memory keeps every event in order. It is safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

// NewMemory creates an empty in-memory collector.
func NewMemory() *Memory {
	return &Memory{}
}

// Collect implements Collector.
func (m *Memory) Collect(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

// Events returns a copy of the collected events.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}

// Fanout delivers every event to each collector in turn. A failing
// collector does not stop delivery to the others.
type Fanout []Collector

// Collect implements Collector.
func (f Fanout) Collect(ctx context.Context, e Event) error {
	var errs []error
	for _, c := range f {
		if err := c.Collect(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
