// Package events is the side channel through which finalized interactions
// leave the engine.
//
// Every successful non-transient update produces one Event. Collectors
// receive them synchronously after the update settled; a failing collector
// is logged and never affects the update.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// Event records one finalized interaction.
type Event struct {
	ID         uuid.UUID
	Target     nodeid.Key
	Component  string
	Previous   cty.Value
	New        cty.Value
	SourceKind string
	Time       time.Time
}

// New creates an event stamped with a time-ordered id.
func New(target nodeid.Key, component string, previous, current cty.Value, source string) Event {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return Event{
		ID:         id,
		Target:     target,
		Component:  component,
		Previous:   previous,
		New:        current,
		SourceKind: source,
		Time:       time.Now().UTC(),
	}
}

// Payload renders the event as plain data for transports.
func (e Event) Payload() map[string]any {
	prev, _ := value.ToGo(e.Previous)
	cur, _ := value.ToGo(e.New)
	return map[string]any{
		"id":            e.ID.String(),
		"target":        e.Target.String(),
		"component":     e.Component,
		"variable":      e.Target.Variable,
		"previousValue": prev,
		"newValue":      cur,
		"sourceKind":    e.SourceKind,
		"time":          e.Time.Format(time.RFC3339Nano),
	}
}
