package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind says what happened to the fixed cost table.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
	// EventResync asks consumers to rebuild their copy from scratch.
	EventResync EventKind = "resync"
)

func (k EventKind) IsValid() bool {
	switch k {
	case EventCreated, EventUpdated, EventDeleted, EventResync:
		return true
	}
	return false
}

// FixedCostEvent is published after every committed change.
type FixedCostEvent struct {
	Kind       EventKind `json:"kind"`
	IDs        []int64   `json:"ids"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewFixedCostEvent(kind EventKind, ids ...int64) *FixedCostEvent {
	return &FixedCostEvent{
		Kind:       kind,
		IDs:        ids,
		OccurredAt: time.Now().UTC(),
	}
}

func (e *FixedCostEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FixedCostEventFromJSON decodes and checks an event body.
func FixedCostEventFromJSON(data []byte) (*FixedCostEvent, error) {
	var e FixedCostEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Kind.IsValid() {
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return &e, nil
}
