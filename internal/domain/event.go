package domain

import (
	"fmt"
	"time"
)

// EventKind identifies the trigger variant of an Event.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventPeriodic
	EventCalendar
	EventOneOff
	EventImmediate
	EventStartup
	EventControllerLost
	EventControllerConnected
)

var eventKindNames = map[EventKind]string{
	EventPeriodic:            "periodic",
	EventCalendar:            "calendar",
	EventOneOff:              "one-off",
	EventImmediate:           "immediate",
	EventStartup:             "startup",
	EventControllerLost:      "controller-lost",
	EventControllerConnected: "controller-connected",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseEventKind maps the wire name of an event variant to its kind.
func ParseEventKind(s string) (EventKind, error) {
	for k, name := range eventKindNames {
		if name == s {
			return k, nil
		}
	}
	return EventUnknown, fmt.Errorf("unknown event type %q: %w", s, ErrInvalidConfig)
}

// AutoDisables reports whether a fire of this kind disables the schedules
// it fired for.
func (k EventKind) AutoDisables() bool {
	return k == EventOneOff || k == EventImmediate || k == EventStartup
}

// Event is a named trigger referenced by Schedules and Suppressions.
// The per-variant payload is interpreted according to Kind: Interval for
// periodic events, Calendar for calendar events, Start for one-off events.
type Event struct {
	Name          string
	Kind          EventKind
	Interval      uint32 // seconds, periodic only
	Start         time.Time
	End           time.Time
	RandomSpread  uint32
	HasSpread     bool
	CycleInterval uint32
	Calendar      *Calendar
}

// Validate checks the per-variant invariants of the event.
func (e *Event) Validate() error {
	if e.Name == "" {
		return NewConfigError("event", "", "name is required")
	}
	switch e.Kind {
	case EventPeriodic:
		if e.Interval < 1 {
			return NewConfigError("event", e.Name, "periodic event requires interval >= 1")
		}
	case EventCalendar:
		if e.Calendar == nil {
			return NewConfigError("event", e.Name, "calendar event requires calendar fields")
		}
		if err := e.Calendar.Validate(); err != nil {
			return &ConfigError{Entity: "event", Name: e.Name, Err: err}
		}
	case EventOneOff:
		if e.Start.IsZero() {
			return NewConfigError("event", e.Name, "one-off event requires start")
		}
	case EventImmediate, EventStartup, EventControllerLost, EventControllerConnected:
	default:
		return NewConfigError("event", e.Name, "missing event type")
	}
	if !e.Start.IsZero() && !e.End.IsZero() && e.End.Before(e.Start) {
		return NewConfigError("event", e.Name, "end precedes start")
	}
	return nil
}
