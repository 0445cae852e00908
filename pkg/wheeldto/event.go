package wheeldto

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventStatus           EventType = "status"
	EventGameFound        EventType = "game_found"
	EventGameEnded        EventType = "game_ended"
	EventInventoryUpdated EventType = "inventory_updated"
	EventSpinStarted      EventType = "spin_started"
	EventSpinResult       EventType = "spin_result"
	EventSpinCanceled     EventType = "spin_canceled"
)

// Event is the envelope pushed to every subscriber. Exactly one payload
// field is set, matching Type.
type Event struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Time      time.Time         `json:"time"`
	Status    *Status           `json:"status,omitempty"`
	Game      *GameFound        `json:"game,omitempty"`
	Ended     *GameEnded        `json:"ended,omitempty"`
	Inventory *InventoryUpdated `json:"inventory,omitempty"`
	Spin      *SpinEvent        `json:"spin,omitempty"`
}

func newEvent(t EventType) Event {
	return Event{ID: uuid.NewString(), Type: t, Time: time.Now().UTC()}
}

func StatusEvent(s Status) Event {
	ev := newEvent(EventStatus)
	ev.Status = &s
	return ev
}

func GameFoundEvent(g GameFound) Event {
	ev := newEvent(EventGameFound)
	ev.Game = &g
	return ev
}

func GameEndedEvent(g GameEnded) Event {
	ev := newEvent(EventGameEnded)
	ev.Ended = &g
	return ev
}

func InventoryEvent(inv InventoryUpdated) Event {
	ev := newEvent(EventInventoryUpdated)
	ev.Inventory = &inv
	return ev
}

func SpinEventOf(t EventType, s SpinEvent) Event {
	ev := newEvent(t)
	ev.Spin = &s
	return ev
}
