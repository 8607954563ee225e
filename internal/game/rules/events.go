package rules

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType indicates the category of a narrative event.
type EventType string

const (
	EventPhaseChanged   EventType = "PHASE_CHANGED"
	EventGameStarted    EventType = "GAME_STARTED"
	EventGameEnded      EventType = "GAME_ENDED"
	EventActionApplied  EventType = "ACTION_APPLIED"
	EventActionRejected EventType = "ACTION_REJECTED"
	EventResponsePassed EventType = "RESPONSE_PASSED"
	EventStatement      EventType = "STATEMENT"
	EventVoteCast       EventType = "VOTE_CAST"
	EventVoteResolved   EventType = "VOTE_RESOLVED"
	EventDeath          EventType = "DEATH"
	EventSurvival       EventType = "SURVIVAL"
	EventRoleRevealed   EventType = "ROLE_REVEALED"
	EventInspection     EventType = "INSPECTION"
)

// Event is one entry of the append-only narrative sequence the engine emits.
// Visibility is the set of player ids allowed to see the event; an empty set
// means the event is public.
type Event struct {
	ID         string
	Type       EventType
	Round      int
	Phase      Phase
	Message    string
	PlayerID   string
	TargetID   string
	Visibility []string
	Timestamp  time.Time
}

// VisibleTo reports whether the event may be shown to the given player.
// Observers (empty player id) see only public events.
func (e Event) VisibleTo(playerID string) bool {
	if len(e.Visibility) == 0 {
		return true
	}
	for _, id := range e.Visibility {
		if id == playerID {
			return true
		}
	}
	return false
}

// Listener defines a callback that reacts to appended events.
type Listener func(Event)

// EventLog is the append-only narrative log with a synchronous subscriber
// bus. Appends assign event ids and timestamps when missing.
type EventLog struct {
	mu         sync.RWMutex
	events     []Event
	listeners  map[int]Listener
	nextHandle int
}

// NewEventLog constructs an empty event log.
func NewEventLog() *EventLog {
	return &EventLog{
		events:    make([]Event, 0, 64),
		listeners: make(map[int]Listener),
	}
}

// Append adds an event to the log and notifies subscribers.
func (l *EventLog) Append(event Event) Event {
	l.mu.Lock()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	l.events = append(l.events, event)
	listeners := make([]Listener, 0, len(l.listeners))
	for _, listener := range l.listeners {
		listeners = append(listeners, listener)
	}
	l.mu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
	return event
}

// Subscribe registers a listener for every appended event and returns a
// handle for Unsubscribe.
func (l *EventLog) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	handle := l.nextHandle
	l.nextHandle++
	l.listeners[handle] = listener
	return handle
}

// Unsubscribe removes the listener identified by the handle.
func (l *EventLog) Unsubscribe(handle int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.listeners, handle)
}

// All returns a copy of the full event sequence.
func (l *EventLog) All() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Visible returns the events the given player may see, preserving order.
func (l *EventLog) Visible(playerID string) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, 0, len(l.events))
	for _, event := range l.events {
		if event.VisibleTo(playerID) {
			out = append(out, event)
		}
	}
	return out
}

// Since returns events appended at or after the given index, for incremental
// consumers such as the websocket feed.
func (l *EventLog) Since(index int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 {
		index = 0
	}
	if index >= len(l.events) {
		return nil
	}
	out := make([]Event, len(l.events)-index)
	copy(out, l.events[index:])
	return out
}

// Len returns the number of appended events.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
