package mocks

import (
	"sync"

	"github.com/mcoot/rankparty/internal/dependencies/notifier"
	"github.com/mcoot/rankparty/internal/model"
)

// SentEvent records a targeted delivery
type SentEvent struct {
	ConnID model.ConnID
	Event  model.Event
}

// RecordingNotifier captures every event for assertions
type RecordingNotifier struct {
	mu         sync.Mutex
	Broadcasts []model.Event
	Sent       []SentEvent
}

// Ensure RecordingNotifier implements Notifier
var _ notifier.Notifier = (*RecordingNotifier)(nil)

// NewRecordingNotifier creates an empty RecordingNotifier
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

// Broadcast records a room-wide event
func (n *RecordingNotifier) Broadcast(event model.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Broadcasts = append(n.Broadcasts, event)
}

// Send records a targeted event
func (n *RecordingNotifier) Send(connID model.ConnID, event model.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, SentEvent{ConnID: connID, Event: event})
}

// BroadcastsOfType returns the recorded broadcasts with the given type
func (n *RecordingNotifier) BroadcastsOfType(t model.EventType) []model.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []model.Event
	for _, e := range n.Broadcasts {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// SentTo returns the events delivered to one connection, optionally filtered by type
func (n *RecordingNotifier) SentTo(connID model.ConnID, types ...model.EventType) []model.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []model.Event
	for _, s := range n.Sent {
		if s.ConnID != connID {
			continue
		}
		if len(types) == 0 {
			out = append(out, s.Event)
			continue
		}
		for _, t := range types {
			if s.Event.Type == t {
				out = append(out, s.Event)
				break
			}
		}
	}
	return out
}

// Reset clears all recorded events
func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Broadcasts = nil
	n.Sent = nil
}
