package notifier

import "github.com/mcoot/rankparty/internal/model"

// Notifier delivers room events to connected clients.
// Implementations must not block and must not call back into the caller.
type Notifier interface {
	// Broadcast sends the event to every connection subscribed to event.RoomCode
	Broadcast(event model.Event)

	// Send delivers the event to a single connection
	Send(connID model.ConnID, event model.Event)
}

// Nop discards every event
type Nop struct{}

// Ensure Nop implements Notifier
var _ Notifier = Nop{}

func (Nop) Broadcast(model.Event) {}
func (Nop) Send(model.ConnID, model.Event) {}

// Fanout delivers every event to each of its notifiers in order
type Fanout []Notifier

// Ensure Fanout implements Notifier
var _ Notifier = Fanout{}

func (f Fanout) Broadcast(event model.Event) {
	for _, n := range f {
		n.Broadcast(event)
	}
}

func (f Fanout) Send(connID model.ConnID, event model.Event) {
	for _, n := range f {
		n.Send(connID, event)
	}
}
