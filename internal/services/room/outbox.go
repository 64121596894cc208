package room

import (
	"time"

	"github.com/mcoot/rankparty/internal/dependencies/notifier"
	"github.com/mcoot/rankparty/internal/model"
)

type delivery struct {
	connID    model.ConnID
	broadcast bool
	event     model.Event
}

// outbox collects the notifications produced by one room mutation. They are
// delivered only once the mutation has been stored, and before the room lock is released.
type outbox struct {
	code       model.RoomCode
	now        time.Time
	deliveries []delivery
}

func newOutbox(code model.RoomCode, now time.Time) *outbox {
	return &outbox{code: code, now: now}
}

func (o *outbox) event(t model.EventType, payload any) model.Event {
	return model.Event{
		Type:      t,
		Timestamp: o.now,
		RoomCode:  o.code,
		Payload:   payload,
	}
}

func (o *outbox) broadcast(t model.EventType, payload any) {
	o.deliveries = append(o.deliveries, delivery{broadcast: true, event: o.event(t, payload)})
}

func (o *outbox) send(connID model.ConnID, t model.EventType, payload any) {
	if connID == "" {
		return
	}
	o.deliveries = append(o.deliveries, delivery{connID: connID, event: o.event(t, payload)})
}

func (o *outbox) sendToPlayer(room *model.Room, name string, t model.EventType, payload any) {
	if p := room.GetPlayer(name); p != nil {
		o.send(p.ID, t, payload)
	}
}

func (o *outbox) sendToSpectators(room *model.Room, t model.EventType, payload any) {
	for _, p := range room.GetSpectators() {
		o.send(p.ID, t, payload)
	}
}

// broadcastState sends every connection a snapshot of the room as it is now
func (o *outbox) broadcastState(room *model.Room) {
	o.broadcast(model.EventRoomState, model.RoomStatePayload{Room: room.Clone()})
}

func (o *outbox) sendState(connID model.ConnID, room *model.Room) {
	o.send(connID, model.EventRoomState, model.RoomStatePayload{Room: room.Clone()})
}

func (o *outbox) broadcastPlayers(room *model.Room) {
	players := append([]model.Player(nil), room.Players...)
	o.broadcast(model.EventPlayerList, model.PlayerListPayload{Players: players})
}

func (o *outbox) flush(n notifier.Notifier) {
	for _, d := range o.deliveries {
		if d.broadcast {
			n.Broadcast(d.event)
		} else {
			n.Send(d.connID, d.event)
		}
	}
	o.deliveries = nil
}
