// Package notify delivers best-effort push events to live client
// connections. There is no queueing, no retry and no offline delivery: if
// the target has no session the event is dropped.
package notify

// Event names pushed over the channel.
const (
	EventRideAssigned = "ride:assigned"
	EventRideOffer    = "ride:offer"
)

// Envelope is the wire shape of every pushed event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Channel pushes a typed event to the connection belonging to targetID, if
// one exists. Implementations must not block on slow receivers beyond a
// short write deadline, and delivery failure is not an error the caller
// should act on.
type Channel interface {
	Publish(targetID, event string, payload any) error
}
