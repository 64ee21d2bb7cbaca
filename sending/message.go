package sending

import (
	"fmt"
	"time"

	"github.com/casualjim/roost/meta"
)

// OutgoingMessage is a message as the host hands it over: an id, string
// headers and an opaque body.
type OutgoingMessage struct {
	MessageID string
	Headers   map[string]string
	Body      []byte
}

// Routing selects where a message goes.
type Routing interface {
	fmt.Stringer
	routing()
}

// ToQueue sends the message to the input queue of an endpoint.
type ToQueue struct {
	Destination string
}

func (ToQueue) routing()         {}
func (r ToQueue) String() string { return "queue " + r.Destination }

// ToSubscribers publishes the message on the topic of this endpoint.
type ToSubscribers struct {
	EventType meta.EventType
}

func (ToSubscribers) routing()         {}
func (r ToSubscribers) String() string { return "subscribers of " + r.EventType.FullName() }

// DispatchOptions carry the routing and delivery constraints of a dispatch.
type DispatchOptions struct {
	Routing Routing
	// TimeToBeReceived discards the message when it is not received in time.
	TimeToBeReceived time.Duration
	// DoNotDeliverBefore schedules the message.
	DoNotDeliverBefore time.Time
}

// SendTo routes to the queue of destination.
func SendTo(destination string) DispatchOptions {
	return DispatchOptions{Routing: ToQueue{Destination: destination}}
}

// PublishOf routes to the subscribers of eventType.
func PublishOf(eventType meta.EventType) DispatchOptions {
	return DispatchOptions{Routing: ToSubscribers{EventType: eventType}}
}
