package roost

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/benbjohnson/clock"
	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/internal/broker"
	"github.com/casualjim/roost/sending"
	"github.com/fogfish/opts"
	"github.com/nats-io/nats.go"
)

type transportOptions struct {
	managers   api.NamespaceManagers
	senders    api.SenderFactory
	publishers api.PublisherLookup
	operator   api.TopologyOperator
	converter  sending.Converter
	logger     *slog.Logger
	clock      clock.Clock
}

type Option = opts.Option[transportOptions]

// WithNamespaceManagers sets where entities are created. Without it the
// transport works against in-memory namespaces.
var WithNamespaceManagers = opts.ForName[transportOptions, api.NamespaceManagers]("managers")

// WithSenderFactory sets how senders are opened. Without it messages go to
// in-memory namespaces.
var WithSenderFactory = opts.ForName[transportOptions, api.SenderFactory]("senders")

// WithNATS sends every message on conn, using the entity path as subject.
// The connection stays owned by the caller.
func WithNATS(conn *nats.Conn) Option {
	return WithSenderFactory(broker.NATS(conn))
}

// WithWatermill sends every message through publisher, using the entity path
// as topic. The publisher stays owned by the caller.
func WithWatermill(publisher message.Publisher) Option {
	return WithSenderFactory(broker.Watermill(publisher))
}

// WithPublisherLookup tells the transport which endpoints publish an event type.
var WithPublisherLookup = opts.ForName[transportOptions, api.PublisherLookup]("publishers")

// WithOperator receives the entities to start and stop receiving from.
var WithOperator = opts.ForName[transportOptions, api.TopologyOperator]("operator")

var WithConverter = opts.ForName[transportOptions, sending.Converter]("converter")

var WithLogger = opts.ForName[transportOptions, *slog.Logger]("logger")

var WithClock = opts.ForName[transportOptions, clock.Clock]("clock")
