package sending

import (
	"maps"

	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/meta"
)

// Converter turns an outgoing message into a broker message. Every call
// returns a new message, a broker message can only be sent once.
type Converter interface {
	Convert(msg OutgoingMessage, opts DispatchOptions) *api.BrokeredMessage
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(msg OutgoingMessage, opts DispatchOptions) *api.BrokeredMessage

func (f ConverterFunc) Convert(msg OutgoingMessage, opts DispatchOptions) *api.BrokeredMessage {
	return f(msg, opts)
}

// DefaultConverter keeps every header as a broker property and lifts the
// well-known ones into the system properties. Published messages without
// an enclosed message types header get one naming the event type.
type DefaultConverter struct{}

func (DefaultConverter) Convert(msg OutgoingMessage, opts DispatchOptions) *api.BrokeredMessage {
	properties := maps.Clone(msg.Headers)
	if properties == nil {
		properties = make(map[string]string)
	}
	if publish, ok := opts.Routing.(ToSubscribers); ok {
		if _, ok := properties[meta.HeaderEnclosedMessageTypes]; !ok {
			properties[meta.HeaderEnclosedMessageTypes] = publish.EventType.FullName()
		}
	}

	return &api.BrokeredMessage{
		MessageID:            msg.MessageID,
		CorrelationID:        properties[meta.HeaderCorrelationID],
		ReplyTo:              properties[meta.HeaderReplyTo],
		ContentType:          properties[meta.HeaderContentType],
		Body:                 append([]byte(nil), msg.Body...),
		Properties:           properties,
		TimeToLive:           opts.TimeToBeReceived,
		ScheduledEnqueueTime: opts.DoNotDeliverBefore,
	}
}
