package api

import (
	"maps"
	"time"
)

// BrokeredMessage is the wire level message handed to a sender.
type BrokeredMessage struct {
	MessageID            string            `json:"messageId"`
	CorrelationID        string            `json:"correlationId,omitempty"`
	ReplyTo              string            `json:"replyTo,omitempty"`
	ContentType          string            `json:"contentType,omitempty"`
	Body                 []byte            `json:"body"`
	Properties           map[string]string `json:"properties,omitempty"`
	TimeToLive           time.Duration     `json:"timeToLive,omitempty"`
	ScheduledEnqueueTime time.Time         `json:"scheduledEnqueueTime,omitempty"`
}

// Size is the number of bytes the message takes on the wire: the body, the
// system properties and every user property key and value.
func (m *BrokeredMessage) Size() int {
	n := len(m.Body) + len(m.MessageID) + len(m.CorrelationID) + len(m.ReplyTo) + len(m.ContentType)
	for k, v := range m.Properties {
		n += len(k) + len(v)
	}
	return n
}

// Clone returns a deep copy of the message.
func (m *BrokeredMessage) Clone() *BrokeredMessage {
	c := *m
	c.Body = append([]byte(nil), m.Body...)
	c.Properties = maps.Clone(m.Properties)
	return &c
}
