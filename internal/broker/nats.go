package broker

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/pkg/slogx"
	"github.com/nats-io/nats.go"
)

// Headers carrying the system properties of a message over NATS.
const (
	natsHeaderCorrelationID = "Roost-Correlation-Id"
	natsHeaderReplyTo       = "Roost-Reply-To"
	natsHeaderContentType   = "Content-Type"
	natsHeaderTimeToLive    = "Roost-Time-To-Live"
	natsHeaderScheduledTime = "Roost-Scheduled-Enqueue-Time"
)

// NATSSenders publishes messages on a NATS connection. The entity path is
// used as subject, the message properties travel as headers.
type NATSSenders struct {
	client *nats.Conn
	logger *slog.Logger
}

func NATS(client *nats.Conn) *NATSSenders {
	return &NATSSenders{
		client: client,
		logger: slog.Default().With(slogx.LoggerName("broker.nats")),
	}
}

func (b *NATSSenders) Create(_ context.Context, path string, _ meta.NamespaceInfo) (api.MessageSender, error) {
	if b.client.IsClosed() {
		return nil, api.NewBrokerError("create sender", path, api.KindCommunication, nats.ErrConnectionClosed)
	}
	return &natsSender{client: b.client, subject: path, logger: b.logger}, nil
}

type natsSender struct {
	client  *nats.Conn
	subject string
	logger  *slog.Logger
	closed  atomic.Bool
}

func (s *natsSender) Send(ctx context.Context, msg *api.BrokeredMessage) error {
	return s.SendBatch(ctx, []*api.BrokeredMessage{msg})
}

// SendBatch publishes every message and flushes the connection. NATS has no
// batches, a failed flush may leave part of the batch delivered.
func (s *natsSender) SendBatch(ctx context.Context, msgs []*api.BrokeredMessage) error {
	if s.IsClosed() {
		return api.NewBrokerError("send", s.subject, api.KindCommunication, nats.ErrConnectionClosed)
	}
	for _, msg := range msgs {
		if err := s.client.PublishMsg(ToNATS(s.subject, msg)); err != nil {
			return classifyNATS("send", s.subject, err)
		}
	}
	if err := s.client.FlushWithContext(ctx); err != nil {
		return classifyNATS("flush", s.subject, err)
	}
	s.logger.Debug("published messages", slog.String("subject", s.subject), slog.Int("count", len(msgs)))
	return nil
}

// Close marks the sender closed. The connection is shared and stays open.
func (s *natsSender) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *natsSender) IsClosed() bool {
	return s.closed.Load() || s.client.IsClosed()
}

// ToNATS converts a message into a NATS message for subject.
func ToNATS(subject string, msg *api.BrokeredMessage) *nats.Msg {
	m := nats.NewMsg(subject)
	m.Data = msg.Body
	for k, v := range msg.Properties {
		m.Header.Set(k, v)
	}
	m.Header.Set(nats.MsgIdHdr, msg.MessageID)
	setIfNotEmpty(m.Header, natsHeaderCorrelationID, msg.CorrelationID)
	setIfNotEmpty(m.Header, natsHeaderReplyTo, msg.ReplyTo)
	setIfNotEmpty(m.Header, natsHeaderContentType, msg.ContentType)
	if msg.TimeToLive > 0 {
		m.Header.Set(natsHeaderTimeToLive, msg.TimeToLive.String())
	}
	if !msg.ScheduledEnqueueTime.IsZero() {
		m.Header.Set(natsHeaderScheduledTime, msg.ScheduledEnqueueTime.UTC().Format(time.RFC3339Nano))
	}
	return m
}

// FromNATS is the inverse of ToNATS.
func FromNATS(m *nats.Msg) *api.BrokeredMessage {
	msg := &api.BrokeredMessage{
		Body:       m.Data,
		Properties: make(map[string]string, len(m.Header)),
	}
	for k := range m.Header {
		v := m.Header.Get(k)
		switch k {
		case nats.MsgIdHdr:
			msg.MessageID = v
		case natsHeaderCorrelationID:
			msg.CorrelationID = v
		case natsHeaderReplyTo:
			msg.ReplyTo = v
		case natsHeaderContentType:
			msg.ContentType = v
		case natsHeaderTimeToLive:
			msg.TimeToLive, _ = time.ParseDuration(v)
		case natsHeaderScheduledTime:
			msg.ScheduledEnqueueTime, _ = time.Parse(time.RFC3339Nano, v)
		default:
			msg.Properties[k] = v
		}
	}
	return msg
}

func setIfNotEmpty(h nats.Header, key, value string) {
	if value != "" {
		h.Set(key, value)
	}
}

func classifyNATS(op, subject string, err error) error {
	kind := api.KindUnknown
	switch {
	case errors.Is(err, nats.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		kind = api.KindTimeout
	case errors.Is(err, nats.ErrSlowConsumer), errors.Is(err, nats.ErrReconnectBufExceeded):
		kind = api.KindServerBusy
	case errors.Is(err, nats.ErrMaxPayload), errors.Is(err, nats.ErrBadSubject):
		kind = api.KindInvalidArgument
	case errors.Is(err, nats.ErrNoResponders):
		kind = api.KindNotFound
	case errors.Is(err, nats.ErrConnectionClosed), errors.Is(err, nats.ErrConnectionDraining),
		strings.Contains(err.Error(), "connection"):
		kind = api.KindCommunication
	}
	return api.NewBrokerError(op, subject, kind, err)
}
