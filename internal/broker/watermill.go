package broker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/pkg/slogx"
)

// Metadata keys carrying the system properties of a message through watermill.
const (
	metaKeyCorrelationID = "roost_correlation_id"
	metaKeyReplyTo       = "roost_reply_to"
	metaKeyContentType   = "roost_content_type"
	metaKeyTimeToLive    = "roost_time_to_live"
	metaKeyScheduledTime = "roost_scheduled_enqueue_time"
)

// WatermillSenders publishes messages through a watermill publisher, using
// the entity path as topic.
type WatermillSenders struct {
	publisher message.Publisher
	logger    *slog.Logger
}

func Watermill(publisher message.Publisher) *WatermillSenders {
	return &WatermillSenders{
		publisher: publisher,
		logger:    slog.Default().With(slogx.LoggerName("broker.watermill")),
	}
}

func (b *WatermillSenders) Create(_ context.Context, path string, _ meta.NamespaceInfo) (api.MessageSender, error) {
	return &watermillSender{publisher: b.publisher, topic: path, logger: b.logger}, nil
}

type watermillSender struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
	closed    atomic.Bool
}

func (s *watermillSender) Send(ctx context.Context, msg *api.BrokeredMessage) error {
	return s.SendBatch(ctx, []*api.BrokeredMessage{msg})
}

func (s *watermillSender) SendBatch(ctx context.Context, msgs []*api.BrokeredMessage) error {
	if s.IsClosed() {
		return api.NewBrokerError("send", s.topic, api.KindCommunication, nil)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	wmMsgs := make([]*message.Message, 0, len(msgs))
	for _, msg := range msgs {
		wmMsg := ToWatermill(msg)
		wmMsg.SetContext(ctx)
		wmMsgs = append(wmMsgs, wmMsg)
	}
	if err := s.publisher.Publish(s.topic, wmMsgs...); err != nil {
		return api.NewBrokerError("send", s.topic, api.KindCommunication, err)
	}
	s.logger.Debug("published messages", slog.String("topic", s.topic), slog.Int("count", len(msgs)))
	return nil
}

// Close marks the sender closed. The publisher is shared and stays open.
func (s *watermillSender) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *watermillSender) IsClosed() bool { return s.closed.Load() }

// ToWatermill converts a message into a watermill message. Messages without
// an id get a fresh one.
func ToWatermill(msg *api.BrokeredMessage) *message.Message {
	id := msg.MessageID
	if id == "" {
		id = watermill.NewUUID()
	}
	wmMsg := message.NewMessage(id, msg.Body)
	for k, v := range msg.Properties {
		wmMsg.Metadata.Set(k, v)
	}
	if msg.CorrelationID != "" {
		wmMsg.Metadata.Set(metaKeyCorrelationID, msg.CorrelationID)
	}
	if msg.ReplyTo != "" {
		wmMsg.Metadata.Set(metaKeyReplyTo, msg.ReplyTo)
	}
	if msg.ContentType != "" {
		wmMsg.Metadata.Set(metaKeyContentType, msg.ContentType)
	}
	if msg.TimeToLive > 0 {
		wmMsg.Metadata.Set(metaKeyTimeToLive, msg.TimeToLive.String())
	}
	if !msg.ScheduledEnqueueTime.IsZero() {
		wmMsg.Metadata.Set(metaKeyScheduledTime, msg.ScheduledEnqueueTime.UTC().Format(time.RFC3339Nano))
	}
	return wmMsg
}

// FromWatermill is the inverse of ToWatermill.
func FromWatermill(wmMsg *message.Message) *api.BrokeredMessage {
	msg := &api.BrokeredMessage{
		MessageID:  wmMsg.UUID,
		Body:       wmMsg.Payload,
		Properties: make(map[string]string, len(wmMsg.Metadata)),
	}
	for k, v := range wmMsg.Metadata {
		switch k {
		case metaKeyCorrelationID:
			msg.CorrelationID = v
		case metaKeyReplyTo:
			msg.ReplyTo = v
		case metaKeyContentType:
			msg.ContentType = v
		case metaKeyTimeToLive:
			msg.TimeToLive, _ = time.ParseDuration(v)
		case metaKeyScheduledTime:
			msg.ScheduledEnqueueTime, _ = time.Parse(time.RFC3339Nano, v)
		default:
			msg.Properties[k] = v
		}
	}
	return msg
}
