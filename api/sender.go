package api

import (
	"context"

	"github.com/casualjim/roost/meta"
)

// MessageSender sends messages to one entity in one namespace.
//
// A message handed to Send or SendBatch must not be reused afterwards, a
// retry needs a new message.
type MessageSender interface {
	// Send delivers one message. A throttled broker answers with KindServerBusy.
	Send(ctx context.Context, msg *BrokeredMessage) error
	// SendBatch delivers all messages or none of them.
	SendBatch(ctx context.Context, msgs []*BrokeredMessage) error
	// Close releases the connection held by the sender.
	Close() error
	// IsClosed reports whether the sender was closed, by Close or by the broker.
	IsClosed() bool
}

// SenderFactory opens senders.
type SenderFactory interface {
	Create(ctx context.Context, path string, namespace meta.NamespaceInfo) (MessageSender, error)
}

// SenderFactoryFunc adapts a function to SenderFactory.
type SenderFactoryFunc func(ctx context.Context, path string, namespace meta.NamespaceInfo) (MessageSender, error)

func (f SenderFactoryFunc) Create(ctx context.Context, path string, namespace meta.NamespaceInfo) (MessageSender, error) {
	return f(ctx, path, namespace)
}

// SenderLifecycle returns a live sender for a destination, reusing open ones.
type SenderLifecycle interface {
	Get(ctx context.Context, path string, namespace meta.NamespaceInfo) (MessageSender, error)
}
