package sending

import (
	"context"
	"log/slog"

	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/internal/registry"
	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/pkg/slogx"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"
)

var _ api.SenderLifecycle = (*LifecycleManager)(nil)

// LifecycleManager keeps one live sender per destination path and namespace.
// Closed senders are replaced on the next Get.
type LifecycleManager struct {
	factory api.SenderFactory
	senders registry.Registry[api.MessageSender]
	opening singleflight.Group
	logger  *slog.Logger
}

func NewLifecycleManager(factory api.SenderFactory, logger *slog.Logger) *LifecycleManager {
	if logger == nil {
		logger = slog.Default().With(slogx.LoggerName("sending.lifecycle"))
	}
	return &LifecycleManager{
		factory: factory,
		senders: registry.New[api.MessageSender](),
		logger:  logger,
	}
}

func senderKey(path string, namespace meta.NamespaceInfo) string {
	return path + "@" + namespace.Key()
}

// Get returns the live sender for path in namespace, opening one when there
// is none. Concurrent callers share one factory call, which outlives the
// cancellation of the caller that started it.
func (m *LifecycleManager) Get(ctx context.Context, path string, namespace meta.NamespaceInfo) (api.MessageSender, error) {
	key := senderKey(path, namespace)
	if sender, ok := m.senders.Get(key); ok && !sender.IsClosed() {
		return sender, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := m.opening.DoChan(key, func() (any, error) {
		if sender, ok := m.senders.Get(key); ok && !sender.IsClosed() {
			return sender, nil
		}
		sender, err := m.factory.Create(shared, path, namespace)
		if err != nil {
			return nil, err
		}
		m.senders.Add(key, sender)
		m.logger.DebugContext(shared, "opened sender", slog.String("path", path), slogx.Namespace(namespace.ConnectionString))
		return sender, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(api.MessageSender), nil
	}
}

// Close closes every sender and forgets them.
func (m *LifecycleManager) Close() error {
	var keys []string
	m.senders.Each(func(key string, _ api.MessageSender) bool {
		keys = append(keys, key)
		return true
	})

	var errs error
	for _, key := range keys {
		if sender, ok := m.senders.Take(key); ok {
			errs = multierr.Append(errs, sender.Close())
		}
	}
	return errs
}
