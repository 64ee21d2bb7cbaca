package creation

import (
	"context"

	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/description"
	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/settings"
)

// QueueCreator reconciles queues in one namespace.
type QueueCreator struct {
	namespace api.NamespaceManager
	settings  settings.Reader
	factory   description.QueueFactory
	config    creatorConfig
}

func NewQueueCreator(namespace api.NamespaceManager, r settings.Reader, options ...Option) *QueueCreator {
	return &QueueCreator{
		namespace: namespace,
		settings:  r,
		factory:   description.QueueFactoryFrom(r),
		config:    newConfig(options),
	}
}

// Create builds the description for path and reconciles the queue with it.
// The description is returned even when creation is disabled or fails.
func (c *QueueCreator) Create(ctx context.Context, path string) (*description.QueueDescription, error) {
	target := c.factory(path, c.settings)
	err := reconcile(ctx, c.settings, c.config, entityOps[description.QueueDescription]{
		kind: meta.Queue,
		path: target.Path,
		exists: func(ctx context.Context) (bool, error) {
			return c.namespace.QueueExists(ctx, target.Path)
		},
		create: func(ctx context.Context, desc *description.QueueDescription) error {
			_, err := c.namespace.CreateQueue(ctx, desc)
			return err
		},
		get: func(ctx context.Context) (*description.QueueDescription, error) {
			return c.namespace.GetQueue(ctx, target.Path)
		},
		update: func(ctx context.Context, desc *description.QueueDescription) error {
			_, err := c.namespace.UpdateQueue(ctx, desc)
			return err
		},
		diff: description.DiffQueue,
	}, target)
	return target, err
}
