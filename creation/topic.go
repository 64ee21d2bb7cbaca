package creation

import (
	"context"

	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/description"
	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/settings"
)

// TopicCreator reconciles topics in one namespace.
type TopicCreator struct {
	namespace api.NamespaceManager
	settings  settings.Reader
	factory   description.TopicFactory
	config    creatorConfig
}

func NewTopicCreator(namespace api.NamespaceManager, r settings.Reader, options ...Option) *TopicCreator {
	return &TopicCreator{
		namespace: namespace,
		settings:  r,
		factory:   description.TopicFactoryFrom(r),
		config:    newConfig(options),
	}
}

func (c *TopicCreator) Create(ctx context.Context, path string) (*description.TopicDescription, error) {
	target := c.factory(path, c.settings)
	err := reconcile(ctx, c.settings, c.config, entityOps[description.TopicDescription]{
		kind: meta.Topic,
		path: target.Path,
		exists: func(ctx context.Context) (bool, error) {
			return c.namespace.TopicExists(ctx, target.Path)
		},
		create: func(ctx context.Context, desc *description.TopicDescription) error {
			_, err := c.namespace.CreateTopic(ctx, desc)
			return err
		},
		get: func(ctx context.Context) (*description.TopicDescription, error) {
			return c.namespace.GetTopic(ctx, target.Path)
		},
		update: func(ctx context.Context, desc *description.TopicDescription) error {
			_, err := c.namespace.UpdateTopic(ctx, desc)
			return err
		},
		diff: description.DiffTopic,
	}, target)
	return target, err
}
