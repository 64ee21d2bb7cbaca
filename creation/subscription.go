package creation

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/casualjim/roost/addressing"
	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/description"
	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/settings"
)

// SubscriptionCreator reconciles subscriptions in one namespace.
type SubscriptionCreator struct {
	namespace api.NamespaceManager
	settings  settings.Reader
	factory   description.SubscriptionFactory
	config    creatorConfig
}

func NewSubscriptionCreator(namespace api.NamespaceManager, r settings.Reader, options ...Option) *SubscriptionCreator {
	return &SubscriptionCreator{
		namespace: namespace,
		settings:  r,
		factory:   description.SubscriptionFactoryFrom(r),
		config:    newConfig(options),
	}
}

// Create reconciles the subscription name on topicPath. The qualified event
// type of metadata is stored as user metadata, filter becomes the default
// rule when the subscription is created.
func (c *SubscriptionCreator) Create(ctx context.Context, topicPath, name string, metadata meta.SubscriptionMetadata, filter string) (*description.SubscriptionDescription, error) {
	target := c.factory(topicPath, name, c.settings)
	target.UserMetadata = metadata.EventType

	if limit := settings.GetOrDefault[int](c.settings, settings.KeyUserMetadataMaximumLength); limit > 0 && utf8.RuneCountInString(target.UserMetadata) > limit {
		return target, &addressing.ValidationError{
			Path:   target.UserMetadata,
			Kind:   meta.Subscription,
			Reason: fmt.Sprintf("user metadata is longer than %d characters", limit),
		}
	}

	err := reconcile(ctx, c.settings, c.config, entityOps[description.SubscriptionDescription]{
		kind: meta.Subscription,
		path: topicPath + "/" + name,
		exists: func(ctx context.Context) (bool, error) {
			return c.namespace.SubscriptionExists(ctx, topicPath, name)
		},
		create: func(ctx context.Context, desc *description.SubscriptionDescription) error {
			_, err := c.namespace.CreateSubscription(ctx, desc, filter)
			return err
		},
		get: func(ctx context.Context) (*description.SubscriptionDescription, error) {
			return c.namespace.GetSubscription(ctx, topicPath, name)
		},
		update: func(ctx context.Context, desc *description.SubscriptionDescription) error {
			_, err := c.namespace.UpdateSubscription(ctx, desc)
			return err
		},
		diff: description.DiffSubscription,
	}, target)
	return target, err
}
