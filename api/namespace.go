package api

import (
	"context"

	"github.com/casualjim/roost/description"
	"github.com/casualjim/roost/meta"
)

// NamespaceManager manages the entities of one broker namespace.
//
// Every method may fail with a *BrokerError. Implementations classify their
// failures once: the Kind and Transient fields of the returned error are the
// only thing callers look at.
type NamespaceManager interface {
	// QueueExists reports whether a queue exists at path.
	QueueExists(ctx context.Context, path string) (bool, error)
	// CreateQueue creates a queue, failing with KindAlreadyExists when one exists already.
	CreateQueue(ctx context.Context, desc *description.QueueDescription) (*description.QueueDescription, error)
	// GetQueue returns the current description of the queue, message count included.
	GetQueue(ctx context.Context, path string) (*description.QueueDescription, error)
	// UpdateQueue applies desc to an existing queue. Changing an immutable
	// field fails with KindInvalidArgument.
	UpdateQueue(ctx context.Context, desc *description.QueueDescription) (*description.QueueDescription, error)
	DeleteQueue(ctx context.Context, path string) error

	TopicExists(ctx context.Context, path string) (bool, error)
	CreateTopic(ctx context.Context, desc *description.TopicDescription) (*description.TopicDescription, error)
	GetTopic(ctx context.Context, path string) (*description.TopicDescription, error)
	UpdateTopic(ctx context.Context, desc *description.TopicDescription) (*description.TopicDescription, error)
	DeleteTopic(ctx context.Context, path string) error

	SubscriptionExists(ctx context.Context, topicPath, name string) (bool, error)
	// CreateSubscription creates the subscription with a default rule using filter.
	CreateSubscription(ctx context.Context, desc *description.SubscriptionDescription, filter string) (*description.SubscriptionDescription, error)
	GetSubscription(ctx context.Context, topicPath, name string) (*description.SubscriptionDescription, error)
	UpdateSubscription(ctx context.Context, desc *description.SubscriptionDescription) (*description.SubscriptionDescription, error)
	DeleteSubscription(ctx context.Context, topicPath, name string) error
	GetRules(ctx context.Context, topicPath, name string) ([]description.Rule, error)
}

// NamespaceManagers hands out the manager of a namespace.
type NamespaceManagers interface {
	Get(namespace meta.NamespaceInfo) (NamespaceManager, error)
}

// NamespaceManagersFunc adapts a function to NamespaceManagers.
type NamespaceManagersFunc func(namespace meta.NamespaceInfo) (NamespaceManager, error)

func (f NamespaceManagersFunc) Get(namespace meta.NamespaceInfo) (NamespaceManager, error) {
	return f(namespace)
}
