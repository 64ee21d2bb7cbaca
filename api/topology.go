package api

import (
	"context"

	"github.com/casualjim/roost/meta"
)

// PublisherLookup finds the addresses of the endpoints publishing an event type.
type PublisherLookup interface {
	PublishersOf(ctx context.Context, eventType meta.EventType) ([]string, error)
}

// PublisherLookupFunc adapts a function to PublisherLookup.
type PublisherLookupFunc func(ctx context.Context, eventType meta.EventType) ([]string, error)

func (f PublisherLookupFunc) PublishersOf(ctx context.Context, eventType meta.EventType) ([]string, error) {
	return f(ctx, eventType)
}

// StaticPublishers maps qualified event type names to publisher addresses.
type StaticPublishers map[string][]string

func (s StaticPublishers) PublishersOf(_ context.Context, eventType meta.EventType) ([]string, error) {
	return s[eventType.FullName()], nil
}

// TopologyOperator starts and stops receiving from entities.
type TopologyOperator interface {
	Start(ctx context.Context, entities []meta.EntityInfo) error
	Stop(ctx context.Context, entities []meta.EntityInfo) error
}

// NoopOperator does nothing, for hosts that only send.
type NoopOperator struct{}

func (NoopOperator) Start(context.Context, []meta.EntityInfo) error { return nil }
func (NoopOperator) Stop(context.Context, []meta.EntityInfo) error  { return nil }
