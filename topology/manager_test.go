package topology

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/casualjim/roost/addressing"
	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderAccepted = meta.EventType{Namespace: "sales.contracts", Name: "OrderAccepted"}

func newManager(t *testing.T, settingsOpts []settings.Option, options ...Option) *Manager {
	t.Helper()
	h, err := settings.New(append([]settings.Option{settings.EndpointName("billing")}, settingsOpts...)...)
	require.NoError(t, err)
	m, err := New("", h, options...)
	require.NoError(t, err)
	return m
}

func TestNew(t *testing.T) {
	t.Run("requires an endpoint", func(t *testing.T) {
		h, err := settings.New(settings.SingleNamespace("ns1"))
		require.NoError(t, err)
		_, err = New("", h)
		var cerr *addressing.ConfigurationError
		assert.ErrorAs(t, err, &cerr)
	})

	t.Run("surfaces partitioning configuration errors", func(t *testing.T) {
		h, err := settings.New(settings.ReplicatedNamespaces("ns1"))
		require.NoError(t, err)
		_, err = New("billing", h)
		var cerr *addressing.ConfigurationError
		assert.ErrorAs(t, err, &cerr)
	})
}

func TestDetermineResourcesToCreate(t *testing.T) {
	t.Run("single namespace", func(t *testing.T) {
		m := newManager(t, []settings.Option{settings.SingleNamespace("ns1")})
		section, err := m.DetermineResourcesToCreate()
		require.NoError(t, err)

		ns := meta.NamespaceInfo{ConnectionString: "ns1"}
		assert.Equal(t, []meta.NamespaceInfo{ns}, section.Namespaces)
		assert.Equal(t, []meta.EntityInfo{
			{Path: "billing", Kind: meta.Queue, Namespace: ns},
			{Path: "billing.events", Kind: meta.Topic, Namespace: ns},
		}, section.Entities)
		require.NoError(t, section.Validate())
	})

	t.Run("replicated with queue bindings", func(t *testing.T) {
		m := newManager(t, []settings.Option{
			settings.ReplicatedNamespaces("ns1", "ns2"),
			settings.Bindings(settings.QueueBindings{
				ReceivingAddresses: []string{"billing"},
				SendingAddresses:   []string{"error", "audit"},
			}),
		})
		section, err := m.DetermineResourcesToCreate()
		require.NoError(t, err)
		require.NoError(t, section.Validate())

		assert.Len(t, section.Namespaces, 2)
		// billing, error, audit and the topic in each namespace, the duplicate binding collapses
		assert.Len(t, section.Entities, 8)
		for _, ns := range section.Namespaces {
			entities, _ := section.InNamespace(ns)
			var paths []string
			for _, e := range entities {
				paths = append(paths, e.Path)
			}
			assert.Equal(t, []string{"billing", "error", "audit", "billing.events"}, paths)
		}
	})

	t.Run("individualized input queue", func(t *testing.T) {
		m := newManager(t, []settings.Option{settings.SingleNamespace("ns1"), settings.Discriminator("-1")})
		assert.Equal(t, "billing-1", m.LocalAddress())

		section, err := m.DetermineResourcesToCreate()
		require.NoError(t, err)
		assert.Equal(t, "billing-1", section.Entities[0].Path)
		assert.Equal(t, "billing.events", section.Entities[1].Path, "the topic is shared by every instance")
	})
}

func TestDestinations(t *testing.T) {
	m := newManager(t, []settings.Option{settings.ReplicatedNamespaces("ns1", "ns2")})

	t.Run("receive", func(t *testing.T) {
		section, err := m.DetermineReceiveResources("billing")
		require.NoError(t, err)
		require.Len(t, section.Entities, 2)
		for _, e := range section.Entities {
			assert.Equal(t, meta.Queue, e.Kind)
			assert.Equal(t, "billing", e.Path)
		}
	})

	t.Run("publish goes to the own topic", func(t *testing.T) {
		section, err := m.DeterminePublishDestination(orderAccepted)
		require.NoError(t, err)
		require.Len(t, section.Entities, 2)
		assert.Equal(t, "billing.events", section.Entities[0].Path)
		assert.Equal(t, meta.Topic, section.Entities[0].Kind)
	})

	t.Run("send", func(t *testing.T) {
		section, err := m.DetermineSendDestination("shipping")
		require.NoError(t, err)
		require.Len(t, section.Entities, 2)
		assert.Equal(t, "shipping", section.Entities[1].Path)
		assert.Equal(t, "ns2", section.Entities[1].Namespace.ConnectionString)
	})

	t.Run("sanitization failure", func(t *testing.T) {
		m := newManager(t, []settings.Option{
			settings.SingleNamespace("ns1"),
			settings.Sanitization(settings.SanitizationThrow),
			settings.QueuePathMaximumLength(5),
		})
		_, err := m.DetermineSendDestination("much-too-long")
		var verr *addressing.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestSubscriptions(t *testing.T) {
	publishers := api.StaticPublishers{
		orderAccepted.FullName(): {"sales", "sales", "legacy-sales"},
	}

	t.Run("builds the hierarchy", func(t *testing.T) {
		m := newManager(t, []settings.Option{settings.ReplicatedNamespaces("ns1", "ns2")}, WithPublishers(publishers))
		section, err := m.DetermineResourcesToSubscribeTo(context.Background(), orderAccepted)
		require.NoError(t, err)
		require.NoError(t, section.Validate())

		// two publisher topics in two namespaces
		require.Len(t, section.Subscriptions, 4)
		require.Len(t, section.Topics, 4)
		assert.Empty(t, section.Entities)

		for _, sub := range section.Subscriptions {
			assert.Equal(t, "billing.sales.contracts.OrderAccepted", sub.Path)
			assert.Equal(t, "billing.OrderAccepted", sub.Metadata.LegacyName)
			assert.Equal(t, "sales.contracts.OrderAccepted", sub.Metadata.EventType)
			assert.Equal(t, "billing subscribed to sales.contracts.OrderAccepted", sub.Metadata.Description)
			assert.Equal(t, SQLFilter(orderAccepted), sub.Filter)

			topic, ok := section.TopicFor(sub)
			require.True(t, ok)
			assert.True(t, topic.Namespace.Equal(sub.Namespace), "a subscription is linked to the topic in its own namespace")
		}

		var topics []string
		for _, topic := range section.Topics {
			topics = append(topics, topic.Path)
		}
		assert.Equal(t, []string{"sales.events", "sales.events", "legacy-sales.events", "legacy-sales.events"}, topics)
	})

	t.Run("resolution is deterministic and cached", func(t *testing.T) {
		calls := 0
		lookup := api.PublisherLookupFunc(func(ctx context.Context, et meta.EventType) ([]string, error) {
			calls++
			return publishers.PublishersOf(ctx, et)
		})
		m := newManager(t, []settings.Option{settings.SingleNamespace("ns1")}, WithPublishers(lookup))

		first, err := m.DetermineResourcesToSubscribeTo(context.Background(), orderAccepted)
		require.NoError(t, err)
		second, err := m.DetermineResourcesToSubscribeTo(context.Background(), orderAccepted)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, calls)

		other := newManager(t, []settings.Option{settings.SingleNamespace("ns1")}, WithPublishers(publishers))
		third, err := other.DetermineResourcesToSubscribeTo(context.Background(), orderAccepted)
		require.NoError(t, err)
		assert.Equal(t, first, third)
	})

	t.Run("event types with the same full name are cached apart", func(t *testing.T) {
		nested := meta.EventType{Namespace: "a.b", Name: "C"}
		flat := meta.EventType{Namespace: "a", Name: "b.C"}
		m := newManager(t, []settings.Option{settings.SingleNamespace("ns1")},
			WithPublishers(api.StaticPublishers{"a.b.C": {"sales"}}))

		first, err := m.DetermineResourcesToSubscribeTo(context.Background(), nested)
		require.NoError(t, err)
		second, err := m.DetermineResourcesToSubscribeTo(context.Background(), flat)
		require.NoError(t, err)
		require.Len(t, first.Subscriptions, 1)
		require.Len(t, second.Subscriptions, 1)
		assert.Equal(t, "billing.C", first.Subscriptions[0].Metadata.LegacyName)
		assert.Equal(t, "billing.b.C", second.Subscriptions[0].Metadata.LegacyName)

		assert.False(t, m.DetermineResourcesToUnsubscribeFrom(nested).IsEmpty())
		assert.False(t, m.DetermineResourcesToUnsubscribeFrom(flat).IsEmpty())
	})

	t.Run("callers cannot change the cached section", func(t *testing.T) {
		m := newManager(t, []settings.Option{settings.SingleNamespace("ns1")}, WithPublishers(publishers))

		first, err := m.DetermineResourcesToSubscribeTo(context.Background(), orderAccepted)
		require.NoError(t, err)
		require.NotEmpty(t, first.Subscriptions)
		path := first.Subscriptions[0].Path
		first.Subscriptions[0].Path = "changed"
		first.Subscriptions[0].Relationships = nil
		first.Namespaces[0].ConnectionString = "changed"

		second, err := m.DetermineResourcesToSubscribeTo(context.Background(), orderAccepted)
		require.NoError(t, err)
		assert.Equal(t, path, second.Subscriptions[0].Path)
		assert.Equal(t, "ns1", second.Namespaces[0].ConnectionString)
		assert.NoError(t, second.Validate())
	})

	t.Run("long names are shortened", func(t *testing.T) {
		long := meta.EventType{Namespace: "very.long.namespace.of.an.event.that.would", Name: "ExceedSubscriptionLength"}
		m := newManager(t, []settings.Option{settings.SingleNamespace("ns1")},
			WithPublishers(api.StaticPublishers{long.FullName(): {"sales"}}))
		section, err := m.DetermineResourcesToSubscribeTo(context.Background(), long)
		require.NoError(t, err)
		require.Len(t, section.Subscriptions, 1)
		assert.LessOrEqual(t, len(section.Subscriptions[0].Path), 50)
		assert.Equal(t, long.FullName(), section.Subscriptions[0].Metadata.EventType)
	})

	t.Run("concurrent resolution converges", func(t *testing.T) {
		m := newManager(t, []settings.Option{settings.ReplicatedNamespaces("ns1", "ns2")}, WithPublishers(publishers))

		var wg sync.WaitGroup
		results := make([]meta.Section, 20)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				s, err := m.DetermineResourcesToSubscribeTo(context.Background(), orderAccepted)
				assert.NoError(t, err)
				results[i] = s
			}(i)
		}
		wg.Wait()
		for _, s := range results {
			assert.Equal(t, results[0], s)
			assert.NoError(t, s.Validate())
		}
	})

	t.Run("lookup failure", func(t *testing.T) {
		boom := errors.New("boom")
		m := newManager(t, []settings.Option{settings.SingleNamespace("ns1")},
			WithPublishers(api.PublisherLookupFunc(func(context.Context, meta.EventType) ([]string, error) {
				return nil, boom
			})))
		_, err := m.DetermineResourcesToSubscribeTo(context.Background(), orderAccepted)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("unsubscribe", func(t *testing.T) {
		m := newManager(t, []settings.Option{settings.SingleNamespace("ns1")}, WithPublishers(publishers))

		empty := m.DetermineResourcesToUnsubscribeFrom(orderAccepted)
		assert.True(t, empty.IsEmpty())

		subscribed, err := m.DetermineResourcesToSubscribeTo(context.Background(), orderAccepted)
		require.NoError(t, err)

		assert.Equal(t, subscribed, m.DetermineResourcesToUnsubscribeFrom(orderAccepted))
		assert.True(t, m.DetermineResourcesToUnsubscribeFrom(orderAccepted).IsEmpty())
	})
}

func TestSQLFilter(t *testing.T) {
	assert.Equal(t,
		"[Roost.EnclosedMessageTypes] LIKE 'sales.contracts.OrderAccepted%' OR "+
			"[Roost.EnclosedMessageTypes] LIKE '%sales.contracts.OrderAccepted%' OR "+
			"[Roost.EnclosedMessageTypes] LIKE '%sales.contracts.OrderAccepted' OR "+
			"[Roost.EnclosedMessageTypes] = 'sales.contracts.OrderAccepted'",
		SQLFilter(orderAccepted))

	assert.Contains(t, SQLFilter(meta.EventType{Name: "O'Brien"}), "'O''Brien'")
}
