package description

import (
	"strings"
	"testing"
	"time"

	"github.com/casualjim/roost/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultQueueFactory(t *testing.T) {
	h, err := settings.New()
	require.NoError(t, err)

	q := QueueFactoryFrom(h)("myqueue", h)
	assert.Equal(t, "myqueue", q.Path)
	assert.Equal(t, settings.Never, q.AutoDeleteOnIdle)
	assert.Equal(t, settings.Never, q.DefaultMessageTimeToLive)
	assert.Equal(t, 30*time.Second, q.LockDuration)
	assert.Equal(t, int64(1024), q.MaxSizeInMegabytes)
	assert.Equal(t, 10*time.Minute, q.DuplicateDetectionHistoryTimeWindow)
	assert.Equal(t, 6, q.MaxDeliveryCount)
	assert.True(t, q.EnableBatchedOperations)
	assert.False(t, q.EnablePartitioning)
	assert.False(t, q.RequiresDuplicateDetection)
	assert.False(t, q.RequiresSession)
	assert.False(t, q.EnableExpress)
	assert.Empty(t, q.ForwardTo)
	assert.Empty(t, q.ForwardDeadLetteredMessagesTo)
}

func TestConditionalSettings(t *testing.T) {
	startsWithOrders := settings.Condition(func(p string) bool { return strings.HasPrefix(p, "orders") })
	h, err := settings.New(
		settings.QueueForwardTo("forward", startsWithOrders),
		settings.QueueEnableExpress(true, startsWithOrders),
		settings.SubscriptionForwardDeadLetteredMessagesTo("dlq", func(name string) bool { return name == "billing.Paid" }),
	)
	require.NoError(t, err)

	orders := DefaultQueueFactory("orders.input", h)
	assert.Equal(t, "forward", orders.ForwardTo)
	assert.True(t, orders.EnableExpress)

	billing := DefaultQueueFactory("billing", h)
	assert.Empty(t, billing.ForwardTo)
	assert.False(t, billing.EnableExpress)

	assert.Equal(t, "dlq", DefaultSubscriptionFactory("sales.events", "billing.Paid", h).ForwardDeadLetteredMessagesTo)
	assert.Empty(t, DefaultSubscriptionFactory("sales.events", "shipping.Paid", h).ForwardDeadLetteredMessagesTo)
}

func TestFactoryOverride(t *testing.T) {
	h, err := settings.New(
		WithQueueFactory(func(path string, _ settings.Reader) *QueueDescription {
			return &QueueDescription{Path: path, MaxDeliveryCount: 1}
		}),
		WithTopicFactory(func(path string, _ settings.Reader) *TopicDescription {
			return &TopicDescription{Path: path, EnablePartitioning: true}
		}),
		WithSubscriptionFactory(func(topic, name string, _ settings.Reader) *SubscriptionDescription {
			return &SubscriptionDescription{TopicPath: topic, Name: name, MaxDeliveryCount: 2}
		}),
	)
	require.NoError(t, err)

	assert.Equal(t, 1, QueueFactoryFrom(h)("q", h).MaxDeliveryCount)
	assert.Zero(t, QueueFactoryFrom(h)("q", h).LockDuration, "the whole factory is replaced")
	assert.True(t, TopicFactoryFrom(h)("t", h).EnablePartitioning)
	assert.Equal(t, 2, SubscriptionFactoryFrom(h)("t", "s", h).MaxDeliveryCount)
}

func TestDiff(t *testing.T) {
	h, err := settings.New()
	require.NoError(t, err)

	t.Run("queue", func(t *testing.T) {
		existing := DefaultQueueFactory("q", h)
		target := DefaultQueueFactory("q", h)
		assert.False(t, DiffQueue(existing, target).NeedsUpdate())

		target.AutoDeleteOnIdle = time.Hour
		target.RequiresSession = true
		changes := DiffQueue(existing, target)
		assert.Equal(t, []string{"AutoDeleteOnIdle"}, changes.Mutable)
		assert.Equal(t, []string{"RequiresSession"}, changes.Immutable)
	})

	t.Run("queue immutable only", func(t *testing.T) {
		existing := DefaultQueueFactory("q", h)
		target := DefaultQueueFactory("q", h)
		target.EnablePartitioning = true
		changes := DiffQueue(existing, target)
		assert.False(t, changes.NeedsUpdate())
		assert.Equal(t, []string{"EnablePartitioning"}, changes.Immutable)
	})

	t.Run("message count is ignored", func(t *testing.T) {
		existing := DefaultQueueFactory("q", h)
		existing.MessageCount = 10
		assert.False(t, DiffQueue(existing, DefaultQueueFactory("q", h)).NeedsUpdate())
	})

	t.Run("topic", func(t *testing.T) {
		existing := DefaultTopicFactory("t", h)
		target := DefaultTopicFactory("t", h)
		target.EnableFilteringMessagesBeforePublishing = true
		target.RequiresDuplicateDetection = true
		changes := DiffTopic(existing, target)
		assert.Equal(t, []string{"EnableFilteringMessagesBeforePublishing"}, changes.Mutable)
		assert.Equal(t, []string{"RequiresDuplicateDetection"}, changes.Immutable)
	})

	t.Run("subscription", func(t *testing.T) {
		existing := DefaultSubscriptionFactory("t", "s", h)
		target := DefaultSubscriptionFactory("t", "s", h)
		target.UserMetadata = "sales.OrderAccepted"
		target.MaxDeliveryCount = 3
		changes := DiffSubscription(existing, target)
		assert.ElementsMatch(t, []string{"UserMetadata", "MaxDeliveryCount"}, changes.Mutable)
		assert.Empty(t, changes.Immutable)
	})
}
