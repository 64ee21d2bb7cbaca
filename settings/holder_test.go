package settings

import (
	"strings"
	"testing"
	"time"

	"github.com/casualjim/roost/meta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolder(t *testing.T) {
	t.Run("explicit value wins over default", func(t *testing.T) {
		h := NewHolder()
		h.SetDefault("k", 1)
		assert.False(t, h.HasExplicitValue("k"))
		assert.Equal(t, 1, GetOrDefault[int](h, "k"))

		h.Set("k", 2)
		assert.True(t, h.HasExplicitValue("k"))
		assert.Equal(t, 2, GetOrDefault[int](h, "k"))
	})

	t.Run("missing key", func(t *testing.T) {
		h := NewHolder()
		_, err := Get[string](h, "missing")
		require.ErrorIs(t, err, ErrKeyNotFound)

		_, ok := TryGet[string](h, "missing")
		assert.False(t, ok)
		assert.Equal(t, "", GetOrDefault[string](h, "missing"))
	})

	t.Run("type mismatch", func(t *testing.T) {
		h := NewHolder()
		h.Set("k", "not a number")
		_, err := Get[int](h, "k")
		var mismatch *TypeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "k", mismatch.Key)
	})
}

func TestGetConditional(t *testing.T) {
	onlyOrders := Condition(func(path string) bool { return strings.HasPrefix(path, "orders") })

	h, err := New(QueueForwardTo("archive", onlyOrders))
	require.NoError(t, err)

	assert.Equal(t, "archive", GetConditional[string](h, "orders.input", KeyQueueForwardTo))
	assert.Equal(t, "", GetConditional[string](h, "billing", KeyQueueForwardTo))

	h, err = New(QueueForwardTo("archive"))
	require.NoError(t, err)
	assert.Equal(t, "archive", GetConditional[string](h, "billing", KeyQueueForwardTo))
}

func TestDefaults(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	assert.True(t, GetOrDefault[bool](h, KeyCreateTopology))
	assert.Equal(t, 30*time.Second, GetOrDefault[time.Duration](h, KeyQueueLockDuration))
	assert.Equal(t, int64(1024), GetOrDefault[int64](h, KeyQueueMaxSizeInMegabytes))
	assert.Equal(t, Never, GetOrDefault[time.Duration](h, KeyQueueDefaultMessageTimeToLive))
	assert.Equal(t, Never, GetOrDefault[time.Duration](h, KeyQueueAutoDeleteOnIdle))
	assert.Equal(t, 10*time.Minute, GetOrDefault[time.Duration](h, KeyQueueDuplicateDetectionHistoryWindow))
	assert.Equal(t, 6, GetOrDefault[int](h, KeyQueueMaxDeliveryCount))
	assert.True(t, GetOrDefault[bool](h, KeyQueueEnableBatchedOperations))
	assert.Equal(t, 50, GetOrDefault[int](h, KeySubscriptionPathMaximumLength))
	assert.Equal(t, 5, GetOrDefault[int](h, KeySenderRetryAttemptsOnThrottle))
	assert.Equal(t, 10*time.Second, GetOrDefault[time.Duration](h, KeySenderBackOffTimeOnThrottle))
	assert.Equal(t, 256, GetOrDefault[int](h, KeySenderMaximumMessageSizeInKilobytes))
}

func TestOptions(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		h, err := New(
			EndpointName("sales"),
			CreateTopology(false),
			ReplicatedNamespaces("ns1", "ns2"),
			MaximumMessageSizeInKilobytes(1),
			Discriminator("-blue"),
		)
		require.NoError(t, err)
		assert.Equal(t, "sales", GetOrDefault[string](h, KeyEndpointName))
		assert.False(t, GetOrDefault[bool](h, KeyCreateTopology))
		assert.Equal(t, PartitioningReplicated, GetOrDefault[string](h, KeyPartitioningStrategy))
		assert.Equal(t, []meta.NamespaceInfo{
			{ConnectionString: "ns1", Mode: meta.Active},
			{ConnectionString: "ns2", Mode: meta.Active},
		}, GetOrDefault[[]meta.NamespaceInfo](h, KeyPartitioningNamespaces))
		assert.Equal(t, IndividualizationDiscriminator, GetOrDefault[string](h, KeyIndividualizationStrategy))
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name   string
			option Option
		}{
			{"empty endpoint", EndpointName("")},
			{"zero delivery count", QueueMaxDeliveryCount(0)},
			{"negative retries", RetryAttemptsOnThrottle(-1)},
			{"unknown sanitization", Sanitization("nope")},
			{"unknown partitioning", Partitioning("sharded")},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := New(tt.option)
				assert.Error(t, err)
			})
		}
	})
}
