package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
endpoint: sales
create_topology: false
bindings:
  sending: [error, audit]
addressing:
  sanitization: throw
  subscription_max_length: 60
partitioning:
  strategy: replicated
  namespaces: [nats://one:4222, nats://two:4222]
queues:
  lock_duration: 1m
  default_ttl: 2d
  auto_delete_on_idle: never
  max_delivery_count: 10
  batched_operations: false
senders:
  retry_attempts: 0
  backoff: 2s
  max_message_size_kb: 1024
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roost.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, sampleConfig))
		require.NoError(t, err)

		assert.Equal(t, "sales", cfg.Endpoint)
		require.NotNil(t, cfg.CreateTopology)
		assert.False(t, *cfg.CreateTopology)
		assert.Equal(t, Duration(time.Minute), cfg.Queues.LockDuration)
		assert.Equal(t, Duration(48*time.Hour), cfg.Queues.DefaultTimeToLive)
		assert.Equal(t, Duration(Never), cfg.Queues.AutoDeleteOnIdle)

		h, err := New(cfg.Options()...)
		require.NoError(t, err)
		assert.Equal(t, "sales", GetOrDefault[string](h, KeyEndpointName))
		assert.False(t, GetOrDefault[bool](h, KeyCreateTopology))
		assert.Equal(t, SanitizationThrow, GetOrDefault[string](h, KeySanitizationStrategy))
		assert.Equal(t, 60, GetOrDefault[int](h, KeySubscriptionPathMaximumLength))
		assert.Equal(t, PartitioningReplicated, GetOrDefault[string](h, KeyPartitioningStrategy))
		assert.Equal(t, time.Minute, GetOrDefault[time.Duration](h, KeyQueueLockDuration))
		assert.Equal(t, 10, GetOrDefault[int](h, KeyQueueMaxDeliveryCount))
		assert.False(t, GetOrDefault[bool](h, KeyQueueEnableBatchedOperations))
		assert.Equal(t, 0, GetOrDefault[int](h, KeySenderRetryAttemptsOnThrottle))
		assert.Equal(t, 2*time.Second, GetOrDefault[time.Duration](h, KeySenderBackOffTimeOnThrottle))
		assert.Equal(t, []string{"error", "audit"}, GetOrDefault[QueueBindings](h, KeyQueueBindings).SendingAddresses)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("ROOST_ENDPOINT", "billing")
		t.Setenv("ROOST_SENDERS_BACKOFF", "500ms")

		cfg, err := Load(writeConfig(t, sampleConfig))
		require.NoError(t, err)
		assert.Equal(t, "billing", cfg.Endpoint)
		assert.Equal(t, Duration(500*time.Millisecond), cfg.Senders.BackOff)
	})

	t.Run("environment only", func(t *testing.T) {
		t.Setenv("ROOST_ENDPOINT", "shipping")
		t.Setenv("ROOST_PARTITIONING_NAMESPACES", "nats://localhost:4222")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, []string{"nats://localhost:4222"}, cfg.Partitioning.Namespaces)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		_, err := Load(writeConfig(t, "endpoint: sales\nnope: true\n"))
		assert.Error(t, err)
	})

	t.Run("missing endpoint", func(t *testing.T) {
		_, err := Load(writeConfig(t, "partitioning:\n  namespaces: [a]\n"))
		assert.Error(t, err)
	})

	t.Run("replicated needs two namespaces", func(t *testing.T) {
		_, err := Load(writeConfig(t, "endpoint: sales\npartitioning:\n  strategy: replicated\n  namespaces: [a]\n"))
		assert.ErrorContains(t, err, "at least 2 namespaces")
	})
}
