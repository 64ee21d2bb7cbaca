package creation

import (
	"context"
	"testing"
	"time"

	"github.com/casualjim/roost/addressing"
	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/description"
	"github.com/casualjim/roost/internal/broker"
	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/settings"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var primary = meta.NamespaceInfo{ConnectionString: "primary"}

func newSettings(t *testing.T, options ...settings.Option) *settings.Holder {
	t.Helper()
	h, err := settings.New(append([]settings.Option{settings.EndpointName("billing"), settings.SingleNamespace("primary")}, options...)...)
	require.NoError(t, err)
	return h
}

func reconciled(m *Metrics, kind meta.EntityKind, outcome string) float64 {
	return testutil.ToFloat64(m.Reconciliations.WithLabelValues(kind.String(), outcome))
}

func TestQueueCreator(t *testing.T) {
	ctx := context.Background()

	t.Run("default description", func(t *testing.T) {
		ns := broker.NewNamespace(primary)
		desc, err := NewQueueCreator(ns, newSettings(t)).Create(ctx, "q")
		require.NoError(t, err)

		assert.Equal(t, settings.Never, desc.AutoDeleteOnIdle)
		assert.Equal(t, settings.Never, desc.DefaultMessageTimeToLive)
		assert.Equal(t, 6, desc.MaxDeliveryCount)
		assert.True(t, desc.EnableBatchedOperations)
		assert.False(t, desc.EnablePartitioning)
		assert.Empty(t, desc.ForwardTo)
		assert.Empty(t, desc.ForwardDeadLetteredMessagesTo)

		stored, err := ns.GetQueue(ctx, "q")
		require.NoError(t, err)
		assert.Equal(t, desc, stored)
	})

	t.Run("idempotent", func(t *testing.T) {
		ns := broker.NewNamespace(primary)
		metrics := NewMetrics()
		h := newSettings(t)

		first, err := NewQueueCreator(ns, h, WithMetrics(metrics)).Create(ctx, "billing")
		require.NoError(t, err)
		second, err := NewQueueCreator(ns, h, WithMetrics(metrics)).Create(ctx, "billing")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.EqualValues(t, 1, ns.Calls(broker.OpCreateQueue))
		assert.EqualValues(t, 0, ns.Calls(broker.OpUpdateQueue))
		assert.Equal(t, 1.0, reconciled(metrics, meta.Queue, OutcomeCreated))
		assert.Equal(t, 1.0, reconciled(metrics, meta.Queue, OutcomeUnchanged))
	})

	t.Run("creation disabled", func(t *testing.T) {
		ns := broker.NewNamespace(primary)
		desc, err := NewQueueCreator(ns, newSettings(t, settings.CreateTopology(false))).Create(ctx, "billing")
		require.NoError(t, err)
		assert.Equal(t, "billing", desc.Path)
		assert.Equal(t, 6, desc.MaxDeliveryCount)
		assert.Zero(t, ns.Calls())
	})

	t.Run("existence is remembered", func(t *testing.T) {
		ns := broker.NewNamespace(primary)
		creator := NewQueueCreator(ns, newSettings(t))
		for range 3 {
			_, err := creator.Create(ctx, "billing")
			require.NoError(t, err)
		}
		assert.EqualValues(t, 1, ns.Calls(broker.OpQueueExists))
	})

	t.Run("conditional forwarding", func(t *testing.T) {
		ns := broker.NewNamespace(primary)
		h := newSettings(t, settings.QueueForwardTo("audit", func(path string) bool { return path == "billing" }))
		creator := NewQueueCreator(ns, h)

		billing, err := creator.Create(ctx, "billing")
		require.NoError(t, err)
		assert.Equal(t, "audit", billing.ForwardTo)

		shipping, err := creator.Create(ctx, "shipping")
		require.NoError(t, err)
		assert.Empty(t, shipping.ForwardTo)
	})

	t.Run("mutable update", func(t *testing.T) {
		ns := broker.NewNamespace(primary)
		_, err := NewQueueCreator(ns, newSettings(t)).Create(ctx, "billing")
		require.NoError(t, err)

		metrics := NewMetrics()
		_, err = NewQueueCreator(ns, newSettings(t, settings.QueueAutoDeleteOnIdle(time.Hour)), WithMetrics(metrics)).Create(ctx, "billing")
		require.NoError(t, err)

		stored, err := ns.GetQueue(ctx, "billing")
		require.NoError(t, err)
		assert.Equal(t, time.Hour, stored.AutoDeleteOnIdle)
		assert.Equal(t, 1.0, reconciled(metrics, meta.Queue, OutcomeUpdated))
	})

	t.Run("immutable change alone is left unchanged without an update call", func(t *testing.T) {
		ns := broker.NewNamespace(primary)
		_, err := NewQueueCreator(ns, newSettings(t)).Create(ctx, "billing")
		require.NoError(t, err)

		metrics := NewMetrics()
		_, err = NewQueueCreator(ns, newSettings(t, settings.QueueRequiresSession(true)), WithMetrics(metrics)).Create(ctx, "billing")
		require.NoError(t, err)
		assert.EqualValues(t, 0, ns.Calls(broker.OpUpdateQueue))
		assert.Equal(t, 1.0, reconciled(metrics, meta.Queue, OutcomeUnchanged))

		stored, err := ns.GetQueue(ctx, "billing")
		require.NoError(t, err)
		assert.False(t, stored.RequiresSession)
	})

	t.Run("immutable change sent with a mutable one is an invalid argument", func(t *testing.T) {
		ns := broker.NewNamespace(primary)
		_, err := NewQueueCreator(ns, newSettings(t)).Create(ctx, "billing")
		require.NoError(t, err)

		metrics := NewMetrics()
		_, err = NewQueueCreator(ns, newSettings(t,
			settings.QueueRequiresSession(true),
			settings.QueueAutoDeleteOnIdle(time.Hour),
		), WithMetrics(metrics)).Create(ctx, "billing")
		require.Error(t, err)
		assert.True(t, api.IsInvalidArgument(err))
		assert.EqualValues(t, 1, ns.Calls(broker.OpUpdateQueue))
		assert.Equal(t, 1.0, reconciled(metrics, meta.Queue, OutcomeFailed))
	})
}

func TestReconcileFailures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		fault   broker.Fault
		outcome string
		wantErr func(error) bool
		exists  bool
	}{
		{
			name:    "a concurrent creator won",
			fault:   broker.Fault{Op: broker.OpCreateQueue, Kind: api.KindAlreadyExists},
			outcome: OutcomeRaced,
		},
		{
			name:    "timeout but created",
			fault:   broker.Fault{Op: broker.OpCreateQueue, Kind: api.KindTimeout, Commit: true},
			outcome: OutcomeRecovered,
			exists:  true,
		},
		{
			name:    "timeout and absent",
			fault:   broker.Fault{Op: broker.OpCreateQueue, Kind: api.KindTimeout},
			outcome: OutcomeFailed,
			wantErr: api.IsTimeout,
		},
		{
			name:    "transient failure",
			fault:   broker.Fault{Op: broker.OpCreateQueue, Kind: api.KindServerBusy},
			outcome: OutcomeSwallowed,
		},
		{
			name:    "transient failure of the existence check",
			fault:   broker.Fault{Op: broker.OpQueueExists, Kind: api.KindCommunication},
			outcome: OutcomeSwallowed,
		},
		{
			name:    "non transient failure",
			fault:   broker.Fault{Op: broker.OpCreateQueue, Kind: api.KindQuotaExceeded},
			outcome: OutcomeFailed,
			wantErr: func(err error) bool { return err != nil && !api.IsTransient(err) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := broker.NewNamespace(primary)
			ns.Inject(tt.fault)
			metrics := NewMetrics()

			desc, err := NewQueueCreator(ns, newSettings(t), WithMetrics(metrics)).Create(ctx, "billing")
			require.NotNil(t, desc)
			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err), "unexpected error %v", err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, 1.0, reconciled(metrics, meta.Queue, tt.outcome))

			if tt.exists {
				exists, err := ns.QueueExists(ctx, "billing")
				require.NoError(t, err)
				assert.True(t, exists)
			}
		})
	}
}

func TestTopicCreator(t *testing.T) {
	ctx := context.Background()
	ns := broker.NewNamespace(primary)

	desc, err := NewTopicCreator(ns, newSettings(t)).Create(ctx, "billing.events")
	require.NoError(t, err)
	assert.Equal(t, "billing.events", desc.Path)

	again, err := NewTopicCreator(ns, newSettings(t)).Create(ctx, "billing.events")
	require.NoError(t, err)
	assert.Equal(t, desc, again)
	assert.EqualValues(t, 1, ns.Calls(broker.OpCreateTopic))

	_, err = NewTopicCreator(ns, newSettings(t, settings.TopicEnableFilteringMessagesBeforePublishing(true))).Create(ctx, "billing.events")
	require.NoError(t, err)
	stored, err := ns.GetTopic(ctx, "billing.events")
	require.NoError(t, err)
	assert.True(t, stored.EnableFilteringMessagesBeforePublishing)
}

func TestSubscriptionCreator(t *testing.T) {
	ctx := context.Background()
	metadata := meta.SubscriptionMetadata{
		Description: "billing subscribed to sales.OrderAccepted",
		EventType:   "sales.OrderAccepted",
		LegacyName:  "billing.OrderAccepted",
	}
	filter := "[Roost.EnclosedMessageTypes] = 'sales.OrderAccepted'"

	t.Run("creates with filter and metadata", func(t *testing.T) {
		ns := broker.NewNamespace(primary)
		_, err := ns.CreateTopic(ctx, &description.TopicDescription{Path: "sales.events"})
		require.NoError(t, err)

		creator := NewSubscriptionCreator(ns, newSettings(t))
		desc, err := creator.Create(ctx, "sales.events", "billing.sales.OrderAccepted", metadata, filter)
		require.NoError(t, err)
		assert.Equal(t, "sales.OrderAccepted", desc.UserMetadata)

		rules, err := ns.GetRules(ctx, "sales.events", "billing.sales.OrderAccepted")
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, filter, rules[0].Filter)

		_, err = creator.Create(ctx, "sales.events", "billing.sales.OrderAccepted", metadata, filter)
		require.NoError(t, err)
		assert.EqualValues(t, 1, ns.Calls(broker.OpCreateSubscription))
	})

	t.Run("user metadata is bounded", func(t *testing.T) {
		ns := broker.NewNamespace(primary)
		creator := NewSubscriptionCreator(ns, newSettings(t, settings.UserMetadataMaximumLength(10)))
		_, err := creator.Create(ctx, "sales.events", "billing.sales.OrderAccepted", metadata, filter)
		var verr *addressing.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Zero(t, ns.Calls())
	})

	t.Run("missing topic is not transient", func(t *testing.T) {
		ns := broker.NewNamespace(primary)
		_, err := NewSubscriptionCreator(ns, newSettings(t)).Create(ctx, "sales.events", "billing.sales.OrderAccepted", metadata, filter)
		assert.True(t, api.IsNotFound(err))
	})
}

func TestCreationDisabled(t *testing.T) {
	ctx := context.Background()
	disabled := func(t *testing.T) *settings.Holder {
		return newSettings(t, settings.CreateTopology(false))
	}

	t.Run("topic", func(t *testing.T) {
		ns := broker.NewNamespace(primary)
		metrics := NewMetrics()
		desc, err := NewTopicCreator(ns, disabled(t), WithMetrics(metrics)).Create(ctx, "billing.events")
		require.NoError(t, err)
		assert.Equal(t, "billing.events", desc.Path)
		assert.Zero(t, ns.Calls())
		assert.Equal(t, 1.0, reconciled(metrics, meta.Topic, OutcomeSkipped))
	})

	t.Run("subscription", func(t *testing.T) {
		ns := broker.NewNamespace(primary)
		metrics := NewMetrics()
		metadata := meta.SubscriptionMetadata{EventType: "sales.OrderAccepted", LegacyName: "billing.OrderAccepted"}
		desc, err := NewSubscriptionCreator(ns, disabled(t), WithMetrics(metrics)).
			Create(ctx, "sales.events", "billing.sales.OrderAccepted", metadata, "1=1")
		require.NoError(t, err)
		assert.Equal(t, "billing.sales.OrderAccepted", desc.Name)
		assert.Zero(t, ns.Calls())
		assert.Equal(t, 1.0, reconciled(metrics, meta.Subscription, OutcomeSkipped))
	})
}
