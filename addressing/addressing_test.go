package addressing

import (
	"strings"
	"testing"

	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettings(t *testing.T, options ...settings.Option) *settings.Holder {
	t.Helper()
	h, err := settings.New(options...)
	require.NoError(t, err)
	return h
}

func TestLengthValidation(t *testing.T) {
	h := newSettings(t,
		settings.QueuePathMaximumLength(10),
		settings.TopicPathMaximumLength(20),
		settings.SubscriptionPathMaximumLength(5),
	)
	v := NewLengthValidation(h)

	assert.True(t, v.IsValid("0123456789", meta.Queue))
	assert.False(t, v.IsValid("0123456789a", meta.Queue))
	assert.True(t, v.IsValid("0123456789a", meta.Topic))
	assert.False(t, v.IsValid("abcdef", meta.Subscription))
	assert.False(t, v.IsValid("", meta.Queue))
	assert.True(t, v.IsValid("with spaces", meta.Topic), "length validation does not look at characters")
}

func TestCharacterValidation(t *testing.T) {
	v := NewCharacterValidation(newSettings(t))

	tests := []struct {
		path  string
		kind  meta.EntityKind
		valid bool
	}{
		{"sales", meta.Queue, true},
		{"sales/orders.v1_x-y", meta.Queue, true},
		{"sales/orders", meta.Subscription, false},
		{"-sales", meta.Queue, false},
		{"sales.", meta.Topic, false},
		{"sales orders", meta.Topic, false},
		{"s", meta.Subscription, true},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.valid, v.IsValid(tt.path, tt.kind))
		})
	}
}

func TestPassthroughSanitization(t *testing.T) {
	h := newSettings(t, settings.QueuePathMaximumLength(10))
	s := NewPassthrough(NewLengthValidation(h))

	path, err := s.Sanitize("sales", meta.Queue)
	require.NoError(t, err)
	assert.Equal(t, "sales", path)

	_, err = s.Sanitize("much-too-long-for-queues", meta.Queue)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, meta.Queue, verr.Kind)
}

func TestAdjustingSanitization(t *testing.T) {
	h := newSettings(t)
	s := NewAdjusting(h, NewCharacterValidation(h))

	t.Run("legal names are untouched", func(t *testing.T) {
		path, err := s.Sanitize("sales.events", meta.Topic)
		require.NoError(t, err)
		assert.Equal(t, "sales.events", path)
	})

	t.Run("illegal characters are replaced", func(t *testing.T) {
		path, err := s.Sanitize("sales orders+v2", meta.Queue)
		require.NoError(t, err)
		assert.Equal(t, "sales-orders-v2", path)

		path, err = s.Sanitize("billing/OrderAccepted", meta.Subscription)
		require.NoError(t, err)
		assert.Equal(t, "billing-OrderAccepted", path)
	})

	t.Run("long names are shortened deterministically", func(t *testing.T) {
		raw := "billing." + strings.Repeat("very.long.namespace.", 4) + "OrderAccepted"
		first, err := s.Sanitize(raw, meta.Subscription)
		require.NoError(t, err)
		second, err := s.Sanitize(raw, meta.Subscription)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.LessOrEqual(t, len(first), 50)
		assert.True(t, strings.HasPrefix(first, "billing.very"))

		other, err := s.Sanitize(raw+"2", meta.Subscription)
		require.NoError(t, err)
		assert.NotEqual(t, first, other)
	})

	t.Run("nothing legal left", func(t *testing.T) {
		_, err := s.Sanitize("###", meta.Queue)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("limit too small to shorten", func(t *testing.T) {
		h := newSettings(t, settings.SubscriptionPathMaximumLength(10))
		s := NewAdjusting(h, NewLengthValidation(h))
		_, err := s.Sanitize("endpoint.SomeEventName", meta.Subscription)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestNewSanitizer(t *testing.T) {
	h := newSettings(t, settings.Sanitization(settings.SanitizationThrow))
	s, err := NewSanitizer(h, NewLengthValidation(h))
	require.NoError(t, err)
	assert.IsType(t, &Passthrough{}, s)

	s, err = NewSanitizer(newSettings(t), NewLengthValidation(h))
	require.NoError(t, err)
	assert.IsType(t, &Adjusting{}, s)
}

func TestIndividualization(t *testing.T) {
	t.Run("core", func(t *testing.T) {
		i, err := NewIndividualizer(newSettings(t))
		require.NoError(t, err)
		assert.Equal(t, "myendpoint", i.Individualize("myendpoint"))
	})

	t.Run("discriminator appends generated suffix", func(t *testing.T) {
		d := NewDiscriminator("")
		d.SetDiscriminatorGenerator(func() string { return "-mydiscriminator" })
		assert.Equal(t, "myendpoint-mydiscriminator", d.Individualize("myendpoint"))
	})

	t.Run("discriminator from settings", func(t *testing.T) {
		i, err := NewIndividualizer(newSettings(t, settings.Discriminator("-blue")))
		require.NoError(t, err)
		assert.Equal(t, "myendpoint-blue", i.Individualize("myendpoint"))
	})

	t.Run("default discriminator", func(t *testing.T) {
		d := NewDiscriminator("")
		got := d.Individualize("myendpoint")
		assert.True(t, strings.HasPrefix(got, "myendpoint-"))
		assert.Greater(t, len(got), len("myendpoint-"))
	})
}

func TestPartitioning(t *testing.T) {
	ns := func(cs ...string) []meta.NamespaceInfo {
		out := make([]meta.NamespaceInfo, 0, len(cs))
		for _, c := range cs {
			out = append(out, meta.NamespaceInfo{ConnectionString: c})
		}
		return out
	}

	t.Run("replicated needs more than one namespace", func(t *testing.T) {
		for _, namespaces := range [][]meta.NamespaceInfo{nil, ns("ns1")} {
			_, err := NewReplicated(namespaces)
			var cerr *ConfigurationError
			require.ErrorAs(t, err, &cerr)
		}
	})

	t.Run("replicated returns all namespaces for every intent", func(t *testing.T) {
		p, err := NewReplicated(ns("ns1", "ns2", "ns3"))
		require.NoError(t, err)
		for _, intent := range []meta.Intent{meta.Sending, meta.Receiving, meta.Creating} {
			assert.Equal(t, ns("ns1", "ns2", "ns3"), p.Namespaces("sales", intent))
		}
	})

	t.Run("single needs exactly one namespace", func(t *testing.T) {
		_, err := NewSingleNamespace(ns("ns1", "ns2"))
		assert.Error(t, err)
		_, err = NewSingleNamespace(nil)
		assert.Error(t, err)

		p, err := NewSingleNamespace(ns("ns1"))
		require.NoError(t, err)
		assert.Equal(t, ns("ns1"), p.Namespaces("sales", meta.Creating))
	})

	t.Run("from settings", func(t *testing.T) {
		p, err := NewPartitioner(newSettings(t, settings.ReplicatedNamespaces("a", "b")))
		require.NoError(t, err)
		assert.Len(t, p.Namespaces("sales", meta.Sending), 2)

		_, err = NewPartitioner(newSettings(t, settings.ReplicatedNamespaces("a")))
		var cerr *ConfigurationError
		assert.ErrorAs(t, err, &cerr)

		_, err = NewPartitioner(newSettings(t))
		assert.ErrorAs(t, err, &cerr, "single namespace without any configured namespace")
	})
}
