package roost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/casualjim/roost/addressing"
	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/creation"
	"github.com/casualjim/roost/internal/broker"
	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/pkg/slogx"
	"github.com/casualjim/roost/sending"
	"github.com/casualjim/roost/settings"
	"github.com/casualjim/roost/topology"
	"github.com/fogfish/opts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"
	"go.uber.org/multierr"
)

// ErrClosed is returned by operations on a closed transport.
var ErrClosed = errors.New("roost: transport is closed")

// Transport ties topology resolution, entity creation and sending together
// for one endpoint.
type Transport struct {
	injector *do.RootScope

	topology  *topology.Manager
	creator   *creation.SectionCreator
	lifecycle *sending.LifecycleManager
	router    *sending.Router
	operator  api.TopologyOperator
	logger    *slog.Logger

	creationMetrics *creation.Metrics
	sendingMetrics  *sending.Metrics

	mu        sync.Mutex
	receiving meta.Section
	started   bool
	closed    bool
}

// New builds the transport for endpoint. An empty endpoint falls back to the
// endpoint name in r.
func New(endpoint string, r settings.Reader, options ...Option) (*Transport, error) {
	cfg := transportOptions{
		publishers: api.StaticPublishers{},
		operator:   api.NoopOperator{},
		converter:  sending.DefaultConverter{},
		logger:     slog.Default(),
		clock:      clock.New(),
	}
	if err := opts.Apply(&cfg, options); err != nil {
		return nil, err
	}
	if cfg.managers == nil || cfg.senders == nil {
		memory := broker.NewNamespaces()
		if cfg.managers == nil {
			cfg.managers = memory
		}
		if cfg.senders == nil {
			cfg.senders = memory
		}
	}

	injector := do.New(collaborators(r, cfg), components(endpoint))

	t, err := resolve(injector)
	if err != nil {
		injector.Shutdown()
		return nil, err
	}
	return t, nil
}

func collaborators(r settings.Reader, cfg transportOptions) func(do.Injector) {
	return func(i do.Injector) {
		do.ProvideValue[settings.Reader](i, r)
		do.ProvideValue[api.NamespaceManagers](i, cfg.managers)
		do.ProvideValue[api.SenderFactory](i, cfg.senders)
		do.ProvideValue[api.PublisherLookup](i, cfg.publishers)
		do.ProvideValue[api.TopologyOperator](i, cfg.operator)
		do.ProvideValue[sending.Converter](i, cfg.converter)
		do.ProvideValue[*slog.Logger](i, cfg.logger)
		do.ProvideValue[clock.Clock](i, cfg.clock)
	}
}

func components(endpoint string) func(do.Injector) {
	return func(i do.Injector) {
		do.Provide(i, func(i do.Injector) (addressing.Partitioner, error) {
			return addressing.NewPartitioner(do.MustInvoke[settings.Reader](i))
		})
		do.Provide(i, func(i do.Injector) (addressing.Validator, error) {
			return addressing.NewValidator(do.MustInvoke[settings.Reader](i))
		})
		do.Provide(i, func(i do.Injector) (addressing.Sanitizer, error) {
			return addressing.NewSanitizer(do.MustInvoke[settings.Reader](i), do.MustInvoke[addressing.Validator](i))
		})
		do.Provide(i, func(i do.Injector) (addressing.Individualizer, error) {
			return addressing.NewIndividualizer(do.MustInvoke[settings.Reader](i))
		})

		do.Provide(i, func(i do.Injector) (*topology.Manager, error) {
			return topology.New(endpoint, do.MustInvoke[settings.Reader](i),
				topology.WithPartitioner(do.MustInvoke[addressing.Partitioner](i)),
				topology.WithSanitizer(do.MustInvoke[addressing.Sanitizer](i)),
				topology.WithIndividualizer(do.MustInvoke[addressing.Individualizer](i)),
				topology.WithPublishers(do.MustInvoke[api.PublisherLookup](i)),
				topology.WithLogger(named(i, "topology")),
			)
		})

		do.Provide(i, func(do.Injector) (*creation.Metrics, error) {
			return creation.NewMetrics(), nil
		})
		do.Provide(i, func(i do.Injector) (*creation.SectionCreator, error) {
			return creation.NewSectionCreator(
				do.MustInvoke[api.NamespaceManagers](i),
				do.MustInvoke[settings.Reader](i),
				do.MustInvoke[*creation.Metrics](i),
				named(i, "creation"),
			), nil
		})

		do.Provide(i, func(do.Injector) (*sending.Metrics, error) {
			return sending.NewMetrics(), nil
		})
		do.Provide(i, func(i do.Injector) (*sending.LifecycleManager, error) {
			return sending.NewLifecycleManager(do.MustInvoke[api.SenderFactory](i), named(i, "sending.lifecycle")), nil
		})
		do.Provide(i, func(i do.Injector) (*sending.Router, error) {
			return sending.NewRouter(
				do.MustInvoke[*topology.Manager](i),
				do.MustInvoke[*sending.LifecycleManager](i),
				do.MustInvoke[settings.Reader](i),
				sending.WithConverter(do.MustInvoke[sending.Converter](i)),
				sending.WithClock(do.MustInvoke[clock.Clock](i)),
				sending.WithMetrics(do.MustInvoke[*sending.Metrics](i)),
				sending.WithLogger(named(i, "sending")),
			)
		})
	}
}

func named(i do.Injector, name string) *slog.Logger {
	return do.MustInvoke[*slog.Logger](i).With(slogx.LoggerName(name))
}

func resolve(i *do.RootScope) (*Transport, error) {
	var err error
	t := &Transport{
		injector: i,
		operator: do.MustInvoke[api.TopologyOperator](i),
		logger:   named(i, "roost"),
	}
	if t.topology, err = do.Invoke[*topology.Manager](i); err != nil {
		return nil, err
	}
	if t.creator, err = do.Invoke[*creation.SectionCreator](i); err != nil {
		return nil, err
	}
	if t.lifecycle, err = do.Invoke[*sending.LifecycleManager](i); err != nil {
		return nil, err
	}
	if t.router, err = do.Invoke[*sending.Router](i); err != nil {
		return nil, err
	}
	t.creationMetrics = do.MustInvoke[*creation.Metrics](i)
	t.sendingMetrics = do.MustInvoke[*sending.Metrics](i)
	return t, nil
}

// Endpoint is the logical name of the endpoint.
func (t *Transport) Endpoint() string { return t.topology.Endpoint() }

// LocalAddress is the input queue of this endpoint instance.
func (t *Transport) LocalAddress() string { return t.topology.LocalAddress() }

// Topology exposes the resolver, for tools that want to inspect sections.
func (t *Transport) Topology() *topology.Manager { return t.topology }

// Start creates the entities the endpoint owns, then starts receiving on
// its input queue.
func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if t.started {
		return nil
	}

	owned, err := t.topology.DetermineResourcesToCreate()
	if err != nil {
		return err
	}
	if err := t.creator.Create(ctx, owned); err != nil {
		return fmt.Errorf("failed to create the endpoint topology: %w", err)
	}

	receiving, err := t.topology.DetermineReceiveResources(t.topology.LocalAddress())
	if err != nil {
		return err
	}
	if err := t.operator.Start(ctx, receiving.Entities); err != nil {
		return err
	}
	t.receiving = receiving
	t.started = true
	t.logger.InfoContext(ctx, "started receiving",
		slog.String("endpoint", t.topology.Endpoint()),
		slog.String("address", t.topology.LocalAddress()),
		slog.Int("namespaces", len(receiving.Namespaces)),
	)
	return nil
}

// Stop stops receiving on the input queue. Entities are left in place.
func (t *Transport) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started {
		return nil
	}
	if err := t.operator.Stop(ctx, t.receiving.Entities); err != nil {
		return err
	}
	t.started = false
	t.receiving = meta.Section{}
	return nil
}

// Subscribe creates the subscriptions for eventType on every topic that
// publishes it and starts receiving from them.
func (t *Transport) Subscribe(ctx context.Context, eventType meta.EventType) error {
	if t.isClosed() {
		return ErrClosed
	}
	section, err := t.topology.DetermineResourcesToSubscribeTo(ctx, eventType)
	if err != nil {
		return err
	}
	if err := t.creator.Create(ctx, section); err != nil {
		return fmt.Errorf("failed to create subscriptions for %s: %w", eventType, err)
	}
	return t.operator.Start(ctx, section.All())
}

// Unsubscribe stops receiving eventType. The subscriptions stay on the broker.
func (t *Transport) Unsubscribe(ctx context.Context, eventType meta.EventType) error {
	section := t.topology.DetermineResourcesToUnsubscribeFrom(eventType)
	if section.IsEmpty() {
		return nil
	}
	return t.operator.Stop(ctx, section.All())
}

// Send delivers msg to the input queue of destination.
func (t *Transport) Send(ctx context.Context, msg sending.OutgoingMessage, destination string) error {
	return t.Dispatch(ctx, []sending.OutgoingMessage{msg}, sending.SendTo(destination))
}

// Publish delivers msg to the subscribers of eventType.
func (t *Transport) Publish(ctx context.Context, msg sending.OutgoingMessage, eventType meta.EventType) error {
	return t.Dispatch(ctx, []sending.OutgoingMessage{msg}, sending.PublishOf(eventType))
}

// Dispatch sends msgs as one batch according to options.
func (t *Transport) Dispatch(ctx context.Context, msgs []sending.OutgoingMessage, options sending.DispatchOptions) error {
	if t.isClosed() {
		return ErrClosed
	}
	if len(msgs) == 1 {
		return t.router.Route(ctx, msgs[0], options)
	}
	return t.router.RouteBatch(ctx, msgs, options)
}

// PrometheusCollectors returns the collectors of every component.
func (t *Transport) PrometheusCollectors() []prometheus.Collector {
	var collectors []prometheus.Collector
	collectors = append(collectors, t.creationMetrics.PrometheusCollectors()...)
	collectors = append(collectors, t.sendingMetrics.PrometheusCollectors()...)
	return collectors
}

// Close stops receiving, closes every open sender and shuts the components
// down. Close is safe to call more than once.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	err := t.Stop(context.Background())
	err = multierr.Append(err, t.lifecycle.Close())
	t.injector.Shutdown()
	return err
}

func (t *Transport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
