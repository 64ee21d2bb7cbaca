package sending

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/pkg/slogx"
	"github.com/casualjim/roost/pkg/uuidx"
	"github.com/casualjim/roost/settings"
	"github.com/fogfish/opts"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Resolver finds the entities a dispatch goes to.
type Resolver interface {
	DetermineSendDestination(destination string) (meta.Section, error)
	DeterminePublishDestination(eventType meta.EventType) (meta.Section, error)
}

type Option = opts.Option[Router]

var (
	WithConverter = opts.ForName[Router, Converter]("converter")
	WithClock     = opts.ForName[Router, clock.Clock]("clock")
	WithMetrics   = opts.ForName[Router, *Metrics]("metrics")
	WithLogger    = opts.ForName[Router, *slog.Logger]("logger")
)

// ErrNoDestination is returned when a dispatch resolves to no active entity.
var ErrNoDestination = errors.New("no active destination")

// Router sends outgoing messages to every entity their routing resolves to.
type Router struct {
	resolver  Resolver
	senders   api.SenderLifecycle
	converter Converter
	clock     clock.Clock
	metrics   *Metrics
	logger    *slog.Logger

	maxRetries     int
	backOff        time.Duration
	maxMessageSize int
}

// NewRouter reads the retry policy and the maximum message size from
// settings.
func NewRouter(resolver Resolver, senders api.SenderLifecycle, r settings.Reader, options ...Option) (*Router, error) {
	router := &Router{
		resolver:       resolver,
		senders:        senders,
		converter:      DefaultConverter{},
		clock:          clock.New(),
		logger:         slog.Default().With(slogx.LoggerName("sending")),
		maxRetries:     settings.GetOrDefault[int](r, settings.KeySenderRetryAttemptsOnThrottle),
		backOff:        settings.GetOrDefault[time.Duration](r, settings.KeySenderBackOffTimeOnThrottle),
		maxMessageSize: settings.GetOrDefault[int](r, settings.KeySenderMaximumMessageSizeInKilobytes) * 1024,
	}
	if err := opts.Apply(router, options); err != nil {
		return nil, err
	}
	return router, nil
}

// Route sends one message.
func (r *Router) Route(ctx context.Context, msg OutgoingMessage, options DispatchOptions) error {
	return r.dispatch(ctx, []OutgoingMessage{msg}, options, false)
}

// RouteBatch sends msgs as one batch to every destination. The batch is
// rejected with a *MessageTooLargeError before anything is sent when a
// message or the batch is over the maximum message size.
func (r *Router) RouteBatch(ctx context.Context, msgs []OutgoingMessage, options DispatchOptions) error {
	if len(msgs) == 0 {
		return nil
	}
	return r.dispatch(ctx, msgs, options, true)
}

func (r *Router) resolve(routing Routing) ([]meta.EntityInfo, error) {
	var (
		section meta.Section
		err     error
	)
	switch routing := routing.(type) {
	case ToQueue:
		section, err = r.resolver.DetermineSendDestination(routing.Destination)
	case ToSubscribers:
		section, err = r.resolver.DeterminePublishDestination(routing.EventType)
	case nil:
		return nil, fmt.Errorf("dispatch options without routing: %w", ErrNoDestination)
	default:
		return nil, fmt.Errorf("unsupported routing %T", routing)
	}
	if err != nil {
		return nil, err
	}

	var active []meta.EntityInfo
	for _, e := range section.Entities {
		if e.Namespace.Mode == meta.Active {
			active = append(active, e)
		}
	}
	if len(active) == 0 {
		return nil, fmt.Errorf("%s: %w", routing, ErrNoDestination)
	}
	return active, nil
}

func (r *Router) dispatch(ctx context.Context, msgs []OutgoingMessage, options DispatchOptions, batch bool) error {
	entities, err := r.resolve(options.Routing)
	if err != nil {
		return err
	}

	// ids stay the same across destinations and retries
	msgs = append([]OutgoingMessage(nil), msgs...)
	for i := range msgs {
		if msgs[i].MessageID == "" {
			msgs[i].MessageID = uuidx.NewString()
		}
	}
	if err := checkSize(r.convert(msgs, options), r.maxMessageSize); err != nil {
		return err
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs error
	)
	for _, entity := range entities {
		g.Go(func() error {
			err := r.sendTo(ctx, entity, msgs, options, batch)
			r.observe(entity, len(msgs), err)
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("failed to send to %s %q in %s: %w", entity.Kind, entity.Path, entity.Namespace, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

func (r *Router) sendTo(ctx context.Context, entity meta.EntityInfo, msgs []OutgoingMessage, options DispatchOptions, batch bool) error {
	sender, err := r.senders.Get(ctx, entity.Path, entity.Namespace)
	if err != nil {
		return err
	}
	logger := r.logger.With(slogx.Entity(entity.Kind, entity.Path), slogx.Namespace(entity.Namespace.ConnectionString))
	policy := RetryPolicy{MaxRetries: r.maxRetries, Delay: r.backOff, Clock: r.clock}

	return RetryOnThrottle(ctx, logger, policy, func(ctx context.Context, attempt int) error {
		payloads := r.convert(msgs, options)
		var err error
		if batch {
			err = sender.SendBatch(ctx, payloads)
		} else {
			err = sender.Send(ctx, payloads[0])
		}
		if api.IsServerBusy(err) && r.metrics != nil {
			r.metrics.Throttled.Inc()
		}
		return err
	})
}

func (r *Router) convert(msgs []OutgoingMessage, options DispatchOptions) []*api.BrokeredMessage {
	payloads := make([]*api.BrokeredMessage, 0, len(msgs))
	for _, msg := range msgs {
		payloads = append(payloads, r.converter.Convert(msg, options))
	}
	return payloads
}

func (r *Router) observe(entity meta.EntityInfo, count int, err error) {
	if r.metrics == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	r.metrics.Messages.WithLabelValues(entity.Kind.String(), result).Add(float64(count))
}
