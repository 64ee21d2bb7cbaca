package creation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/internal/registry"
	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/pkg/slogx"
	"github.com/casualjim/roost/settings"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// SectionCreator reconciles every entity a section owns. Namespaces are
// handled concurrently; within a namespace queues and topics go before
// subscriptions. Topics a subscription points at are expected to exist.
type SectionCreator struct {
	managers api.NamespaceManagers
	settings settings.Reader
	metrics  *Metrics
	logger   *slog.Logger

	creators registry.Registry[*namespaceCreators]
}

type namespaceCreators struct {
	queues        *QueueCreator
	topics        *TopicCreator
	subscriptions *SubscriptionCreator
}

// NewSectionCreator creates creators on demand, one set per namespace, each
// with its own existence cache.
func NewSectionCreator(managers api.NamespaceManagers, r settings.Reader, metrics *Metrics, logger *slog.Logger) *SectionCreator {
	if logger == nil {
		logger = slog.Default().With(slogx.LoggerName("creation"))
	}
	return &SectionCreator{
		managers: managers,
		settings: r,
		metrics:  metrics,
		logger:   logger,
		creators: registry.New[*namespaceCreators](),
	}
}

func (s *SectionCreator) creatorsFor(ns meta.NamespaceInfo) (*namespaceCreators, error) {
	if c, ok := s.creators.Get(ns.Key()); ok {
		return c, nil
	}
	manager, err := s.managers.Get(ns)
	if err != nil {
		return nil, fmt.Errorf("failed to get the namespace manager for %s: %w", ns, err)
	}
	cache := NewExistenceCache()
	options := []Option{WithExistenceCache(cache), WithMetrics(s.metrics), WithLogger(s.logger.With(slogx.Namespace(ns.ConnectionString)))}
	c, _ := s.creators.GetOrSet(ns.Key(), &namespaceCreators{
		queues:        NewQueueCreator(manager, s.settings, options...),
		topics:        NewTopicCreator(manager, s.settings, options...),
		subscriptions: NewSubscriptionCreator(manager, s.settings, options...),
	})
	return c, nil
}

// Create reconciles the section and returns every failure that was not
// recovered.
func (s *SectionCreator) Create(ctx context.Context, section meta.Section) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs error
	)
	for _, ns := range section.Namespaces {
		entities, subscriptions := section.InNamespace(ns)
		if len(entities) == 0 && len(subscriptions) == 0 {
			continue
		}
		g.Go(func() error {
			if err := s.createInNamespace(ctx, section, ns, entities, subscriptions); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

func (s *SectionCreator) createInNamespace(ctx context.Context, section meta.Section, ns meta.NamespaceInfo, entities []meta.EntityInfo, subscriptions []meta.SubscriptionInfo) error {
	creators, err := s.creatorsFor(ns)
	if err != nil {
		return err
	}

	var errs error
	for _, e := range entities {
		switch e.Kind {
		case meta.Queue:
			_, err = creators.queues.Create(ctx, e.Path)
		case meta.Topic:
			_, err = creators.topics.Create(ctx, e.Path)
		default:
			err = fmt.Errorf("%s %q can't be created on its own", e.Kind, e.Path)
		}
		errs = multierr.Append(errs, err)
	}

	for _, sub := range subscriptions {
		topic, ok := section.TopicFor(sub)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("subscription %q has no topic in the section", sub.Path))
			continue
		}
		_, err := creators.subscriptions.Create(ctx, topic.Path, sub.Path, sub.Metadata, sub.Filter)
		errs = multierr.Append(errs, err)
	}

	if errs == nil {
		s.logger.DebugContext(ctx, "reconciled namespace",
			slogx.Namespace(ns.ConnectionString),
			slog.Int("entities", len(entities)),
			slog.Int("subscriptions", len(subscriptions)),
		)
	}
	return errs
}
