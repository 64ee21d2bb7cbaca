package topology

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/casualjim/roost/addressing"
	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/internal/registry"
	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/pkg/slogx"
	"github.com/casualjim/roost/settings"
	"github.com/fogfish/opts"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// EventsSuffix is appended to an endpoint name to form the topic it publishes to.
const EventsSuffix = ".events"

type Option = opts.Option[Manager]

var (
	WithPartitioner    = opts.ForName[Manager, addressing.Partitioner]("partitioner")
	WithSanitizer      = opts.ForName[Manager, addressing.Sanitizer]("sanitizer")
	WithIndividualizer = opts.ForName[Manager, addressing.Individualizer]("individualizer")
	WithPublishers     = opts.ForName[Manager, api.PublisherLookup]("publishers")
	WithLogger         = opts.ForName[Manager, *slog.Logger]("logger")
)

// Manager resolves the entities an endpoint needs. Its only state is the
// cache of resolved subscriptions, one section per event type.
type Manager struct {
	endpoint       string
	settings       settings.Reader
	partitioner    addressing.Partitioner
	sanitizer      addressing.Sanitizer
	individualizer addressing.Individualizer
	publishers     api.PublisherLookup
	logger         *slog.Logger

	subscriptions registry.Registry[meta.Section]
}

// New creates the manager for endpoint. Strategies that are not given as
// options are built from settings.
func New(endpoint string, r settings.Reader, options ...Option) (*Manager, error) {
	if endpoint == "" {
		endpoint = settings.GetOrDefault[string](r, settings.KeyEndpointName)
	}
	if endpoint == "" {
		return nil, &addressing.ConfigurationError{Setting: settings.KeyEndpointName, Reason: "an endpoint name is required"}
	}

	m := &Manager{
		endpoint:      endpoint,
		settings:      r,
		publishers:    api.StaticPublishers{},
		logger:        slog.Default().With(slogx.LoggerName("topology")),
		subscriptions: registry.New[meta.Section](),
	}
	if err := opts.Apply(m, options); err != nil {
		return nil, err
	}

	var err error
	if m.partitioner == nil {
		if m.partitioner, err = addressing.NewPartitioner(r); err != nil {
			return nil, err
		}
	}
	if m.sanitizer == nil {
		validator, err := addressing.NewValidator(r)
		if err != nil {
			return nil, err
		}
		if m.sanitizer, err = addressing.NewSanitizer(r, validator); err != nil {
			return nil, err
		}
	}
	if m.individualizer == nil {
		if m.individualizer, err = addressing.NewIndividualizer(r); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Endpoint is the logical name of the endpoint.
func (m *Manager) Endpoint() string { return m.endpoint }

// LocalAddress is the name of the input queue of this endpoint instance.
func (m *Manager) LocalAddress() string {
	return m.individualizer.Individualize(m.endpoint)
}

// DetermineResourcesToCreate returns everything the endpoint owns: its input
// queue and its topic in every namespace, plus the queues from the queue
// bindings.
func (m *Manager) DetermineResourcesToCreate() (meta.Section, error) {
	namespaces := m.partitioner.Namespaces(m.endpoint, meta.Creating)

	inputQueue, err := m.sanitizer.Sanitize(m.LocalAddress(), meta.Queue)
	if err != nil {
		return meta.Section{}, err
	}
	topic, err := m.sanitizer.Sanitize(m.endpoint+EventsSuffix, meta.Topic)
	if err != nil {
		return meta.Section{}, err
	}

	queues := []string{inputQueue}
	if bindings, ok := settings.TryGet[settings.QueueBindings](m.settings, settings.KeyQueueBindings); ok {
		for _, address := range slices.Concat(bindings.ReceivingAddresses, bindings.SendingAddresses) {
			path, err := m.sanitizer.Sanitize(address, meta.Queue)
			if err != nil {
				return meta.Section{}, err
			}
			queues = append(queues, path)
		}
	}

	entities := orderedmap.New[meta.EntityKey, meta.EntityInfo]()
	for _, ns := range namespaces {
		for _, q := range queues {
			e := meta.EntityInfo{Path: q, Kind: meta.Queue, Namespace: ns}
			entities.Set(e.Key(), e)
		}
		e := meta.EntityInfo{Path: topic, Kind: meta.Topic, Namespace: ns}
		entities.Set(e.Key(), e)
	}

	section := meta.Section{Namespaces: namespaces}
	for pair := entities.Oldest(); pair != nil; pair = pair.Next() {
		section.Entities = append(section.Entities, pair.Value)
	}
	m.logger.Debug("resolved resources to create", slog.Int("entities", len(section.Entities)), slog.Int("namespaces", len(namespaces)))
	return section, nil
}

// DetermineReceiveResources returns the queue to receive from in every receiving namespace.
func (m *Manager) DetermineReceiveResources(queue string) (meta.Section, error) {
	return m.single(queue, meta.Queue, queue, meta.Receiving)
}

// DeterminePublishDestination returns the topic of this endpoint in every
// sending namespace. Events are always published to the publisher's own topic.
func (m *Manager) DeterminePublishDestination(meta.EventType) (meta.Section, error) {
	return m.single(m.endpoint+EventsSuffix, meta.Topic, m.endpoint, meta.Sending)
}

// DetermineSendDestination returns the destination queue in every sending namespace.
func (m *Manager) DetermineSendDestination(destination string) (meta.Section, error) {
	return m.single(destination, meta.Queue, destination, meta.Sending)
}

func (m *Manager) single(name string, kind meta.EntityKind, scope string, intent meta.Intent) (meta.Section, error) {
	namespaces := m.partitioner.Namespaces(scope, intent)
	path, err := m.sanitizer.Sanitize(name, kind)
	if err != nil {
		return meta.Section{}, err
	}
	entities := make([]meta.EntityInfo, 0, len(namespaces))
	for _, ns := range namespaces {
		entities = append(entities, meta.EntityInfo{Path: path, Kind: kind, Namespace: ns})
	}
	return meta.Section{Namespaces: namespaces, Entities: entities}, nil
}

// DetermineResourcesToSubscribeTo returns the subscriptions needed to receive
// eventType. The section is built once per event type and cached until
// DetermineResourcesToUnsubscribeFrom removes it.
func (m *Manager) DetermineResourcesToSubscribeTo(ctx context.Context, eventType meta.EventType) (meta.Section, error) {
	key := subscriptionKey(eventType)
	if section, ok := m.subscriptions.Get(key); ok {
		return section.Clone(), nil
	}

	section, err := m.buildSubscriptionHierarchy(ctx, eventType)
	if err != nil {
		return meta.Section{}, err
	}
	stored, _ := m.subscriptions.GetOrSet(key, section)
	return stored.Clone(), nil
}

// subscriptionKey keeps event types apart whose full names coincide.
func subscriptionKey(eventType meta.EventType) string {
	return eventType.Namespace + "\x00" + eventType.Name
}

// DetermineResourcesToUnsubscribeFrom removes and returns the cached
// subscriptions for eventType. Unknown event types give an empty section.
func (m *Manager) DetermineResourcesToUnsubscribeFrom(eventType meta.EventType) meta.Section {
	if section, ok := m.subscriptions.Take(subscriptionKey(eventType)); ok {
		return section
	}
	return meta.Section{}
}

func (m *Manager) buildSubscriptionHierarchy(ctx context.Context, eventType meta.EventType) (meta.Section, error) {
	namespaces := m.partitioner.Namespaces(m.endpoint, meta.Creating)

	topicPaths, err := m.topicsFor(ctx, eventType)
	if err != nil {
		return meta.Section{}, err
	}

	legacyName, err := m.sanitizer.Sanitize(m.endpoint+"."+eventType.Name, meta.Subscription)
	if err != nil {
		return meta.Section{}, err
	}
	name, err := m.sanitizer.Sanitize(m.endpoint+"."+eventType.FullName(), meta.Subscription)
	if err != nil {
		return meta.Section{}, err
	}

	metadata := meta.SubscriptionMetadata{
		Description: m.endpoint + " subscribed to " + eventType.FullName(),
		EventType:   eventType.FullName(),
		LegacyName:  legacyName,
	}
	filter := SQLFilter(eventType)

	section := meta.Section{Namespaces: namespaces}
	for _, topicPath := range topicPaths {
		path, err := m.sanitizer.Sanitize(topicPath, meta.Topic)
		if err != nil {
			return meta.Section{}, err
		}
		for _, ns := range namespaces {
			topic := meta.EntityInfo{Path: path, Kind: meta.Topic, Namespace: ns}
			sub := meta.SubscriptionInfo{
				EntityInfo: meta.EntityInfo{Path: name, Kind: meta.Subscription, Namespace: ns},
				Metadata:   metadata,
				Filter:     filter,
			}
			sub.Relationships = []meta.EntityRelationship{{
				Source: sub.Key(),
				Target: topic.Key(),
				Kind:   meta.RelationshipSubscription,
			}}
			section.Topics = append(section.Topics, topic)
			section.Subscriptions = append(section.Subscriptions, sub)
		}
	}

	m.logger.Debug("built subscription hierarchy",
		slog.String("event_type", eventType.FullName()),
		slog.String("subscription", name),
		slog.Int("topics", len(topicPaths)),
	)
	return section, nil
}

func (m *Manager) topicsFor(ctx context.Context, eventType meta.EventType) ([]string, error) {
	addresses, err := m.publishers.PublishersOf(ctx, eventType)
	if err != nil {
		return nil, fmt.Errorf("failed to look up publishers of %s: %w", eventType, err)
	}
	paths := orderedmap.New[string, struct{}]()
	for _, address := range addresses {
		paths.Set(address+EventsSuffix, struct{}{})
	}
	result := make([]string, 0, paths.Len())
	for pair := paths.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Key)
	}
	return result, nil
}
