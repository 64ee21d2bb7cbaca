package broker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/description"
	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/pkg/slogx"
)

// Op names an operation of the in-memory namespace.
type Op string

const (
	OpQueueExists        Op = "QueueExists"
	OpCreateQueue        Op = "CreateQueue"
	OpGetQueue           Op = "GetQueue"
	OpUpdateQueue        Op = "UpdateQueue"
	OpDeleteQueue        Op = "DeleteQueue"
	OpTopicExists        Op = "TopicExists"
	OpCreateTopic        Op = "CreateTopic"
	OpGetTopic           Op = "GetTopic"
	OpUpdateTopic        Op = "UpdateTopic"
	OpDeleteTopic        Op = "DeleteTopic"
	OpSubscriptionExists Op = "SubscriptionExists"
	OpCreateSubscription Op = "CreateSubscription"
	OpGetSubscription    Op = "GetSubscription"
	OpUpdateSubscription Op = "UpdateSubscription"
	OpDeleteSubscription Op = "DeleteSubscription"
	OpGetRules           Op = "GetRules"
	OpSend               Op = "Send"
)

// Fault makes an operation fail. Path is the entity path, for subscriptions
// "<topic>/<name>"; an empty Path matches every entity. The fault fires
// Times times, once when Times is zero. With Commit the operation takes
// effect before the error is returned, which is how a timed out create that
// went through on the broker looks to a client.
type Fault struct {
	Op     Op
	Path   string
	Kind   api.ErrorKind
	Times  int
	Commit bool
}

// Namespace is an in-memory broker namespace. It manages queues, topics and
// subscriptions and keeps every message sent to them.
type Namespace struct {
	info   meta.NamespaceInfo
	logger *slog.Logger

	queues *haxmap.Map[string, *queue]
	topics *haxmap.Map[string, *topic]
	calls  *haxmap.Map[Op, *atomic.Int64]

	faultsMu sync.Mutex
	faults   []*Fault
}

type mailbox struct {
	mu       sync.Mutex
	messages []*api.BrokeredMessage
}

func (m *mailbox) deliver(msgs ...*api.BrokeredMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range msgs {
		m.messages = append(m.messages, msg.Clone())
	}
}

func (m *mailbox) snapshot() []*api.BrokeredMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*api.BrokeredMessage(nil), m.messages...)
}

func (m *mailbox) count() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.messages))
}

type queue struct {
	mailbox
	descMu sync.Mutex
	desc   description.QueueDescription
}

type topic struct {
	descMu        sync.Mutex
	desc          description.TopicDescription
	subscriptions *haxmap.Map[string, *subscription]
}

type subscription struct {
	mailbox
	descMu sync.Mutex
	desc   description.SubscriptionDescription
	rules  []description.Rule
}

// NewNamespace creates an empty namespace.
func NewNamespace(info meta.NamespaceInfo) *Namespace {
	return &Namespace{
		info:   info,
		logger: slog.Default().With(slogx.LoggerName("broker.memory"), slogx.Namespace(info.ConnectionString)),
		queues: haxmap.New[string, *queue](),
		topics: haxmap.New[string, *topic](),
		calls:  haxmap.New[Op, *atomic.Int64](),
	}
}

// Info describes the namespace.
func (n *Namespace) Info() meta.NamespaceInfo { return n.info }

// Inject registers a fault.
func (n *Namespace) Inject(f Fault) {
	if f.Times <= 0 {
		f.Times = 1
	}
	n.faultsMu.Lock()
	defer n.faultsMu.Unlock()
	n.faults = append(n.faults, &f)
}

// Calls returns how often op was invoked. Without arguments it returns the
// total over every operation.
func (n *Namespace) Calls(ops ...Op) int64 {
	var total int64
	n.calls.ForEach(func(op Op, count *atomic.Int64) bool {
		if len(ops) == 0 {
			total += count.Load()
			return true
		}
		for _, o := range ops {
			if o == op {
				total += count.Load()
			}
		}
		return true
	})
	return total
}

// Messages returns the messages delivered to the queue at path.
func (n *Namespace) Messages(path string) []*api.BrokeredMessage {
	if q, ok := n.queues.Get(path); ok {
		return q.snapshot()
	}
	return nil
}

// SubscriptionMessages returns the messages delivered to a subscription.
func (n *Namespace) SubscriptionMessages(topicPath, name string) []*api.BrokeredMessage {
	if t, ok := n.topics.Get(topicPath); ok {
		if s, ok := t.subscriptions.Get(name); ok {
			return s.snapshot()
		}
	}
	return nil
}

// enter records the call and hands back the fault to apply, if any.
func (n *Namespace) enter(ctx context.Context, op Op, path string) (*Fault, error) {
	count, _ := n.calls.GetOrCompute(op, func() *atomic.Int64 { return new(atomic.Int64) })
	count.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n.faultsMu.Lock()
	defer n.faultsMu.Unlock()
	for i, f := range n.faults {
		if f.Op != op || (f.Path != "" && f.Path != path) {
			continue
		}
		f.Times--
		if f.Times == 0 {
			n.faults = append(n.faults[:i], n.faults[i+1:]...)
		}
		n.logger.Debug("injecting fault", slog.String("op", string(op)), slog.String("path", path), slogx.Stringer("kind", f.Kind))
		if !f.Commit {
			return nil, api.NewBrokerError(string(op), path, f.Kind, errors.New("injected fault"))
		}
		return f, nil
	}
	return nil, nil
}

func committed(f *Fault, op Op, path string) error {
	if f == nil {
		return nil
	}
	return api.NewBrokerError(string(op), path, f.Kind, errors.New("injected fault after commit"))
}

func notFound(op Op, path string) error {
	return api.NewBrokerError(string(op), path, api.KindNotFound, nil)
}

func alreadyExists(op Op, path string) error {
	return api.NewBrokerError(string(op), path, api.KindAlreadyExists, nil)
}

func immutable(op Op, path string, changes description.Changes) error {
	return api.NewBrokerError(string(op), path, api.KindInvalidArgument, &ImmutableFieldsError{Fields: changes.Immutable})
}

// ImmutableFieldsError lists fields an update tried to change but cannot.
type ImmutableFieldsError struct {
	Fields []string
}

func (e *ImmutableFieldsError) Error() string {
	msg := "cannot change"
	for i, f := range e.Fields {
		if i > 0 {
			msg += ","
		}
		msg += " " + f
	}
	return msg
}

func subscriptionPath(topicPath, name string) string {
	return topicPath + "/" + name
}

func (n *Namespace) QueueExists(ctx context.Context, path string) (bool, error) {
	if _, err := n.enter(ctx, OpQueueExists, path); err != nil {
		return false, err
	}
	_, ok := n.queues.Get(path)
	return ok, nil
}

func (n *Namespace) CreateQueue(ctx context.Context, desc *description.QueueDescription) (*description.QueueDescription, error) {
	f, err := n.enter(ctx, OpCreateQueue, desc.Path)
	if err != nil {
		return nil, err
	}
	q := &queue{desc: *desc}
	q.desc.MessageCount = 0
	if _, loaded := n.queues.GetOrSet(desc.Path, q); loaded {
		return nil, alreadyExists(OpCreateQueue, desc.Path)
	}
	n.logger.Debug("created queue", slogx.Entity(meta.Queue, desc.Path))
	if err := committed(f, OpCreateQueue, desc.Path); err != nil {
		return nil, err
	}
	created := q.desc
	return &created, nil
}

func (n *Namespace) GetQueue(ctx context.Context, path string) (*description.QueueDescription, error) {
	if _, err := n.enter(ctx, OpGetQueue, path); err != nil {
		return nil, err
	}
	q, ok := n.queues.Get(path)
	if !ok {
		return nil, notFound(OpGetQueue, path)
	}
	q.descMu.Lock()
	current := q.desc
	q.descMu.Unlock()
	current.MessageCount = q.count()
	return &current, nil
}

func (n *Namespace) UpdateQueue(ctx context.Context, desc *description.QueueDescription) (*description.QueueDescription, error) {
	f, err := n.enter(ctx, OpUpdateQueue, desc.Path)
	if err != nil {
		return nil, err
	}
	q, ok := n.queues.Get(desc.Path)
	if !ok {
		return nil, notFound(OpUpdateQueue, desc.Path)
	}
	q.descMu.Lock()
	defer q.descMu.Unlock()
	if changes := description.DiffQueue(&q.desc, desc); len(changes.Immutable) > 0 {
		return nil, immutable(OpUpdateQueue, desc.Path, changes)
	}
	q.desc = *desc
	q.desc.MessageCount = 0
	if err := committed(f, OpUpdateQueue, desc.Path); err != nil {
		return nil, err
	}
	updated := q.desc
	return &updated, nil
}

func (n *Namespace) DeleteQueue(ctx context.Context, path string) error {
	if _, err := n.enter(ctx, OpDeleteQueue, path); err != nil {
		return err
	}
	if _, ok := n.queues.GetAndDel(path); !ok {
		return notFound(OpDeleteQueue, path)
	}
	return nil
}

func (n *Namespace) TopicExists(ctx context.Context, path string) (bool, error) {
	if _, err := n.enter(ctx, OpTopicExists, path); err != nil {
		return false, err
	}
	_, ok := n.topics.Get(path)
	return ok, nil
}

func (n *Namespace) CreateTopic(ctx context.Context, desc *description.TopicDescription) (*description.TopicDescription, error) {
	f, err := n.enter(ctx, OpCreateTopic, desc.Path)
	if err != nil {
		return nil, err
	}
	t := &topic{desc: *desc, subscriptions: haxmap.New[string, *subscription]()}
	if _, loaded := n.topics.GetOrSet(desc.Path, t); loaded {
		return nil, alreadyExists(OpCreateTopic, desc.Path)
	}
	n.logger.Debug("created topic", slogx.Entity(meta.Topic, desc.Path))
	if err := committed(f, OpCreateTopic, desc.Path); err != nil {
		return nil, err
	}
	created := t.desc
	return &created, nil
}

func (n *Namespace) GetTopic(ctx context.Context, path string) (*description.TopicDescription, error) {
	if _, err := n.enter(ctx, OpGetTopic, path); err != nil {
		return nil, err
	}
	t, ok := n.topics.Get(path)
	if !ok {
		return nil, notFound(OpGetTopic, path)
	}
	t.descMu.Lock()
	defer t.descMu.Unlock()
	current := t.desc
	return &current, nil
}

func (n *Namespace) UpdateTopic(ctx context.Context, desc *description.TopicDescription) (*description.TopicDescription, error) {
	f, err := n.enter(ctx, OpUpdateTopic, desc.Path)
	if err != nil {
		return nil, err
	}
	t, ok := n.topics.Get(desc.Path)
	if !ok {
		return nil, notFound(OpUpdateTopic, desc.Path)
	}
	t.descMu.Lock()
	defer t.descMu.Unlock()
	if changes := description.DiffTopic(&t.desc, desc); len(changes.Immutable) > 0 {
		return nil, immutable(OpUpdateTopic, desc.Path, changes)
	}
	t.desc = *desc
	if err := committed(f, OpUpdateTopic, desc.Path); err != nil {
		return nil, err
	}
	updated := t.desc
	return &updated, nil
}

func (n *Namespace) DeleteTopic(ctx context.Context, path string) error {
	if _, err := n.enter(ctx, OpDeleteTopic, path); err != nil {
		return err
	}
	if _, ok := n.topics.GetAndDel(path); !ok {
		return notFound(OpDeleteTopic, path)
	}
	return nil
}

func (n *Namespace) SubscriptionExists(ctx context.Context, topicPath, name string) (bool, error) {
	if _, err := n.enter(ctx, OpSubscriptionExists, subscriptionPath(topicPath, name)); err != nil {
		return false, err
	}
	t, ok := n.topics.Get(topicPath)
	if !ok {
		return false, nil
	}
	_, ok = t.subscriptions.Get(name)
	return ok, nil
}

// CreateSubscription creates the subscription with a default rule. An empty
// filter accepts every message.
func (n *Namespace) CreateSubscription(ctx context.Context, desc *description.SubscriptionDescription, filter string) (*description.SubscriptionDescription, error) {
	path := subscriptionPath(desc.TopicPath, desc.Name)
	f, err := n.enter(ctx, OpCreateSubscription, path)
	if err != nil {
		return nil, err
	}
	t, ok := n.topics.Get(desc.TopicPath)
	if !ok {
		return nil, notFound(OpCreateSubscription, desc.TopicPath)
	}
	if filter == "" {
		filter = TrueFilter
	}
	s := &subscription{
		desc:  *desc,
		rules: []description.Rule{{Name: description.DefaultRuleName, Filter: filter}},
	}
	s.desc.MessageCount = 0
	if _, loaded := t.subscriptions.GetOrSet(desc.Name, s); loaded {
		return nil, alreadyExists(OpCreateSubscription, path)
	}
	n.logger.Debug("created subscription", slogx.Entity(meta.Subscription, path))
	if err := committed(f, OpCreateSubscription, path); err != nil {
		return nil, err
	}
	created := s.desc
	return &created, nil
}

func (n *Namespace) subscription(op Op, topicPath, name string) (*subscription, error) {
	t, ok := n.topics.Get(topicPath)
	if !ok {
		return nil, notFound(op, topicPath)
	}
	s, ok := t.subscriptions.Get(name)
	if !ok {
		return nil, notFound(op, subscriptionPath(topicPath, name))
	}
	return s, nil
}

func (n *Namespace) GetSubscription(ctx context.Context, topicPath, name string) (*description.SubscriptionDescription, error) {
	if _, err := n.enter(ctx, OpGetSubscription, subscriptionPath(topicPath, name)); err != nil {
		return nil, err
	}
	s, err := n.subscription(OpGetSubscription, topicPath, name)
	if err != nil {
		return nil, err
	}
	s.descMu.Lock()
	current := s.desc
	s.descMu.Unlock()
	current.MessageCount = s.count()
	return &current, nil
}

func (n *Namespace) UpdateSubscription(ctx context.Context, desc *description.SubscriptionDescription) (*description.SubscriptionDescription, error) {
	path := subscriptionPath(desc.TopicPath, desc.Name)
	f, err := n.enter(ctx, OpUpdateSubscription, path)
	if err != nil {
		return nil, err
	}
	s, err := n.subscription(OpUpdateSubscription, desc.TopicPath, desc.Name)
	if err != nil {
		return nil, err
	}
	s.descMu.Lock()
	defer s.descMu.Unlock()
	if changes := description.DiffSubscription(&s.desc, desc); len(changes.Immutable) > 0 {
		return nil, immutable(OpUpdateSubscription, path, changes)
	}
	s.desc = *desc
	s.desc.MessageCount = 0
	if err := committed(f, OpUpdateSubscription, path); err != nil {
		return nil, err
	}
	updated := s.desc
	return &updated, nil
}

func (n *Namespace) DeleteSubscription(ctx context.Context, topicPath, name string) error {
	if _, err := n.enter(ctx, OpDeleteSubscription, subscriptionPath(topicPath, name)); err != nil {
		return err
	}
	t, ok := n.topics.Get(topicPath)
	if !ok {
		return notFound(OpDeleteSubscription, topicPath)
	}
	if _, ok := t.subscriptions.GetAndDel(name); !ok {
		return notFound(OpDeleteSubscription, subscriptionPath(topicPath, name))
	}
	return nil
}

func (n *Namespace) GetRules(ctx context.Context, topicPath, name string) ([]description.Rule, error) {
	if _, err := n.enter(ctx, OpGetRules, subscriptionPath(topicPath, name)); err != nil {
		return nil, err
	}
	s, err := n.subscription(OpGetRules, topicPath, name)
	if err != nil {
		return nil, err
	}
	s.descMu.Lock()
	defer s.descMu.Unlock()
	return append([]description.Rule(nil), s.rules...), nil
}

// deliver puts msgs on the queue at path, or on every subscription of the
// topic at path whose rules match. Either all messages are delivered or none.
func (n *Namespace) deliver(ctx context.Context, path string, msgs []*api.BrokeredMessage) error {
	f, err := n.enter(ctx, OpSend, path)
	if err != nil {
		return err
	}
	if q, ok := n.queues.Get(path); ok {
		q.deliver(msgs...)
		return committed(f, OpSend, path)
	}
	t, ok := n.topics.Get(path)
	if !ok {
		return notFound(OpSend, path)
	}
	t.subscriptions.ForEach(func(name string, s *subscription) bool {
		s.descMu.Lock()
		rules := s.rules
		s.descMu.Unlock()
		for _, msg := range msgs {
			if n.matches(rules, msg) {
				s.deliver(msg)
			}
		}
		return true
	})
	return committed(f, OpSend, path)
}

func (n *Namespace) matches(rules []description.Rule, msg *api.BrokeredMessage) bool {
	for _, rule := range rules {
		ok, err := EvaluateFilter(rule.Filter, msg.Properties)
		if err != nil {
			n.logger.Warn("failed to evaluate filter", slog.String("rule", rule.Name), slogx.Error(err))
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// Create opens a sender for the entity at path. The namespace argument is
// ignored, a Namespace only sends to itself.
func (n *Namespace) Create(_ context.Context, path string, _ meta.NamespaceInfo) (api.MessageSender, error) {
	return &memorySender{namespace: n, path: path}, nil
}

type memorySender struct {
	namespace *Namespace
	path      string
	closed    atomic.Bool
}

func (s *memorySender) Send(ctx context.Context, msg *api.BrokeredMessage) error {
	return s.SendBatch(ctx, []*api.BrokeredMessage{msg})
}

func (s *memorySender) SendBatch(ctx context.Context, msgs []*api.BrokeredMessage) error {
	if s.closed.Load() {
		return api.NewBrokerError(string(OpSend), s.path, api.KindCommunication, errors.New("sender is closed"))
	}
	return s.namespace.deliver(ctx, s.path, msgs)
}

func (s *memorySender) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *memorySender) IsClosed() bool { return s.closed.Load() }
