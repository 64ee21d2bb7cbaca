package settings

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "ROOST"

// Duration accepts Go durations, day and week units ("1d", "2w") and the
// literal "never".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if strings.EqualFold(s, "never") {
		*d = Duration(Never)
		return nil
	}
	v, err := strfmt.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	if time.Duration(d) == Never {
		return []byte("never"), nil
	}
	return []byte(time.Duration(d).String()), nil
}

// Config is the file and environment representation of the settings.
// Zero values mean "keep the default".
type Config struct {
	Endpoint       string `yaml:"endpoint" envconfig:"ENDPOINT" validate:"required"`
	CreateTopology *bool  `yaml:"create_topology" envconfig:"CREATE_TOPOLOGY"`

	Bindings      BindingsConfig     `yaml:"bindings" envconfig:"BINDINGS"`
	Addressing    AddressingConfig   `yaml:"addressing" envconfig:"ADDRESSING"`
	Partitioning  PartitioningConfig `yaml:"partitioning" envconfig:"PARTITIONING"`
	Queues        EntityConfig       `yaml:"queues" envconfig:"QUEUES"`
	Topics        EntityConfig       `yaml:"topics" envconfig:"TOPICS"`
	Subscriptions EntityConfig       `yaml:"subscriptions" envconfig:"SUBSCRIPTIONS"`
	Senders       SendersConfig      `yaml:"senders" envconfig:"SENDERS"`
}

type BindingsConfig struct {
	Receiving []string `yaml:"receiving" envconfig:"RECEIVING" validate:"dive,required"`
	Sending   []string `yaml:"sending" envconfig:"SENDING" validate:"dive,required"`
}

type AddressingConfig struct {
	Sanitization      string `yaml:"sanitization" envconfig:"SANITIZATION" validate:"omitempty,oneof=adjust throw"`
	Validation        string `yaml:"validation" envconfig:"VALIDATION" validate:"omitempty,oneof=length characters"`
	Individualization string `yaml:"individualization" envconfig:"INDIVIDUALIZATION" validate:"omitempty,oneof=core discriminator"`
	Discriminator     string `yaml:"discriminator" envconfig:"DISCRIMINATOR"`

	QueueMaxLength        int `yaml:"queue_max_length" envconfig:"QUEUE_MAX_LENGTH" validate:"gte=0"`
	TopicMaxLength        int `yaml:"topic_max_length" envconfig:"TOPIC_MAX_LENGTH" validate:"gte=0"`
	SubscriptionMaxLength int `yaml:"subscription_max_length" envconfig:"SUBSCRIPTION_MAX_LENGTH" validate:"gte=0"`
}

type PartitioningConfig struct {
	Strategy   string   `yaml:"strategy" envconfig:"STRATEGY" validate:"omitempty,oneof=single replicated"`
	Namespaces []string `yaml:"namespaces" envconfig:"NAMESPACES" validate:"required,min=1,dive,required"`
}

// EntityConfig holds the description settings shared by every entity kind.
// Fields that don't apply to a kind are ignored for it.
type EntityConfig struct {
	LockDuration        Duration `yaml:"lock_duration" envconfig:"LOCK_DURATION" validate:"gte=0"`
	MaxSizeInMegabytes  int64    `yaml:"max_size_mb" envconfig:"MAX_SIZE_MB" validate:"gte=0"`
	DefaultTimeToLive   Duration `yaml:"default_ttl" envconfig:"DEFAULT_TTL" validate:"gte=0"`
	AutoDeleteOnIdle    Duration `yaml:"auto_delete_on_idle" envconfig:"AUTO_DELETE_ON_IDLE" validate:"gte=0"`
	DuplicateDetection  *bool    `yaml:"duplicate_detection" envconfig:"DUPLICATE_DETECTION"`
	DuplicateWindow     Duration `yaml:"duplicate_window" envconfig:"DUPLICATE_WINDOW" validate:"gte=0"`
	RequiresSession     *bool    `yaml:"requires_session" envconfig:"REQUIRES_SESSION"`
	MaxDeliveryCount    int      `yaml:"max_delivery_count" envconfig:"MAX_DELIVERY_COUNT" validate:"gte=0"`
	BatchedOperations   *bool    `yaml:"batched_operations" envconfig:"BATCHED_OPERATIONS"`
	Partitioning        *bool    `yaml:"partitioning" envconfig:"PARTITIONING"`
	SupportOrdering     *bool    `yaml:"support_ordering" envconfig:"SUPPORT_ORDERING"`
	Express             *bool    `yaml:"express" envconfig:"EXPRESS"`
	DeadLetterOnExpired *bool    `yaml:"dead_letter_on_expiration" envconfig:"DEAD_LETTER_ON_EXPIRATION"`
	ForwardTo           string   `yaml:"forward_to" envconfig:"FORWARD_TO"`
	ForwardDeadLetterTo string   `yaml:"forward_dead_letter_to" envconfig:"FORWARD_DEAD_LETTER_TO"`
}

type SendersConfig struct {
	RetryAttempts    *int     `yaml:"retry_attempts" envconfig:"RETRY_ATTEMPTS" validate:"omitempty,gte=0"`
	BackOff          Duration `yaml:"backoff" envconfig:"BACKOFF" validate:"gte=0"`
	MaxMessageSizeKB int      `yaml:"max_message_size_kb" envconfig:"MAX_MESSAGE_SIZE_KB" validate:"gte=0"`
}

// Load reads the configuration file at path, when given, then lets the
// environment override it and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}
	return nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Partitioning.Strategy == PartitioningReplicated && len(c.Partitioning.Namespaces) < 2 {
		return fmt.Errorf("replicated partitioning needs at least 2 namespaces, got %d", len(c.Partitioning.Namespaces))
	}
	return nil
}

// Options converts the configuration to settings options.
func (c *Config) Options() []Option {
	var o []Option
	o = append(o, EndpointName(c.Endpoint))
	if c.CreateTopology != nil {
		o = append(o, CreateTopology(*c.CreateTopology))
	}
	if len(c.Bindings.Receiving) > 0 || len(c.Bindings.Sending) > 0 {
		o = append(o, Bindings(QueueBindings{ReceivingAddresses: c.Bindings.Receiving, SendingAddresses: c.Bindings.Sending}))
	}

	a := c.Addressing
	if a.Sanitization != "" {
		o = append(o, Sanitization(a.Sanitization))
	}
	if a.Validation != "" {
		o = append(o, Validation(a.Validation))
	}
	if a.Individualization != "" {
		o = append(o, Individualization(a.Individualization))
	}
	if a.Discriminator != "" {
		o = append(o, Discriminator(a.Discriminator))
	}
	if a.QueueMaxLength > 0 {
		o = append(o, QueuePathMaximumLength(a.QueueMaxLength))
	}
	if a.TopicMaxLength > 0 {
		o = append(o, TopicPathMaximumLength(a.TopicMaxLength))
	}
	if a.SubscriptionMaxLength > 0 {
		o = append(o, SubscriptionPathMaximumLength(a.SubscriptionMaxLength))
	}

	switch {
	case c.Partitioning.Strategy == PartitioningReplicated:
		o = append(o, ReplicatedNamespaces(c.Partitioning.Namespaces...))
	case len(c.Partitioning.Namespaces) > 0:
		o = append(o, SingleNamespace(c.Partitioning.Namespaces[0]))
	}

	o = append(o, c.Queues.queueOptions()...)
	o = append(o, c.Topics.topicOptions()...)
	o = append(o, c.Subscriptions.subscriptionOptions()...)

	s := c.Senders
	if s.RetryAttempts != nil {
		o = append(o, RetryAttemptsOnThrottle(*s.RetryAttempts))
	}
	if s.BackOff > 0 {
		o = append(o, BackOffTimeOnThrottle(time.Duration(s.BackOff)))
	}
	if s.MaxMessageSizeKB > 0 {
		o = append(o, MaximumMessageSizeInKilobytes(s.MaxMessageSizeKB))
	}
	return o
}

type entityKeys struct {
	lock, maxSize, ttl, autoDelete, dupDetection, dupWindow, session string
	delivery, batched, partitioning, ordering, express, deadLetter  string
	forwardTo, forwardDeadLetter                                    string
}

var (
	queueKeys = entityKeys{
		lock: KeyQueueLockDuration, maxSize: KeyQueueMaxSizeInMegabytes, ttl: KeyQueueDefaultMessageTimeToLive,
		autoDelete: KeyQueueAutoDeleteOnIdle, dupDetection: KeyQueueRequiresDuplicateDetection,
		dupWindow: KeyQueueDuplicateDetectionHistoryWindow, session: KeyQueueRequiresSession,
		delivery: KeyQueueMaxDeliveryCount, batched: KeyQueueEnableBatchedOperations,
		partitioning: KeyQueueEnablePartitioning, ordering: KeyQueueSupportOrdering, express: KeyQueueEnableExpress,
		deadLetter: KeyQueueDeadLetteringOnMessageExpiration, forwardTo: KeyQueueForwardTo,
		forwardDeadLetter: KeyQueueForwardDeadLetteredMessagesTo,
	}
	topicKeys = entityKeys{
		maxSize: KeyTopicMaxSizeInMegabytes, ttl: KeyTopicDefaultMessageTimeToLive,
		autoDelete: KeyTopicAutoDeleteOnIdle, dupDetection: KeyTopicRequiresDuplicateDetection,
		dupWindow: KeyTopicDuplicateDetectionHistoryWindow, batched: KeyTopicEnableBatchedOperations,
		partitioning: KeyTopicEnablePartitioning, ordering: KeyTopicSupportOrdering, express: KeyTopicEnableExpress,
	}
	subscriptionKeys = entityKeys{
		lock: KeySubscriptionLockDuration, ttl: KeySubscriptionDefaultMessageTimeToLive,
		autoDelete: KeySubscriptionAutoDeleteOnIdle, session: KeySubscriptionRequiresSession,
		delivery: KeySubscriptionMaxDeliveryCount, batched: KeySubscriptionEnableBatchedOperations,
		deadLetter: KeySubscriptionDeadLetteringOnMessageExpiration, forwardTo: KeySubscriptionForwardTo,
		forwardDeadLetter: KeySubscriptionForwardDeadLetteredMessagesTo,
	}
)

func (e EntityConfig) queueOptions() []Option        { return e.options(queueKeys) }
func (e EntityConfig) topicOptions() []Option        { return e.options(topicKeys) }
func (e EntityConfig) subscriptionOptions() []Option { return e.options(subscriptionKeys) }

func (e EntityConfig) options(k entityKeys) []Option {
	var o []Option
	duration := func(key string, d Duration) {
		if key != "" && d > 0 {
			o = append(o, Value(key, time.Duration(d)))
		}
	}
	flag := func(key string, b *bool) {
		if key != "" && b != nil {
			o = append(o, Value(key, *b))
		}
	}
	duration(k.lock, e.LockDuration)
	duration(k.ttl, e.DefaultTimeToLive)
	duration(k.autoDelete, e.AutoDeleteOnIdle)
	duration(k.dupWindow, e.DuplicateWindow)
	flag(k.dupDetection, e.DuplicateDetection)
	flag(k.session, e.RequiresSession)
	flag(k.batched, e.BatchedOperations)
	flag(k.partitioning, e.Partitioning)
	flag(k.ordering, e.SupportOrdering)
	flag(k.express, e.Express)
	flag(k.deadLetter, e.DeadLetterOnExpired)
	if k.maxSize != "" && e.MaxSizeInMegabytes > 0 {
		o = append(o, Value(k.maxSize, e.MaxSizeInMegabytes))
	}
	if k.delivery != "" && e.MaxDeliveryCount > 0 {
		o = append(o, Value(k.delivery, e.MaxDeliveryCount))
	}
	if k.forwardTo != "" && e.ForwardTo != "" {
		o = append(o, Value(k.forwardTo, e.ForwardTo))
	}
	if k.forwardDeadLetter != "" && e.ForwardDeadLetterTo != "" {
		o = append(o, Value(k.forwardDeadLetter, e.ForwardDeadLetterTo))
	}
	return o
}
