package settings

import (
	"fmt"
	"time"

	"github.com/casualjim/roost/meta"
	"github.com/fogfish/opts"
)

type Option = opts.Option[Holder]

// New returns a holder with every default installed and the options applied.
func New(options ...Option) (*Holder, error) {
	h := NewHolder()
	ApplyDefaults(h)
	if err := opts.Apply(h, options); err != nil {
		return nil, err
	}
	return h, nil
}

// Value sets key to value.
func Value[V any](key string, value V) Option {
	return opts.Type[Holder](func(h *Holder) error {
		h.Set(key, value)
		return nil
	})
}

// Conditional sets key to value and guards it with condition, when given.
func Conditional[V any](key string, value V, condition ...Condition) Option {
	return opts.Type[Holder](func(h *Holder) error {
		h.Set(key, value)
		if len(condition) > 0 && condition[0] != nil {
			h.Set(ConditionKey(key), condition[0])
		}
		return nil
	})
}

func positive[V int | int64](key string, value V) Option {
	return opts.Type[Holder](func(h *Holder) error {
		if value <= 0 {
			return fmt.Errorf("settings: %s must be greater than zero, got %d", key, value)
		}
		h.Set(key, value)
		return nil
	})
}

func EndpointName(name string) Option {
	return opts.Type[Holder](func(h *Holder) error {
		if name == "" {
			return fmt.Errorf("settings: endpoint name can't be empty")
		}
		h.Set(KeyEndpointName, name)
		return nil
	})
}

func CreateTopology(enabled bool) Option { return Value(KeyCreateTopology, enabled) }

func Bindings(bindings QueueBindings) Option { return Value(KeyQueueBindings, bindings) }

func QueuePathMaximumLength(n int) Option { return positive(KeyQueuePathMaximumLength, n) }

func TopicPathMaximumLength(n int) Option { return positive(KeyTopicPathMaximumLength, n) }

func SubscriptionPathMaximumLength(n int) Option {
	return positive(KeySubscriptionPathMaximumLength, n)
}

func UserMetadataMaximumLength(n int) Option { return positive(KeyUserMetadataMaximumLength, n) }

func Sanitization(strategy string) Option {
	return oneOf(KeySanitizationStrategy, strategy, SanitizationAdjust, SanitizationThrow)
}

func Validation(strategy string) Option {
	return oneOf(KeyValidationStrategy, strategy, ValidationLength, ValidationCharacters)
}

func Individualization(strategy string) Option {
	return oneOf(KeyIndividualizationStrategy, strategy, IndividualizationCore, IndividualizationDiscriminator)
}

// Discriminator selects discriminator individualization with a fixed suffix.
func Discriminator(discriminator string) Option {
	return opts.Type[Holder](func(h *Holder) error {
		h.Set(KeyIndividualizationStrategy, IndividualizationDiscriminator)
		h.Set(KeyDiscriminator, discriminator)
		return nil
	})
}

func oneOf(key, value string, allowed ...string) Option {
	return opts.Type[Holder](func(h *Holder) error {
		for _, a := range allowed {
			if a == value {
				h.Set(key, value)
				return nil
			}
		}
		return fmt.Errorf("settings: %q is not a valid value for %s, expected one of %v", value, key, allowed)
	})
}

// SingleNamespace uses one active namespace for everything.
func SingleNamespace(connectionString string) Option {
	return opts.Type[Holder](func(h *Holder) error {
		h.Set(KeyPartitioningStrategy, PartitioningSingle)
		h.Set(KeyPartitioningNamespaces, []meta.NamespaceInfo{{ConnectionString: connectionString, Mode: meta.Active}})
		return nil
	})
}

// ReplicatedNamespaces replicates the topology over every given namespace.
func ReplicatedNamespaces(connectionStrings ...string) Option {
	return opts.Type[Holder](func(h *Holder) error {
		namespaces := make([]meta.NamespaceInfo, 0, len(connectionStrings))
		for _, cs := range connectionStrings {
			namespaces = append(namespaces, meta.NamespaceInfo{ConnectionString: cs, Mode: meta.Active})
		}
		h.Set(KeyPartitioningStrategy, PartitioningReplicated)
		h.Set(KeyPartitioningNamespaces, namespaces)
		return nil
	})
}

// Namespaces sets the namespace list without touching the strategy.
func Namespaces(namespaces ...meta.NamespaceInfo) Option {
	return Value(KeyPartitioningNamespaces, namespaces)
}

func Partitioning(strategy string) Option {
	return oneOf(KeyPartitioningStrategy, strategy, PartitioningSingle, PartitioningReplicated)
}

// Queue descriptions.

func QueueLockDuration(d time.Duration) Option { return Value(KeyQueueLockDuration, d) }

func QueueMaxSizeInMegabytes(n int64) Option { return positive(KeyQueueMaxSizeInMegabytes, n) }

func QueueRequiresDuplicateDetection(enabled bool) Option {
	return Value(KeyQueueRequiresDuplicateDetection, enabled)
}

func QueueDuplicateDetectionHistoryTimeWindow(d time.Duration) Option {
	return Value(KeyQueueDuplicateDetectionHistoryWindow, d)
}

func QueueRequiresSession(enabled bool) Option { return Value(KeyQueueRequiresSession, enabled) }

func QueueDefaultMessageTimeToLive(d time.Duration) Option {
	return Value(KeyQueueDefaultMessageTimeToLive, d)
}

func QueueEnableDeadLetteringOnMessageExpiration(enabled bool) Option {
	return Value(KeyQueueDeadLetteringOnMessageExpiration, enabled)
}

func QueueMaxDeliveryCount(n int) Option { return positive(KeyQueueMaxDeliveryCount, n) }

func QueueEnableBatchedOperations(enabled bool) Option {
	return Value(KeyQueueEnableBatchedOperations, enabled)
}

func QueueEnablePartitioning(enabled bool) Option {
	return Value(KeyQueueEnablePartitioning, enabled)
}

func QueueSupportOrdering(enabled bool) Option { return Value(KeyQueueSupportOrdering, enabled) }

func QueueAutoDeleteOnIdle(d time.Duration) Option { return Value(KeyQueueAutoDeleteOnIdle, d) }

func QueueEnableExpress(enabled bool, condition ...Condition) Option {
	return Conditional(KeyQueueEnableExpress, enabled, condition...)
}

func QueueForwardTo(target string, condition ...Condition) Option {
	return Conditional(KeyQueueForwardTo, target, condition...)
}

func QueueForwardDeadLetteredMessagesTo(target string, condition ...Condition) Option {
	return Conditional(KeyQueueForwardDeadLetteredMessagesTo, target, condition...)
}

// Topic descriptions.

func TopicMaxSizeInMegabytes(n int64) Option { return positive(KeyTopicMaxSizeInMegabytes, n) }

func TopicRequiresDuplicateDetection(enabled bool) Option {
	return Value(KeyTopicRequiresDuplicateDetection, enabled)
}

func TopicDuplicateDetectionHistoryTimeWindow(d time.Duration) Option {
	return Value(KeyTopicDuplicateDetectionHistoryWindow, d)
}

func TopicDefaultMessageTimeToLive(d time.Duration) Option {
	return Value(KeyTopicDefaultMessageTimeToLive, d)
}

func TopicEnableBatchedOperations(enabled bool) Option {
	return Value(KeyTopicEnableBatchedOperations, enabled)
}

func TopicEnablePartitioning(enabled bool) Option {
	return Value(KeyTopicEnablePartitioning, enabled)
}

func TopicSupportOrdering(enabled bool) Option { return Value(KeyTopicSupportOrdering, enabled) }

func TopicAutoDeleteOnIdle(d time.Duration) Option { return Value(KeyTopicAutoDeleteOnIdle, d) }

func TopicEnableExpress(enabled bool, condition ...Condition) Option {
	return Conditional(KeyTopicEnableExpress, enabled, condition...)
}

func TopicEnableFilteringMessagesBeforePublishing(enabled bool) Option {
	return Value(KeyTopicEnableFilteringMessagesBefore, enabled)
}

// Subscription descriptions.

func SubscriptionLockDuration(d time.Duration) Option {
	return Value(KeySubscriptionLockDuration, d)
}

func SubscriptionRequiresSession(enabled bool) Option {
	return Value(KeySubscriptionRequiresSession, enabled)
}

func SubscriptionDefaultMessageTimeToLive(d time.Duration) Option {
	return Value(KeySubscriptionDefaultMessageTimeToLive, d)
}

func SubscriptionEnableDeadLetteringOnMessageExpiration(enabled bool) Option {
	return Value(KeySubscriptionDeadLetteringOnMessageExpiration, enabled)
}

func SubscriptionEnableDeadLetteringOnFilterEvaluationExceptions(enabled bool) Option {
	return Value(KeySubscriptionDeadLetteringOnFilterEvaluationErr, enabled)
}

func SubscriptionMaxDeliveryCount(n int) Option {
	return positive(KeySubscriptionMaxDeliveryCount, n)
}

func SubscriptionEnableBatchedOperations(enabled bool) Option {
	return Value(KeySubscriptionEnableBatchedOperations, enabled)
}

func SubscriptionAutoDeleteOnIdle(d time.Duration) Option {
	return Value(KeySubscriptionAutoDeleteOnIdle, d)
}

func SubscriptionForwardTo(target string, condition ...Condition) Option {
	return Conditional(KeySubscriptionForwardTo, target, condition...)
}

func SubscriptionForwardDeadLetteredMessagesTo(target string, condition ...Condition) Option {
	return Conditional(KeySubscriptionForwardDeadLetteredMessagesTo, target, condition...)
}

// Senders.

func RetryAttemptsOnThrottle(n int) Option {
	return opts.Type[Holder](func(h *Holder) error {
		if n < 0 {
			return fmt.Errorf("settings: retry attempts can't be negative, got %d", n)
		}
		h.Set(KeySenderRetryAttemptsOnThrottle, n)
		return nil
	})
}

func BackOffTimeOnThrottle(d time.Duration) Option {
	return Value(KeySenderBackOffTimeOnThrottle, d)
}

func MaximumMessageSizeInKilobytes(n int) Option {
	return positive(KeySenderMaximumMessageSizeInKilobytes, n)
}
