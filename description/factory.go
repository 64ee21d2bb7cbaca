package description

import (
	"time"

	"github.com/casualjim/roost/settings"
)

// QueueFactory builds the description of the queue at path.
type QueueFactory func(path string, r settings.Reader) *QueueDescription

// TopicFactory builds the description of the topic at path.
type TopicFactory func(path string, r settings.Reader) *TopicDescription

// SubscriptionFactory builds the description of subscription name on topicPath.
type SubscriptionFactory func(topicPath, name string, r settings.Reader) *SubscriptionDescription

func DefaultQueueFactory(path string, r settings.Reader) *QueueDescription {
	return &QueueDescription{
		Path:                                   path,
		LockDuration:                           settings.GetOrDefault[time.Duration](r, settings.KeyQueueLockDuration),
		MaxSizeInMegabytes:                     settings.GetOrDefault[int64](r, settings.KeyQueueMaxSizeInMegabytes),
		RequiresDuplicateDetection:             settings.GetOrDefault[bool](r, settings.KeyQueueRequiresDuplicateDetection),
		RequiresSession:                        settings.GetOrDefault[bool](r, settings.KeyQueueRequiresSession),
		DefaultMessageTimeToLive:               settings.GetOrDefault[time.Duration](r, settings.KeyQueueDefaultMessageTimeToLive),
		EnableDeadLetteringOnMessageExpiration: settings.GetOrDefault[bool](r, settings.KeyQueueDeadLetteringOnMessageExpiration),
		DuplicateDetectionHistoryTimeWindow:    settings.GetOrDefault[time.Duration](r, settings.KeyQueueDuplicateDetectionHistoryWindow),
		MaxDeliveryCount:                       settings.GetOrDefault[int](r, settings.KeyQueueMaxDeliveryCount),
		EnableBatchedOperations:                settings.GetOrDefault[bool](r, settings.KeyQueueEnableBatchedOperations),
		EnablePartitioning:                     settings.GetOrDefault[bool](r, settings.KeyQueueEnablePartitioning),
		SupportOrdering:                        settings.GetOrDefault[bool](r, settings.KeyQueueSupportOrdering),
		AutoDeleteOnIdle:                       settings.GetOrDefault[time.Duration](r, settings.KeyQueueAutoDeleteOnIdle),

		EnableExpress:                 settings.GetConditional[bool](r, path, settings.KeyQueueEnableExpress),
		ForwardTo:                     settings.GetConditional[string](r, path, settings.KeyQueueForwardTo),
		ForwardDeadLetteredMessagesTo: settings.GetConditional[string](r, path, settings.KeyQueueForwardDeadLetteredMessagesTo),
	}
}

func DefaultTopicFactory(path string, r settings.Reader) *TopicDescription {
	return &TopicDescription{
		Path:                                    path,
		MaxSizeInMegabytes:                      settings.GetOrDefault[int64](r, settings.KeyTopicMaxSizeInMegabytes),
		RequiresDuplicateDetection:              settings.GetOrDefault[bool](r, settings.KeyTopicRequiresDuplicateDetection),
		DefaultMessageTimeToLive:                settings.GetOrDefault[time.Duration](r, settings.KeyTopicDefaultMessageTimeToLive),
		DuplicateDetectionHistoryTimeWindow:     settings.GetOrDefault[time.Duration](r, settings.KeyTopicDuplicateDetectionHistoryWindow),
		EnableBatchedOperations:                 settings.GetOrDefault[bool](r, settings.KeyTopicEnableBatchedOperations),
		EnablePartitioning:                      settings.GetOrDefault[bool](r, settings.KeyTopicEnablePartitioning),
		SupportOrdering:                         settings.GetOrDefault[bool](r, settings.KeyTopicSupportOrdering),
		AutoDeleteOnIdle:                        settings.GetOrDefault[time.Duration](r, settings.KeyTopicAutoDeleteOnIdle),
		EnableFilteringMessagesBeforePublishing: settings.GetOrDefault[bool](r, settings.KeyTopicEnableFilteringMessagesBefore),

		EnableExpress: settings.GetConditional[bool](r, path, settings.KeyTopicEnableExpress),
	}
}

// DefaultSubscriptionFactory evaluates forwarding conditions against the
// subscription name.
func DefaultSubscriptionFactory(topicPath, name string, r settings.Reader) *SubscriptionDescription {
	return &SubscriptionDescription{
		TopicPath:                                       topicPath,
		Name:                                            name,
		LockDuration:                                    settings.GetOrDefault[time.Duration](r, settings.KeySubscriptionLockDuration),
		RequiresSession:                                 settings.GetOrDefault[bool](r, settings.KeySubscriptionRequiresSession),
		DefaultMessageTimeToLive:                        settings.GetOrDefault[time.Duration](r, settings.KeySubscriptionDefaultMessageTimeToLive),
		EnableDeadLetteringOnMessageExpiration:          settings.GetOrDefault[bool](r, settings.KeySubscriptionDeadLetteringOnMessageExpiration),
		EnableDeadLetteringOnFilterEvaluationExceptions: settings.GetOrDefault[bool](r, settings.KeySubscriptionDeadLetteringOnFilterEvaluationErr),
		MaxDeliveryCount:                                settings.GetOrDefault[int](r, settings.KeySubscriptionMaxDeliveryCount),
		EnableBatchedOperations:                         settings.GetOrDefault[bool](r, settings.KeySubscriptionEnableBatchedOperations),
		AutoDeleteOnIdle:                                settings.GetOrDefault[time.Duration](r, settings.KeySubscriptionAutoDeleteOnIdle),

		ForwardTo:                     settings.GetConditional[string](r, name, settings.KeySubscriptionForwardTo),
		ForwardDeadLetteredMessagesTo: settings.GetConditional[string](r, name, settings.KeySubscriptionForwardDeadLetteredMessagesTo),
	}
}

// QueueFactoryFrom returns the factory installed with WithQueueFactory, or the default one.
func QueueFactoryFrom(r settings.Reader) QueueFactory {
	if f, ok := settings.TryGet[QueueFactory](r, settings.KeyQueueDescriptionFactory); ok && f != nil {
		return f
	}
	return DefaultQueueFactory
}

// TopicFactoryFrom returns the factory installed with WithTopicFactory, or the default one.
func TopicFactoryFrom(r settings.Reader) TopicFactory {
	if f, ok := settings.TryGet[TopicFactory](r, settings.KeyTopicDescriptionFactory); ok && f != nil {
		return f
	}
	return DefaultTopicFactory
}

// SubscriptionFactoryFrom returns the factory installed with WithSubscriptionFactory, or the default one.
func SubscriptionFactoryFrom(r settings.Reader) SubscriptionFactory {
	if f, ok := settings.TryGet[SubscriptionFactory](r, settings.KeySubscriptionDescriptionFactory); ok && f != nil {
		return f
	}
	return DefaultSubscriptionFactory
}

// WithQueueFactory replaces the queue description factory as a whole.
func WithQueueFactory(f QueueFactory) settings.Option {
	return settings.Value(settings.KeyQueueDescriptionFactory, f)
}

// WithTopicFactory replaces the topic description factory as a whole.
func WithTopicFactory(f TopicFactory) settings.Option {
	return settings.Value(settings.KeyTopicDescriptionFactory, f)
}

// WithSubscriptionFactory replaces the subscription description factory as a whole.
func WithSubscriptionFactory(f SubscriptionFactory) settings.Option {
	return settings.Value(settings.KeySubscriptionDescriptionFactory, f)
}
