package settings

import (
	"math"
	"time"
)

// Never is the duration used for "does not expire" settings.
const Never = time.Duration(math.MaxInt64)

// Core keys.
const (
	KeyEndpointName   = "Roost.EndpointName"
	KeyCreateTopology = "Roost.Core.CreateTopology"
	KeyQueueBindings  = "Roost.Core.QueueBindings"
)

// Addressing keys.
const (
	KeyQueuePathMaximumLength        = "Roost.Addressing.Queues.MaximumPathLength"
	KeyTopicPathMaximumLength        = "Roost.Addressing.Topics.MaximumPathLength"
	KeySubscriptionPathMaximumLength = "Roost.Addressing.Subscriptions.MaximumPathLength"
	KeyUserMetadataMaximumLength     = "Roost.Addressing.UserMetadata.MaximumLength"

	KeySanitizationStrategy      = "Roost.Addressing.Sanitization.Strategy"
	KeyValidationStrategy        = "Roost.Addressing.Validation.Strategy"
	KeyIndividualizationStrategy = "Roost.Addressing.Individualization.Strategy"
	KeyDiscriminator             = "Roost.Addressing.Individualization.Discriminator"

	KeyPartitioningStrategy   = "Roost.Addressing.Partitioning.Strategy"
	KeyPartitioningNamespaces = "Roost.Addressing.Partitioning.Namespaces"
)

// Strategy names.
const (
	SanitizationAdjust             = "adjust"
	SanitizationThrow              = "throw"
	ValidationLength               = "length"
	ValidationCharacters           = "characters"
	IndividualizationCore          = "core"
	IndividualizationDiscriminator = "discriminator"
	PartitioningSingle             = "single"
	PartitioningReplicated         = "replicated"
)

// Queue description keys.
const (
	KeyQueueDescriptionFactory               = "Roost.Topology.Queues.DescriptionFactory"
	KeyQueueLockDuration                     = "Roost.Topology.Queues.LockDuration"
	KeyQueueMaxSizeInMegabytes               = "Roost.Topology.Queues.MaxSizeInMegabytes"
	KeyQueueRequiresDuplicateDetection       = "Roost.Topology.Queues.RequiresDuplicateDetection"
	KeyQueueRequiresSession                  = "Roost.Topology.Queues.RequiresSession"
	KeyQueueDefaultMessageTimeToLive         = "Roost.Topology.Queues.DefaultMessageTimeToLive"
	KeyQueueDeadLetteringOnMessageExpiration = "Roost.Topology.Queues.EnableDeadLetteringOnMessageExpiration"
	KeyQueueDuplicateDetectionHistoryWindow  = "Roost.Topology.Queues.DuplicateDetectionHistoryTimeWindow"
	KeyQueueMaxDeliveryCount                 = "Roost.Topology.Queues.MaxDeliveryCount"
	KeyQueueEnableBatchedOperations          = "Roost.Topology.Queues.EnableBatchedOperations"
	KeyQueueEnablePartitioning               = "Roost.Topology.Queues.EnablePartitioning"
	KeyQueueSupportOrdering                  = "Roost.Topology.Queues.SupportOrdering"
	KeyQueueAutoDeleteOnIdle                 = "Roost.Topology.Queues.AutoDeleteOnIdle"
	KeyQueueEnableExpress                    = "Roost.Topology.Queues.EnableExpress"
	KeyQueueForwardTo                        = "Roost.Topology.Queues.ForwardTo"
	KeyQueueForwardDeadLetteredMessagesTo    = "Roost.Topology.Queues.ForwardDeadLetteredMessagesTo"
)

// Topic description keys.
const (
	KeyTopicDescriptionFactory              = "Roost.Topology.Topics.DescriptionFactory"
	KeyTopicMaxSizeInMegabytes              = "Roost.Topology.Topics.MaxSizeInMegabytes"
	KeyTopicRequiresDuplicateDetection      = "Roost.Topology.Topics.RequiresDuplicateDetection"
	KeyTopicDefaultMessageTimeToLive        = "Roost.Topology.Topics.DefaultMessageTimeToLive"
	KeyTopicDuplicateDetectionHistoryWindow = "Roost.Topology.Topics.DuplicateDetectionHistoryTimeWindow"
	KeyTopicEnableBatchedOperations         = "Roost.Topology.Topics.EnableBatchedOperations"
	KeyTopicEnablePartitioning              = "Roost.Topology.Topics.EnablePartitioning"
	KeyTopicSupportOrdering                 = "Roost.Topology.Topics.SupportOrdering"
	KeyTopicAutoDeleteOnIdle                = "Roost.Topology.Topics.AutoDeleteOnIdle"
	KeyTopicEnableExpress                   = "Roost.Topology.Topics.EnableExpress"
	KeyTopicEnableFilteringMessagesBefore   = "Roost.Topology.Topics.EnableFilteringMessagesBeforePublishing"
)

// Subscription description keys.
const (
	KeySubscriptionDescriptionFactory                 = "Roost.Topology.Subscriptions.DescriptionFactory"
	KeySubscriptionLockDuration                       = "Roost.Topology.Subscriptions.LockDuration"
	KeySubscriptionRequiresSession                    = "Roost.Topology.Subscriptions.RequiresSession"
	KeySubscriptionDefaultMessageTimeToLive           = "Roost.Topology.Subscriptions.DefaultMessageTimeToLive"
	KeySubscriptionDeadLetteringOnMessageExpiration   = "Roost.Topology.Subscriptions.EnableDeadLetteringOnMessageExpiration"
	KeySubscriptionDeadLetteringOnFilterEvaluationErr = "Roost.Topology.Subscriptions.EnableDeadLetteringOnFilterEvaluationExceptions"
	KeySubscriptionMaxDeliveryCount                   = "Roost.Topology.Subscriptions.MaxDeliveryCount"
	KeySubscriptionEnableBatchedOperations            = "Roost.Topology.Subscriptions.EnableBatchedOperations"
	KeySubscriptionAutoDeleteOnIdle                   = "Roost.Topology.Subscriptions.AutoDeleteOnIdle"
	KeySubscriptionForwardTo                          = "Roost.Topology.Subscriptions.ForwardTo"
	KeySubscriptionForwardDeadLetteredMessagesTo      = "Roost.Topology.Subscriptions.ForwardDeadLetteredMessagesTo"
)

// Sending keys.
const (
	KeySenderRetryAttemptsOnThrottle       = "Roost.Connectivity.MessageSenders.RetryAttemptsOnThrottle"
	KeySenderBackOffTimeOnThrottle         = "Roost.Connectivity.MessageSenders.BackOffTimeOnThrottle"
	KeySenderMaximumMessageSizeInKilobytes = "Roost.Connectivity.MessageSenders.MaximumMessageSizeInKilobytes"
)

// QueueBindings lists the queues the host sends to and receives from, error
// and audit queues included.
type QueueBindings struct {
	ReceivingAddresses []string `json:"receivingAddresses"`
	SendingAddresses   []string `json:"sendingAddresses"`
}

// ApplyDefaults installs the default value of every known setting.
func ApplyDefaults(h *Holder) {
	h.SetDefault(KeyCreateTopology, true)

	h.SetDefault(KeyQueuePathMaximumLength, 260)
	h.SetDefault(KeyTopicPathMaximumLength, 260)
	h.SetDefault(KeySubscriptionPathMaximumLength, 50)
	h.SetDefault(KeyUserMetadataMaximumLength, 1024)
	h.SetDefault(KeySanitizationStrategy, SanitizationAdjust)
	h.SetDefault(KeyValidationStrategy, ValidationLength)
	h.SetDefault(KeyIndividualizationStrategy, IndividualizationCore)
	h.SetDefault(KeyPartitioningStrategy, PartitioningSingle)

	h.SetDefault(KeyQueueLockDuration, 30*time.Second)
	h.SetDefault(KeyQueueMaxSizeInMegabytes, int64(1024))
	h.SetDefault(KeyQueueRequiresDuplicateDetection, false)
	h.SetDefault(KeyQueueRequiresSession, false)
	h.SetDefault(KeyQueueDefaultMessageTimeToLive, Never)
	h.SetDefault(KeyQueueDeadLetteringOnMessageExpiration, false)
	h.SetDefault(KeyQueueDuplicateDetectionHistoryWindow, 10*time.Minute)
	h.SetDefault(KeyQueueMaxDeliveryCount, 6)
	h.SetDefault(KeyQueueEnableBatchedOperations, true)
	h.SetDefault(KeyQueueEnablePartitioning, false)
	h.SetDefault(KeyQueueSupportOrdering, false)
	h.SetDefault(KeyQueueAutoDeleteOnIdle, Never)
	h.SetDefault(KeyQueueEnableExpress, false)

	h.SetDefault(KeyTopicMaxSizeInMegabytes, int64(1024))
	h.SetDefault(KeyTopicRequiresDuplicateDetection, false)
	h.SetDefault(KeyTopicDefaultMessageTimeToLive, Never)
	h.SetDefault(KeyTopicDuplicateDetectionHistoryWindow, 10*time.Minute)
	h.SetDefault(KeyTopicEnableBatchedOperations, true)
	h.SetDefault(KeyTopicEnablePartitioning, false)
	h.SetDefault(KeyTopicSupportOrdering, false)
	h.SetDefault(KeyTopicAutoDeleteOnIdle, Never)
	h.SetDefault(KeyTopicEnableExpress, false)
	h.SetDefault(KeyTopicEnableFilteringMessagesBefore, false)

	h.SetDefault(KeySubscriptionLockDuration, 30*time.Second)
	h.SetDefault(KeySubscriptionRequiresSession, false)
	h.SetDefault(KeySubscriptionDefaultMessageTimeToLive, Never)
	h.SetDefault(KeySubscriptionDeadLetteringOnMessageExpiration, false)
	h.SetDefault(KeySubscriptionDeadLetteringOnFilterEvaluationErr, false)
	h.SetDefault(KeySubscriptionMaxDeliveryCount, 6)
	h.SetDefault(KeySubscriptionEnableBatchedOperations, true)
	h.SetDefault(KeySubscriptionAutoDeleteOnIdle, Never)

	h.SetDefault(KeySenderRetryAttemptsOnThrottle, 5)
	h.SetDefault(KeySenderBackOffTimeOnThrottle, 10*time.Second)
	h.SetDefault(KeySenderMaximumMessageSizeInKilobytes, 256)
}
