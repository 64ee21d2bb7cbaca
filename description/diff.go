package description

// Changes lists the fields that differ between an existing entity and its
// target description. Mutable fields can be updated in place, immutable ones
// can only be changed by recreating the entity.
type Changes struct {
	Mutable   []string
	Immutable []string
}

// NeedsUpdate is true when at least one mutable field differs.
func (c Changes) NeedsUpdate() bool { return len(c.Mutable) > 0 }

type differ struct {
	changes Changes
}

func (d *differ) mutable(name string, differs bool) {
	if differs {
		d.changes.Mutable = append(d.changes.Mutable, name)
	}
}

func (d *differ) immutable(name string, differs bool) {
	if differs {
		d.changes.Immutable = append(d.changes.Immutable, name)
	}
}

func DiffQueue(existing, target *QueueDescription) Changes {
	var d differ
	d.immutable("RequiresDuplicateDetection", existing.RequiresDuplicateDetection != target.RequiresDuplicateDetection)
	d.immutable("EnablePartitioning", existing.EnablePartitioning != target.EnablePartitioning)
	d.immutable("RequiresSession", existing.RequiresSession != target.RequiresSession)

	d.mutable("AutoDeleteOnIdle", existing.AutoDeleteOnIdle != target.AutoDeleteOnIdle)
	d.mutable("LockDuration", existing.LockDuration != target.LockDuration)
	d.mutable("MaxSizeInMegabytes", existing.MaxSizeInMegabytes != target.MaxSizeInMegabytes)
	d.mutable("DefaultMessageTimeToLive", existing.DefaultMessageTimeToLive != target.DefaultMessageTimeToLive)
	d.mutable("EnableDeadLetteringOnMessageExpiration", existing.EnableDeadLetteringOnMessageExpiration != target.EnableDeadLetteringOnMessageExpiration)
	d.mutable("DuplicateDetectionHistoryTimeWindow", existing.DuplicateDetectionHistoryTimeWindow != target.DuplicateDetectionHistoryTimeWindow)
	d.mutable("MaxDeliveryCount", existing.MaxDeliveryCount != target.MaxDeliveryCount)
	d.mutable("EnableBatchedOperations", existing.EnableBatchedOperations != target.EnableBatchedOperations)
	d.mutable("SupportOrdering", existing.SupportOrdering != target.SupportOrdering)
	d.mutable("EnableExpress", existing.EnableExpress != target.EnableExpress)
	d.mutable("ForwardDeadLetteredMessagesTo", existing.ForwardDeadLetteredMessagesTo != target.ForwardDeadLetteredMessagesTo)
	d.mutable("ForwardTo", existing.ForwardTo != target.ForwardTo)
	return d.changes
}

func DiffTopic(existing, target *TopicDescription) Changes {
	var d differ
	d.immutable("RequiresDuplicateDetection", existing.RequiresDuplicateDetection != target.RequiresDuplicateDetection)
	d.immutable("EnablePartitioning", existing.EnablePartitioning != target.EnablePartitioning)

	d.mutable("AutoDeleteOnIdle", existing.AutoDeleteOnIdle != target.AutoDeleteOnIdle)
	d.mutable("MaxSizeInMegabytes", existing.MaxSizeInMegabytes != target.MaxSizeInMegabytes)
	d.mutable("DefaultMessageTimeToLive", existing.DefaultMessageTimeToLive != target.DefaultMessageTimeToLive)
	d.mutable("DuplicateDetectionHistoryTimeWindow", existing.DuplicateDetectionHistoryTimeWindow != target.DuplicateDetectionHistoryTimeWindow)
	d.mutable("EnableBatchedOperations", existing.EnableBatchedOperations != target.EnableBatchedOperations)
	d.mutable("SupportOrdering", existing.SupportOrdering != target.SupportOrdering)
	d.mutable("EnableExpress", existing.EnableExpress != target.EnableExpress)
	d.mutable("EnableFilteringMessagesBeforePublishing", existing.EnableFilteringMessagesBeforePublishing != target.EnableFilteringMessagesBeforePublishing)
	return d.changes
}

func DiffSubscription(existing, target *SubscriptionDescription) Changes {
	var d differ
	d.immutable("RequiresSession", existing.RequiresSession != target.RequiresSession)

	d.mutable("AutoDeleteOnIdle", existing.AutoDeleteOnIdle != target.AutoDeleteOnIdle)
	d.mutable("LockDuration", existing.LockDuration != target.LockDuration)
	d.mutable("DefaultMessageTimeToLive", existing.DefaultMessageTimeToLive != target.DefaultMessageTimeToLive)
	d.mutable("EnableDeadLetteringOnMessageExpiration", existing.EnableDeadLetteringOnMessageExpiration != target.EnableDeadLetteringOnMessageExpiration)
	d.mutable("EnableDeadLetteringOnFilterEvaluationExceptions", existing.EnableDeadLetteringOnFilterEvaluationExceptions != target.EnableDeadLetteringOnFilterEvaluationExceptions)
	d.mutable("MaxDeliveryCount", existing.MaxDeliveryCount != target.MaxDeliveryCount)
	d.mutable("EnableBatchedOperations", existing.EnableBatchedOperations != target.EnableBatchedOperations)
	d.mutable("ForwardDeadLetteredMessagesTo", existing.ForwardDeadLetteredMessagesTo != target.ForwardDeadLetteredMessagesTo)
	d.mutable("ForwardTo", existing.ForwardTo != target.ForwardTo)
	d.mutable("UserMetadata", existing.UserMetadata != target.UserMetadata)
	return d.changes
}
