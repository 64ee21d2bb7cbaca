package description

import "time"

// QueueDescription is the broker side configuration of a queue.
type QueueDescription struct {
	Path                                   string        `json:"path"`
	LockDuration                           time.Duration `json:"lockDuration"`
	MaxSizeInMegabytes                     int64         `json:"maxSizeInMegabytes"`
	RequiresDuplicateDetection             bool          `json:"requiresDuplicateDetection"`
	RequiresSession                        bool          `json:"requiresSession"`
	DefaultMessageTimeToLive               time.Duration `json:"defaultMessageTimeToLive"`
	EnableDeadLetteringOnMessageExpiration bool          `json:"enableDeadLetteringOnMessageExpiration"`
	DuplicateDetectionHistoryTimeWindow    time.Duration `json:"duplicateDetectionHistoryTimeWindow"`
	MaxDeliveryCount                       int           `json:"maxDeliveryCount"`
	EnableBatchedOperations                bool          `json:"enableBatchedOperations"`
	EnablePartitioning                     bool          `json:"enablePartitioning"`
	SupportOrdering                        bool          `json:"supportOrdering"`
	AutoDeleteOnIdle                       time.Duration `json:"autoDeleteOnIdle"`
	EnableExpress                          bool          `json:"enableExpress"`
	ForwardTo                              string        `json:"forwardTo,omitempty"`
	ForwardDeadLetteredMessagesTo          string        `json:"forwardDeadLetteredMessagesTo,omitempty"`

	// MessageCount is filled in by the broker when the description is fetched.
	MessageCount int64 `json:"messageCount"`
}

// TopicDescription is the broker side configuration of a topic.
type TopicDescription struct {
	Path                                    string        `json:"path"`
	MaxSizeInMegabytes                      int64         `json:"maxSizeInMegabytes"`
	RequiresDuplicateDetection              bool          `json:"requiresDuplicateDetection"`
	DefaultMessageTimeToLive                time.Duration `json:"defaultMessageTimeToLive"`
	DuplicateDetectionHistoryTimeWindow     time.Duration `json:"duplicateDetectionHistoryTimeWindow"`
	EnableBatchedOperations                 bool          `json:"enableBatchedOperations"`
	EnablePartitioning                      bool          `json:"enablePartitioning"`
	SupportOrdering                         bool          `json:"supportOrdering"`
	AutoDeleteOnIdle                        time.Duration `json:"autoDeleteOnIdle"`
	EnableExpress                           bool          `json:"enableExpress"`
	EnableFilteringMessagesBeforePublishing bool          `json:"enableFilteringMessagesBeforePublishing"`
}

// SubscriptionDescription is the broker side configuration of a subscription.
type SubscriptionDescription struct {
	TopicPath                                       string        `json:"topicPath"`
	Name                                            string        `json:"name"`
	LockDuration                                    time.Duration `json:"lockDuration"`
	RequiresSession                                 bool          `json:"requiresSession"`
	DefaultMessageTimeToLive                        time.Duration `json:"defaultMessageTimeToLive"`
	EnableDeadLetteringOnMessageExpiration          bool          `json:"enableDeadLetteringOnMessageExpiration"`
	EnableDeadLetteringOnFilterEvaluationExceptions bool          `json:"enableDeadLetteringOnFilterEvaluationExceptions"`
	MaxDeliveryCount                                int           `json:"maxDeliveryCount"`
	EnableBatchedOperations                         bool          `json:"enableBatchedOperations"`
	AutoDeleteOnIdle                                time.Duration `json:"autoDeleteOnIdle"`
	ForwardTo                                       string        `json:"forwardTo,omitempty"`
	ForwardDeadLetteredMessagesTo                   string        `json:"forwardDeadLetteredMessagesTo,omitempty"`
	UserMetadata                                    string        `json:"userMetadata,omitempty"`

	// MessageCount is filled in by the broker when the description is fetched.
	MessageCount int64 `json:"messageCount"`
}

// DefaultRuleName is the name of the rule created together with a subscription.
const DefaultRuleName = "$Default"

// Rule is a named filter attached to a subscription.
type Rule struct {
	Name   string `json:"name"`
	Filter string `json:"filter"`
}
