package meta

import "fmt"

// EntityKind identifies the kind of broker entity a path refers to.
type EntityKind int

const (
	Queue EntityKind = iota
	Topic
	Subscription
)

func (k EntityKind) String() string {
	switch k {
	case Queue:
		return "queue"
	case Topic:
		return "topic"
	case Subscription:
		return "subscription"
	default:
		return fmt.Sprintf("EntityKind(%d)", int(k))
	}
}

func (k EntityKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// NamespaceMode tells whether a namespace currently takes traffic.
type NamespaceMode int

const (
	Active NamespaceMode = iota
	Passive
)

func (m NamespaceMode) String() string {
	if m == Passive {
		return "passive"
	}
	return "active"
}

func (m NamespaceMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// NamespaceInfo is a physical broker namespace. Its identity is the
// connection string, the mode can change without changing identity.
type NamespaceInfo struct {
	ConnectionString string        `json:"connectionString"`
	Mode             NamespaceMode `json:"mode"`
}

// Equal reports whether both values name the same namespace.
func (n NamespaceInfo) Equal(other NamespaceInfo) bool {
	return n.ConnectionString == other.ConnectionString
}

// Key is the identity of the namespace, suitable as a map key.
func (n NamespaceInfo) Key() string {
	return n.ConnectionString
}

func (n NamespaceInfo) String() string {
	return n.ConnectionString
}

// EntityKey identifies an entity across namespaces.
type EntityKey struct {
	Path      string `json:"path"`
	Namespace string `json:"namespace"`
}

func (k EntityKey) String() string {
	return k.Namespace + "/" + k.Path
}

// EntityInfo is a resolved broker entity living in exactly one namespace.
type EntityInfo struct {
	Path      string        `json:"path"`
	Kind      EntityKind    `json:"kind"`
	Namespace NamespaceInfo `json:"namespace"`
}

func (e EntityInfo) Key() EntityKey {
	return EntityKey{Path: e.Path, Namespace: e.Namespace.Key()}
}

// RelationshipKind describes how two entities are linked.
type RelationshipKind int

const (
	// RelationshipSubscription links a subscription (source) to its topic (target).
	RelationshipSubscription RelationshipKind = iota
)

// EntityRelationship is an edge between two entities, stored by key.
type EntityRelationship struct {
	Source EntityKey        `json:"source"`
	Target EntityKey        `json:"target"`
	Kind   RelationshipKind `json:"kind"`
}

// SubscriptionMetadata carries naming information used to migrate
// subscriptions created under an older naming scheme.
type SubscriptionMetadata struct {
	Description string `json:"description"`
	// EventType is the qualified event type name, stored as user metadata on the broker.
	EventType string `json:"eventType"`
	// LegacyName is the subscription name derived from the short event type name.
	LegacyName string `json:"legacyName"`
}

// SubscriptionInfo is a subscription entity together with its filter and
// the topic it belongs to.
type SubscriptionInfo struct {
	EntityInfo
	Metadata      SubscriptionMetadata `json:"metadata"`
	Filter        string               `json:"filter"`
	Relationships []EntityRelationship `json:"relationships,omitempty"`
}

// Topic returns the key of the topic this subscription is attached to.
func (s SubscriptionInfo) Topic() (EntityKey, bool) {
	for _, r := range s.Relationships {
		if r.Kind == RelationshipSubscription {
			return r.Target, true
		}
	}
	return EntityKey{}, false
}

// Intent is the reason a namespace lookup is made.
type Intent int

const (
	Sending Intent = iota
	Receiving
	Creating
)

func (i Intent) String() string {
	switch i {
	case Sending:
		return "sending"
	case Receiving:
		return "receiving"
	case Creating:
		return "creating"
	default:
		return fmt.Sprintf("Intent(%d)", int(i))
	}
}
