package meta

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Section is the result of a topology resolution: the namespaces involved
// and the entities that live in them. Topics holds the topics the
// subscriptions are attached to; these are referenced, not owned, by the
// section.
type Section struct {
	Namespaces    []NamespaceInfo    `json:"namespaces"`
	Entities      []EntityInfo       `json:"entities"`
	Topics        []EntityInfo       `json:"topics,omitempty"`
	Subscriptions []SubscriptionInfo `json:"subscriptions,omitempty"`
}

// IsEmpty is true when the section holds no entities at all.
func (s Section) IsEmpty() bool {
	return len(s.Entities) == 0 && len(s.Subscriptions) == 0
}

// Clone returns a copy that shares no slices with s.
func (s Section) Clone() Section {
	c := Section{
		Namespaces:    slices.Clone(s.Namespaces),
		Entities:      slices.Clone(s.Entities),
		Topics:        slices.Clone(s.Topics),
		Subscriptions: slices.Clone(s.Subscriptions),
	}
	for i := range c.Subscriptions {
		c.Subscriptions[i].Relationships = slices.Clone(c.Subscriptions[i].Relationships)
	}
	return c
}

// All returns the owned entities followed by the subscriptions.
func (s Section) All() []EntityInfo {
	all := make([]EntityInfo, 0, len(s.Entities)+len(s.Subscriptions))
	all = append(all, s.Entities...)
	for _, sub := range s.Subscriptions {
		all = append(all, sub.EntityInfo)
	}
	return all
}

// InNamespace returns the owned entities and subscriptions living in ns.
func (s Section) InNamespace(ns NamespaceInfo) ([]EntityInfo, []SubscriptionInfo) {
	var entities []EntityInfo
	for _, e := range s.Entities {
		if e.Namespace.Equal(ns) {
			entities = append(entities, e)
		}
	}
	var subs []SubscriptionInfo
	for _, sub := range s.Subscriptions {
		if sub.Namespace.Equal(ns) {
			subs = append(subs, sub)
		}
	}
	return entities, subs
}

// TopicFor looks up the topic a subscription points at in the topic arena.
func (s Section) TopicFor(sub SubscriptionInfo) (EntityInfo, bool) {
	key, ok := sub.Topic()
	if !ok {
		return EntityInfo{}, false
	}
	for _, t := range s.Topics {
		if t.Key() == key {
			return t, true
		}
	}
	return EntityInfo{}, false
}

// Validate checks that every entity belongs to a namespace of the section
// and that every subscription edge resolves to a known topic.
func (s Section) Validate() error {
	known := make(map[string]struct{}, len(s.Namespaces))
	for _, ns := range s.Namespaces {
		known[ns.Key()] = struct{}{}
	}
	check := func(e EntityInfo) error {
		if _, ok := known[e.Namespace.Key()]; !ok {
			return fmt.Errorf("%s %q references namespace %q outside of the section", e.Kind, e.Path, e.Namespace)
		}
		return nil
	}
	for _, e := range s.Entities {
		if err := check(e); err != nil {
			return err
		}
	}
	for _, t := range s.Topics {
		if err := check(t); err != nil {
			return err
		}
	}
	for _, sub := range s.Subscriptions {
		if err := check(sub.EntityInfo); err != nil {
			return err
		}
		if len(sub.Relationships) > 0 {
			if _, ok := s.TopicFor(sub); !ok {
				return fmt.Errorf("subscription %q references an unknown topic", sub.Path)
			}
		}
	}
	return nil
}

// EventType identifies a message type by namespace and short name.
type EventType struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// FullName is the namespace qualified type name.
func (e EventType) FullName() string {
	if e.Namespace == "" {
		return e.Name
	}
	return e.Namespace + "." + e.Name
}

func (e EventType) String() string {
	return e.FullName()
}

// ParseEventType splits a qualified name on its last dot.
func ParseEventType(fullName string) EventType {
	idx := strings.LastIndexByte(fullName, '.')
	if idx < 0 {
		return EventType{Name: fullName}
	}
	return EventType{Namespace: fullName[:idx], Name: fullName[idx+1:]}
}

// EventTypeOf derives the event type of a Go type. The package path is
// used as namespace with slashes turned into dots.
func EventTypeOf[T any]() EventType {
	tpe := reflect.TypeFor[T]()
	for tpe.Kind() == reflect.Pointer {
		tpe = tpe.Elem()
	}
	return EventType{
		Namespace: strings.ReplaceAll(tpe.PkgPath(), "/", "."),
		Name:      tpe.Name(),
	}
}
