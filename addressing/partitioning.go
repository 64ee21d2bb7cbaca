package addressing

import (
	"fmt"
	"slices"

	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/settings"
)

// Partitioner returns the namespaces that own a scope for an intent.
// Implementations are asked again on every resolution.
type Partitioner interface {
	Namespaces(scope string, intent meta.Intent) []meta.NamespaceInfo
}

// SingleNamespace puts everything in one namespace.
type SingleNamespace struct {
	namespace meta.NamespaceInfo
}

func NewSingleNamespace(namespaces []meta.NamespaceInfo) (*SingleNamespace, error) {
	if len(namespaces) != 1 {
		return nil, &ConfigurationError{
			Setting: settings.KeyPartitioningNamespaces,
			Reason:  fmt.Sprintf("the single namespace partitioning strategy requires exactly one namespace, got %d", len(namespaces)),
		}
	}
	return &SingleNamespace{namespace: namespaces[0]}, nil
}

func (s *SingleNamespace) Namespaces(string, meta.Intent) []meta.NamespaceInfo {
	return []meta.NamespaceInfo{s.namespace}
}

// Replicated puts every entity in every namespace.
type Replicated struct {
	namespaces []meta.NamespaceInfo
}

func NewReplicated(namespaces []meta.NamespaceInfo) (*Replicated, error) {
	if len(namespaces) < 2 {
		return nil, &ConfigurationError{
			Setting: settings.KeyPartitioningNamespaces,
			Reason:  "the replicated namespace partitioning strategy requires more than one namespace, configure additional connection strings",
		}
	}
	return &Replicated{namespaces: slices.Clone(namespaces)}, nil
}

func (r *Replicated) Namespaces(string, meta.Intent) []meta.NamespaceInfo {
	return slices.Clone(r.namespaces)
}

// NewPartitioner builds the partitioning strategy selected in settings.
func NewPartitioner(r settings.Reader) (Partitioner, error) {
	namespaces, _ := settings.TryGet[[]meta.NamespaceInfo](r, settings.KeyPartitioningNamespaces)
	switch name := settings.GetOrDefault[string](r, settings.KeyPartitioningStrategy); name {
	case "", settings.PartitioningSingle:
		return NewSingleNamespace(namespaces)
	case settings.PartitioningReplicated:
		return NewReplicated(namespaces)
	default:
		return nil, &ConfigurationError{Setting: settings.KeyPartitioningStrategy, Reason: "unknown strategy " + name}
	}
}
