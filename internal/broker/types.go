package broker

import (
	"context"

	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/internal/registry"
	"github.com/casualjim/roost/meta"
)

var (
	_ api.NamespaceManager  = (*Namespace)(nil)
	_ api.SenderFactory     = (*Namespace)(nil)
	_ api.NamespaceManagers = (*Namespaces)(nil)
	_ api.SenderFactory     = (*Namespaces)(nil)
)

// Namespaces holds one in-memory namespace per connection string, created
// on first use.
type Namespaces struct {
	namespaces registry.Registry[*Namespace]
}

func NewNamespaces() *Namespaces {
	return &Namespaces{namespaces: registry.New[*Namespace]()}
}

// Namespace returns the namespace for info, creating it when needed.
func (n *Namespaces) Namespace(info meta.NamespaceInfo) *Namespace {
	ns, _ := n.namespaces.GetOrAdd(info.Key(), func() *Namespace { return NewNamespace(info) })
	return ns
}

func (n *Namespaces) Get(info meta.NamespaceInfo) (api.NamespaceManager, error) {
	return n.Namespace(info), nil
}

func (n *Namespaces) Create(ctx context.Context, path string, info meta.NamespaceInfo) (api.MessageSender, error) {
	return n.Namespace(info).Create(ctx, path, info)
}
