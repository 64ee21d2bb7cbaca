package creation

import (
	"context"

	"github.com/casualjim/roost/internal/registry"
	"golang.org/x/sync/singleflight"
)

// ExistenceCache remembers which entities of one namespace exist.
// Concurrent lookups of the same path share a single call to the namespace.
// Failed lookups are not remembered.
type ExistenceCache struct {
	known registry.Registry[bool]
	group singleflight.Group
}

func NewExistenceCache() *ExistenceCache {
	return &ExistenceCache{known: registry.New[bool]()}
}

// Exists returns the remembered answer for path, or asks check. The shared
// check is not cancelled with the caller that started it; every caller
// stops waiting when its own context is done.
func (c *ExistenceCache) Exists(ctx context.Context, path string, check func(context.Context) (bool, error)) (bool, error) {
	if exists, ok := c.known.Get(path); ok {
		return exists, nil
	}
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(path, func() (any, error) {
		exists, err := check(shared)
		if err != nil {
			return false, err
		}
		c.known.Add(path, exists)
		return exists, nil
	})
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return false, res.Err
		}
		return res.Val.(bool), nil
	}
}

func (c *ExistenceCache) MarkExists(path string) {
	c.known.Add(path, true)
}

// Forget drops what is known about path so the next lookup asks the namespace.
func (c *ExistenceCache) Forget(path string) {
	c.known.Del(path)
	c.group.Forget(path)
}
