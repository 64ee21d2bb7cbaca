package registry

import "github.com/alphadose/haxmap"

// Registry is a concurrent map keyed by name.
type Registry[T any] interface {
	Get(name string) (T, bool)
	Add(name string, value T)
	// GetOrAdd computes the value only when name is absent.
	GetOrAdd(name string, value func() T) (T, bool)
	// GetOrSet stores value unless name is present and returns the stored value.
	GetOrSet(name string, value T) (T, bool)
	// Take removes name and returns the value it held.
	Take(name string) (T, bool)
	Del(name string)
	Each(fn func(name string, value T) bool)
	Len() int
}

type registry[T any] struct {
	values *haxmap.Map[string, T]
}

func New[T any]() Registry[T] {
	return &registry[T]{
		values: haxmap.New[string, T](),
	}
}

func (r *registry[T]) Get(name string) (T, bool) {
	return r.values.Get(name)
}

func (r *registry[T]) Add(name string, value T) {
	r.values.Set(name, value)
}

func (r *registry[T]) GetOrAdd(name string, valueFn func() T) (T, bool) {
	return r.values.GetOrCompute(name, valueFn)
}

func (r *registry[T]) GetOrSet(name string, value T) (T, bool) {
	return r.values.GetOrSet(name, value)
}

func (r *registry[T]) Take(name string) (T, bool) {
	return r.values.GetAndDel(name)
}

func (r *registry[T]) Del(name string) {
	r.values.Del(name)
}

func (r *registry[T]) Each(fn func(name string, value T) bool) {
	r.values.ForEach(fn)
}

func (r *registry[T]) Len() int {
	return int(r.values.Len())
}
