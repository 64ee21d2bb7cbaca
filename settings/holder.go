package settings

import (
	"errors"
	"fmt"

	"github.com/alphadose/haxmap"
)

// ErrKeyNotFound is returned by Get when neither an explicit value nor a
// default exists for a key.
var ErrKeyNotFound = errors.New("settings: key not found")

// Reader is the read only view of the settings consumed by the transport parts.
type Reader interface {
	Lookup(key string) (any, bool)
	HasExplicitValue(key string) bool
}

// Holder stores explicit values on top of defaults. It is safe for
// concurrent use, though in practice it is filled once during composition
// and only read afterwards.
type Holder struct {
	explicit *haxmap.Map[string, any]
	defaults *haxmap.Map[string, any]
}

// NewHolder returns an empty holder without any defaults.
func NewHolder() *Holder {
	return &Holder{
		explicit: haxmap.New[string, any](),
		defaults: haxmap.New[string, any](),
	}
}

// Set stores an explicit value for key.
func (h *Holder) Set(key string, value any) {
	h.explicit.Set(key, value)
}

// SetDefault stores the fallback value for key.
func (h *Holder) SetDefault(key string, value any) {
	h.defaults.Set(key, value)
}

func (h *Holder) HasExplicitValue(key string) bool {
	_, ok := h.explicit.Get(key)
	return ok
}

func (h *Holder) Lookup(key string) (any, bool) {
	if v, ok := h.explicit.Get(key); ok {
		return v, true
	}
	return h.defaults.Get(key)
}

// TypeMismatchError is returned when a stored value can't be converted to
// the requested type.
type TypeMismatchError struct {
	Key      string
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("settings: value for %q is a %s, not a %s", e.Key, e.Actual, e.Expected)
}

// Get returns the value stored for key.
func Get[T any](r Reader, key string) (T, error) {
	var zero T
	raw, ok := r.Lookup(key)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, &TypeMismatchError{Key: key, Expected: fmt.Sprintf("%T", zero), Actual: fmt.Sprintf("%T", raw)}
	}
	return v, nil
}

// TryGet returns the value for key and whether it was found with the right type.
func TryGet[T any](r Reader, key string) (T, bool) {
	v, err := Get[T](r, key)
	return v, err == nil
}

// GetOrDefault returns the value for key or the zero value of T.
func GetOrDefault[T any](r Reader, key string) T {
	v, _ := TryGet[T](r, key)
	return v
}

// Condition decides whether the entity at path receives a conditional setting.
type Condition func(path string) bool

// ConditionKey is the key under which the condition guarding key is stored.
func ConditionKey(key string) string {
	return key + ".Condition"
}

// GetConditional returns the value for key when the condition stored under
// ConditionKey(key) accepts path. Without a condition every path is accepted.
func GetConditional[T any](r Reader, path, key string) T {
	var zero T
	if cond, ok := TryGet[Condition](r, ConditionKey(key)); ok && cond != nil && !cond(path) {
		return zero
	}
	return GetOrDefault[T](r, key)
}
