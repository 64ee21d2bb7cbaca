package addressing

import (
	"regexp"
	"unicode/utf8"

	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/settings"
)

// Validator tells whether a path is acceptable for an entity kind.
type Validator interface {
	IsValid(path string, kind meta.EntityKind) bool
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(path string, kind meta.EntityKind) bool

func (f ValidatorFunc) IsValid(path string, kind meta.EntityKind) bool { return f(path, kind) }

// MaxLength returns the configured maximum path length for kind.
func MaxLength(r settings.Reader, kind meta.EntityKind) int {
	switch kind {
	case meta.Topic:
		return settings.GetOrDefault[int](r, settings.KeyTopicPathMaximumLength)
	case meta.Subscription:
		return settings.GetOrDefault[int](r, settings.KeySubscriptionPathMaximumLength)
	default:
		return settings.GetOrDefault[int](r, settings.KeyQueuePathMaximumLength)
	}
}

// LengthValidation accepts any non empty path within the maximum length of its kind.
type LengthValidation struct {
	settings settings.Reader
}

func NewLengthValidation(r settings.Reader) *LengthValidation {
	return &LengthValidation{settings: r}
}

func (v *LengthValidation) IsValid(path string, kind meta.EntityKind) bool {
	n := utf8.RuneCountInString(path)
	return n > 0 && n <= MaxLength(v.settings, kind)
}

var (
	entityPathPattern       = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._/-]*[A-Za-z0-9])?$`)
	subscriptionPathPattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)
)

// CharacterValidation applies the length rules and the broker character
// rules: letters, digits, periods, hyphens and underscores, starting and
// ending with a letter or digit. Queues and topics may also contain slashes.
type CharacterValidation struct {
	length *LengthValidation
}

func NewCharacterValidation(r settings.Reader) *CharacterValidation {
	return &CharacterValidation{length: NewLengthValidation(r)}
}

func (v *CharacterValidation) IsValid(path string, kind meta.EntityKind) bool {
	if !v.length.IsValid(path, kind) {
		return false
	}
	if kind == meta.Subscription {
		return subscriptionPathPattern.MatchString(path)
	}
	return entityPathPattern.MatchString(path)
}

// NewValidator builds the validator selected in settings.
func NewValidator(r settings.Reader) (Validator, error) {
	switch name := settings.GetOrDefault[string](r, settings.KeyValidationStrategy); name {
	case "", settings.ValidationLength:
		return NewLengthValidation(r), nil
	case settings.ValidationCharacters:
		return NewCharacterValidation(r), nil
	default:
		return nil, &ConfigurationError{Setting: settings.KeyValidationStrategy, Reason: "unknown strategy " + name}
	}
}
