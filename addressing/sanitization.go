package addressing

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/settings"
	"github.com/cespare/xxhash/v2"
)

// Sanitizer turns a logical name into a path the broker accepts.
type Sanitizer interface {
	Sanitize(raw string, kind meta.EntityKind) (string, error)
}

// Passthrough returns names unchanged and fails when they are not valid.
type Passthrough struct {
	validator Validator
}

func NewPassthrough(v Validator) *Passthrough {
	return &Passthrough{validator: v}
}

func (s *Passthrough) Sanitize(raw string, kind meta.EntityKind) (string, error) {
	if !s.validator.IsValid(raw, kind) {
		return "", &ValidationError{Path: raw, Kind: kind, Reason: "rejected by validation"}
	}
	return raw, nil
}

var (
	illegalEntityChars       = regexp.MustCompile(`[^A-Za-z0-9._/-]`)
	illegalSubscriptionChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
)

// hashSuffixLen is the length of "-" followed by 16 hex digits.
const hashSuffixLen = 17

// Adjusting replaces illegal characters and shortens names that are too
// long. Shortened names keep a prefix of the cleaned name followed by a hash
// of the original name, so the same input always maps to the same path.
type Adjusting struct {
	settings  settings.Reader
	validator Validator
}

func NewAdjusting(r settings.Reader, v Validator) *Adjusting {
	return &Adjusting{settings: r, validator: v}
}

func (s *Adjusting) Sanitize(raw string, kind meta.EntityKind) (string, error) {
	illegal := illegalEntityChars
	if kind == meta.Subscription {
		illegal = illegalSubscriptionChars
	}
	path := illegal.ReplaceAllString(raw, "-")
	path = strings.Trim(path, "-._/")
	if path == "" {
		return "", &ValidationError{Path: raw, Kind: kind, Reason: "no legal characters"}
	}

	limit := MaxLength(s.settings, kind)
	if utf8.RuneCountInString(path) > limit {
		if limit <= hashSuffixLen {
			return "", &ValidationError{Path: raw, Kind: kind, Reason: fmt.Sprintf("maximum length %d is too small to shorten", limit)}
		}
		prefix := strings.TrimRight(path[:limit-hashSuffixLen], "-._/")
		path = fmt.Sprintf("%s-%016x", prefix, xxhash.Sum64String(raw))
	}

	if !s.validator.IsValid(path, kind) {
		return "", &ValidationError{Path: raw, Kind: kind, Reason: fmt.Sprintf("sanitized to %q which is still rejected by validation", path)}
	}
	return path, nil
}

// NewSanitizer builds the sanitizer selected in settings on top of v.
func NewSanitizer(r settings.Reader, v Validator) (Sanitizer, error) {
	switch name := settings.GetOrDefault[string](r, settings.KeySanitizationStrategy); name {
	case "", settings.SanitizationAdjust:
		return NewAdjusting(r, v), nil
	case settings.SanitizationThrow:
		return NewPassthrough(v), nil
	default:
		return nil, &ConfigurationError{Setting: settings.KeySanitizationStrategy, Reason: "unknown strategy " + name}
	}
}
