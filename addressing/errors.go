package addressing

import (
	"fmt"

	"github.com/casualjim/roost/meta"
)

// ConfigurationError reports static configuration that can't work.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Setting, e.Reason)
}

// ValidationError reports a name that can't be turned into a legal path.
type ValidationError struct {
	Path   string
	Kind   meta.EntityKind
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s path %q: %s", e.Kind, e.Path, e.Reason)
}
