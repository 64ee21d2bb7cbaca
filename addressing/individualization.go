package addressing

import (
	"os"

	"github.com/casualjim/roost/pkg/uuidx"
	"github.com/casualjim/roost/settings"
)

// Individualizer makes an endpoint name unique to one running instance.
type Individualizer interface {
	Individualize(endpoint string) string
}

// Core leaves the endpoint name as is, every instance competes on the same queue.
type Core struct{}

func (Core) Individualize(endpoint string) string { return endpoint }

// Discriminator appends a generated suffix to the endpoint name.
type Discriminator struct {
	generate func() string
}

// NewDiscriminator uses discriminator as suffix, or a host based one when empty.
func NewDiscriminator(discriminator string) *Discriminator {
	d := &Discriminator{generate: DefaultDiscriminator}
	if discriminator != "" {
		d.generate = func() string { return discriminator }
	}
	return d
}

// SetDiscriminatorGenerator replaces the function producing the suffix.
func (d *Discriminator) SetDiscriminatorGenerator(generate func() string) {
	d.generate = generate
}

func (d *Discriminator) Individualize(endpoint string) string {
	return endpoint + d.generate()
}

// DefaultDiscriminator is "-" followed by the host name, or by a random
// token when the host name is not available.
func DefaultDiscriminator() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return "-" + host
	}
	return "-" + uuidx.Token(8)
}

// NewIndividualizer builds the individualizer selected in settings.
func NewIndividualizer(r settings.Reader) (Individualizer, error) {
	switch name := settings.GetOrDefault[string](r, settings.KeyIndividualizationStrategy); name {
	case "", settings.IndividualizationCore:
		return Core{}, nil
	case settings.IndividualizationDiscriminator:
		return NewDiscriminator(settings.GetOrDefault[string](r, settings.KeyDiscriminator)), nil
	default:
		return nil, &ConfigurationError{Setting: settings.KeyIndividualizationStrategy, Reason: "unknown strategy " + name}
	}
}
