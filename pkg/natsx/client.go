package natsx

import (
	"os"

	"github.com/nats-io/nats.go"
)

// DefaultClientName is the connection name reported to the NATS server.
const DefaultClientName = "roost"

// NewClient connects to the NATS server in the NATS_URL environment variable,
// falling back to the default local URL. Without options the connection is
// named "roost" and uses compression.
func NewClient(opts ...nats.Option) (*nats.Conn, error) {
	if len(opts) == 0 {
		opts = append(opts, nats.Name(DefaultClientName), nats.Compression(true))
	}
	return nats.Connect(URL(), opts...)
}

// URL is the NATS server address from NATS_URL or nats.DefaultURL.
func URL() string {
	if url := os.Getenv("NATS_URL"); url != "" {
		return url
	}
	return nats.DefaultURL
}
