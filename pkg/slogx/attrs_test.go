package slogx

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/casualjim/roost/meta"
	"github.com/stretchr/testify/assert"
)

func TestAttrs(t *testing.T) {
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
	assert.Equal(t, "<nil>", Error(nil).Value.String())
	assert.Equal(t, "queue", Stringer("kind", meta.Queue).Value.String())
	assert.Equal(t, KeyLoggerName, LoggerName("creation").Key)

	attr := Entity(meta.Topic, "sales.events")
	assert.Equal(t, "entity", attr.Key)
	assert.Len(t, attr.Value.Group(), 2)
}

func TestFatal(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	Fatal(context.Background(), logger, "queue creation failed", Namespace("ns1"))

	assert.Contains(t, buf.String(), "level=ERROR+4")
	assert.Contains(t, buf.String(), "namespace=ns1")
}
