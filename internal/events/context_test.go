package events_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TheMichaelB/tomb/internal/events"
)

func TestFromContext(t *testing.T) {
	ctx := context.Background()

	// Should return default logger when none in context
	logger := events.FromContext(ctx)
	assert.NotNil(t, logger)
	assert.Equal(t, events.Default(), logger)
}

func TestWithLogger(t *testing.T) {
	ctx := context.Background()
	logger := &events.Logger{}

	ctx = events.WithLogger(ctx, logger)
	retrieved := events.FromContext(ctx)

	assert.Same(t, logger, retrieved)
}

func TestWithCommand(t *testing.T) {
	var buf bytes.Buffer
	ctx := events.WithLogger(context.Background(), events.NewTestLogger(events.InfoLevel, "json", &buf))

	ctx = events.WithCommand(ctx, "save")
	assert.Equal(t, "save", events.GetCommand(ctx))

	// Should also add to logger fields
	events.FromContext(ctx).Info("saved")
	assert.Contains(t, buf.String(), `"command":"save"`)
}

func TestWithTomb(t *testing.T) {
	var buf bytes.Buffer
	ctx := events.WithLogger(context.Background(), events.NewTestLogger(events.InfoLevel, "text", &buf))

	ctx = events.WithTomb(ctx, "/tmp/tomb.yaml")
	assert.Equal(t, "/tmp/tomb.yaml", events.GetTomb(ctx))

	events.FromContext(ctx).Info("loaded")
	assert.Contains(t, buf.String(), "tomb=/tmp/tomb.yaml")
}

func TestGetCommandEmpty(t *testing.T) {
	assert.Empty(t, events.GetCommand(context.Background()))
	assert.Empty(t, events.GetTomb(context.Background()))
}

func TestSetDefault(t *testing.T) {
	previous := events.Default()
	t.Cleanup(func() { events.SetDefault(previous) })

	customLogger := &events.Logger{}
	events.SetDefault(customLogger)

	retrieved := events.FromContext(context.Background())
	assert.Same(t, customLogger, retrieved)
}
