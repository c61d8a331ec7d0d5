package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWithLoggerAndLoggerFromContext(t *testing.T) {
	lg := slog.Default()
	baseCtx := context.Background()

	ctxWithLogger := ContextWithLogger(baseCtx, lg)
	assert.NotEqual(t, baseCtx, ctxWithLogger)
	assert.Same(t, lg, LoggerFromContext(ctxWithLogger))

	assert.Equal(t, baseCtx, ContextWithLogger(baseCtx, nil))
	assert.NotNil(t, LoggerFromContext(context.Background()))
}

func TestWithLogAttrs(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := ContextWithLogger(context.Background(), base)

	ctx, lg := WithLogAttrs(ctx, slog.String("batch_id", "batch_1"))
	require.NotNil(t, lg)
	LoggerFromContext(ctx).Info("scored")
	assert.Contains(t, buf.String(), `"batch_id":"batch_1"`)
}

func TestContextWithRequestID(t *testing.T) {
	ctx := context.Background()
	ctxWithID := ContextWithRequestID(ctx, "req-123")
	assert.NotEqual(t, ctx, ctxWithID)
	assert.Equal(t, "req-123", RequestIDFromContext(ctxWithID))
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
	assert.Equal(t, ctx, ContextWithRequestID(ctx, ""))
}
