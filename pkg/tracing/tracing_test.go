package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracer_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracer(Identity{ServiceName: "authmodule-api"}, "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestStartSpan_NoopWhenUninitialized(t *testing.T) {
	ctx := context.Background()
	spanCtx, span := StartSpan(ctx, "auth.authenticate")

	assert.Equal(t, ctx, spanCtx)
	assert.False(t, span.SpanContext().IsValid())
	EndSpan(span, errors.New("ignored"))
}
