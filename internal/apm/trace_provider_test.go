package apm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/arbitrage-dashboard/internal/logger"
)

func TestParseHeaders(t *testing.T) {
	h, err := ParseHeaders("x-honeycomb-team=abc, api-key = k ,")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"x-honeycomb-team": "abc", "api-key": "k"}, h)

	_, err = ParseHeaders("broken")
	assert.Error(t, err)
}

func TestNewTraceProvider(t *testing.T) {
	ctx := context.Background()

	tp, err := NewTraceProvider(ctx, Config{Provider: EmptyProvider}, logger.NewNop())
	require.NoError(t, err)
	assert.NoError(t, tp.Stop())

	tp, err = NewTraceProvider(ctx, Config{Provider: ConsoleProvider, ServiceName: "arbdash-test"}, logger.NewNop())
	require.NoError(t, err)
	assert.NoError(t, tp.Stop())

	_, err = NewTraceProvider(ctx, Config{Provider: "jaeger"}, logger.NewNop())
	assert.Error(t, err)
}
