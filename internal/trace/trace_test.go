package trace

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_TRACING_ENABLED", "false")
	t.Setenv("LOG_TRACE_SAMPLE_RATIO", "0.25")
	cfg := ConfigFromEnv(nil)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 0.25, cfg.SampleRatio)

	t.Setenv("LOG_TRACING_ENABLED", "")
	t.Setenv("LOG_TRACE_SAMPLE_RATIO", "lots")
	cfg = ConfigFromEnv(nil)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 1.0, cfg.SampleRatio)
}

func TestDisabled(t *testing.T) {
	require.NoError(t, Init(Config{Enabled: false}))
	assert.False(t, Enabled())

	ctx, span := StartSpan(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	_, _, ok := GetTraceFields(ctx)
	assert.False(t, ok)
}

func TestSpansExportedOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Enabled: true, SampleRatio: 1, Writer: &buf}))

	ctx, span := StartSpan(context.Background(), "simulate")
	traceID, spanID, ok := GetTraceFields(ctx)
	require.True(t, ok)
	assert.Len(t, traceID, 32)
	assert.Len(t, spanID, 16)
	span.End()

	require.NoError(t, Shutdown(context.Background()))
	assert.False(t, Enabled())
	assert.Contains(t, buf.String(), `"Name": "simulate"`)
	assert.Contains(t, buf.String(), serviceName)

	require.NoError(t, Shutdown(context.Background()), "second shutdown is a no-op")
}

func TestZeroSampleRatioDropsRootSpans(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Enabled: true, SampleRatio: 0, Writer: &buf}))

	_, span := StartSpan(context.Background(), "dropped")
	assert.False(t, span.IsRecording())
	span.End()

	require.NoError(t, Shutdown(context.Background()))
	assert.NotContains(t, buf.String(), "dropped")
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-1))
	assert.Equal(t, 0.5, clamp(0.5))
	assert.Equal(t, 1.0, clamp(3))
}
