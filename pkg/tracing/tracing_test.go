package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_ConsoleExporter(t *testing.T) {
	var buf bytes.Buffer

	shutdown, err := Init(context.Background(), Config{
		Enabled:         true,
		ServiceName:     "tracing-test",
		ServiceVersion:  "0.0.1",
		Environment:     "test",
		ConsoleExporter: true,
		ConsoleWriter:   &buf,
		SampleRatio:     1.0,
	})
	require.NoError(t, err)

	// The global provider must be the SDK provider, not the no-op default
	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)

	_, span := Tracer("tracing-test").Start(context.Background(), "unit-of-work")
	span.End()

	// Shutdown flushes the batch processor to the console writer
	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "unit-of-work")
	assert.Contains(t, buf.String(), "tracing-test")
}

func TestInit_PropagatorRegistered(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{
		Enabled:     true,
		ServiceName: "tracing-test",
		SampleRatio: 1.0,
	})
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	fields := otel.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "baggage")
}
