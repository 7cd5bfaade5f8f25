package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

// A config that passes loading but fails container validation, so New
// errors out after the tracer provider has been registered. No exporter
// endpoints are set, so nothing dials out.
func writeBrokenConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	content := "HTTP_PORT=\n" +
		"OTEL_ENABLED=true\n" +
		"OTEL_EXPORTER_ENDPOINT=\n" +
		"OTEL_CONSOLE_EXPORTER=false\n" +
		"MIGRATE_ON_START=false\n" +
		"REDIS_ENABLED=false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))
	return dir
}

func TestNew_StartupFailureShutsDownTracer(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("CONFIG_PATH", writeBrokenConfig(t))

	a, err := New(context.Background())
	require.Error(t, err)
	require.Nil(t, a)
	assert.Contains(t, err.Error(), "container")

	// The provider registered during the failed startup must already be
	// stopped: a stopped provider hands out non-recording spans.
	_, span := otel.GetTracerProvider().Tracer("startup-check").Start(context.Background(), "op")
	defer span.End()
	assert.False(t, span.IsRecording())
}
