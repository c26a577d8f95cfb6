package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTracingDisabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "", "test", true)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupTracingWithEndpoint(t *testing.T) {
	// The exporter connects lazily, so setup succeeds without a collector.
	shutdown, err := SetupTracing(context.Background(), "localhost:4318", "test", true)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	_ = shutdown(context.Background())
}
