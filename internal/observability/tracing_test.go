package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kineticguard/kinetic/internal/log"
)

func TestSetup_DefaultCollector(t *testing.T) {
	cfg := Config{
		Environment: "test",
		ServiceName: "kinetic-test",
	}

	ctx := context.Background()
	shutdown, err := Setup(ctx, cfg, log.NewNop())

	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
}

func TestSetup_CustomCollector(t *testing.T) {
	cfg := Config{
		CollectorURL: "collector.internal:4318",
		Environment:  "staging",
		ServiceName:  "kinetic",
	}

	ctx := context.Background()
	shutdown, err := Setup(ctx, cfg, log.NewNop())

	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
}

func TestSetup_CollectorUnavailable_GracefulDegradation(t *testing.T) {
	cfg := Config{
		CollectorURL: "localhost:99999",
		Environment:  "test",
	}

	ctx := context.Background()
	shutdown, err := Setup(ctx, cfg, log.NewNop())

	// Exporter creation succeeds; export failures stay silent.
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
}

func TestDefaultCollectorURL_Value(t *testing.T) {
	assert.Equal(t, "localhost:4318", DefaultCollectorURL)
}
