package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/taskdesk/pkg/configuration"
)

func TestSetup_DisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), configuration.OpenTelemetryOptions{Enabled: false})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_EnabledInstallsProvider(t *testing.T) {
	shutdown, err := Setup(context.Background(), configuration.OpenTelemetryOptions{
		Enabled:     true,
		TempoURL:    "localhost:4318",
		ServiceName: "taskdesk-test",
	})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
