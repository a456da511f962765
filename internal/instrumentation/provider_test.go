package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		ServiceName: "planner-test",
		Enabled:     false,
	})
	require.NoError(t, err)

	assert.False(t, provider.Enabled())
	assert.NotNil(t, provider.Metrics(), "metrics must be usable when disabled")
	assert.NotNil(t, provider.Audit())
	assert.False(t, provider.PrometheusEnabled())
	assert.NoError(t, provider.Shutdown(context.Background()))

	// No-op recorder must not panic.
	provider.Metrics().RecordRun(context.Background(), StatusSuccess, 2)
}

func TestNewProvider_Exporters(t *testing.T) {
	tests := []struct {
		name           string
		config         Config
		wantErr        bool
		wantPrometheus bool
	}{
		{
			name: "prometheus metrics",
			config: Config{
				MetricsExporter: ExporterPrometheus,
				TracingExporter: ExporterNone,
			},
			wantPrometheus: true,
		},
		{
			name: "stdout metrics and traces",
			config: Config{
				MetricsExporter: ExporterStdout,
				TracingExporter: ExporterStdout,
			},
		},
		{
			name: "unknown metrics exporter",
			config: Config{
				MetricsExporter: "invalid",
				TracingExporter: ExporterNone,
			},
			wantErr: true,
		},
		{
			name: "unknown tracing exporter",
			config: Config{
				MetricsExporter: ExporterPrometheus,
				TracingExporter: "invalid",
			},
			wantErr: true,
		},
		{
			name: "otlp tracing without endpoint",
			config: Config{
				MetricsExporter: ExporterPrometheus,
				TracingExporter: ExporterOTLP,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tt.config.ServiceName = "planner-test"
			tt.config.ServiceVersion = "1.0.0"
			tt.config.Enabled = true

			provider, err := NewProvider(ctx, tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { _ = provider.Shutdown(ctx) }()

			assert.True(t, provider.Enabled())
			assert.NotNil(t, provider.Metrics())
			assert.Equal(t, tt.wantPrometheus, provider.PrometheusEnabled())
		})
	}
}
