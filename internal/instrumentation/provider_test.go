package instrumentation

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(metrics, tracing string) Config {
	return Config{
		ServiceName:       "drivepath-test",
		ServiceVersion:    "1.0.0",
		Enabled:           true,
		MetricsExporter:   metrics,
		TracingExporter:   tracing,
		TraceSamplingRate: 1,
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name           string
		config         Config
		wantErr        string
		wantEnabled    bool
		wantPrometheus bool
	}{
		{
			name:   "disabled",
			config: Config{ServiceName: "drivepath-test", Enabled: false},
		},
		{
			name:           "prometheus without tracing",
			config:         testConfig(ExporterPrometheus, ExporterNone),
			wantEnabled:    true,
			wantPrometheus: true,
		},
		{
			name:        "stdout",
			config:      testConfig(ExporterStdout, ExporterStdout),
			wantEnabled: true,
		},
		{
			name:    "unknown metrics exporter",
			config:  testConfig("statsd", ExporterNone),
			wantErr: `invalid metrics exporter "statsd"`,
		},
		{
			name:    "unknown tracing exporter",
			config:  testConfig(ExporterPrometheus, "zipkin"),
			wantErr: `invalid tracing exporter "zipkin"`,
		},
		{
			name:    "otlp tracing without endpoint",
			config:  testConfig(ExporterPrometheus, ExporterOTLP),
			wantErr: "OTLP endpoint is required when using OTLP tracing exporter",
		},
		{
			name:    "otlp metrics without endpoint",
			config:  testConfig(ExporterOTLP, ExporterNone),
			wantErr: "OTLP endpoint is required when using OTLP metrics exporter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			provider, err := NewProvider(ctx, tt.config)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer func() { assert.NoError(t, provider.Shutdown(ctx)) }()

			assert.Equal(t, tt.wantEnabled, provider.Enabled())
			assert.NotNil(t, provider.Metrics(), "metrics recorder is never nil")
			assert.NotNil(t, provider.Tracer("test"))
			assert.Equal(t, tt.wantPrometheus, provider.PrometheusHandler() != nil)
		})
	}
}

func TestProvider_PrometheusRegistryIsPrivate(t *testing.T) {
	ctx := context.Background()

	// Two providers in one process must not collide on registration.
	first, err := NewProvider(ctx, testConfig(ExporterPrometheus, ExporterNone))
	require.NoError(t, err)
	defer func() { _ = first.Shutdown(ctx) }()

	second, err := NewProvider(ctx, testConfig(ExporterPrometheus, ExporterNone))
	require.NoError(t, err)
	defer func() { _ = second.Shutdown(ctx) }()

	first.Metrics().RecordBulkOperation(ctx, "move_file", StatusSuccess)

	scrape := func(p *Provider) string {
		rec := httptest.NewRecorder()
		p.PrometheusHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		return string(body)
	}

	assert.Contains(t, scrape(first), "bulk_operations_total")
	assert.NotContains(t, scrape(second), `type="move_file"`)
}

func TestProvider_ShutdownDisabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, provider.Shutdown(context.Background()))
}
