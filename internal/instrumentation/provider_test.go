package instrumentation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := t.Context()

	// None of these may panic.
	m.RecordChatTurn(ctx, ResultSuccess, time.Second)
	m.RecordToolInvocation(ctx, "create_meeting", ResultRejected)
	m.RecordCalendarOperation(ctx, "insert", ResultError, time.Second)
	m.RecordTokenRefresh(ctx, ResultSuccess)
}

func TestZeroMetricsAreSafe(t *testing.T) {
	m := &Metrics{}
	ctx := t.Context()

	m.RecordChatTurn(ctx, ResultSuccess, time.Second)
	m.RecordToolInvocation(ctx, "check_availability", ResultSuccess)
}

func TestDisabledProvider(t *testing.T) {
	p, err := NewProvider(t.Context(), Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Metrics())
	assert.NotNil(t, p.Tracer("test"))
	assert.NoError(t, p.Shutdown(t.Context()))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone, TraceSamplingRate: 0.1},
		},
		{
			name:    "sampling rate out of range",
			config:  Config{MetricsExporter: ExporterPrometheus, TraceSamplingRate: 1.5},
			wantErr: true,
		},
		{
			name:    "unknown metrics exporter",
			config:  Config{MetricsExporter: "statsd"},
			wantErr: true,
		},
		{
			name:    "otlp metrics without endpoint",
			config:  Config{MetricsExporter: ExporterOTLP},
			wantErr: true,
		},
		{
			name:   "otlp metrics with endpoint",
			config: Config{MetricsExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318"},
		},
		{
			name:    "otlp tracing without endpoint",
			config:  Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterOTLP},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("INSTRUMENTATION_ENABLED", "")
	t.Setenv("METRICS_EXPORTER", "")
	t.Setenv("TRACING_EXPORTER", "")

	config := DefaultConfig()
	assert.Equal(t, "meetingbot", config.ServiceName)
	assert.True(t, config.Enabled)
	assert.Equal(t, ExporterPrometheus, config.MetricsExporter)
	assert.Equal(t, ExporterNone, config.TracingExporter)
	assert.NoError(t, config.Validate())
}
