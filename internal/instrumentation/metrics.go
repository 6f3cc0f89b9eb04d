package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrTool      = "tool"
	attrResult    = "result"
	attrOperation = "operation"
	attrStatus    = "status"
)

// Result values for tool invocations.
const (
	ResultSuccess  = "success"
	ResultError    = "error"
	ResultRejected = "rejected"
)

// Metrics records the service's telemetry. The zero value and nil are
// valid no-op recorders.
type Metrics struct {
	chatTurnsTotal   metric.Int64Counter
	chatTurnDuration metric.Float64Histogram

	toolInvocationsTotal metric.Int64Counter

	calendarOperationsTotal   metric.Int64Counter
	calendarOperationDuration metric.Float64Histogram

	tokenRefreshTotal metric.Int64Counter
}

// NewMetrics creates a Metrics instance with all instruments registered.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.chatTurnsTotal, err = meter.Int64Counter(
		"chat_turns_total",
		metric.WithDescription("Total number of chat turns handled"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat_turns_total counter: %w", err)
	}

	m.chatTurnDuration, err = meter.Float64Histogram(
		"chat_turn_duration_seconds",
		metric.WithDescription("Chat turn duration, including all tool calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat_turn_duration_seconds histogram: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"tool_invocations_total",
		metric.WithDescription("Total number of scheduling tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_invocations_total counter: %w", err)
	}

	m.calendarOperationsTotal, err = meter.Int64Counter(
		"calendar_operations_total",
		metric.WithDescription("Total number of Google Calendar API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_operations_total counter: %w", err)
	}

	m.calendarOperationDuration, err = meter.Float64Histogram(
		"calendar_operation_duration_seconds",
		metric.WithDescription("Google Calendar API operation duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_operation_duration_seconds histogram: %w", err)
	}

	m.tokenRefreshTotal, err = meter.Int64Counter(
		"oauth_token_refresh_total",
		metric.WithDescription("Total number of OAuth token refreshes"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_token_refresh_total counter: %w", err)
	}

	return m, nil
}

// RecordChatTurn records one handled chat turn and its duration.
func (m *Metrics) RecordChatTurn(ctx context.Context, status string, duration time.Duration) {
	if m == nil || m.chatTurnsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.chatTurnsTotal.Add(ctx, 1, attrs)
	m.chatTurnDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordToolInvocation records one scheduling tool call.
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool, result string) {
	if m == nil || m.toolInvocationsTotal == nil {
		return
	}
	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrTool, tool),
		attribute.String(attrResult, result),
	))
}

// RecordCalendarOperation records one provider API call.
func (m *Metrics) RecordCalendarOperation(ctx context.Context, operation, result string, duration time.Duration) {
	if m == nil || m.calendarOperationsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrResult, result),
	)
	m.calendarOperationsTotal.Add(ctx, 1, attrs)
	m.calendarOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTokenRefresh records one OAuth token refresh attempt.
func (m *Metrics) RecordTokenRefresh(ctx context.Context, result string) {
	if m == nil || m.tokenRefreshTotal == nil {
		return
	}
	m.tokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}
