package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrResult    = "result"
	attrTrigger   = "trigger"
	attrDirection = "direction"
	attrType      = "type"
	attrTool      = "tool"
	attrCode      = "code"
)

// Metrics provides methods for recording observability metrics.
// The zero value is a valid no-op recorder.
type Metrics struct {
	// HTTP metrics (streamable-http transport)
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Drive API metrics
	driveOperationsTotal   metric.Int64Counter
	driveOperationDuration metric.Float64Histogram

	// Credential metrics
	tokenRefreshTotal metric.Int64Counter

	// Path cache metrics
	pathCacheLookupsTotal metric.Int64Counter

	// Bulk executor metrics
	bulkOperationsTotal metric.Int64Counter
	bulkRunDuration     metric.Float64Histogram

	// MCP tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.driveOperationsTotal, err = meter.Int64Counter(
		"drive_api_operations_total",
		metric.WithDescription("Total number of Drive API calls"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive_api_operations_total counter: %w", err)
	}

	m.driveOperationDuration, err = meter.Float64Histogram(
		"drive_api_operation_duration_seconds",
		metric.WithDescription("Drive API call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive_api_operation_duration_seconds histogram: %w", err)
	}

	m.tokenRefreshTotal, err = meter.Int64Counter(
		"oauth_token_refresh_total",
		metric.WithDescription("Total number of OAuth token refresh attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_token_refresh_total counter: %w", err)
	}

	m.pathCacheLookupsTotal, err = meter.Int64Counter(
		"path_cache_lookups_total",
		metric.WithDescription("Total number of path cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create path_cache_lookups_total counter: %w", err)
	}

	m.bulkOperationsTotal, err = meter.Int64Counter(
		"bulk_operations_total",
		metric.WithDescription("Total number of operations applied by the bulk executor"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bulk_operations_total counter: %w", err)
	}

	m.bulkRunDuration, err = meter.Float64Histogram(
		"bulk_run_duration_seconds",
		metric.WithDescription("Bulk executor run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bulk_run_duration_seconds histogram: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordDriveOperation records a single Drive API call.
//
// Parameters:
//   - operation: one of the Operation* constants (list, get, create, update, delete, download, export)
//   - status: StatusSuccess or StatusError
//   - code: HTTP status code of a rejected call, 0 otherwise (only recorded with detailed labels)
//   - duration: time taken for the call, including a refresh-and-retry cycle
func (m *Metrics) RecordDriveOperation(ctx context.Context, operation, status string, code int, duration time.Duration) {
	if m == nil || m.driveOperationsTotal == nil || m.driveOperationDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	if m.detailedLabels && code != 0 {
		attrs = append(attrs, attribute.String(attrCode, strconv.Itoa(code)))
	}

	m.driveOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.driveOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordTokenRefresh records an OAuth token refresh attempt.
// Result should be one of the RefreshResult* constants and trigger one of
// RefreshTriggerProactive or RefreshTriggerUnauthorized.
func (m *Metrics) RecordTokenRefresh(ctx context.Context, result, trigger string) {
	if m == nil || m.tokenRefreshTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrResult, result),
		attribute.String(attrTrigger, trigger),
	}

	m.tokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPathCacheLookup records a path cache lookup.
// Direction is CacheDirectionPathToID or CacheDirectionIDToPath.
func (m *Metrics) RecordPathCacheLookup(ctx context.Context, direction string, hit bool) {
	if m == nil || m.pathCacheLookupsTotal == nil {
		return
	}

	result := CacheResultMiss
	if hit {
		result = CacheResultHit
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrDirection, direction),
		attribute.String(attrResult, result),
	}

	m.pathCacheLookupsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordBulkOperation records the outcome of one operation applied by the bulk executor.
// Status should be one of StatusSuccess, StatusError or StatusSkipped.
func (m *Metrics) RecordBulkOperation(ctx context.Context, operationType, status string) {
	if m == nil || m.bulkOperationsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrType, operationType),
		attribute.String(attrStatus, status),
	}

	m.bulkOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordBulkRun records the wall-clock duration of a complete bulk run.
func (m *Metrics) RecordBulkRun(ctx context.Context, kind string, duration time.Duration) {
	if m == nil || m.bulkRunDuration == nil {
		return
	}

	m.bulkRunDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(attrType, kind)))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
