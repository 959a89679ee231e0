// Package instrumentation provides OpenTelemetry instrumentation for the
// drivepath MCP server.
//
// # Metrics
//
// Drive API:
//   - drive_api_operations_total: Counter of Drive API calls by operation and status
//   - drive_api_operation_duration_seconds: Histogram of Drive API call durations
//
// Credentials:
//   - oauth_token_refresh_total: Counter of token refresh attempts by result and trigger
//
// Path resolution:
//   - path_cache_lookups_total: Counter of path cache lookups by direction and result
//
// Bulk execution:
//   - bulk_operations_total: Counter of executed bulk operations by type and status
//   - bulk_run_duration_seconds: Histogram of bulk run durations
//
// MCP tools and transport:
//   - mcp_tool_invocations_total / mcp_tool_duration_seconds
//   - http_requests_total / http_request_duration_seconds
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and Drive API
// calls (drive.<operation>).
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: drivepath)
//   - AUDIT_LOGGING_INCLUDE_PATHS: Write full paths to the audit log (default: false)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordDriveOperation(ctx, instrumentation.OperationList, instrumentation.StatusSuccess, 0, time.Since(start))
package instrumentation
