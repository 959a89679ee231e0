// Package server provides the MCP server context and the auxiliary HTTP
// endpoints of drivepath.
//
// # Key Components
//
// ServerContext owns the long-lived dependencies shared by every tool
// handler: the path-addressed Drive adapter, the bulk executor, the token
// manager and the instrumentation sinks. It also records whether write
// tools are enabled.
//
// HealthChecker serves /healthz and /readyz for the streamable HTTP
// transport. Readiness fails once the Drive credential becomes
// unrefreshable or the server is shutting down.
//
// MetricsServer exposes Prometheus metrics on a dedicated port.
package server
