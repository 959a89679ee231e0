// Package common provides helpers shared by the MCP tool packages:
// instrumentation of tool handlers, argument parsing and JSON results.
package common
