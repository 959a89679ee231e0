// Package batch parses the list-valued arguments of the bulk tools.
//
// MCP clients send lists either as JSON arrays or, for some clients, as a
// string holding a JSON array; both forms are accepted.
package batch
