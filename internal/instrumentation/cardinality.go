package instrumentation

import (
	"strconv"
	"strings"
)

// Label helpers that keep metric and log values bounded.
//
// File paths and IDs are unbounded; never use them directly as metric labels.

// PathDepthLabel reduces an absolute path to its depth.
//
// Example:
//
//	PathDepthLabel("/")                      // "depth:0"
//	PathDepthLabel("/Documents/Projects")    // "depth:2"
//	PathDepthLabel("")                       // "unknown"
func PathDepthLabel(path string) string {
	if path == "" {
		return "unknown"
	}

	depth := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			depth++
		}
	}

	return "depth:" + strconv.Itoa(depth)
}

// Drive API operation names.
// Status and refresh constants are defined in config.go.
const (
	OperationList     = "list"
	OperationGet      = "get"
	OperationCreate   = "create"
	OperationUpdate   = "update"
	OperationDelete   = "delete"
	OperationDownload = "download"
	OperationExport   = "export"
)
