package common

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/drivepath/internal/instrumentation"
	"github.com/teemow/drivepath/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// targetArgs are consulted in order to name the audited target of a call.
var targetArgs = []string{"path", "folderPath", "rootPath", "fileId", "folderId", "sourceId"}

// TargetFromArgs returns the path or ID a tool call acts on, if any.
func TargetFromArgs(args map[string]any) string {
	for _, key := range targetArgs {
		if v, ok := args[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// InstrumentedToolHandler wraps a tool handler with a span, metrics and
// audit logging. operation is the audit category (list, read, move, ...).
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", "list", sc, handler))
func InstrumentedToolHandler(toolName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		target := TargetFromArgs(request.GetArguments())
		attrs := instrumentation.NewSpanAttributeBuilder().
			WithOperation(operation).
			WithReadOnly(!isWrite(operation))
		if strings.HasPrefix(target, "/") {
			attrs.WithPath(target)
		} else if target != "" {
			attrs.WithFileID(target)
		}

		ctx, span := instrumentation.StartToolSpan(ctx, toolName, attrs.Build()...)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithOperation(operation).
			WithTarget(target).
			WithSpanContext(ctx)

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			resultErr := errors.New(ResultText(result))
			invocation.CompleteWithError(resultErr)
			instrumentation.SetSpanError(span, resultErr)
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		metrics.RecordToolInvocation(ctx, toolName, status, duration)
		auditLogger.LogToolInvocation(invocation)

		return result, err
	}
}

func isWrite(operation string) bool {
	switch operation {
	case OperationMove, OperationRename, OperationCreate, OperationBulk:
		return true
	}
	return false
}

// Audit operation categories.
const (
	OperationList    = "list"
	OperationSearch  = "search"
	OperationRead    = "read"
	OperationResolve = "resolve"
	OperationTree    = "tree"
	OperationMove    = "move"
	OperationRename  = "rename"
	OperationCreate  = "create"
	OperationBulk    = "bulk"
)
