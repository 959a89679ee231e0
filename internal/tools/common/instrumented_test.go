package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/teemow/drivepath/internal/drive/drivetest"
	"github.com/teemow/drivepath/internal/instrumentation"
	"github.com/teemow/drivepath/internal/server"
)

func newServerContext(t *testing.T, audit *bytes.Buffer) *server.ServerContext {
	t.Helper()

	metrics, err := instrumentation.NewMetrics(noop.NewMeterProvider().Meter("test"), false)
	require.NoError(t, err)

	cfg := server.Config{Store: drivetest.New(), Metrics: metrics}
	if audit != nil {
		logger := slog.New(slog.NewTextHandler(audit, nil))
		cfg.AuditLogger = instrumentation.NewAuditLoggerWithConfig(logger,
			instrumentation.AuditLoggingConfig{Enabled: true, IncludePaths: true})
	}

	sc, err := server.NewServerContext(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func request(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestInstrumentedToolHandler(t *testing.T) {
	tests := []struct {
		name      string
		handler   ToolHandler
		args      map[string]any
		wantErr   bool
		wantAudit []string
	}{
		{
			name: "success",
			handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultText("ok"), nil
			},
			args:      map[string]any{"path": "/Documents"},
			wantAudit: []string{"tool_executed", "tool=drive_list_directory", "operation=list", "target=/Documents", "success=true"},
		},
		{
			name: "tool error result",
			handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultError("path not found: /Missing"), nil
			},
			args:      map[string]any{"fileId": "abc"},
			wantAudit: []string{"tool_failed", "target=abc", "success=false", `error="path not found: /Missing"`},
		},
		{
			name: "handler error",
			handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return nil, errors.New("boom")
			},
			wantErr:   true,
			wantAudit: []string{"tool_failed", "error=boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var audit bytes.Buffer
			sc := newServerContext(t, &audit)

			wrapped := InstrumentedToolHandler("drive_list_directory", OperationList, sc, tt.handler)
			_, err := wrapped(context.Background(), request(tt.args))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			for _, want := range tt.wantAudit {
				assert.Contains(t, audit.String(), want)
			}
		})
	}
}

func TestInstrumentedToolHandler_WithoutInstrumentation(t *testing.T) {
	sc, err := server.NewServerContext(context.Background(), server.Config{Store: drivetest.New()})
	require.NoError(t, err)

	called := false
	wrapped := InstrumentedToolHandler("drive_read_file", OperationRead, sc,
		func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			called = true
			return mcp.NewToolResultText("content"), nil
		})

	result, err := wrapped(context.Background(), request(nil))
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "content", ResultText(result))
}

func TestTargetFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "nil", args: nil, want: ""},
		{name: "path first", args: map[string]any{"fileId": "id", "path": "/a"}, want: "/a"},
		{name: "file id", args: map[string]any{"fileId": "id"}, want: "id"},
		{name: "empty skipped", args: map[string]any{"folderPath": "", "folderId": "f"}, want: "f"},
		{name: "non-string ignored", args: map[string]any{"path": 3}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TargetFromArgs(tt.args))
		})
	}
}

func TestJSONResult(t *testing.T) {
	result, err := JSONResult(map[string]int{"total": 2})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "{\n  \"total\": 2\n}", ResultText(result))

	result, err = JSONResult(make(chan int))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, ResultText(result), "failed to encode result")

	result, err = ErrorResult(errors.New("newName is required"))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "newName is required", ResultText(result))
}

func TestOptionalInt64(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		want    *int64
		wantErr string
	}{
		{name: "missing", args: map[string]any{}},
		{name: "null", args: map[string]any{"n": nil}},
		{name: "float", args: map[string]any{"n": float64(42)}, want: ptr(42)},
		{name: "int", args: map[string]any{"n": 7}, want: ptr(7)},
		{name: "fraction", args: map[string]any{"n": 1.5}, wantErr: "n must be an integer"},
		{name: "negative", args: map[string]any{"n": float64(-1)}, wantErr: "n must not be negative"},
		{name: "string", args: map[string]any{"n": "10"}, wantErr: "n must be a number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OptionalInt64(tt.args, "n")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	n, err := OptionalInt(map[string]any{}, "n", 50)
	require.NoError(t, err)
	assert.Equal(t, 50, n)
}

func ptr(n int64) *int64 { return &n }
