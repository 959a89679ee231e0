package instrumentation

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

const (
	testToolList = "drive_list_directory"
	testToolMove = "drive_move_files"
)

func attrMap(attrs []slog.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value.String()
	}
	return m
}

func TestToolInvocation_NewAndComplete(t *testing.T) {
	ti := NewToolInvocation(testToolList)

	if ti.Tool != testToolList {
		t.Errorf("Tool = %q, want %q", ti.Tool, testToolList)
	}
	if ti.StartTime.IsZero() {
		t.Error("StartTime should not be zero")
	}

	ti.CompleteSuccess()

	if !ti.Success {
		t.Error("Success should be true")
	}
	if ti.Duration < 0 {
		t.Error("Duration should not be negative")
	}
	if ti.Status() != StatusSuccess {
		t.Errorf("Status() = %q, want %q", ti.Status(), StatusSuccess)
	}
}

func TestToolInvocation_CompleteWithError(t *testing.T) {
	ti := NewToolInvocation(testToolMove).CompleteWithError(errors.New("destination folder not found"))

	if ti.Success {
		t.Error("Success should be false")
	}
	if ti.Error != "destination folder not found" {
		t.Errorf("Error = %q", ti.Error)
	}
	if ti.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", ti.Status(), StatusError)
	}
}

func TestToolInvocation_LogAttrs(t *testing.T) {
	ti := NewToolInvocation(testToolList).
		WithOperation("list").
		WithTarget("/Documents/Projects/2024")
	ti.TraceID = "abc123"
	ti.CompleteSuccess()

	tests := []struct {
		name         string
		includePaths bool
		wantTarget   string
	}{
		{name: "paths reduced", includePaths: false, wantTarget: "depth:3"},
		{name: "paths included", includePaths: true, wantTarget: "/Documents/Projects/2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := attrMap(ti.LogAttrs(tt.includePaths))
			if m["tool"] != testToolList {
				t.Errorf("tool = %q", m["tool"])
			}
			if m["operation"] != "list" {
				t.Errorf("operation = %q", m["operation"])
			}
			if m["target"] != tt.wantTarget {
				t.Errorf("target = %q, want %q", m["target"], tt.wantTarget)
			}
			if m["trace_id"] != "abc123" {
				t.Errorf("trace_id = %q", m["trace_id"])
			}
			if _, ok := m["error"]; ok {
				t.Error("error should not be present on success")
			}
		})
	}
}

func TestToolInvocation_LogAttrs_IDTargetKept(t *testing.T) {
	ti := NewToolInvocation("drive_read_file").WithTarget("1AbCdEf").CompleteSuccess()

	m := attrMap(ti.LogAttrs(false))
	if m["target"] != "1AbCdEf" {
		t.Errorf("target = %q, want file ID unchanged", m["target"])
	}
}

func TestToolInvocation_LogAttrs_MinimalFields(t *testing.T) {
	ti := NewToolInvocation(testToolList).CompleteSuccess()

	attrs := ti.LogAttrs(false)
	if len(attrs) != 3 {
		t.Errorf("expected 3 attrs (tool, duration, success), got %d", len(attrs))
	}
}

func TestToolInvocation_WithSpanContext_NoSpan(t *testing.T) {
	ti := NewToolInvocation(testToolList).WithSpanContext(context.Background())

	if ti.TraceID != "" || ti.SpanID != "" {
		t.Errorf("expected empty trace context, got %q/%q", ti.TraceID, ti.SpanID)
	}
}

func TestAuditLogger_LogToolInvocation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	al := NewAuditLogger(logger)

	al.LogToolInvocation(NewToolInvocation(testToolList).WithTarget("/A/b").CompleteSuccess())
	al.LogToolInvocation(NewToolInvocation(testToolMove).CompleteWithError(errors.New("boom")))

	out := buf.String()
	if !strings.Contains(out, "tool_executed") {
		t.Errorf("expected tool_executed entry, got %s", out)
	}
	if !strings.Contains(out, "tool_failed") {
		t.Errorf("expected tool_failed entry, got %s", out)
	}
	if strings.Contains(out, "/A/b") {
		t.Errorf("path should have been reduced, got %s", out)
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLoggerWithConfig(slog.New(slog.NewTextHandler(&buf, nil)), AuditLoggingConfig{Enabled: false})

	al.LogToolInvocation(NewToolInvocation(testToolList).CompleteSuccess())

	if buf.Len() != 0 {
		t.Errorf("expected no output when disabled, got %s", buf.String())
	}
}

func TestAuditLogger_Nil(t *testing.T) {
	var al *AuditLogger
	// Should not panic
	al.LogToolInvocation(NewToolInvocation(testToolList).CompleteSuccess())
}
