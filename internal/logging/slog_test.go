package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributes(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{name: "operation", attr: Operation("list"), wantKey: KeyOperation, wantVal: "list"},
		{name: "tool", attr: Tool("drive_read_file"), wantKey: KeyTool, wantVal: "drive_read_file"},
		{name: "path", attr: Path("/A/b"), wantKey: KeyPath, wantVal: "/A/b"},
		{name: "file id", attr: FileID("abc"), wantKey: KeyFileID, wantVal: "abc"},
		{name: "parent id", attr: ParentID("p1"), wantKey: KeyParentID, wantVal: "p1"},
		{name: "run id", attr: RunID("r-1"), wantKey: KeyRunID, wantVal: "r-1"},
		{name: "count", attr: Count(3), wantKey: KeyCount, wantVal: "3"},
		{name: "status", attr: Status("success"), wantKey: KeyStatus, wantVal: "success"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKey, tt.attr.Key)
			assert.Equal(t, tt.wantVal, tt.attr.Value.String())
		})
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	assert.Equal(t, KeyError, attr.Key)
	assert.Equal(t, "boom", attr.Value.String())

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("no error", Err(nil))
	assert.NotContains(t, buf.String(), KeyError+"=")
}

func TestSanitizeToken(t *testing.T) {
	assert.Equal(t, "<empty>", SanitizeToken(""))
	assert.Equal(t, "[token:9 chars]", SanitizeToken("ya29.abcd"))
	assert.NotContains(t, SanitizeToken("ya29.secret"), "secret")
}

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	WithTool(WithOperation(logger, "move"), "drive_move_file").Info("done")

	out := buf.String()
	assert.Contains(t, out, "operation=move")
	assert.Contains(t, out, "tool=drive_move_file")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	logger, err := New(&buf, "warn", FormatJSON)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", Path("/x"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), "expected JSON output, got %s", out)
	assert.Contains(t, out, `"path":"/x"`)

	_, err = New(&buf, "info", "xml")
	assert.Error(t, err)
}
