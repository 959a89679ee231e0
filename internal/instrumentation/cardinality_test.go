package instrumentation

import "testing"

func TestPathDepthLabel(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/", "depth:0"},
		{"/Documents", "depth:1"},
		{"/Documents/Projects/2024", "depth:3"},
		{"/Documents/Projects/", "depth:2"},
		{"Documents//x", "depth:2"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			result := PathDepthLabel(tt.path)
			if result != tt.expected {
				t.Errorf("PathDepthLabel(%q) = %q, want %q", tt.path, result, tt.expected)
			}
		})
	}
}
