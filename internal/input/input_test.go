package input

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrompt(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		def      string
		expected string
	}{
		{"typed value", "user-profile\n", "", "user-profile"},
		{"trims whitespace", "  nav  \n", "", "nav"},
		{"empty uses default", "\n", "widget", "widget"},
		{"eof without newline", "footer", "", "footer"},
		{"eof uses default", "", "widget", "widget"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := New(strings.NewReader(tt.in), &out).Prompt("Component name", tt.def)
			assert.Equal(t, tt.expected, got)
			assert.Contains(t, out.String(), "Component name")
		})
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		in         string
		defaultYes bool
		expected   bool
	}{
		{"y\n", false, true},
		{"YES\n", false, true},
		{"n\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
		{"maybe\n", true, false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := New(strings.NewReader(tt.in), &out).Confirm("Run npm install?", tt.defaultYes)
		assert.Equal(t, tt.expected, got, "input %q", tt.in)
	}

	var out bytes.Buffer
	New(strings.NewReader("\n"), &out).Confirm("Continue?", true)
	assert.Contains(t, out.String(), "[Y/n]")
}
