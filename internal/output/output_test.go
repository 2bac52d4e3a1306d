package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

// capture redirects output for the duration of f.
func capture(f func()) string {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer SetOutput(prev)
	f()
	return buf.String()
}

func TestStyledLines(t *testing.T) {
	tests := []struct {
		name   string
		print  func(string)
		marker string
	}{
		{"success", Success, "🐣"},
		{"error", Error, "❌"},
		{"warn", Warn, "⚠️"},
		{"info", Info, "ℹ️"},
		{"step", Step, "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := capture(func() { tt.print("Test message") })
			assert.Contains(t, got, tt.marker)
			assert.Contains(t, got, "Test message")
		})
	}
}

func TestVerbose(t *testing.T) {
	SetVerbose(false)
	assert.Empty(t, capture(func() { Verbose("hidden") }))

	SetVerbose(true)
	defer SetVerbose(false)
	got := capture(func() { Verbose("shown") })
	assert.Contains(t, got, "🔍")
	assert.Contains(t, got, "shown")
}

func TestPlain(t *testing.T) {
	assert.Equal(t, "--- a/x\n", capture(func() { Plain("--- a/x\n") }))
}
