package magetasks

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := Out
	Out = &buf
	t.Cleanup(func() { Out = old })
	return &buf
}

func TestPrintHeaders(t *testing.T) {
	buf := capture(t)

	PrintH1Header("Test Title")
	PrintH2Header("Test Section")

	assert.Contains(t, buf.String(), "Test Title")
	assert.Contains(t, buf.String(), "=====")
	assert.Contains(t, buf.String(), "=== Test Section ===")
}

func TestPrintMessages_IncludeIconAndText(t *testing.T) {
	tests := []struct {
		name  string
		print func(string)
		icon  string
	}{
		{name: "success", print: PrintSuccess, icon: theme.Icons.Pass},
		{name: "warning", print: PrintWarning, icon: theme.Icons.Skip},
		{name: "error", print: PrintError, icon: theme.Icons.Fail},
		{name: "info", print: PrintInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t)
			tt.print("message for " + tt.name)
			assert.Contains(t, buf.String(), "message for "+tt.name)
			assert.Contains(t, buf.String(), tt.icon)
		})
	}
}
