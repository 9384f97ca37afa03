package magetasks

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structra/assignment/internal/launch"
)

func TestIsCommandNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil", err: nil, expected: false},
		{name: "exec.ErrNotFound", err: exec.ErrNotFound, expected: true},
		{name: "wrapped start failure", err: fmt.Errorf("%w: tool: %w", launch.ErrStartFailure, exec.ErrNotFound), expected: true},
		{name: "executable file not found", err: errors.New("executable file not found"), expected: true},
		{name: "no such file or directory", err: errors.New("no such file or directory"), expected: true},
		{name: "other error", err: errors.New("some other error"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsCommandNotFound(tt.err))
		})
	}
}

func TestRun_StreamsOutputAndReportsMissingCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a unix shell")
	}
	buf := capture(t)

	require.NoError(t, Run("echo", "sh", "-c", "echo built"))
	assert.Contains(t, buf.String(), "built")

	err := Run("missing", "structra-no-such-tool")
	require.Error(t, err)
	assert.True(t, IsCommandNotFound(err))
}
