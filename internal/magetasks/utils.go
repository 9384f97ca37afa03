package magetasks

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/structra/assignment/internal/launch"
)

// Run executes name with args, streaming its output to Out.
func Run(label, name string, args ...string) error {
	_, err := launch.Run(context.Background(), launch.Spec{
		Label:   label,
		Command: name,
		Args:    args,
		Stream:  true,
		Out:     Out,
		Err:     Out,
	})
	return err
}

// IsCommandNotFound checks if the error indicates the command was not found.
// Start failures from Run wrap the exec error, so exec.ErrNotFound and the
// platform-specific messages are both visible here.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	// Fallback string matching for edge cases
	errStr := err.Error()
	if strings.Contains(errStr, "executable file not found") {
		return true
	}
	if strings.Contains(errStr, "no such file or directory") {
		return true
	}
	return false
}
