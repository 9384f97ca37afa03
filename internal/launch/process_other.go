//go:build !unix

package launch

import (
	"os"
	"os/exec"
)

func setProcessGroup(*exec.Cmd) {}

// killProcessGroup signals the process itself; there are no groups here.
func killProcessGroup(cmd *exec.Cmd, sig os.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Signal(sig)
}

func killProcessGroupWithSIGKILL(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

func exitCodeFromError(exitErr *exec.ExitError) (int, bool) {
	return exitErr.ExitCode(), exitErr.ExitCode() >= 0
}

func interruptSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
