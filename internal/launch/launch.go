// Package launch runs external processes for build tasks and entry points.
//
// Every process runs in its own process group where the platform supports
// it. Interrupts are forwarded to the group and escalate to a hard kill if
// the process has not exited after two seconds. A timeout or a cancelled
// context kills the group immediately.
package launch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/structra/assignment/internal/ctxlog"
	"github.com/structra/assignment/internal/failure"
)

// Sentinels returned by Run. Non-zero exits also carry a
// failure.ExitCodeError.
var (
	ErrNonZeroExit  = errors.New("command exited with non-zero code")
	ErrTimeout      = errors.New("command timed out")
	ErrInterrupted  = errors.New("command interrupted")
	ErrStartFailure = errors.New("command could not be started")
)

// killGrace is how long a forwarded interrupt may take before the group is
// killed outright.
const killGrace = 2 * time.Second

// Stream names a process output stream.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// Line is one line of process output.
type Line struct {
	Content   string
	Stream    Stream
	Timestamp time.Time
}

// Spec describes a process to run.
type Spec struct {
	Label   string
	Command string
	Args    []string
	Dir     string
	// Env is appended to the inherited environment.
	Env     []string
	Timeout time.Duration

	// Stream copies output to Out and Err as it arrives. Output is always
	// captured as well, up to MaxBufferSize bytes.
	Stream bool
	Out    io.Writer
	Err    io.Writer

	// OnLine, when set, is called for every output line.
	OnLine func(Line)

	MaxBufferSize int64
	MaxLineLength int
}

// Result is what Run observed. It is never nil.
type Result struct {
	Label     string
	Command   string
	Args      []string
	Started   bool
	ExitCode  int
	Duration  time.Duration
	Lines     []Line
	Truncated bool
}

// Output joins the captured lines of stream, or of both streams when
// stream is empty.
func (r *Result) Output(stream Stream) string {
	var b strings.Builder
	for _, l := range r.Lines {
		if stream != "" && l.Stream != stream {
			continue
		}
		b.WriteString(l.Content)
		b.WriteByte('\n')
	}
	return b.String()
}

// Run executes spec and waits for it to finish.
//
// Error semantics:
//   - (result, nil) when the process exits 0
//   - ErrNonZeroExit wrapped with failure.ExitCodeError when it exits non-zero
//     or dies from a signal (reported as 128+signal)
//   - ErrTimeout when spec.Timeout elapsed and the group was killed
//   - ErrInterrupted when an interrupt was forwarded or ctx was cancelled
//   - ErrStartFailure for start errors; ExitCode is 127 for a missing command
func Run(ctx context.Context, spec Spec) (*Result, error) {
	spec = normalize(spec)
	logger := ctxlog.FromContext(ctx)

	result := &Result{Label: spec.Label, Command: spec.Command, Args: spec.Args}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if spec.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, spec.Timeout)
		defer cancelTimeout()
	}

	cmd := exec.Command(spec.Command, spec.Args...) // #nosec G204 - commands come from the build file
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)
	setProcessGroup(cmd)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return result, fmt.Errorf("%w: creating stdout pipe: %w", ErrStartFailure, err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		_ = stdoutPipe.Close()
		return result, fmt.Errorf("%w: creating stderr pipe: %w", ErrStartFailure, err)
	}

	capture := &lineBuffer{max: spec.MaxBufferSize, onLine: spec.OnLine}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		_ = stdoutPipe.Close()
		_ = stderrPipe.Close()
		result.ExitCode = exitCode(err)
		result.Duration = time.Since(start)
		logger.Debug("start failed", "command", spec.Command, "error", err)
		return result, fmt.Errorf("%w: %s: %w", ErrStartFailure, spec.Command, err)
	}
	result.Started = true
	logger.Debug("process started", "label", spec.Label, "command", spec.Command, "pid", cmd.Process.Pid)

	var wgRead sync.WaitGroup
	wgRead.Add(2)
	go capture.read(&wgRead, stdoutPipe, Stdout, spec.Out, spec.Stream, spec.MaxLineLength)
	go capture.read(&wgRead, stderrPipe, Stderr, spec.Err, spec.Stream, spec.MaxLineLength)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, interruptSignals()...)

	cmdDone := make(chan struct{})
	var interrupted bool
	watcherDone := make(chan struct{})
	go func() {
		defer func() {
			signal.Stop(sigChan)
			close(watcherDone)
		}()
		select {
		case sig := <-sigChan:
			interrupted = true
			logger.Debug("forwarding signal", "signal", sig, "pid", cmd.Process.Pid)
			if err := killProcessGroup(cmd, sig); err != nil {
				logger.Debug("signal forwarding failed", "error", err)
			}
			select {
			case <-cmdDone:
			case <-time.After(killGrace):
				logger.Debug("process ignored signal, killing group", "pid", cmd.Process.Pid)
				_ = killProcessGroupWithSIGKILL(cmd)
			}
		case <-runCtx.Done():
			logger.Debug("context done, killing group", "pid", cmd.Process.Pid, "cause", runCtx.Err())
			_ = killProcessGroupWithSIGKILL(cmd)
		case <-cmdDone:
		}
	}()

	// Pipes must be drained before Wait closes them.
	wgRead.Wait()
	waitErr := cmd.Wait()
	close(cmdDone)
	<-watcherDone

	result.Duration = time.Since(start)
	result.ExitCode = exitCode(waitErr)
	result.Lines, result.Truncated = capture.snapshot()

	timedOut := spec.Timeout > 0 && waitErr != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	switch {
	case timedOut:
		return result, fmt.Errorf("%w after %s", ErrTimeout, spec.Timeout)
	case interrupted || (ctx.Err() != nil && waitErr != nil):
		return result, fmt.Errorf("%w: %w", ErrInterrupted, failure.ExitCodeError{Code: result.ExitCode})
	case waitErr != nil:
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return result, fmt.Errorf("%w: %w", ErrNonZeroExit, failure.ExitCodeError{Code: result.ExitCode})
		}
		return result, fmt.Errorf("waiting for %s: %w", spec.Command, waitErr)
	}
	return result, nil
}

func normalize(spec Spec) Spec {
	if spec.Label == "" {
		spec.Label = spec.Command
	}
	if spec.Out == nil {
		spec.Out = os.Stdout
	}
	if spec.Err == nil {
		spec.Err = os.Stderr
	}
	if spec.MaxBufferSize == 0 {
		spec.MaxBufferSize = 10 * 1024 * 1024
	}
	if spec.MaxLineLength == 0 {
		spec.MaxLineLength = 1024 * 1024
	}
	return spec
}

// lineBuffer collects output lines from both streams under a shared budget.
type lineBuffer struct {
	mu        sync.Mutex
	max       int64
	size      int64
	lines     []Line
	truncated bool
	onLine    func(Line)
}

func (b *lineBuffer) read(wg *sync.WaitGroup, r io.Reader, stream Stream, echo io.Writer, doEcho bool, maxLine int) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLine)
	for scanner.Scan() {
		line := Line{Content: scanner.Text(), Stream: stream, Timestamp: time.Now()}
		if doEcho {
			b.mu.Lock()
			fmt.Fprintln(echo, line.Content)
			b.mu.Unlock()
		}
		b.add(line)
	}
	// Keep draining after a scan error so the child never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, r)
}

func (b *lineBuffer) add(line Line) {
	b.mu.Lock()
	n := int64(len(line.Content))
	if b.size+n > b.max {
		b.truncated = true
	} else {
		b.size += n
		b.lines = append(b.lines, line)
	}
	onLine := b.onLine
	b.mu.Unlock()
	if onLine != nil {
		onLine(line)
	}
}

func (b *lineBuffer) snapshot() ([]Line, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out, b.truncated
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code, ok := exitCodeFromError(exitErr); ok {
			return code
		}
		return 1
	}

	if isCommandNotFoundError(err) {
		return 127
	}
	return 1
}

// isCommandNotFoundError checks if the error indicates the command was not found.
func isCommandNotFoundError(err error) bool {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return true
	}
	errStr := err.Error()
	if strings.Contains(errStr, "executable file not found") {
		return true
	}
	return runtime.GOOS != "windows" && strings.Contains(errStr, "no such file or directory")
}
