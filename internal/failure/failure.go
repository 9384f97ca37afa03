// Package failure defines the error taxonomy shared by the lifecycle
// orchestrator and the post-build runner.
//
// Every build failure is a *Error carrying a Kind. Each Kind has a sentinel
// so callers can test with errors.Is without a type assertion:
//
//	if errors.Is(err, failure.ErrNonZeroExit) {
//	    var exitErr failure.ExitCodeError
//	    if errors.As(err, &exitErr) {
//	        fmt.Printf("Exit code: %d\n", exitErr.Code)
//	    }
//	}
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a build failure.
type Kind int

const (
	KindTask Kind = iota
	KindDependencyResolution
	KindCompilation
	KindTest
	KindEntryPointNotFound
	KindNonZeroExit
	KindTimeout
	KindLaunch
)

var kindNames = map[Kind]string{
	KindTask:                 "TaskFailure",
	KindDependencyResolution: "DependencyResolutionFailure",
	KindCompilation:          "CompilationFailure",
	KindTest:                 "TestFailure",
	KindEntryPointNotFound:   "EntryPointNotFound",
	KindNonZeroExit:          "NonZeroExit",
	KindTimeout:              "Timeout",
	KindLaunch:               "LaunchFailure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels, one per Kind.
var (
	ErrTask                 = errors.New("task failed")
	ErrDependencyResolution = errors.New("dependency resolution failed")
	ErrCompilation          = errors.New("compilation failed")
	ErrTest                 = errors.New("tests failed")
	ErrEntryPointNotFound   = errors.New("entry point not found")
	ErrNonZeroExit          = errors.New("process exited with non-zero code")
	ErrTimeout              = errors.New("process timed out")
	ErrLaunch               = errors.New("process could not be launched")
)

var sentinels = map[Kind]error{
	KindTask:                 ErrTask,
	KindDependencyResolution: ErrDependencyResolution,
	KindCompilation:          ErrCompilation,
	KindTest:                 ErrTest,
	KindEntryPointNotFound:   ErrEntryPointNotFound,
	KindNonZeroExit:          ErrNonZeroExit,
	KindTimeout:              ErrTimeout,
	KindLaunch:               ErrLaunch,
}

// Sentinel returns the sentinel error for k.
func (k Kind) Sentinel() error {
	if s, ok := sentinels[k]; ok {
		return s
	}
	return ErrTask
}

// ParseKind maps the build file spelling of a command failure kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "generic":
		return KindTask, nil
	case "compilation":
		return KindCompilation, nil
	case "test":
		return KindTest, nil
	case "dependency-resolution":
		return KindDependencyResolution, nil
	}
	return KindTask, fmt.Errorf("unknown failure kind %q", s)
}

// ExitCodeError wraps an exit code for programmatic access.
type ExitCodeError struct {
	Code int
}

func (e ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// Error is a classified build failure.
type Error struct {
	Kind Kind
	Task string
	// ExitCode is the process exit status, or -1 when no process ran.
	ExitCode int
	Err      error
}

// New builds an Error that did not involve a process exit status.
func New(kind Kind, task string, err error) *Error {
	return &Error{Kind: kind, Task: task, ExitCode: -1, Err: err}
}

// Exited builds an Error for a process that terminated with code.
func Exited(kind Kind, task string, code int, err error) *Error {
	return &Error{Kind: kind, Task: task, ExitCode: code, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Task != "" {
		msg = fmt.Sprintf("task '%s': %s", e.Task, msg)
	}
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s (exit code %d)", msg, e.ExitCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind.Sentinel()}
	if e.ExitCode >= 0 {
		errs = append(errs, ExitCodeError{Code: e.ExitCode})
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf reports the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return KindTask, false
}
