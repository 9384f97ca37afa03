// Package runner implements the post-build runner: a one-shot hook that
// launches an entry point on a runtime classpath once its upstream task has
// reached a terminal state.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/structra/assignment/internal/buildconfig"
	"github.com/structra/assignment/internal/classpath"
	"github.com/structra/assignment/internal/ctxlog"
	"github.com/structra/assignment/internal/failure"
	"github.com/structra/assignment/internal/launch"
)

// ErrAlreadyTriggered is returned by every Trigger after the first.
var ErrAlreadyTriggered = errors.New("runner already triggered")

// State is the runner's position in its lifecycle.
type State int

const (
	Pending State = iota
	Completed
	Failed
	// Skipped means the run-on policy declined the upstream outcome.
	Skipped
)

var stateNames = map[State]string{
	Pending:   "Pending",
	Completed: "Completed",
	Failed:    "Failed",
	Skipped:   "Skipped",
}

func (s State) String() string { return stateNames[s] }

// Terminal reports whether s is a final state.
func (s State) Terminal() bool { return s != Pending }

// Outcome is the terminal result of the upstream task handed to Trigger.
type Outcome struct {
	Task string
	Err  error
}

// Succeeded reports whether the upstream task succeeded.
func (o Outcome) Succeeded() bool { return o.Err == nil }

// Options configures a Runner.
type Options struct {
	// Task is the name failures are reported under.
	Task       string
	EntryPoint string
	Classpath  []string
	Timeout    time.Duration
	Launcher   buildconfig.Launcher
	JavaHome   string
	RunOn      buildconfig.RunOn
	Release    int
	Out        io.Writer
	Err        io.Writer
}

// Runner launches one entry point at most once.
type Runner struct {
	opts Options
	run  func(context.Context, launch.Spec) (*launch.Result, error)

	mu        sync.Mutex
	triggered bool
	state     State
	err       error
	result    *launch.Result
}

// New returns a Pending runner.
func New(opts Options) *Runner {
	if opts.Launcher == "" {
		opts.Launcher = buildconfig.LauncherAuto
	}
	if opts.RunOn == "" {
		opts.RunOn = buildconfig.RunOnSuccess
	}
	return &Runner{opts: opts, run: launch.Run}
}

// FromConfig builds the runner for the entrypoint task named task, resolving
// the runtime classpath of its source set.
func FromConfig(cfg *buildconfig.Config, task string, out, errOut io.Writer) (*Runner, error) {
	t, ok := cfg.Task(task)
	if !ok || t.EntryPoint == nil {
		return nil, fmt.Errorf("task %q is not an entrypoint task", task)
	}
	ep := t.EntryPoint

	cp, err := classpath.Runtime(cfg, ep.SourceSet)
	if err != nil {
		var fe *failure.Error
		if errors.As(err, &fe) && fe.Task == "" {
			fe.Task = task
		}
		return nil, err
	}

	return New(Options{
		Task:       task,
		EntryPoint: ep.Main,
		Classpath:  cp,
		Timeout:    ep.Timeout,
		Launcher:   ep.Launcher,
		JavaHome:   cfg.Abs(ep.JavaHome),
		RunOn:      ep.RunOn,
		Release:    cfg.Release(),
		Out:        out,
		Err:        errOut,
	}), nil
}

// State returns the current state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the failure recorded by the trigger, if any.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Result returns what the launch observed, or nil when nothing was launched.
func (r *Runner) Result() *launch.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// Trigger fires the runner for the given upstream outcome and blocks until
// the entry point exits. Only the first call does anything; later calls
// return ErrAlreadyTriggered.
func (r *Runner) Trigger(ctx context.Context, upstream Outcome) error {
	r.mu.Lock()
	if r.triggered {
		r.mu.Unlock()
		return ErrAlreadyTriggered
	}
	r.triggered = true
	r.mu.Unlock()

	logger := ctxlog.FromContext(ctx).With("task", r.opts.Task)

	if !upstream.Succeeded() && r.opts.RunOn != buildconfig.RunOnAlways {
		logger.Info("upstream failed, skipping entry point", "upstream", upstream.Task, "run_on", r.opts.RunOn)
		r.finish(Skipped, nil, nil)
		return nil
	}

	unit, err := classpath.Resolve(r.opts.Classpath, r.opts.EntryPoint)
	if err == nil {
		err = r.checkLauncher(unit)
	}
	if err != nil {
		err = r.attach(err)
		r.finish(Failed, nil, err)
		return err
	}
	logger.Debug("entry point resolved", "id", unit.ID, "kind", unit.Kind, "entry", unit.Entry)

	result, runErr := r.run(ctx, r.spec(unit))
	err = r.classify(result, runErr)
	if err != nil {
		r.finish(Failed, result, err)
		return err
	}
	r.finish(Completed, result, nil)
	return nil
}

func (r *Runner) finish(state State, result *launch.Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	r.result = result
	r.err = err
}

func (r *Runner) checkLauncher(unit classpath.Unit) error {
	switch {
	case r.opts.Launcher == buildconfig.LauncherNative && unit.Kind != classpath.Native,
		r.opts.Launcher == buildconfig.LauncherJVM && unit.Kind != classpath.JVM:
		return failure.New(failure.KindEntryPointNotFound, "",
			fmt.Errorf("%s resolves to a %s unit but the launcher is %s", unit.ID, unit.Kind, r.opts.Launcher))
	}
	return nil
}

func (r *Runner) spec(unit classpath.Unit) launch.Spec {
	cp := classpath.Join(r.opts.Classpath)
	spec := launch.Spec{
		Label:   r.opts.Task,
		Timeout: r.opts.Timeout,
		Stream:  true,
		Out:     r.opts.Out,
		Err:     r.opts.Err,
		Env: []string{
			"CLASSPATH=" + cp,
			"STRUCTRA_RELEASE=" + strconv.Itoa(r.opts.Release),
		},
	}
	if unit.Kind == classpath.Native {
		spec.Command = unit.Path
		return spec
	}
	spec.Command = r.java()
	spec.Args = []string{"-cp", cp, unit.ID}
	return spec
}

func (r *Runner) java() string {
	home := r.opts.JavaHome
	if home == "" {
		home = os.Getenv("JAVA_HOME")
	}
	if home == "" {
		return "java"
	}
	return filepath.Join(home, "bin", "java")
}

func (r *Runner) classify(result *launch.Result, err error) error {
	if err == nil {
		return nil
	}
	code := -1
	if result != nil {
		code = result.ExitCode
	}
	switch {
	case errors.Is(err, launch.ErrTimeout):
		return failure.New(failure.KindTimeout, r.opts.Task, err)
	case errors.Is(err, launch.ErrNonZeroExit), errors.Is(err, launch.ErrInterrupted):
		return failure.Exited(failure.KindNonZeroExit, r.opts.Task, code, nil)
	case errors.Is(err, launch.ErrStartFailure):
		return failure.Exited(failure.KindLaunch, r.opts.Task, code, err)
	}
	return failure.New(failure.KindLaunch, r.opts.Task, err)
}

func (r *Runner) attach(err error) error {
	var fe *failure.Error
	if errors.As(err, &fe) && fe.Task == "" {
		fe.Task = r.opts.Task
	}
	return err
}
