// Package lifecycle executes a build's task graph: it runs requested tasks
// after their dependencies, one at a time, and fires finalizers once the
// tasks they finalize reach a terminal state.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/structra/assignment/internal/buildconfig"
	"github.com/structra/assignment/internal/ctxlog"
	"github.com/structra/assignment/internal/failure"
	"github.com/structra/assignment/internal/launch"
	"github.com/structra/assignment/internal/runner"
	"github.com/structra/assignment/internal/testreport"
)

// Status is the terminal state of a task within one build.
type Status string

const (
	Succeeded        Status = "SUCCEEDED"
	Failed           Status = "FAILED"
	DependencyFailed Status = "DEPENDENCY_FAILED"
	Skipped          Status = "SKIPPED"
)

// Record is what happened to one task.
type Record struct {
	Task     string
	Type     buildconfig.TaskType
	Status   Status
	Err      error
	Duration time.Duration
	// Finalizes names the task this one ran as a finalizer of.
	Finalizes string
	Report    *testreport.Summary
	Output    *launch.Result
}

// Result is the outcome of one build.
type Result struct {
	Records  []Record
	Duration time.Duration
	// Err is the first task failure, or nil.
	Err error
}

// OK reports whether every executed task succeeded or was skipped.
func (r *Result) OK() bool { return r.Err == nil }

// ExitCode is the process exit status the build maps to.
func (r *Result) ExitCode() int {
	if r.OK() {
		return 0
	}
	return 1
}

// Record returns the record of task, if it ran.
func (r *Result) Record(task string) (Record, bool) {
	for _, rec := range r.Records {
		if rec.Task == task {
			return rec, true
		}
	}
	return Record{}, false
}

// Observer is notified as the build progresses. Calls are made from the
// goroutine running Execute, except TaskOutput which may be called from
// output readers.
type Observer interface {
	TaskStarted(task buildconfig.Task, finalizes string)
	TaskOutput(task string, line launch.Line)
	TaskFinished(rec Record)
}

type nopObserver struct{}

func (nopObserver) TaskStarted(buildconfig.Task, string) {}
func (nopObserver) TaskOutput(string, launch.Line)       {}
func (nopObserver) TaskFinished(Record)                  {}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver reports progress to obs.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.obs = obs }
}

// WithOutput sets where entry points write their output.
func WithOutput(out, errOut io.Writer) Option {
	return func(o *Orchestrator) {
		o.out = out
		o.errOut = errOut
	}
}

// WithCommandRunner replaces the function that runs command tasks.
func WithCommandRunner(fn func(context.Context, launch.Spec) (*launch.Result, error)) Option {
	return func(o *Orchestrator) { o.runCommand = fn }
}

// Orchestrator runs tasks of one immutable configuration.
type Orchestrator struct {
	cfg        *buildconfig.Config
	obs        Observer
	out        io.Writer
	errOut     io.Writer
	runCommand func(context.Context, launch.Spec) (*launch.Result, error)
}

// New returns an Orchestrator for cfg.
func New(cfg *buildconfig.Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:        cfg,
		obs:        nopObserver{},
		out:        os.Stdout,
		errOut:     os.Stderr,
		runCommand: launch.Run,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// build holds the mutable state of one Execute call.
type build struct {
	finOf   map[string][]string
	status  map[string]Status
	errs    map[string]error
	runners map[string]*runner.Runner
	fired   map[string]bool
	stopped bool
	result  *Result
}

// Execute runs targets and everything they depend on. It returns an error
// only when the request itself is invalid; task failures are reported in
// the Result.
func (o *Orchestrator) Execute(ctx context.Context, targets ...string) (*Result, error) {
	plan, err := Plan(o.cfg, targets...)
	if err != nil {
		return nil, err
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("execution plan", "targets", targets, "plan", plan)

	b := &build{
		finOf:   finalizers(o.cfg, plan),
		status:  make(map[string]Status),
		errs:    make(map[string]error),
		runners: make(map[string]*runner.Runner),
		fired:   make(map[string]bool),
		result:  &Result{},
	}
	start := time.Now()
	var held []string
	for _, name := range plan {
		// A finalizer of a planned task runs only once every planned task it
		// finalizes is terminal.
		if len(b.finOf[name]) > 0 {
			continue
		}
		held = o.schedule(ctx, b, append(held, name))
	}

	// A finalizer whose finalized tasks did not all run, because scheduling
	// stopped before reaching some of them, fires for those that did.
	for _, name := range plan {
		t, _ := o.cfg.Task(name)
		for _, fin := range t.FinalizedBy {
			if b.fired[fin] || b.done(fin) {
				continue
			}
			if trigger, ok := b.firstTerminal(b.finOf[fin]); ok {
				o.fire(ctx, b, fin, trigger)
				held = o.schedule(ctx, b, held)
			}
		}
	}
	if len(held) > 0 {
		logger.Debug("tasks not run", "tasks", held)
	}

	b.result.Duration = time.Since(start)
	return b.result, nil
}

// schedule runs, in order, the held tasks whose dependencies are terminal,
// and repeats until a pass makes no progress. It returns the tasks still
// waiting for a dependency.
func (o *Orchestrator) schedule(ctx context.Context, b *build, held []string) []string {
	for progress := true; progress; {
		progress = false
		waiting := held[:0]
		for _, name := range held {
			if b.done(name) {
				continue
			}
			t, _ := o.cfg.Task(name)
			dep, state := b.deps(t)
			switch {
			case state == depsPending:
				waiting = append(waiting, name)
				continue
			case state == depsFailed:
				o.dependencyFailed(ctx, b, t, "", fmt.Errorf("dependency %s failed", dep))
			case b.stopped:
				// Not run: scheduling stopped before it.
			case ctx.Err() != nil:
				b.stop(failure.New(failure.KindTask, name, ctx.Err()))
			default:
				o.runTask(ctx, b, name, runner.Outcome{}, "")
				o.finalize(ctx, b, name)
			}
			progress = true
		}
		held = waiting
	}
	return held
}

func (b *build) stop(err error) {
	if b.result.Err == nil {
		b.result.Err = err
	}
	b.stopped = true
}

func (b *build) done(name string) bool {
	_, ok := b.status[name]
	return ok
}

type depState int

const (
	depsReady depState = iota
	depsPending
	depsFailed
)

// deps reports whether every dependency of t succeeded or was skipped. A
// failed dependency wins over one that has not run yet; either is named.
func (b *build) deps(t buildconfig.Task) (string, depState) {
	pending := ""
	for _, dep := range t.DependsOn {
		switch s, ok := b.status[dep]; {
		case !ok:
			if pending == "" {
				pending = dep
			}
		case s == Failed || s == DependencyFailed:
			return dep, depsFailed
		}
	}
	if pending != "" {
		return pending, depsPending
	}
	return "", depsReady
}

func (b *build) firstTerminal(tasks []string) (string, bool) {
	for _, name := range tasks {
		if b.done(name) {
			return name, true
		}
	}
	return "", false
}

// dependencyFailed records t as not run because of err, then fires its
// finalizers.
func (o *Orchestrator) dependencyFailed(ctx context.Context, b *build, t buildconfig.Task, finalizes string, err error) {
	b.status[t.Name] = DependencyFailed
	b.errs[t.Name] = err
	rec := Record{Task: t.Name, Type: t.Type, Status: DependencyFailed, Err: err, Finalizes: finalizes}
	b.result.Records = append(b.result.Records, rec)
	o.obs.TaskFinished(rec)
	o.finalize(ctx, b, t.Name)
}

// finalize fires each finalizer of name once every planned task it
// finalizes is terminal. A finalizer fires at most once per build.
func (o *Orchestrator) finalize(ctx context.Context, b *build, name string) {
	t, _ := o.cfg.Task(name)
	for _, fin := range t.FinalizedBy {
		if b.fired[fin] || b.done(fin) {
			continue
		}
		if !b.allDone(b.finOf[fin]) {
			continue
		}
		o.fire(ctx, b, fin, name)
	}
}

func (b *build) allDone(tasks []string) bool {
	for _, name := range tasks {
		if !b.done(name) {
			return false
		}
	}
	return true
}

// fire runs finalizer fin after its dependencies. The outcome handed to it
// is that of trigger, or of the first task it finalizes that failed.
func (o *Orchestrator) fire(ctx context.Context, b *build, fin, trigger string) {
	b.fired[fin] = true

	outcome := runner.Outcome{Task: trigger, Err: b.errs[trigger]}
	if outcome.Err == nil {
		for _, name := range b.finOf[fin] {
			if err := b.errs[name]; err != nil {
				outcome = runner.Outcome{Task: name, Err: err}
				break
			}
		}
	}

	ft, _ := o.cfg.Task(fin)
	o.prepareFinalizer(ctx, b, ft)
	switch dep, state := b.deps(ft); state {
	case depsFailed:
		o.dependencyFailed(ctx, b, ft, trigger, fmt.Errorf("dependency %s failed", dep))
		return
	case depsPending:
		o.dependencyFailed(ctx, b, ft, trigger, fmt.Errorf("dependency %s did not run", dep))
		return
	}
	o.runTask(ctx, b, fin, outcome, trigger)
	o.finalize(ctx, b, fin)
}

// prepareFinalizer runs the dependencies of a firing finalizer that have
// not run yet, even after scheduling stopped. Finalizers among them that
// still wait for the tasks they finalize are left alone.
func (o *Orchestrator) prepareFinalizer(ctx context.Context, b *build, fin buildconfig.Task) {
	closure, err := Plan(o.cfg, fin.DependsOn...)
	if err != nil {
		return
	}
	for _, name := range closure {
		if b.done(name) || (len(b.finOf[name]) > 0 && !b.fired[name]) {
			continue
		}
		t, _ := o.cfg.Task(name)
		switch dep, state := b.deps(t); state {
		case depsFailed:
			o.dependencyFailed(ctx, b, t, "", fmt.Errorf("dependency %s failed", dep))
		case depsReady:
			o.runTask(ctx, b, name, runner.Outcome{}, "")
			o.finalize(ctx, b, name)
		}
	}
}

// runTask executes one task and records its terminal state.
func (o *Orchestrator) runTask(ctx context.Context, b *build, name string, upstream runner.Outcome, finalizes string) {
	t, _ := o.cfg.Task(name)
	logger := ctxlog.FromContext(ctx).With("task", name)
	o.obs.TaskStarted(t, finalizes)

	rec := Record{Task: name, Type: t.Type, Finalizes: finalizes}
	start := time.Now()

	var err error
	switch t.Type {
	case buildconfig.TaskLifecycle:
		rec.Status = Succeeded
	case buildconfig.TaskCommand:
		rec.Output, rec.Report, err = o.runCommandTask(ctx, t)
	case buildconfig.TaskEntryPoint:
		var state runner.State
		state, rec.Output, err = o.runEntryPoint(ctx, b, t, upstream)
		if state == runner.Skipped {
			rec.Status = Skipped
		}
	}
	rec.Duration = time.Since(start)

	switch {
	case err != nil:
		rec.Status = Failed
		rec.Err = err
		logger.Debug("task failed", "error", err)
		b.stop(err)
	case rec.Status == "":
		rec.Status = Succeeded
	}

	b.status[name] = rec.Status
	b.errs[name] = rec.Err
	b.result.Records = append(b.result.Records, rec)
	o.obs.TaskFinished(rec)
}

func (o *Orchestrator) runEntryPoint(ctx context.Context, b *build, t buildconfig.Task, upstream runner.Outcome) (runner.State, *launch.Result, error) {
	r, ok := b.runners[t.Name]
	if !ok {
		var err error
		r, err = runner.FromConfig(o.cfg, t.Name, o.out, o.errOut)
		if err != nil {
			if !upstream.Succeeded() && t.EntryPoint.RunOn != buildconfig.RunOnAlways {
				return runner.Skipped, nil, nil
			}
			return runner.Failed, nil, err
		}
		b.runners[t.Name] = r
	}

	err := r.Trigger(ctx, upstream)
	if errors.Is(err, runner.ErrAlreadyTriggered) {
		return r.State(), r.Result(), r.Err()
	}
	return r.State(), r.Result(), err
}
