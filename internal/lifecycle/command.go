package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/structra/assignment/internal/buildconfig"
	"github.com/structra/assignment/internal/classpath"
	"github.com/structra/assignment/internal/ctxlog"
	"github.com/structra/assignment/internal/failure"
	"github.com/structra/assignment/internal/launch"
	"github.com/structra/assignment/internal/testreport"
)

// templateData is what command arguments can reference, e.g.
// {{.Output}} or {{.Classpath}}. Classpath is resolved only when used.
type templateData struct {
	cfg *buildconfig.Config
}

func (d templateData) Group() string   { return d.cfg.Group() }
func (d templateData) Name() string    { return d.cfg.Name() }
func (d templateData) Version() string { return d.cfg.Version() }
func (d templateData) Release() int    { return d.cfg.Release() }
func (d templateData) Dir() string     { return d.cfg.Dir() }

// Output is the main source set's output directory.
func (d templateData) Output() string {
	ss, ok := d.cfg.SourceSet("main")
	if !ok {
		return ""
	}
	return d.cfg.Abs(ss.Output)
}

// Classpath is the main runtime classpath joined with the list separator.
func (d templateData) Classpath() (string, error) {
	entries, err := classpath.Runtime(d.cfg, "main")
	if err != nil {
		return "", err
	}
	return classpath.Join(entries), nil
}

// ExpandArgs renders each argument as a text/template over the build
// configuration.
func ExpandArgs(cfg *buildconfig.Config, args []string) ([]string, error) {
	data := templateData{cfg: cfg}
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if !strings.Contains(arg, "{{") {
			out = append(out, arg)
			continue
		}
		tmpl, err := template.New("arg" + strconv.Itoa(i)).Option("missingkey=error").Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		var b strings.Builder
		if err := tmpl.Execute(&b, data); err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out = append(out, b.String())
	}
	return out, nil
}

func (o *Orchestrator) commandSpec(t buildconfig.Task) (launch.Spec, error) {
	cmd := t.Command
	args, err := ExpandArgs(o.cfg, cmd.Args)
	if err != nil {
		return launch.Spec{}, err
	}

	dir := o.cfg.Dir()
	if cmd.Dir != "" {
		dir = o.cfg.Abs(cmd.Dir)
	}

	keys := make([]string, 0, len(cmd.Env))
	for k := range cmd.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+cmd.Env[k])
	}

	return launch.Spec{
		Label:   t.Name,
		Command: cmd.Command,
		Args:    args,
		Dir:     dir,
		Env:     env,
		OnLine:  func(l launch.Line) { o.obs.TaskOutput(t.Name, l) },
	}, nil
}

// runCommandTask delegates to the external process and classifies its
// failure with the task's configured kind.
func (o *Orchestrator) runCommandTask(ctx context.Context, t buildconfig.Task) (*launch.Result, *testreport.Summary, error) {
	logger := ctxlog.FromContext(ctx).With("task", t.Name)
	kind := t.Command.Failure

	spec, err := o.commandSpec(t)
	if err != nil {
		var fe *failure.Error
		if errors.As(err, &fe) {
			fe.Task = t.Name
			return nil, nil, err
		}
		return nil, nil, failure.New(failure.KindTask, t.Name, err)
	}

	logger.Debug("running command", "command", spec.Command, "args", spec.Args, "dir", spec.Dir)
	result, runErr := o.runCommand(ctx, spec)

	report := o.readReport(ctx, t, result)

	if runErr != nil {
		code := -1
		if result != nil {
			code = result.ExitCode
		}
		if errors.Is(runErr, launch.ErrStartFailure) {
			return result, report, failure.Exited(failure.KindLaunch, t.Name, code, runErr)
		}
		return result, report, failure.Exited(kind, t.Name, code, nil)
	}
	if report != nil && !report.OK() {
		return result, report, failure.New(kind, t.Name,
			fmt.Errorf("%d of %d tests failed", report.Failed, report.Total()))
	}
	return result, report, nil
}

func (o *Orchestrator) readReport(ctx context.Context, t buildconfig.Task, result *launch.Result) *testreport.Summary {
	logger := ctxlog.FromContext(ctx).With("task", t.Name)

	var (
		sum testreport.Summary
		err error
	)
	switch t.Command.Report {
	case buildconfig.ReportGoTestJSON:
		if result == nil {
			return nil
		}
		sum, err = testreport.ParseGoTest(strings.NewReader(result.Output(launch.Stdout)))
	case buildconfig.ReportJUnitXML:
		sum, err = testreport.ParseJUnitDir(o.cfg.Abs(t.Command.ReportsDir))
	default:
		return nil
	}
	if err != nil {
		logger.Warn("could not read test report", "format", t.Command.Report, "error", err)
		return nil
	}
	return &sum
}
