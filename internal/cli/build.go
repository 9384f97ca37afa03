package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/structra/assignment/internal/buildconfig"
	"github.com/structra/assignment/internal/console"
	"github.com/structra/assignment/internal/ctxlog"
	"github.com/structra/assignment/internal/lifecycle"
	"github.com/structra/assignment/internal/watch"
)

func (a *app) buildCmd() *cobra.Command {
	var continuous bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble and test the project, then run its entry point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if continuous {
				return a.continuous(cmd.Context(), buildconfig.DefaultBuildTask)
			}
			return a.execute(cmd.Context(), buildconfig.DefaultBuildTask)
		},
	}
	cmd.Flags().BoolVarP(&continuous, "continuous", "t", false, "rebuild whenever a source file or the build file changes")
	return cmd
}

func (a *app) testCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run the test task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.execute(cmd.Context(), "test")
		},
	}
}

func (a *app) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [TASK...]",
		Short: "Execute tasks and their dependencies (default: " + buildconfig.DefaultRunTask + ")",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{buildconfig.DefaultRunTask}
			}
			return a.execute(cmd.Context(), args...)
		},
	}
}

// execute runs one build of targets and prints its summary.
func (a *app) execute(ctx context.Context, targets ...string) error {
	start := time.Now()
	con := a.console()

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		con.Fail(err, time.Since(start))
		return &ExitError{Code: ExitUsage}
	}
	return a.executeWith(ctx, cfg, con, targets...)
}

func (a *app) executeWith(ctx context.Context, cfg *buildconfig.Config, con *console.Console, targets ...string) error {
	orch := lifecycle.New(cfg,
		lifecycle.WithObserver(con),
		lifecycle.WithOutput(con.Writer(), a.errOut),
	)
	res, err := orch.Execute(ctx, targets...)
	if err != nil {
		return usageError(err)
	}
	con.Summary(res)
	if !res.OK() {
		return &ExitError{Code: res.ExitCode()}
	}
	return nil
}

// continuous rebuilds targets after every batch of changes until ctx is
// cancelled. Each round loads a fresh configuration, so every build gets
// its own runner. The watcher outlives the rounds, so changes saved while a
// build runs trigger the next one.
func (a *app) continuous(ctx context.Context, targets ...string) error {
	logger := ctxlog.FromContext(ctx)

	w, err := watch.New(ctx, watch.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	var last error
	for {
		start := time.Now()
		con := a.console()
		cfg, err := a.loadConfig(ctx)
		for _, p := range a.watchPaths(cfg) {
			if err := w.Add(p); err != nil {
				logger.Warn("could not watch path", "path", p, "error", err)
			}
		}
		if err != nil {
			con.Fail(err, time.Since(start))
			last = &ExitError{Code: ExitUsage}
		} else {
			last = a.executeWith(ctx, cfg, con, targets...)
		}
		if ctx.Err() != nil {
			return last
		}

		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Waiting for changes to input files... (ctrl-c to exit)")
		changed, err := w.Wait(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return last
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Change detected in %d file(s), executing build...\n\n", len(changed))
		logger.Debug("rebuilding", "changed", changed)
	}
}

// watchPaths are the source directories and build file of cfg. With no
// valid configuration the properties file and project directory's build
// file candidates are watched so a fix is picked up.
func (a *app) watchPaths(cfg *buildconfig.Config) []string {
	if cfg == nil {
		var paths []string
		for _, name := range buildconfig.FileNames {
			paths = append(paths, a.abs(name))
		}
		return append(paths, a.abs(PropertiesFile))
	}
	var paths []string
	for _, ss := range cfg.SourceSets() {
		for _, dir := range ss.Dirs {
			paths = append(paths, cfg.Abs(dir))
		}
	}
	if cfg.Path() != "" {
		paths = append(paths, cfg.Path())
	}
	return paths
}
