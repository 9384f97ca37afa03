// Package cli wires the structra commands: cobra for the command tree,
// viper for settings that may come from flags, STRUCTRA_* environment
// variables or a structra.properties file in the project directory.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/structra/assignment/internal/buildconfig"
	"github.com/structra/assignment/internal/console"
	"github.com/structra/assignment/internal/ctxlog"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitBuildFailed = 1
	ExitUsage       = 2
)

// PropertiesFile is read from the project directory when present. It holds
// key=value lines using the setting names below.
const PropertiesFile = "structra.properties"

// EnvPrefix prefixes the environment variables that override settings.
const EnvPrefix = "STRUCTRA"

// Setting keys shared by flags, environment and properties file.
const (
	keyFile       = "file"
	keyProjectDir = "project_dir"
	keyLogLevel   = "log_level"
	keyLogFormat  = "log_format"
	keyPlain      = "plain"
	keyVerbose    = "verbose"
	keyTimeout    = "timeout"
	keyRunOn      = "run_on"
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func usageError(err error) error { return &ExitError{Code: ExitUsage, Err: err} }

// app holds what every command needs once flags are parsed.
type app struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
}

// Run executes the command line args and returns the process exit code.
func Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	root := NewRootCmd(out, errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(errOut, "error:", exitErr.Err)
		}
		return exitErr.Code
	}
	// cobra reports unknown commands and bad flags as plain errors.
	fmt.Fprintln(errOut, "error:", err)
	return ExitUsage
}

// NewRootCmd builds the command tree.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "structra",
		Short:         "Build runner that launches the project's entry point after every build",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringP("file", "f", "", "build file (default: search structra.{yaml,yml,toml,hcl} upwards)")
	pf.StringP("project-dir", "p", "", "project directory (default: current directory)")
	pf.String("log-level", "warn", "diagnostic log level: debug, info, warn, error")
	pf.String("log-format", "text", "diagnostic log format: text or json")
	pf.Bool("plain", false, "disable colors and spinners")
	pf.BoolP("verbose", "v", false, "echo captured task output as it arrives")
	pf.Duration("timeout", 0, "override the timeout of every entrypoint task (0 keeps the build file value)")
	pf.String("run-on", "", "override the run-on policy of every entrypoint task: success or always")

	for key, flag := range map[string]string{
		keyFile:       "file",
		keyProjectDir: "project-dir",
		keyLogLevel:   "log-level",
		keyLogFormat:  "log-format",
		keyPlain:      "plain",
		keyVerbose:    "verbose",
		keyTimeout:    "timeout",
		keyRunOn:      "run-on",
	} {
		// Binding only fails for a nil flag.
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		a.buildCmd(),
		a.testCmd(),
		a.runCmd(),
		a.tasksCmd(),
		a.classpathCmd(),
		a.configCmd(),
		a.versionCmd(),
	)
	return root
}

// init reads the environment and properties file and installs the logger.
func (a *app) init(cmd *cobra.Command) error {
	a.v.SetEnvPrefix(EnvPrefix)
	a.v.AutomaticEnv()

	props := filepath.Join(a.projectDir(), PropertiesFile)
	if _, err := os.Stat(props); err == nil {
		a.v.SetConfigFile(props)
		a.v.SetConfigType("dotenv")
		if err := a.v.ReadInConfig(); err != nil {
			return usageError(fmt.Errorf("reading %s: %w", props, err))
		}
	}

	logger := ctxlog.New(a.v.GetString(keyLogLevel), a.v.GetString(keyLogFormat), a.errOut)
	cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
	return nil
}

func (a *app) projectDir() string {
	if dir := a.v.GetString(keyProjectDir); dir != "" {
		return dir
	}
	return "."
}

// loadConfig reads the build file, falling back to the reference build when
// none exists, and applies command-line overrides.
func (a *app) loadConfig(ctx context.Context) (*buildconfig.Config, error) {
	logger := ctxlog.FromContext(ctx)

	path := a.v.GetString(keyFile)
	if path == "" {
		found, err := buildconfig.Find(a.projectDir())
		switch {
		case errors.Is(err, buildconfig.ErrNotFound):
			logger.Info("no build file found, using the reference build", "dir", a.projectDir())
		case err != nil:
			return nil, usageError(err)
		default:
			path = found
		}
	}

	var (
		cfg *buildconfig.Config
		err error
	)
	if path == "" {
		cfg, err = buildconfig.Default(a.projectDir())
	} else {
		logger.Debug("loading build file", "path", path)
		cfg, err = buildconfig.Load(path)
	}
	if err != nil {
		return nil, usageError(err)
	}

	var o buildconfig.Overrides
	if s := a.v.GetString(keyTimeout); s != "" && s != "0s" && s != "0" {
		d, err := time.ParseDuration(s)
		if err != nil || d < 0 {
			return nil, usageError(fmt.Errorf("invalid --timeout %q", s))
		}
		o.Timeout = &d
	}
	if s := a.v.GetString(keyRunOn); s != "" {
		runOn, ok := buildconfig.ParseRunOn(s)
		if !ok {
			return nil, usageError(fmt.Errorf("invalid --run-on %q: want success or always", s))
		}
		o.RunOn = &runOn
	}
	return cfg.WithOverrides(o), nil
}

func (a *app) console() *console.Console {
	return console.New(console.Config{
		Out:     a.out,
		Plain:   a.v.GetBool(keyPlain),
		Verbose: a.v.GetBool(keyVerbose),
	})
}
