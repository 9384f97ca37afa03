package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/structra/assignment/internal/buildconfig"
	"github.com/structra/assignment/internal/classpath"
	"github.com/structra/assignment/internal/version"
)

func (a *app) abs(name string) string {
	p, err := filepath.Abs(filepath.Join(a.projectDir(), name))
	if err != nil {
		return filepath.Join(a.projectDir(), name)
	}
	return p
}

func (a *app) tasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks of the build, grouped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			printTasks(a, cfg)
			return nil
		},
	}
}

func printTasks(a *app, cfg *buildconfig.Config) {
	title := cases.Title(language.English)
	group := "\x00"
	for _, t := range cfg.Tasks() {
		if t.Group != group {
			if group != "\x00" {
				fmt.Fprintln(a.out)
			}
			group = t.Group
			heading := "Other tasks"
			if group != "" {
				heading = title.String(group) + " tasks"
			}
			fmt.Fprintln(a.out, heading)
			fmt.Fprintln(a.out, strings.Repeat("-", len(heading)))
		}
		line := t.Name
		if t.Description != "" {
			line += " - " + t.Description
		}
		if len(t.FinalizedBy) > 0 {
			line += " (finalized by " + strings.Join(t.FinalizedBy, ", ") + ")"
		}
		fmt.Fprintln(a.out, line)
	}
}

func (a *app) classpathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classpath [SOURCE_SET]",
		Short: "Print the runtime classpath of a source set (default: main)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			name := "main"
			if len(args) == 1 {
				name = args[0]
			}
			entries, err := classpath.Runtime(cfg, name)
			if err != nil {
				return &ExitError{Code: ExitBuildFailed, Err: err}
			}
			for _, e := range entries {
				fmt.Fprintln(a.out, e)
			}
			return nil
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective build configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(a.out)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}
			return enc.Close()
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			fmt.Fprintln(a.out, version.String())
			return nil
		},
	}
}
