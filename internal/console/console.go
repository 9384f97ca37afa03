// Package console renders build progress the way a developer expects from a
// JVM build tool: a "> Task :name" line per task, captured output for failed
// tasks, a summary table and a closing BUILD SUCCESSFUL or BUILD FAILED line.
package console

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/structra/assignment/internal/buildconfig"
	"github.com/structra/assignment/internal/failure"
	"github.com/structra/assignment/internal/launch"
	"github.com/structra/assignment/internal/lifecycle"
	"github.com/structra/assignment/internal/testreport"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

// maxNameWidth caps the task column of the summary table.
const maxNameWidth = 40

// Config configures a Console.
type Config struct {
	Out io.Writer
	// Plain disables colors and the spinner even on a terminal.
	Plain bool
	// Verbose echoes captured command output as it arrives.
	Verbose bool
}

// Console implements lifecycle.Observer.
type Console struct {
	out     io.Writer
	theme   Theme
	tty     bool
	width   int
	verbose bool
	title   cases.Caser

	mu      sync.Mutex
	spinner *liveSpinner
}

var _ lifecycle.Observer = (*Console)(nil)

// New returns a Console writing to cfg.Out, or os.Stdout when nil.
func New(cfg Config) *Console {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	c := &Console{
		out:     out,
		theme:   PlainTheme(),
		width:   DefaultWidth,
		verbose: cfg.Verbose,
		title:   cases.Title(language.English),
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) && !cfg.Plain {
		c.tty = true
		c.theme = DefaultTheme()
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			c.width = w
		}
	}
	return c
}

// Writer is where entry points should stream their output so it
// interleaves correctly with task lines.
func (c *Console) Writer() io.Writer { return c.out }

func (c *Console) header(name string) string {
	return c.theme.Header.Render("> Task :" + name)
}

// TaskStarted prints the task line. Captured command tasks get a spinner
// on terminals.
func (c *Console) TaskStarted(task buildconfig.Task, finalizes string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line := c.header(task.Name)
	if finalizes != "" {
		line += " " + c.theme.Muted.Render("(finalizes :"+finalizes+")")
	}
	if c.tty && !c.verbose && task.Type == buildconfig.TaskCommand {
		c.spinner = startSpinner(c.out, line, c.theme)
		return
	}
	fmt.Fprintln(c.out, line)
}

// TaskOutput echoes captured output in verbose mode.
func (c *Console) TaskOutput(_ string, line launch.Line) {
	if !c.verbose {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, c.theme.Muted.Render("  "+line.Content))
}

// TaskFinished prints the task's status, its report counts and, when it
// failed, the output it captured.
func (c *Console) TaskFinished(rec lifecycle.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	suffix := c.statusSuffix(rec)
	switch {
	case c.spinner != nil:
		final := c.header(rec.Task)
		if suffix != "" {
			final += " " + suffix
		}
		c.spinner.stop(final)
		c.spinner = nil
	case suffix != "":
		fmt.Fprintln(c.out, c.header(rec.Task)+" "+suffix)
	}

	if rec.Report != nil {
		c.printReport(rec.Report)
	}
	if rec.Status == lifecycle.Failed && rec.Type == buildconfig.TaskCommand && rec.Output != nil && !c.verbose {
		for _, l := range rec.Output.Lines {
			fmt.Fprintln(c.out, c.theme.Muted.Render("  "+l.Content))
		}
		if rec.Output.Truncated {
			fmt.Fprintln(c.out, c.theme.Muted.Render("  ... output truncated"))
		}
	}
}

func (c *Console) statusSuffix(rec lifecycle.Record) string {
	switch rec.Status {
	case lifecycle.Failed:
		return c.theme.Error.Render("FAILED")
	case lifecycle.Skipped:
		return c.theme.Warning.Render("SKIPPED")
	case lifecycle.DependencyFailed:
		return c.theme.Warning.Render("SKIPPED") + " " + c.theme.Muted.Render("("+errString(rec.Err)+")")
	}
	return ""
}

func (c *Console) printReport(sum *testreport.Summary) {
	line := fmt.Sprintf("  %d tests completed, %d failed, %d skipped", sum.Total(), sum.Failed, sum.Skipped)
	if sum.OK() {
		fmt.Fprintln(c.out, c.theme.Success.Render(line))
	} else {
		fmt.Fprintln(c.out, c.theme.Error.Render(line))
	}
	for _, s := range sum.Suites {
		for _, tc := range s.Failures() {
			fmt.Fprintln(c.out, c.theme.Error.Render("  "+c.theme.Icons.Fail+" "+s.Name+" > "+tc.Name))
			for _, out := range tc.Output {
				fmt.Fprintln(c.out, c.theme.Muted.Render("      "+strings.TrimRight(out, "\n")))
			}
		}
		if s.BuildError != "" {
			fmt.Fprintln(c.out, c.theme.Error.Render("  "+c.theme.Icons.Fail+" "+s.Name+": "+s.BuildError))
		}
	}
}

// Summary prints the per-task table and the closing build line.
func (c *Console) Summary(res *lifecycle.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(res.Records) > 0 {
		fmt.Fprintln(c.out)
		c.printTable(res.Records)
	}

	fmt.Fprintln(c.out)
	elapsed := FormatDuration(res.Duration)
	if res.OK() {
		fmt.Fprintln(c.out, c.theme.Success.Render("BUILD SUCCESSFUL")+" in "+elapsed)
		return
	}

	fmt.Fprintln(c.out, c.theme.Bold.Render("* What went wrong:"))
	fmt.Fprintln(c.out, describe(res.Err))
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.theme.Error.Render("BUILD FAILED")+" in "+elapsed)
}

// Fail prints a BUILD FAILED block for an error raised before any task ran,
// such as an invalid build file.
func (c *Console) Fail(err error, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, c.theme.Bold.Render("* What went wrong:"))
	fmt.Fprintln(c.out, describe(err))
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.theme.Error.Render("BUILD FAILED")+" in "+FormatDuration(elapsed))
}

func (c *Console) printTable(records []lifecycle.Record) {
	nameWidth := runewidth.StringWidth("Task")
	statusWidth := runewidth.StringWidth("Status")
	for _, rec := range records {
		nameWidth = max(nameWidth, runewidth.StringWidth(":"+rec.Task))
		statusWidth = max(statusWidth, runewidth.StringWidth(c.statusTitle(rec.Status)))
	}
	nameWidth = min(nameWidth, maxNameWidth)

	head := "  " + padRight("Task", nameWidth) + "  " + padRight("Status", statusWidth) + "  Time"
	fmt.Fprintln(c.out, c.theme.Bold.Render(head))
	rule := min(runewidth.StringWidth(head)+4, c.width)
	fmt.Fprintln(c.out, c.theme.Muted.Render("  "+strings.Repeat("─", max(rule-2, 0))))

	for _, rec := range records {
		icon, style := c.statusIcon(rec.Status)
		name := runewidth.Truncate(":"+rec.Task, nameWidth, "…")
		status := padRight(c.statusTitle(rec.Status), statusWidth)
		dur := ""
		if rec.Status == lifecycle.Succeeded || rec.Status == lifecycle.Failed {
			dur = FormatDuration(rec.Duration)
		}
		fmt.Fprintln(c.out, style.Render(icon+" "+padRight(name, nameWidth)+"  "+status)+"  "+c.theme.Muted.Render(dur))
	}
}

func (c *Console) statusIcon(s lifecycle.Status) (string, lipgloss.Style) {
	switch s {
	case lifecycle.Succeeded:
		return c.theme.Icons.Pass, c.theme.Success
	case lifecycle.Failed:
		return c.theme.Icons.Fail, c.theme.Error
	default:
		return c.theme.Icons.Skip, c.theme.Warning
	}
}

// statusTitle turns DEPENDENCY_FAILED into "Dependency Failed".
func (c *Console) statusTitle(s lifecycle.Status) string {
	return c.title.String(strings.ToLower(strings.ReplaceAll(string(s), "_", " ")))
}

func padRight(s string, width int) string {
	if w := runewidth.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func describe(err error) string {
	if err == nil {
		return ""
	}
	var fe *failure.Error
	if errors.As(err, &fe) && fe.Task != "" {
		return fmt.Sprintf("%s in task ':%s'.\n  %v", fe.Kind, fe.Task, err)
	}
	return "  " + err.Error()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// FormatDuration renders d the way build tools report elapsed time:
// 850ms, 1.2s, 2m 5s.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		d = d.Round(time.Second)
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}
