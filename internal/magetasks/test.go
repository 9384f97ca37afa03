package magetasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/structra/assignment/internal/launch"
	"github.com/structra/assignment/internal/testreport"
)

// TestAll runs all tests.
func TestAll() error {
	PrintH2Header("Tests")

	PrintInfo("Running tests...")
	if err := Run("Go Test", "go", "test", "-v", "./..."); err != nil {
		PrintError("Tests failed")
		return err
	}

	PrintSuccess("All tests passed")
	return nil
}

// TestReport runs all tests with -json and prints one line per package.
func TestReport() error {
	PrintH2Header("Test Report")

	res, runErr := launch.Run(context.Background(), launch.Spec{
		Label:   "Go Test",
		Command: "go",
		Args:    []string{"test", "-json", "./..."},
	})
	if runErr != nil && !errors.Is(runErr, launch.ErrNonZeroExit) {
		return runErr
	}

	sum, err := testreport.ParseGoTest(strings.NewReader(res.Output(launch.Stdout)))
	if err != nil {
		return err
	}
	WriteTestSummary(Out, sum)

	if !sum.OK() || runErr != nil {
		PrintError(fmt.Sprintf("%d of %d tests failed", sum.Failed, sum.Total()))
		return errors.Join(errors.New("tests failed"), runErr)
	}
	PrintSuccess(fmt.Sprintf("%d tests passed", sum.Passed))
	return nil
}

// WriteTestSummary prints a line per suite with its counts and the names of
// failing tests beneath it.
func WriteTestSummary(w io.Writer, sum testreport.Summary) {
	width := 0
	for _, s := range sum.Suites {
		width = max(width, runewidth.StringWidth(shortPackage(s.Name)))
	}

	for _, s := range sum.Suites {
		icon := theme.Icons.Pass
		switch s.Status() {
		case testreport.StatusFail:
			icon = theme.Icons.Fail
		case testreport.StatusSkip:
			icon = theme.Icons.Skip
		}
		name := runewidth.FillRight(shortPackage(s.Name), width)
		_, _ = fmt.Fprintf(w, "%s %s  %3d passed  %3d failed  %3d skipped  %s\n",
			icon, name, s.Passed, s.Failed, s.Skipped, s.Duration.Round(10*time.Millisecond))
		if s.BuildError != "" {
			_, _ = fmt.Fprintf(w, "    build failed: %s\n", s.BuildError)
		}
		for _, c := range s.Failures() {
			_, _ = fmt.Fprintf(w, "    %s %s\n", theme.Icons.Fail, c.Name)
		}
	}
}

func shortPackage(name string) string {
	return strings.TrimPrefix(strings.TrimPrefix(name, ModulePath), "/")
}

// TestCoverage runs tests with coverage.
func TestCoverage() error {
	PrintH2Header("Test Coverage")

	PrintInfo("Running tests with coverage...")
	if err := Run("Go Test", "go", "test", "-coverprofile=coverage.out", "./..."); err != nil {
		PrintError("Tests failed")
		return err
	}

	// Show coverage report
	_ = Run("Coverage", "go", "tool", "cover", "-func=coverage.out")

	PrintSuccess("Coverage report generated")
	return nil
}

// TestRace runs tests with race detector.
func TestRace() error {
	PrintH2Header("Race Detector")

	PrintInfo("Running tests with race detector...")
	if err := Run("Go Test", "go", "test", "-race", "./..."); err != nil {
		PrintError("Race detector found issues")
		return err
	}

	PrintSuccess("No race conditions detected")
	return nil
}
