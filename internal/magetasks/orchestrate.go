package magetasks

import (
	"errors"
	"fmt"
	"time"
)

// Section is one named step of RunSections.
type Section struct {
	Name        string
	Description string
	Run         func() error
}

// SectionResult records how a section went.
type SectionResult struct {
	Name     string
	Err      error
	Duration time.Duration
	Summary  string
}

var sectionSummary string

// SetSectionSummary sets the one-line summary reported for the running
// section.
func SetSectionSummary(s string) { sectionSummary = s }

// RunSections runs every section in order, even after a failure, and prints
// a closing overview.
func RunSections(sections ...Section) ([]SectionResult, error) {
	results := make([]SectionResult, 0, len(sections))
	var errs []error

	for _, s := range sections {
		PrintH1Header(s.Name)
		if s.Description != "" {
			PrintInfo(s.Description)
		}
		sectionSummary = ""
		start := time.Now()
		err := s.Run()
		results = append(results, SectionResult{Name: s.Name, Err: err, Duration: time.Since(start), Summary: sectionSummary})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}

	PrintH2Header("Overview")
	for _, r := range results {
		line := fmt.Sprintf("%s (%s)", r.Name, r.Duration.Round(time.Millisecond))
		if r.Summary != "" {
			line += ": " + r.Summary
		}
		if r.Err != nil {
			PrintError(line)
		} else {
			PrintSuccess(line)
		}
	}
	return results, errors.Join(errs...)
}

// RunAll executes the comprehensive build and test workflow.
func RunAll() error {
	_, err := RunSections(
		Section{Name: "Build", Description: "Build structra and the Example entry point", Run: BuildAll},
		Section{Name: "Tests", Description: "Run the test suite", Run: TestReport},
		Section{Name: "Lint", Description: "Run the linters", Run: LintAll},
	)
	return err
}
