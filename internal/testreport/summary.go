// Package testreport reads test results produced by command tasks: go test
// -json streams and JUnit XML report directories.
package testreport

import "time"

// Status values for a test case.
const (
	StatusPass = "pass"
	StatusFail = "fail"
	StatusSkip = "skip"
)

// Case is a single test with its status.
type Case struct {
	Name     string
	Status   string
	Duration time.Duration
	Output   []string // failure output lines
}

// Suite aggregates results for one go package or one JUnit test class.
type Suite struct {
	Name       string
	Passed     int
	Failed     int
	Skipped    int
	Duration   time.Duration
	Cases      []Case
	BuildError string // non-empty if the package failed to build
	Panicked   bool
}

// Total returns the number of tests in the suite.
func (s *Suite) Total() int {
	return s.Passed + s.Failed + s.Skipped
}

// Status returns StatusPass, StatusFail or StatusSkip for the suite.
func (s *Suite) Status() string {
	if s.BuildError != "" || s.Panicked || s.Failed > 0 {
		return StatusFail
	}
	if s.Passed == 0 && s.Skipped > 0 {
		return StatusSkip
	}
	return StatusPass
}

// Failures returns the failed cases in report order.
func (s *Suite) Failures() []Case {
	var out []Case
	for _, c := range s.Cases {
		if c.Status == StatusFail {
			out = append(out, c)
		}
	}
	return out
}

// Summary holds aggregate statistics across suites.
type Summary struct {
	Suites      []Suite
	Passed      int
	Failed      int
	Skipped     int
	FailedSuite int
	Duration    time.Duration
	// Malformed counts input lines or files that could not be decoded.
	Malformed int
}

// Total returns the number of tests across all suites.
func (s Summary) Total() int { return s.Passed + s.Failed + s.Skipped }

// OK reports whether no suite failed.
func (s Summary) OK() bool { return s.FailedSuite == 0 }

func summarize(suites []Suite, malformed int) Summary {
	sum := Summary{Suites: suites, Malformed: malformed}
	for i := range suites {
		s := &suites[i]
		sum.Passed += s.Passed
		sum.Failed += s.Failed
		sum.Skipped += s.Skipped
		sum.Duration += s.Duration
		if s.Status() == StatusFail {
			sum.FailedSuite++
		}
	}
	return sum
}
