package testreport

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

type junitSuites struct {
	Suites []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name  string      `xml:"name,attr"`
	Time  string      `xml:"time,attr"`
	Cases []junitCase `xml:"testcase"`

	// Nested suites appear in some reporters' output.
	Suites []junitSuite `xml:"testsuite"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitProblem `xml:"failure"`
	Error     *junitProblem `xml:"error"`
	Skipped   *struct{}     `xml:"skipped"`
}

type junitProblem struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// ParseJUnit decodes one JUnit XML document with a testsuite or testsuites
// root element.
func ParseJUnit(r io.Reader) ([]Suite, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading junit report: %w", err)
	}

	var root struct {
		XMLName xml.Name
	}
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decoding junit report: %w", err)
	}

	var suites []junitSuite
	switch root.XMLName.Local {
	case "testsuites":
		var doc junitSuites
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding junit report: %w", err)
		}
		suites = doc.Suites
	case "testsuite":
		var doc junitSuite
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding junit report: %w", err)
		}
		suites = []junitSuite{doc}
	default:
		return nil, fmt.Errorf("unexpected junit root element <%s>", root.XMLName.Local)
	}

	var out []Suite
	for _, s := range suites {
		out = appendSuite(out, s)
	}
	return out, nil
}

func appendSuite(out []Suite, js junitSuite) []Suite {
	if len(js.Cases) > 0 || len(js.Suites) == 0 {
		s := Suite{Name: js.Name, Duration: seconds(js.Time)}
		for _, jc := range js.Cases {
			c := Case{Name: jc.Name, Duration: seconds(jc.Time)}
			switch {
			case jc.Failure != nil:
				c.Status = StatusFail
				c.Output = problemLines(jc.Failure)
				s.Failed++
			case jc.Error != nil:
				c.Status = StatusFail
				c.Output = problemLines(jc.Error)
				s.Failed++
			case jc.Skipped != nil:
				c.Status = StatusSkip
				s.Skipped++
			default:
				c.Status = StatusPass
				s.Passed++
			}
			s.Cases = append(s.Cases, c)
		}
		out = append(out, s)
	}
	for _, nested := range js.Suites {
		out = appendSuite(out, nested)
	}
	return out
}

func problemLines(p *junitProblem) []string {
	var lines []string
	if p.Message != "" {
		lines = append(lines, p.Message)
	}
	for _, l := range strings.Split(strings.TrimSpace(p.Body), "\n") {
		if l = strings.TrimRight(l, "\r"); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func seconds(s string) time.Duration {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return time.Duration(math.Round(f * float64(time.Second)))
}

// ParseJUnitDir reads every *.xml file in dir, sorted by name. Files that
// fail to decode are counted in Summary.Malformed.
func ParseJUnitDir(dir string) (Summary, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.xml"))
	if err != nil {
		return Summary{}, fmt.Errorf("listing junit reports: %w", err)
	}
	if len(matches) == 0 {
		if _, statErr := os.Stat(dir); errors.Is(statErr, os.ErrNotExist) {
			return Summary{}, fmt.Errorf("reports dir %s: %w", dir, statErr)
		}
	}
	sort.Strings(matches)

	var suites []Suite
	var malformed int
	for _, m := range matches {
		f, err := os.Open(m) // #nosec G304 - report files live in the configured reports dir
		if err != nil {
			return Summary{}, fmt.Errorf("opening %s: %w", m, err)
		}
		parsed, err := ParseJUnit(f)
		_ = f.Close()
		if err != nil {
			malformed++
			continue
		}
		suites = append(suites, parsed...)
	}
	return summarize(suites, malformed), nil
}
