package testreport

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

// Event is a single event from go test -json output.
type Event struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"` // start, run, pass, fail, skip, output, pause, cont
	Package string    `json:"Package"`
	Test    string    `json:"Test"`
	Elapsed float64   `json:"Elapsed"`
	Output  string    `json:"Output"`
}

// ParseGoTest parses go test -json NDJSON from r. Lines that are not JSON
// are counted in Summary.Malformed and skipped.
func ParseGoTest(r io.Reader) (Summary, error) {
	agg := newAggregator()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var malformed int
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			malformed++
			continue
		}
		agg.process(event)
	}
	if err := scanner.Err(); err != nil {
		return Summary{}, fmt.Errorf("scanning test output: %w", err)
	}
	return summarize(agg.suites(), malformed), nil
}

type aggregator struct {
	packages map[string]*pkgState
	order    []string
}

type pkgState struct {
	suite     Suite
	cases     map[string]int
	outputBuf map[string][]string
}

func newAggregator() *aggregator {
	return &aggregator{packages: make(map[string]*pkgState)}
}

func (a *aggregator) pkg(name string) *pkgState {
	if p, ok := a.packages[name]; ok {
		return p
	}
	p := &pkgState{
		suite:     Suite{Name: name},
		cases:     make(map[string]int),
		outputBuf: make(map[string][]string),
	}
	a.packages[name] = p
	a.order = append(a.order, name)
	return p
}

func (p *pkgState) testCase(name string) *Case {
	if i, ok := p.cases[name]; ok {
		return &p.suite.Cases[i]
	}
	p.cases[name] = len(p.suite.Cases)
	p.suite.Cases = append(p.suite.Cases, Case{Name: name})
	return &p.suite.Cases[len(p.suite.Cases)-1]
}

func elapsed(e Event) time.Duration {
	return time.Duration(math.Round(e.Elapsed * float64(time.Second)))
}

func (a *aggregator) process(e Event) {
	p := a.pkg(e.Package)
	s := &p.suite

	switch e.Action {
	case StatusPass:
		if e.Test == "" {
			s.Duration = elapsed(e)
			return
		}
		s.Passed++
		c := p.testCase(e.Test)
		c.Status = StatusPass
		c.Duration = elapsed(e)

	case StatusFail:
		if e.Test == "" {
			s.Duration = elapsed(e)
			if s.Total() == 0 {
				s.BuildError = strings.Join(p.outputBuf[""], "\n")
			}
			return
		}
		s.Failed++
		c := p.testCase(e.Test)
		c.Status = StatusFail
		c.Duration = elapsed(e)
		c.Output = p.outputBuf[e.Test]

	case StatusSkip:
		if e.Test != "" {
			s.Skipped++
			p.testCase(e.Test).Status = StatusSkip
		}

	case "output":
		output := strings.TrimRight(e.Output, "\n")
		if output == "" {
			return
		}
		p.outputBuf[e.Test] = append(p.outputBuf[e.Test], output)
		if strings.Contains(output, "panic:") {
			s.Panicked = true
		}
	}
}

func (a *aggregator) suites() []Suite {
	out := make([]Suite, 0, len(a.order))
	for _, name := range a.order {
		s := a.packages[name].suite
		// Packages with no tests report no activity.
		if s.Total() == 0 && s.BuildError == "" && !s.Panicked {
			continue
		}
		out = append(out, s)
	}
	return out
}
