package magetasks

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structra/assignment/internal/testreport"
)

func TestRunSections_RunsAllAndJoinsErrors(t *testing.T) {
	buf := capture(t)
	var ran []string

	results, err := RunSections(
		Section{Name: "one", Run: func() error {
			ran = append(ran, "one")
			SetSectionSummary("3 things done")
			return nil
		}},
		Section{Name: "two", Run: func() error { ran = append(ran, "two"); return errors.New("broken") }},
		Section{Name: "three", Run: func() error { ran = append(ran, "three"); return nil }},
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "two: broken")
	assert.Equal(t, []string{"one", "two", "three"}, ran)
	require.Len(t, results, 3)
	assert.Equal(t, "3 things done", results[0].Summary)
	assert.Empty(t, results[2].Summary)
	assert.Contains(t, buf.String(), "one (")
}

func TestWriteTestSummary_AlignsPackagesAndListsFailures(t *testing.T) {
	sum := testreport.Summary{Suites: []testreport.Suite{
		{Name: ModulePath + "/internal/launch", Passed: 12, Duration: 1200 * time.Millisecond},
		{Name: ModulePath + "/pkg/llm", Passed: 3, Failed: 1, Cases: []testreport.Case{
			{Name: "TestMimic", Status: testreport.StatusFail},
		}},
	}}
	var b strings.Builder

	WriteTestSummary(&b, sum)

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "internal/launch   12 passed")
	assert.Contains(t, lines[1], "pkg/llm            3 passed    1 failed")
	assert.Contains(t, lines[2], "TestMimic")
	assert.True(t, strings.HasPrefix(lines[0], theme.Icons.Pass))
	assert.True(t, strings.HasPrefix(lines[1], theme.Icons.Fail))
}
