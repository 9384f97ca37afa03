package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_GreetsAndPrintsRelease(t *testing.T) {
	t.Setenv("STRUCTRA_RELEASE", "17")
	var out, errOut bytes.Buffer

	code := run(context.Background(), []string{"-questions", "0"}, &out, &errOut)

	require.Equal(t, 0, code, errOut.String())
	assert.Equal(t, "Hello World!\nBuilt for release 17.\n", out.String())
}

func TestRun_PrintsRequestedNumberOfQuestions(t *testing.T) {
	var out, errOut bytes.Buffer

	code := run(context.Background(), []string{"-questions", "4", "-seed", "42"}, &out, &errOut)

	require.Equal(t, 0, code, errOut.String())
	assert.Equal(t, 4, strings.Count(out.String(), "\nQuestion "))
	assert.Contains(t, out.String(), "Question 4 (Open Answer,")
}

func TestRun_SameSeedSameQuiz(t *testing.T) {
	var a, b, errOut bytes.Buffer

	require.Equal(t, 0, run(context.Background(), []string{"-seed", "7"}, &a, &errOut))
	require.Equal(t, 0, run(context.Background(), []string{"-seed", "7"}, &b, &errOut))

	assert.Equal(t, a.String(), b.String())
}

func TestRun_RejectsBadFlags(t *testing.T) {
	tests := [][]string{
		{"-questions", "-1"},
		{"-questions", "many"},
		{"-unknown"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			var out, errOut bytes.Buffer
			assert.Equal(t, 2, run(context.Background(), args, &out, &errOut))
			assert.Empty(t, out.String())
		})
	}
}
