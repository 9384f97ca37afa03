package llm

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Prompts understood by Mimic.
const (
	Nonsense             = "nonsense"
	MultipleChoicePrompt = "multiple_choice"
	OpenAnswerPrompt     = "open_answer"
)

// MimicKey is the only key Mimic accepts.
const MimicKey = "structra-1343abnc-dGhpcyBpcyBub3Qgb3VyIGFwaSBrZXksIG5pY2UgdHJ5IHRobyA6KQ=="

// DefaultFailureRate is the share of Mimic calls that fail on purpose.
const DefaultFailureRate = 0.1

// ErrGeneration is returned when Mimic refuses or fails to answer.
var ErrGeneration = errors.New("failed to generate question")

//go:embed questions.json
var questionsJSON []byte

// indexed prompts look like "[1][12]": type index, then element index.
var indexNotation = regexp.MustCompile(`\[([0-2])]\[(\d|[1-4]\d)]`)

// Mimic is an offline Model answering from a fixed question pool. It needs
// no network but still checks the API key, and fails DefaultFailureRate of
// the time so callers exercise their error paths.
type Mimic struct {
	keys        KeyProvider
	failureRate float64

	mu  sync.Mutex
	rnd *rand.Rand

	pool map[string][]json.RawMessage
}

// MimicOption configures a Mimic.
type MimicOption func(*Mimic)

// WithRand sets the random source, for reproducible runs.
func WithRand(r *rand.Rand) MimicOption {
	return func(m *Mimic) { m.rnd = r }
}

// WithFailureRate overrides DefaultFailureRate.
func WithFailureRate(rate float64) MimicOption {
	return func(m *Mimic) { m.failureRate = rate }
}

// NewMimic returns a Mimic that authenticates with keys.
func NewMimic(keys KeyProvider, opts ...MimicOption) (*Mimic, error) {
	if keys == nil {
		return nil, errors.New("key provider must not be nil")
	}
	m := &Mimic{
		keys:        keys,
		failureRate: DefaultFailureRate,
		rnd:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), // #nosec G404
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := json.Unmarshal(questionsJSON, &m.pool); err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}
	for _, name := range mimicTypes {
		if len(m.pool[name]) == 0 {
			return nil, fmt.Errorf("load question pool: no %q entries", name)
		}
	}
	return m, nil
}

// SetContext is a no-op; Mimic answers the same regardless of context.
func (m *Mimic) SetContext(string) {}

// Execute answers prompt with a pool entry wrapped in DefaultDelimiter:
//
//   - "multiple_choice", "open_answer", "nonsense": a random entry of that kind
//   - a prompt containing "[t][i]": entry i of kind t (0 nonsense, 1 open
//     answer, 2 multiple choice); the last such match wins
//   - a blank prompt: open answer 40%, multiple choice 40%, nonsense 20%
//
// Anything else fails with ErrGeneration.
func (m *Mimic) Execute(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.keys.APIKey() != MimicKey {
		return "", ErrAccessDenied
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rnd.Float64() < m.failureRate {
		return "", ErrGeneration
	}
	raw, err := m.pick(prompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	d := string(DefaultDelimiter)
	return d + buf.String() + d, nil
}

var mimicTypes = [...]string{Nonsense, OpenAnswerPrompt, MultipleChoicePrompt}

func (m *Mimic) pick(prompt string) (json.RawMessage, error) {
	switch prompt {
	case Nonsense, OpenAnswerPrompt, MultipleChoicePrompt:
		return m.random(prompt), nil
	}

	if matches := indexNotation.FindAllStringSubmatch(prompt, -1); len(matches) > 0 {
		last := matches[len(matches)-1]
		t, _ := strconv.Atoi(last[1])
		i, _ := strconv.Atoi(last[2])
		entries := m.pool[mimicTypes[t]]
		if i >= len(entries) {
			return nil, fmt.Errorf("%w: no %s entry %d", ErrGeneration, mimicTypes[t], i)
		}
		return entries[i], nil
	}

	if strings.TrimSpace(prompt) == "" {
		switch r := m.rnd.Float64(); {
		case r < 0.4:
			return m.random(OpenAnswerPrompt), nil
		case r < 0.8:
			return m.random(MultipleChoicePrompt), nil
		default:
			return m.random(Nonsense), nil
		}
	}
	return nil, ErrGeneration
}

func (m *Mimic) random(kind string) json.RawMessage {
	entries := m.pool[kind]
	return entries[m.rnd.IntN(len(entries))]
}
