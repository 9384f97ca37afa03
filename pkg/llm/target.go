package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/structra/assignment/pkg/quiz"
)

// DefaultPrompt asks for a question the model has not produced before.
const DefaultPrompt = "Generate new question. It should not be seen before!"

// Target describes one kind of question to generate: the prompt to send,
// the system context that fixes the response format, and how to parse the
// delimited payload of a response.
type Target interface {
	BasePrompt() string
	Context() string
	Parse(payload string) (quiz.Question, error)
}

// OpenQuestionTarget generates open answer questions.
type OpenQuestionTarget struct {
	prompt string
}

// NewOpenQuestionTarget returns a target sending prompt.
func NewOpenQuestionTarget(prompt string) *OpenQuestionTarget {
	return &OpenQuestionTarget{prompt: prompt}
}

func (t *OpenQuestionTarget) BasePrompt() string { return t.prompt }

func (t *OpenQuestionTarget) Context() string {
	return new(ContextBuilder).Add(Format, ProperExplanation).Build()
}

type openAnswerPayload struct {
	Questions *struct {
		Text           *string  `json:"Text"`
		Difficulty     *float32 `json:"Difficulty"`
		PointsPossible *int64   `json:"PointsPossible"`
		Explanation    *string  `json:"Explanation"`
	} `json:"Questions"`
	Answers *struct {
		Text     *string `json:"Text"`
		Expected *string `json:"Expected"`
	} `json:"Answers"`
}

// Parse decodes payload into an open answer question. A payload that does
// not match the format yields ErrorQuestion together with the parse error.
func (t *OpenQuestionTarget) Parse(payload string) (quiz.Question, error) {
	data, err := decodeOpenAnswer(payload)
	if err == nil {
		var q quiz.Question
		if q, err = quiz.NewQuestion(data); err == nil {
			return q, nil
		}
	}
	return ErrorQuestion(), err
}

func decodeOpenAnswer(payload string) (quiz.QuestionData, error) {
	var p openAnswerPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return quiz.QuestionData{}, fmt.Errorf("parse open answer: %w", err)
	}
	q, a := p.Questions, p.Answers
	switch {
	case q == nil || a == nil:
		return quiz.QuestionData{}, errors.New("parse open answer: missing Questions or Answers")
	case q.Text == nil || q.Difficulty == nil || q.PointsPossible == nil || q.Explanation == nil:
		return quiz.QuestionData{}, errors.New("parse open answer: incomplete Questions")
	case a.Text == nil || a.Expected == nil:
		return quiz.QuestionData{}, errors.New("parse open answer: incomplete Answers")
	}

	return quiz.QuestionData{
		Type:           quiz.OpenAnswer.String(),
		Text:           *q.Text,
		Difficulty:     *q.Difficulty,
		PointsPossible: *q.PointsPossible,
		Explanation:    *q.Explanation,
		Answers: []quiz.AnswerData{{
			Type:     string(quiz.TextAnswerType),
			Text:     *a.Text,
			Expected: *a.Expected,
		}},
	}, nil
}

// ErrorQuestion stands in for a question that could not be generated.
func ErrorQuestion() *quiz.OpenAnswerQuestion {
	return quiz.NewOpenAnswerQuestion(
		"An error occurred while generating the question. Please try again.",
		"Error in question generation",
		0, 0,
		quiz.NewTextAnswer("ok", ""),
	)
}

// TargetProvider picks the target for the next generated question.
type TargetProvider interface {
	Provide() Target
}

// RandomTargetProvider picks uniformly among its targets.
type RandomTargetProvider struct {
	targets []Target

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomTargetProvider returns a provider over targets, which must not be
// empty.
func NewRandomTargetProvider(targets ...Target) (*RandomTargetProvider, error) {
	return NewSeededTargetProvider(rand.Uint64(), targets...) // #nosec G404
}

// NewSeededTargetProvider is NewRandomTargetProvider with a fixed seed.
func NewSeededTargetProvider(seed uint64, targets ...Target) (*RandomTargetProvider, error) {
	if len(targets) == 0 {
		return nil, errors.New("needs at least one target")
	}
	for i, t := range targets {
		if t == nil {
			return nil, fmt.Errorf("target %d is nil", i)
		}
	}
	return &RandomTargetProvider{targets: targets, rnd: rand.New(rand.NewPCG(seed, seed))}, nil // #nosec G404
}

func (p *RandomTargetProvider) Provide() Target {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.targets[p.rnd.IntN(len(p.targets))]
}
