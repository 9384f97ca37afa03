package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/structra/assignment/internal/ctxlog"
	"github.com/structra/assignment/pkg/quiz"
)

// Infinite as MaxProvisions means a provider never runs out.
const Infinite = -1

// ErrExhausted is returned by Next once MaxProvisions questions were served.
var ErrExhausted = errors.New("no more questions")

// QuestionProvider serves questions one at a time.
type QuestionProvider interface {
	Next(ctx context.Context) (quiz.Question, error)
	HasNext() bool
	// Reset returns the provider to its initial state.
	Reset()
	// MaxProvisions is the number of questions Next can serve, or Infinite.
	MaxProvisions() int
}

// ModelQuestionProvider asks a model for each question. A failed model call
// or unparsable reply is logged and served as ErrorQuestion so a quiz keeps
// going; only context cancellation and exhaustion are returned as errors.
type ModelQuestionProvider struct {
	model   Model
	targets TargetProvider
	limit   int

	mu     sync.Mutex
	served int
}

// NewModelQuestionProvider returns a provider serving limit questions, or
// unlimited questions when limit is Infinite.
func NewModelQuestionProvider(model Model, targets TargetProvider, limit int) (*ModelQuestionProvider, error) {
	if model == nil || targets == nil {
		return nil, errors.New("model and target provider are required")
	}
	if limit < 0 {
		limit = Infinite
	}
	return &ModelQuestionProvider{model: model, targets: targets, limit: limit}, nil
}

func (p *ModelQuestionProvider) MaxProvisions() int { return p.limit }

func (p *ModelQuestionProvider) HasNext() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.limit == Infinite || p.served < p.limit
}

func (p *ModelQuestionProvider) Reset() {
	p.mu.Lock()
	p.served = 0
	p.mu.Unlock()
}

func (p *ModelQuestionProvider) Next(ctx context.Context) (quiz.Question, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.limit != Infinite && p.served >= p.limit {
		return nil, ErrExhausted
	}

	target := p.targets.Provide()
	p.model.SetContext(target.Context())

	reply, err := p.model.Execute(ctx, target.BasePrompt())
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	p.served++

	log := ctxlog.FromContext(ctx)
	if err != nil {
		log.Warn("question generation failed", "error", err)
		return ErrorQuestion(), nil
	}

	payload, err := Extract(reply, DefaultDelimiter)
	if err != nil {
		log.Warn("question generation failed", "error", fmt.Errorf("extract payload: %w", err))
		return ErrorQuestion(), nil
	}
	q, err := target.Parse(payload)
	if err != nil {
		log.Warn("question generation failed", "error", err)
	}
	return q, nil
}
