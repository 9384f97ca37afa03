package quiz

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedQuestionType is returned for question types that have no
	// concrete implementation.
	ErrUnsupportedQuestionType = errors.New("unsupported question type")
	// ErrNoAnswer is returned when an open answer question has no expected
	// answer to compare against.
	ErrNoAnswer = errors.New("open answer question requires an expected text answer")
)

// Question is a quiz question with its answers.
type Question interface {
	Type() QuestionType
	Text() string
	Explanation() string
	ImageURI() string
	Difficulty() float32
	PointsPossible() int64
	Shuffled() bool
	Answers() []Answer
	Key() string
	SetKey(key string)
	Data() QuestionData
}

type questionBase struct {
	key         string
	text        string
	explanation string
	image       string
	difficulty  float32
	points      int64
}

func (q *questionBase) Text() string          { return q.text }
func (q *questionBase) Explanation() string   { return q.explanation }
func (q *questionBase) ImageURI() string      { return q.image }
func (q *questionBase) Difficulty() float32   { return q.difficulty }
func (q *questionBase) PointsPossible() int64 { return q.points }
func (q *questionBase) Key() string           { return q.key }
func (q *questionBase) SetKey(key string)     { q.key = key }

func (q *questionBase) data(t QuestionType, shuffled bool, answers []Answer) QuestionData {
	d := QuestionData{
		Type:           t.String(),
		Text:           q.text,
		ImgLink:        q.image,
		Difficulty:     q.difficulty,
		Explanation:    q.explanation,
		PointsPossible: q.points,
		Shuffled:       shuffled,
	}
	for _, a := range answers {
		d.Answers = append(d.Answers, a.Data())
	}
	return d
}

// OpenAnswerQuestion expects a single free text answer.
type OpenAnswerQuestion struct {
	questionBase
	answer *TextAnswer
}

// NewOpenAnswerQuestion returns an open question expecting answer.
func NewOpenAnswerQuestion(text, explanation string, difficulty float32, points int64, answer *TextAnswer) *OpenAnswerQuestion {
	return &OpenAnswerQuestion{
		questionBase: questionBase{text: text, explanation: explanation, difficulty: difficulty, points: points},
		answer:       answer,
	}
}

func (q *OpenAnswerQuestion) Type() QuestionType  { return OpenAnswer }
func (q *OpenAnswerQuestion) Shuffled() bool      { return false }
func (q *OpenAnswerQuestion) Answer() *TextAnswer { return q.answer }
func (q *OpenAnswerQuestion) Answers() []Answer   { return []Answer{q.answer} }
func (q *OpenAnswerQuestion) Data() QuestionData  { return q.data(OpenAnswer, false, q.Answers()) }

// MultiCheckboxQuestion is a multiple choice question where every option
// is ticked or not.
type MultiCheckboxQuestion struct {
	questionBase
	answers  []*BooleanAnswer
	shuffled bool
}

// NewMultiCheckboxQuestion returns a multiple choice question over answers.
func NewMultiCheckboxQuestion(text, explanation string, difficulty float32, points int64, shuffled bool, answers ...*BooleanAnswer) *MultiCheckboxQuestion {
	for i, a := range answers {
		a.index = i
	}
	return &MultiCheckboxQuestion{
		questionBase: questionBase{text: text, explanation: explanation, difficulty: difficulty, points: points},
		answers:      answers,
		shuffled:     shuffled,
	}
}

func (q *MultiCheckboxQuestion) Type() QuestionType { return MultipleChoice }
func (q *MultiCheckboxQuestion) Shuffled() bool     { return q.shuffled }

func (q *MultiCheckboxQuestion) Answers() []Answer {
	out := make([]Answer, len(q.answers))
	for i, a := range q.answers {
		out[i] = a
	}
	return out
}

func (q *MultiCheckboxQuestion) Data() QuestionData {
	return q.data(MultipleChoice, q.shuffled, q.Answers())
}

// NewQuestion builds a question from its transfer form. Only multiple choice
// and open answer questions have concrete implementations.
func NewQuestion(data QuestionData) (Question, error) {
	t, ok := ParseQuestionType(data.Type)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedQuestionType, data.Type)
	}

	base := questionBase{
		text:        data.Text,
		explanation: data.Explanation,
		image:       data.ImgLink,
		difficulty:  data.Difficulty,
		points:      data.PointsPossible,
	}

	switch t {
	case MultipleChoice:
		answers := make([]*BooleanAnswer, 0, len(data.Answers))
		for i, ad := range data.Answers {
			a, err := NewAnswer(ad)
			if err != nil {
				return nil, fmt.Errorf("answer %d: %w", i, err)
			}
			b, ok := a.(*BooleanAnswer)
			if !ok {
				return nil, fmt.Errorf("answer %d: multiple choice needs boolean answers, got %s", i, a.Type())
			}
			answers = append(answers, b)
		}
		q := NewMultiCheckboxQuestion(data.Text, data.Explanation, data.Difficulty, data.PointsPossible, data.Shuffled, answers...)
		q.questionBase = base
		return q, nil

	case OpenAnswer:
		if len(data.Answers) == 0 {
			return nil, ErrNoAnswer
		}
		a, err := NewAnswer(data.Answers[0])
		if err != nil {
			return nil, err
		}
		text, ok := a.(*TextAnswer)
		if !ok {
			return nil, fmt.Errorf("%w, got %s", ErrNoAnswer, a.Type())
		}
		return &OpenAnswerQuestion{questionBase: base, answer: text}, nil
	}
	return nil, fmt.Errorf("%w %s", ErrUnsupportedQuestionType, t)
}
