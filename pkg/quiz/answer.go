package quiz

import (
	"errors"
	"fmt"
	"strings"
)

// AnswerType is the spelling used in AnswerData.Type.
type AnswerType string

const (
	BooleanAnswerType AnswerType = "BOOLEAN_ANSWER"
	TextAnswerType    AnswerType = "TEXT_ANSWER"
)

// ErrUnknownAnswerType is returned for AnswerData with an unsupported type.
var ErrUnknownAnswerType = errors.New("unknown answer type")

// Answer is one answer option of a question together with the user's input.
type Answer interface {
	Type() AnswerType
	Text() string
	Key() string
	SetKey(key string)
	// Correct reports whether the current input matches the expected value.
	Correct() bool
	// Reset restores the initial input.
	Reset()
	Data() AnswerData
}

type answerBase struct {
	text  string
	key   string
	index int
}

func (a *answerBase) Text() string      { return a.text }
func (a *answerBase) Key() string       { return a.key }
func (a *answerBase) SetKey(key string) { a.key = key }

// Index is the answer's position within its question.
func (a *answerBase) Index() int { return a.index }

// BooleanAnswer is a checkbox: the input is either ticked or not.
type BooleanAnswer struct {
	answerBase
	input    bool
	initial  bool
	expected bool
}

// NewBooleanAnswer returns an unticked answer with the given expected state.
func NewBooleanAnswer(text string, expected bool) *BooleanAnswer {
	return &BooleanAnswer{answerBase: answerBase{text: text}, expected: expected}
}

func (a *BooleanAnswer) Type() AnswerType { return BooleanAnswerType }
func (a *BooleanAnswer) Input() bool      { return a.input }
func (a *BooleanAnswer) SetInput(v bool)  { a.input = v }
func (a *BooleanAnswer) Expected() bool   { return a.expected }
func (a *BooleanAnswer) Correct() bool    { return a.input == a.expected }
func (a *BooleanAnswer) Reset()           { a.input = a.initial }

func (a *BooleanAnswer) Data() AnswerData {
	return AnswerData{Type: string(BooleanAnswerType), Text: a.text, Expected: fmt.Sprint(a.expected), Key: a.key}
}

// TextAnswer is a free text answer compared against an expected text.
type TextAnswer struct {
	answerBase
	input    string
	initial  string
	expected string
}

// NewTextAnswer returns an empty answer expecting expected.
func NewTextAnswer(text, expected string) *TextAnswer {
	return &TextAnswer{answerBase: answerBase{text: text}, expected: expected}
}

func (a *TextAnswer) Type() AnswerType { return TextAnswerType }
func (a *TextAnswer) Input() string    { return a.input }
func (a *TextAnswer) Expected() string { return a.expected }
func (a *TextAnswer) Reset()           { a.input = a.initial }

// SetInput stores v with surrounding whitespace removed.
func (a *TextAnswer) SetInput(v string) { a.input = strings.TrimSpace(v) }

// Correct compares case-insensitively, ignoring runs of whitespace.
func (a *TextAnswer) Correct() bool {
	return strings.EqualFold(strings.Join(strings.Fields(a.input), " "), strings.Join(strings.Fields(a.expected), " "))
}

func (a *TextAnswer) Data() AnswerData {
	return AnswerData{Type: string(TextAnswerType), Text: a.text, Expected: a.expected, Key: a.key}
}

// NormalizeAnswerType maps the spellings found in transfer data, such as
// "TextAnswer" or a dotted class path ending in it, to an AnswerType.
// Unrecognised spellings are returned upper-cased.
func NormalizeAnswerType(s string) AnswerType {
	if i := strings.LastIndex(s, "."); i >= 0 {
		s = s[i+1:]
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "BOOLEANANSWER", string(BooleanAnswerType):
		return BooleanAnswerType
	case "TEXTANSWER", string(TextAnswerType):
		return TextAnswerType
	}
	return AnswerType(s)
}

// NewAnswer builds an answer from its transfer form. An empty type means a
// boolean answer.
func NewAnswer(data AnswerData) (Answer, error) {
	typ := BooleanAnswerType
	if data.Type != "" {
		typ = NormalizeAnswerType(data.Type)
	}

	switch typ {
	case BooleanAnswerType:
		a := NewBooleanAnswer(data.Text, expectedBool(data.Expected))
		a.key = data.Key
		return a, nil
	case TextAnswerType:
		a := NewTextAnswer(data.Text, expectedString(data.Expected))
		a.key = data.Key
		return a, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownAnswerType, data.Type)
}

func expectedBool(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	}
	return false
}

func expectedString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	return fmt.Sprint(v)
}
