package quiz

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuestionType_IsCaseInsensitive(t *testing.T) {
	tests := []struct {
		in   string
		want QuestionType
		ok   bool
	}{
		{in: "OPEN_ANSWER", want: OpenAnswer, ok: true},
		{in: "multiple_choice", want: MultipleChoice, ok: true},
		{in: " Drag_And_Drop ", want: DragAndDrop, ok: true},
		{in: "ESSAY", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseQuestionType(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestQuestionType_Stable_OnlyForTypesWithInitials(t *testing.T) {
	var stable []QuestionType
	for _, qt := range QuestionTypes() {
		if qt.Stable() {
			stable = append(stable, qt)
		}
	}
	assert.Equal(t, []QuestionType{SingleChoice, MultipleChoice, OpenAnswer}, stable)

	_, ok := Cloze.Initials()
	assert.False(t, ok)
}

func TestQuestionType_Initials_OpenAnswerHasEmptyTextAnswer(t *testing.T) {
	data, ok := OpenAnswer.Initials()
	require.True(t, ok)

	assert.Equal(t, "OPEN_ANSWER", data.Type)
	assert.EqualValues(t, 5, data.PointsPossible)
	require.Len(t, data.Answers, 1)
	assert.Equal(t, string(TextAnswerType), data.Answers[0].Type)

	q, err := NewQuestion(data)
	require.NoError(t, err)
	assert.Equal(t, OpenAnswer, q.Type())
}

func TestNewQuestionData_Defaults(t *testing.T) {
	d := NewQuestionData(MultipleChoice)
	assert.Equal(t, "MULTIPLE_CHOICE", d.Type)
	assert.InDelta(t, 0.5, d.Difficulty, 1e-6)
	assert.EqualValues(t, 1, d.PointsPossible)
	assert.Empty(t, d.Answers)
}

func TestNormalizeAnswerType_AcceptsClassPathSpellings(t *testing.T) {
	tests := map[string]AnswerType{
		"TEXT_ANSWER":         TextAnswerType,
		"TextAnswer":          TextAnswerType,
		"a.b.c.BooleanAnswer": BooleanAnswerType,
		"boolean_answer":      BooleanAnswerType,
		"slider":              AnswerType("SLIDER"),
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeAnswerType(in), in)
	}
}

func TestNewAnswer_ParsesExpectedValues(t *testing.T) {
	tests := []struct {
		name string
		data AnswerData
		want bool
	}{
		{name: "bool", data: AnswerData{Type: "BOOLEAN_ANSWER", Expected: true}, want: true},
		{name: "string true", data: AnswerData{Type: "BOOLEAN_ANSWER", Expected: "TRUE"}, want: true},
		{name: "string false", data: AnswerData{Type: "BOOLEAN_ANSWER", Expected: "false"}, want: false},
		{name: "missing type", data: AnswerData{Expected: "true"}, want: true},
		{name: "nil expected", data: AnswerData{Type: "BOOLEAN_ANSWER"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAnswer(tt.data)
			require.NoError(t, err)
			b, ok := a.(*BooleanAnswer)
			require.True(t, ok)
			assert.Equal(t, tt.want, b.Expected())
		})
	}
}

func TestNewAnswer_RejectsUnknownType(t *testing.T) {
	_, err := NewAnswer(AnswerData{Type: "SLIDER"})
	require.ErrorIs(t, err, ErrUnknownAnswerType)
}

func TestTextAnswer_Correct_IgnoresCaseAndSpacing(t *testing.T) {
	a := NewTextAnswer("", "Garbage  Collector")
	a.SetInput("  garbage collector\n")
	assert.True(t, a.Correct())

	a.Reset()
	assert.Empty(t, a.Input())
	assert.False(t, a.Correct())
}

func TestNewQuestion_FromJSON(t *testing.T) {
	const raw = `{
		"Type": "MULTIPLE_CHOICE",
		"Text": "Which are JVM languages?",
		"Difficulty": 0.3,
		"PointsPossible": 2,
		"Shuffled": true,
		"Answers": [
			{"Type": "BooleanAnswer", "Text": "Kotlin", "Expected": "true"},
			{"Type": "BooleanAnswer", "Text": "Go", "Expected": false}
		]
	}`
	var data QuestionData
	require.NoError(t, json.Unmarshal([]byte(raw), &data))

	q, err := NewQuestion(data)
	require.NoError(t, err)

	mc, ok := q.(*MultiCheckboxQuestion)
	require.True(t, ok)
	assert.True(t, mc.Shuffled())
	assert.EqualValues(t, 2, mc.PointsPossible())
	require.Len(t, mc.Answers(), 2)

	kotlin := mc.Answers()[0].(*BooleanAnswer)
	goAns := mc.Answers()[1].(*BooleanAnswer)
	assert.Equal(t, 1, goAns.Index())
	kotlin.SetInput(true)
	assert.True(t, kotlin.Correct())
	assert.True(t, goAns.Correct())

	out := q.Data()
	assert.Equal(t, "MULTIPLE_CHOICE", out.Type)
	assert.Equal(t, "true", out.Answers[0].Expected)
}

func TestNewQuestion_Errors(t *testing.T) {
	tests := []struct {
		name string
		data QuestionData
		want error
	}{
		{name: "unknown type", data: QuestionData{Type: "ESSAY"}, want: ErrUnsupportedQuestionType},
		{name: "no implementation", data: QuestionData{Type: "CLOZE"}, want: ErrUnsupportedQuestionType},
		{name: "open without answer", data: QuestionData{Type: "OPEN_ANSWER"}, want: ErrNoAnswer},
		{
			name: "open with boolean answer",
			data: QuestionData{Type: "OPEN_ANSWER", Answers: []AnswerData{{Type: "BOOLEAN_ANSWER"}}},
			want: ErrNoAnswer,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQuestion(tt.data)
			require.ErrorIs(t, err, tt.want)
		})
	}
}
