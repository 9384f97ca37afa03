// Package quiz models quiz questions and answers and builds them from their
// JSON transfer form.
package quiz

import "strings"

// QuestionType enumerates the kinds of question a quiz can hold.
type QuestionType int

const (
	Boolean QuestionType = iota
	SingleChoice
	MultipleChoice
	Cloze
	DragAndDrop
	OpenAnswer
)

type questionTypeInfo struct {
	name    string
	display string
	stable  bool
	// initials builds the blank data an editor starts from; nil when the
	// type has no editor support yet.
	initials func(name string) QuestionData
}

var questionTypes = map[QuestionType]questionTypeInfo{
	Boolean:        {name: "BOOLEAN", display: "Boolean"},
	SingleChoice:   {name: "SINGLE_CHOICE", display: "Single Choice", stable: true, initials: blankData},
	MultipleChoice: {name: "MULTIPLE_CHOICE", display: "Multiple Choice", stable: true, initials: blankData},
	Cloze:          {name: "CLOZE", display: "Cloze"},
	DragAndDrop:    {name: "DRAG_AND_DROP", display: "Drag and Drop"},
	OpenAnswer:     {name: "OPEN_ANSWER", display: "Open Answer", stable: true, initials: openAnswerInitials},
}

// String is the spelling used in QuestionData.Type.
func (t QuestionType) String() string { return questionTypes[t].name }

// DisplayName is the human readable name.
func (t QuestionType) DisplayName() string { return questionTypes[t].display }

// Stable reports whether the type is fully supported.
func (t QuestionType) Stable() bool {
	info := questionTypes[t]
	return info.stable && info.initials != nil
}

// Initials returns the blank data for a new question of type t. ok is false
// for types that have none.
func (t QuestionType) Initials() (data QuestionData, ok bool) {
	info := questionTypes[t]
	if info.initials == nil {
		return QuestionData{}, false
	}
	return info.initials(info.name), true
}

// ParseQuestionType maps a QuestionData.Type spelling, case-insensitively.
func ParseQuestionType(s string) (QuestionType, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for t, info := range questionTypes {
		if info.name == s {
			return t, true
		}
	}
	return Boolean, false
}

// QuestionTypes lists every type in declaration order.
func QuestionTypes() []QuestionType {
	return []QuestionType{Boolean, SingleChoice, MultipleChoice, Cloze, DragAndDrop, OpenAnswer}
}

func openAnswerInitials(name string) QuestionData {
	return QuestionData{
		Type:           name,
		Difficulty:     0.5,
		PointsPossible: 5,
		Answers:        []AnswerData{{Type: string(TextAnswerType), Expected: ""}},
	}
}
