package quiz

// JSON keys of the transfer form.
const (
	KeyPointsPossible = "PointsPossible"
	KeyPointsAchieved = "PointsAchieved"
	KeyQuestions      = "Questions"
	KeyType           = "Type"
	KeyText           = "Text"
	KeyImgLink        = "ImgLink"
	KeyDifficulty     = "Difficulty"
	KeyExplanation    = "Explanation"
	KeyShuffled       = "Shuffled"
	KeyAnswers        = "Answers"
	KeyExpected       = "Expected"
	KeyIndex          = "Index"
)

// QuestionData is the transfer form of a question.
type QuestionData struct {
	Type           string       `json:"Type"`
	Text           string       `json:"Text"`
	ImgLink        string       `json:"ImgLink,omitempty"`
	Difficulty     float32      `json:"Difficulty"`
	Explanation    string       `json:"Explanation,omitempty"`
	PointsPossible int64        `json:"PointsPossible"`
	Shuffled       bool         `json:"Shuffled,omitempty"`
	Answers        []AnswerData `json:"Answers"`
}

// AnswerData is the transfer form of an answer. Expected holds a bool for
// boolean answers and a string for text answers; "true" and "false" strings
// are accepted for booleans.
type AnswerData struct {
	Type     string `json:"Type"`
	Text     string `json:"Text"`
	Expected any    `json:"Expected"`
	Key      string `json:"Key,omitempty"`
}

// NewQuestionData returns blank data of type t: difficulty 0.5, one point
// and no answers.
func NewQuestionData(t QuestionType) QuestionData {
	return blankData(t.String())
}

func blankData(name string) QuestionData {
	return QuestionData{Type: name, Difficulty: 0.5, PointsPossible: 1, Answers: []AnswerData{}}
}
