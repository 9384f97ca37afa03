package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/structra/assignment/pkg/quiz"
)

// Fragment is a reusable piece of system context.
type Fragment interface {
	Context() string
}

// ContextBuilder concatenates raw text and fragments into a system context.
type ContextBuilder struct {
	raw       []string
	fragments []Fragment
}

// AddRaw appends literal text.
func (b *ContextBuilder) AddRaw(s string) *ContextBuilder {
	b.raw = append(b.raw, s)
	return b
}

// Add appends fragments. Each is rendered when Build is called.
func (b *ContextBuilder) Add(fragments ...Fragment) *ContextBuilder {
	b.fragments = append(b.fragments, fragments...)
	return b
}

// Build renders all raw text first, then all fragments, in insertion order.
func (b *ContextBuilder) Build() string {
	var sb strings.Builder
	sb.WriteString("Consider the following context: ")
	for _, s := range b.raw {
		sb.WriteString(s)
	}
	for _, f := range b.fragments {
		sb.WriteString(f.Context())
	}
	return sb.String()
}

// GenericContext fragments steer question generation in general. All but
// Language are rendered with a fresh random seed each time.
type GenericContext int

const (
	Uniqueness GenericContext = iota
	Difficulty
	TopicVariety
	Engagement
	Relevance
	EducationalValue
	Language
	RandomSeed
)

// genericTemplates is indexed by GenericContext.
var genericTemplates = [...]string{
	// Uniqueness
	"NEVER generate a seen question. Generate UNIQUE questions using " +
		"this seed: %s. Avoid common topics. Be creative and unconventional. ",
	// Difficulty
	"Include easy, medium, and hard questions using this seed: %s. " +
		"Harder questions should require deeper knowledge or complex reasoning. ",
	// TopicVariety
	"Cover diverse topics (science, history, arts, geography, " +
		"literature, sports, tech) using this seed: %s. Aim for balance. ",
	// Engagement
	"Create engaging questions with this seed: %s. Use interesting " +
		"facts, surprising info, or intriguing scenarios. ",
	// Relevance
	"Ensure global/topic relevance with this seed: %s. ",
	// EducationalValue
	"Prioritize educational value using this seed: %s. Each " +
		"question should teach or reinforce knowledge. ",
	// Language
	"Language of your response MUST BE: %s. ",
	// RandomSeed
	"Use this random seed in randomizing your response: %s. ",
}

func (g GenericContext) Context() string {
	if g == Language {
		return fmt.Sprintf(genericTemplates[g], SystemLanguage())
	}
	return fmt.Sprintf(genericTemplates[g], uuid.NewString())
}

// SystemLanguage returns the English name of the language in the user's
// locale ($LC_ALL, $LC_MESSAGES, then $LANG), falling back to English.
func SystemLanguage() string {
	return languageName(localeFromEnv())
}

func localeFromEnv() string {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func languageName(locale string) string {
	// de_DE.UTF-8@euro -> de-DE
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	locale = strings.ReplaceAll(locale, "_", "-")
	if locale == "" || locale == "C" || locale == "POSIX" {
		return "English"
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return "English"
	}
	base, _ := tag.Base()
	name := display.English.Languages().Name(language.Make(base.String()))
	if name == "" {
		return "English"
	}
	return cases.Title(language.English).String(name)
}

// OpenQuestionContext fragments describe the open answer response format.
type OpenQuestionContext int

const (
	Format OpenQuestionContext = iota
	ProperExplanation
)

func (o OpenQuestionContext) Context() string {
	switch o {
	case Format:
		return "EXCLUSIVELY return JSON, NOTHING ELSE. Structure MUST follow EXACTLY, " +
			"NEVER use \\n. Provide 1 Question and 1 Answer. Respond adhering " +
			"EXACTLY to format: " + openAnswerFormat()
	case ProperExplanation:
		return "The explanation should explain why question is correct." +
			"It should not contain what this questions aims to achieve"
	}
	return ""
}

func openAnswerFormat() string {
	d := string(DefaultDelimiter)
	return fmt.Sprintf(d+`{"%s": {"%s": string, "%s": double, "%s": long, "%s": string}, "%s": {"%s": string, "%s": string}}`+d+". ",
		quiz.KeyQuestions, quiz.KeyText, quiz.KeyDifficulty, quiz.KeyPointsPossible, quiz.KeyExplanation,
		quiz.KeyAnswers, quiz.KeyText, quiz.KeyExpected)
}
