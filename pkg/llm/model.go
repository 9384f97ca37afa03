// Package llm generates quiz questions with a language model. A Model turns a
// prompt into text; a Target tells the model what to produce and parses the
// delimited JSON it answers with.
package llm

import (
	"context"
	"errors"
	"os"
	"strings"
)

// DefaultDelimiter surrounds the JSON payload in model responses.
const DefaultDelimiter = '$'

var (
	// ErrNoPayload is returned by Extract when a response carries no
	// delimited payload.
	ErrNoPayload = errors.New("response has no delimited payload")
	// ErrAccessDenied is returned when the API key is rejected.
	ErrAccessDenied = errors.New("invalid api key")
)

// Model is a text generation model. SetContext configures the system context
// used for every following Execute call.
type Model interface {
	SetContext(systemContext string)
	Execute(ctx context.Context, prompt string) (string, error)
}

// KeyProvider supplies the API key for a model.
type KeyProvider interface {
	APIKey() string
}

// StaticKey is a fixed API key.
type StaticKey string

func (k StaticKey) APIKey() string { return string(k) }

// EnvKey reads the API key from an environment variable on every call.
type EnvKey string

func (k EnvKey) APIKey() string { return os.Getenv(string(k)) }

// Extract returns the text between the first and the last delim in s.
func Extract(s string, delim rune) (string, error) {
	first := strings.IndexRune(s, delim)
	last := strings.LastIndex(s, string(delim))
	if first < 0 || last <= first {
		return "", ErrNoPayload
	}
	return s[first+len(string(delim)) : last], nil
}
