package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structra/assignment/pkg/quiz"
)

func newMimic(t *testing.T, opts ...MimicOption) *Mimic {
	t.Helper()
	opts = append([]MimicOption{WithRand(rand.New(rand.NewPCG(1, 2))), WithFailureRate(0)}, opts...)
	m, err := NewMimic(StaticKey(MimicKey), opts...)
	require.NoError(t, err)
	return m
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "wrapped", in: `$ {"a":1} $`, want: ` {"a":1} `},
		{name: "surrounding text", in: "Sure! $x$ Enjoy.", want: "x"},
		{name: "inner delimiter kept", in: "$a$b$", want: "a$b"},
		{name: "single delimiter", in: "$abc", wantErr: true},
		{name: "none", in: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.in, DefaultDelimiter)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNoPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMimic_Execute_RejectsWrongKey(t *testing.T) {
	m, err := NewMimic(StaticKey("sk-wrong"))
	require.NoError(t, err)

	_, err = m.Execute(context.Background(), OpenAnswerPrompt)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestMimic_Execute_IndexedPromptReturnsThatEntry(t *testing.T) {
	m := newMimic(t)

	out, err := m.Execute(context.Background(), "give me [0][3] or rather [1][1]")
	require.NoError(t, err)

	payload, err := Extract(out, DefaultDelimiter)
	require.NoError(t, err)
	assert.NotContains(t, payload, "\n")
	assert.Contains(t, payload, `"Expected":"Au"`)
}

func TestMimic_Execute_Errors(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
	}{
		{name: "index beyond pool", prompt: "[2][45]"},
		{name: "unknown prompt", prompt: "tell me a joke"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newMimic(t).Execute(context.Background(), tt.prompt)
			require.ErrorIs(t, err, ErrGeneration)
		})
	}
}

func TestMimic_Execute_FailsAtFailureRate(t *testing.T) {
	m := newMimic(t, WithFailureRate(1))
	_, err := m.Execute(context.Background(), MultipleChoicePrompt)
	require.ErrorIs(t, err, ErrGeneration)
}

func TestMimic_Execute_BlankPromptReturnsDelimitedJSON(t *testing.T) {
	m := newMimic(t)
	for range 20 {
		out, err := m.Execute(context.Background(), "  ")
		require.NoError(t, err)
		payload, err := Extract(out, DefaultDelimiter)
		require.NoError(t, err)
		assert.True(t, json.Valid([]byte(payload)), payload)
	}
}

func TestOpenQuestionTarget_Parse_MimicOpenAnswer(t *testing.T) {
	m := newMimic(t)
	target := NewOpenQuestionTarget(OpenAnswerPrompt)

	out, err := m.Execute(context.Background(), "[1][0]")
	require.NoError(t, err)
	payload, err := Extract(out, DefaultDelimiter)
	require.NoError(t, err)

	q, err := target.Parse(payload)
	require.NoError(t, err)

	oa, ok := q.(*quiz.OpenAnswerQuestion)
	require.True(t, ok)
	assert.Equal(t, "Which JVM component reclaims memory of unreachable objects?", oa.Text())
	assert.EqualValues(t, 2, oa.PointsPossible())
	oa.Answer().SetInput("garbage collector")
	assert.True(t, oa.Answer().Correct())
}

func TestOpenQuestionTarget_Parse_ReturnsErrorQuestionOnBadPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: "nope"},
		{name: "nonsense", payload: `{"Quest": "banana", "Answers": 7}`},
		{name: "missing explanation", payload: `{"Questions": {"Text": "q", "Difficulty": 0.1, "PointsPossible": 1}, "Answers": {"Text": "a", "Expected": "b"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := NewOpenQuestionTarget(DefaultPrompt).Parse(tt.payload)
			require.Error(t, err)
			require.NotNil(t, q)
			assert.Equal(t, "Error in question generation", q.Explanation())
			assert.Equal(t, "ok", q.Answers()[0].Text())
		})
	}
}

func TestOpenQuestionTarget_Context_DescribesFormat(t *testing.T) {
	ctx := NewOpenQuestionTarget(DefaultPrompt).Context()

	assert.True(t, strings.HasPrefix(ctx, "Consider the following context: EXCLUSIVELY return JSON"))
	assert.Contains(t, ctx, `${"Questions": {"Text": string, "Difficulty": double, "PointsPossible": long, "Explanation": string}, "Answers": {"Text": string, "Expected": string}}$. `)
	assert.True(t, strings.HasSuffix(ctx, "It should not contain what this questions aims to achieve"))
}

type staticFragment string

func (s staticFragment) Context() string { return string(s) }

func TestContextBuilder_Build_RawBeforeFragments(t *testing.T) {
	got := new(ContextBuilder).
		Add(staticFragment("F1 ")).
		AddRaw("R1 ").
		Add(staticFragment("F2")).
		AddRaw("R2 ").
		Build()

	assert.Equal(t, "Consider the following context: R1 R2 F1 F2", got)
}

func TestGenericContext_SeedsDifferEachRender(t *testing.T) {
	seed := regexp.MustCompile(`seed: ([0-9a-f-]{36})\.`)

	first := seed.FindStringSubmatch(Uniqueness.Context())
	second := seed.FindStringSubmatch(Uniqueness.Context())

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.NotEqual(t, first[1], second[1])
}

func TestLanguageName(t *testing.T) {
	tests := map[string]string{
		"":            "English",
		"C":           "English",
		"POSIX":       "English",
		"de_DE.UTF-8": "German",
		"fr":          "French",
		"en_US@euro":  "English",
		"!!":          "English",
	}
	for in, want := range tests {
		assert.Equal(t, want, languageName(in), in)
	}
}

func TestGenericContext_LanguageUsesLocale(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "es_ES.UTF-8")

	assert.Equal(t, "Language of your response MUST BE: Spanish. ", Language.Context())
}

func TestChatModel_Execute_SendsContextAndHistory(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []chatRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req chatRequest
		body, _ := io.ReadAll(r.Body)
		if !assert.NoError(t, json.Unmarshal(body, &req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		requests = append(requests, req)
		n := len(requests)
		mu.Unlock()

		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"reply `+string(rune('0'+n))+`"}}]}`)
	}))
	defer srv.Close()

	m, err := NewChatModel(StaticKey("sk-test"), WithEndpoint(srv.URL), WithVersion(GPT4o), WithTemperature(TemperatureHigh))
	require.NoError(t, err)
	m.SetContext("be brief")

	got, err := m.Execute(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, "reply 1", got)

	got, err = m.Execute(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, "reply 2", got)

	require.Len(t, requests, 2)
	assert.Equal(t, GPT4o, requests[1].Model)
	assert.InDelta(t, 0.8, float64(requests[1].Temperature), 1e-9)
	assert.Equal(t, []message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "reply 1"},
		{Role: RoleUser, Content: "second"},
	}, requests[1].Messages)
	assert.Equal(t, []string{"user: first", "assistant: reply 1", "user: second", "assistant: reply 2"}, m.History())
}

func TestChatModel_Execute_StatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantIs  error
		wantMsg string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantIs: ErrAccessDenied},
		{name: "not found", status: http.StatusNotFound, wantMsg: "endpoint not found"},
		{name: "api error", status: http.StatusTooManyRequests, body: `{"error":{"message":"slow down"}}`, wantMsg: "slow down"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantMsg: "no choices"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			m, err := NewChatModel(StaticKey("k"), WithEndpoint(srv.URL))
			require.NoError(t, err)

			_, err = m.Execute(context.Background(), "hi")
			require.Error(t, err)
			if tt.wantIs != nil {
				require.ErrorIs(t, err, tt.wantIs)
			}
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestRandomTargetProvider(t *testing.T) {
	_, err := NewRandomTargetProvider()
	require.Error(t, err)

	_, err = NewRandomTargetProvider(nil)
	require.Error(t, err)

	a, b := NewOpenQuestionTarget("a"), NewOpenQuestionTarget("b")
	p, err := NewSeededTargetProvider(7, a, b)
	require.NoError(t, err)

	seen := map[string]bool{}
	for range 50 {
		seen[p.Provide().BasePrompt()] = true
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, seen)
}

type scriptedModel struct {
	replies []string
	errs    []error
	context string
	prompts []string
}

func (m *scriptedModel) SetContext(s string) { m.context = s }

func (m *scriptedModel) Execute(_ context.Context, prompt string) (string, error) {
	i := len(m.prompts)
	m.prompts = append(m.prompts, prompt)
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	return m.replies[i], nil
}

func TestModelQuestionProvider_ServesUpToLimit(t *testing.T) {
	const good = `${"Questions": {"Text": "2+2?", "Difficulty": 0.1, "PointsPossible": 1, "Explanation": "Arithmetic."}, "Answers": {"Text": "Sum", "Expected": "4"}}$`
	model := &scriptedModel{
		replies: []string{good, "", "no payload", good},
		errs:    []error{nil, errors.New("boom"), nil, nil},
	}
	targets, err := NewRandomTargetProvider(NewOpenQuestionTarget(DefaultPrompt))
	require.NoError(t, err)

	p, err := NewModelQuestionProvider(model, targets, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, p.MaxProvisions())

	ctx := context.Background()

	q, err := p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2+2?", q.Text())
	assert.Contains(t, model.context, "EXCLUSIVELY return JSON")
	assert.Equal(t, DefaultPrompt, model.prompts[0])

	q, err = p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Error in question generation", q.Explanation())

	q, err = p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Error in question generation", q.Explanation())

	assert.False(t, p.HasNext())
	_, err = p.Next(ctx)
	require.ErrorIs(t, err, ErrExhausted)

	p.Reset()
	assert.True(t, p.HasNext())
	q, err = p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2+2?", q.Text())
}

func TestModelQuestionProvider_Infinite(t *testing.T) {
	targets, err := NewRandomTargetProvider(NewOpenQuestionTarget(OpenAnswerPrompt))
	require.NoError(t, err)
	p, err := NewModelQuestionProvider(newMimic(t), targets, -5)
	require.NoError(t, err)

	assert.Equal(t, Infinite, p.MaxProvisions())
	for range 10 {
		require.True(t, p.HasNext())
		q, err := p.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, quiz.OpenAnswer, q.Type())
		assert.NotEqual(t, "Error in question generation", q.Explanation())
	}
}

func TestModelQuestionProvider_Next_ReturnsContextError(t *testing.T) {
	targets, err := NewRandomTargetProvider(NewOpenQuestionTarget(OpenAnswerPrompt))
	require.NoError(t, err)
	p, err := NewModelQuestionProvider(newMimic(t), targets, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, p.HasNext())
}
