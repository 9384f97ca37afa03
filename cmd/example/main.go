// Command example is the project's Example entry point: it greets, reports
// the language release it was built for and runs a short generated quiz.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"

	"github.com/structra/assignment/pkg/llm"
	"github.com/structra/assignment/pkg/quiz"
)

// options holds the parsed command line.
type options struct {
	Questions int
	Seed      uint64
	Online    bool
	Model     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the entry point and returns its exit code.
func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	opts, err := parseFlags(args, errOut)
	if err != nil {
		return 2
	}

	_, _ = fmt.Fprintln(out, "Hello World!")
	if release := os.Getenv("STRUCTRA_RELEASE"); release != "" {
		_, _ = fmt.Fprintf(out, "Built for release %s.\n", release)
	}
	if opts.Questions == 0 {
		return 0
	}

	model, err := newModel(opts)
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "example: %v\n", err)
		return 1
	}
	targets, err := llm.NewSeededTargetProvider(opts.Seed, llm.NewOpenQuestionTarget(prompt(opts)))
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "example: %v\n", err)
		return 1
	}
	provider, err := llm.NewModelQuestionProvider(model, targets, opts.Questions)
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "example: %v\n", err)
		return 1
	}

	for n := 1; provider.HasNext(); n++ {
		q, err := provider.Next(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "example: %v\n", err)
			return 1
		}
		printQuestion(out, n, q)
	}
	return 0
}

func parseFlags(args []string, errOut io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("example", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.IntVar(&opts.Questions, "questions", 3, "Number of quiz questions to generate (0 to skip the quiz)")
	fs.Uint64Var(&opts.Seed, "seed", 0, "Random seed; 0 picks one")
	fs.BoolVar(&opts.Online, "online", false, "Generate questions with the chat completions API (needs OPENAI_API_KEY)")
	fs.StringVar(&opts.Model, "model", string(llm.GPT35Turbo), "Chat model used with -online")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.Questions < 0 {
		_, _ = fmt.Fprintln(errOut, "-questions must not be negative")
		return opts, flag.ErrHelp
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Uint64() // #nosec G404
	}
	return opts, nil
}

func newModel(opts options) (llm.Model, error) {
	if opts.Online {
		return llm.NewChatModel(llm.EnvKey("OPENAI_API_KEY"), llm.WithVersion(llm.ModelVersion(opts.Model)))
	}
	// The offline model rejects every key but its own.
	return llm.NewMimic(llm.StaticKey(llm.MimicKey),
		llm.WithRand(rand.New(rand.NewPCG(opts.Seed, opts.Seed))), // #nosec G404
		llm.WithFailureRate(llm.DefaultFailureRate))
}

func prompt(opts options) string {
	if opts.Online {
		return llm.DefaultPrompt
	}
	return llm.OpenAnswerPrompt
}

func printQuestion(out io.Writer, n int, q quiz.Question) {
	_, _ = fmt.Fprintf(out, "\nQuestion %d (%s, %d points)\n", n, q.Type().DisplayName(), q.PointsPossible())
	_, _ = fmt.Fprintf(out, "  %s\n", q.Text())
	for _, a := range q.Answers() {
		switch a := a.(type) {
		case *quiz.TextAnswer:
			_, _ = fmt.Fprintf(out, "  Answer: %s\n", a.Expected())
		case *quiz.BooleanAnswer:
			mark := " "
			if a.Expected() {
				mark = "x"
			}
			_, _ = fmt.Fprintf(out, "  [%s] %s\n", mark, a.Text())
		}
	}
	if e := strings.TrimSpace(q.Explanation()); e != "" {
		_, _ = fmt.Fprintf(out, "  %s\n", e)
	}
}
