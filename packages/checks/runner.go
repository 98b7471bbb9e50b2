package checks

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/perly6185-lab/imgprobe/packages/openai"
)

// Check names as they appear in diagnostics, summaries, and history.
const (
	NameURLFormat     = "url response format"
	NameB64Format     = "b64_json response format"
	NameStructure     = "response structure"
	NameErrorHandling = "error handling"
)

// Models exercised by the generation checks. The provider maps the OpenAI
// alias to its native model; the b64 check addresses the native model
// directly.
const (
	ModelOpenAIAlias    = "dall-e-3"
	ModelProviderNative = "gemini-3-pro-image-preview"

	defaultSize = "1024x1024"
)

// Result is the outcome of one check.
type Result struct {
	Name     string
	Passed   bool
	Duration time.Duration
	Err      error
}

// Summary aggregates the results of one run. Exactly one Result is appended
// per executed check.
type Summary struct {
	Results  []*Result
	Passed   int
	Failed   int
	Duration time.Duration
}

// Runner executes the check suite against a configured client.
type Runner struct {
	client *openai.Client
	prompt string
	out    io.Writer
}

type RunnerOption func(*Runner)

// WithOutput redirects diagnostic output, mainly for tests and non-console
// formatters.
func WithOutput(w io.Writer) RunnerOption {
	return func(r *Runner) {
		r.out = w
	}
}

func NewRunner(client *openai.Client, prompt string, opts ...RunnerOption) *Runner {
	r := &Runner{
		client: client,
		prompt: prompt,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the suite in fixed order: URL format, b64_json format,
// response structure, then error handling. The first three are skipped when
// skipGeneration is set; error handling always runs.
func (r *Runner) Run(ctx context.Context, skipGeneration bool) *Summary {
	start := time.Now()
	summary := &Summary{}

	if !skipGeneration {
		r.record(summary, NameURLFormat, func() bool { return r.CheckURLFormat(ctx) })
		r.record(summary, NameB64Format, func() bool { return r.CheckB64Format(ctx) })
		r.record(summary, NameStructure, func() bool { return r.CheckStructure(ctx) })
	}
	r.record(summary, NameErrorHandling, func() bool { return r.CheckErrorHandling(ctx) })

	summary.Duration = time.Since(start)
	return summary
}

func (r *Runner) record(summary *Summary, name string, check func() bool) {
	start := time.Now()
	passed := check()

	summary.Results = append(summary.Results, &Result{
		Name:     name,
		Passed:   passed,
		Duration: time.Since(start),
	})
	if passed {
		summary.Passed++
	} else {
		summary.Failed++
	}
}

func (r *Runner) banner(title string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n", divider)
	fmt.Fprintf(r.out, "%s\n", bold("Check: "+title))
	fmt.Fprintf(r.out, "%s\n", divider)
}

func (r *Runner) pass(format string, args ...any) {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(r.out, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

func (r *Runner) fail(format string, args ...any) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(r.out, "%s %s\n", red("✗"), fmt.Sprintf(format, args...))
}

func (r *Runner) warn(format string, args ...any) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(r.out, "%s %s\n", yellow("!"), fmt.Sprintf(format, args...))
}

func (r *Runner) info(format string, args ...any) {
	fmt.Fprintf(r.out, "  %s\n", fmt.Sprintf(format, args...))
}

func (r *Runner) verdict(name string, passed bool) {
	if passed {
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintf(r.out, "\n%s\n", green(fmt.Sprintf("✓ check passed: %s", name)))
	} else {
		red := color.New(color.FgRed).SprintFunc()
		fmt.Fprintf(r.out, "\n%s\n", red(fmt.Sprintf("✗ check failed: %s", name)))
	}
}

const divider = "============================================================"

// truncate shortens s for display, appending an ellipsis when cut.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
