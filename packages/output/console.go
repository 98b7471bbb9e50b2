package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/perly6185-lab/imgprobe/packages/checks"
)

type ConsoleFormatter struct {
	writer  io.Writer
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatSummary(summary *checks.Summary) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Summary"))

	for _, r := range summary.Results {
		symbol := green("✓")
		if !r.Passed {
			symbol = red("✗")
		}
		fmt.Fprintf(f.writer, "  %s %s %s\n", symbol, r.Name, cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Checks: ")
	if summary.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", summary.Passed)))
	}
	if summary.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", summary.Failed)))
	}
	fmt.Fprintf(f.writer, "%d total\n", len(summary.Results))
	fmt.Fprintf(f.writer, "Time:  %dms\n", summary.Duration.Milliseconds())

	if summary.Failed == 0 {
		fmt.Fprintf(f.writer, "\n%s\n", green("All checks passed!"))
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version, baseURL, apiKey, prompt string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("imgprobe"), version)
	fmt.Fprintf(f.writer, "API address: %s\n", baseURL)
	fmt.Fprintf(f.writer, "API key:     %s\n", maskKey(apiKey))
	fmt.Fprintf(f.writer, "Prompt:      %s\n", truncate(prompt, 50))
}

// maskKey keeps the first 8 characters of a credential for display.
func maskKey(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8] + "..."
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
