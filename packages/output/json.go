package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/perly6185-lab/imgprobe/packages/checks"
)

// JSONOutput is the complete machine-readable run report.
type JSONOutput struct {
	Summary  JSONSummary `json:"summary"`
	Checks   []JSONCheck `json:"checks"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary holds the aggregate counts.
type JSONSummary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// JSONCheck is a single check outcome.
type JSONCheck struct {
	Name     string  `json:"name"`
	Passed   bool    `json:"passed"`
	Duration float64 `json:"duration"`
}

// JSONFormatter formats run results as JSON.
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatSummary(summary *checks.Summary) {
	out := JSONOutput{
		Summary: JSONSummary{
			Total:  len(summary.Results),
			Passed: summary.Passed,
			Failed: summary.Failed,
		},
		Checks:   make([]JSONCheck, 0, len(summary.Results)),
		Duration: float64(summary.Duration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	for _, r := range summary.Results {
		out.Checks = append(out.Checks, JSONCheck{
			Name:     r.Name,
			Passed:   r.Passed,
			Duration: float64(r.Duration.Milliseconds()),
		})
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(out)
}

func (f *JSONFormatter) FormatError(err error) {
	_ = json.NewEncoder(f.writer).Encode(map[string]string{"error": err.Error()})
}

func (f *JSONFormatter) FormatHeader(version, baseURL, apiKey, prompt string) {
	// No header for JSON output
}
