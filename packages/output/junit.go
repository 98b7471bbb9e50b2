package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/perly6185-lab/imgprobe/packages/checks"
)

// JUnitTestSuite is the root element; the whole run is one suite.
type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Time      float64         `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr,omitempty"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase is a single check.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
}

// JUnitFailure marks a failed check.
type JUnitFailure struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
}

// JUnitFormatter formats run results as JUnit XML for CI systems.
type JUnitFormatter struct {
	writer io.Writer
}

type JUnitOption func(*JUnitFormatter)

func NewJUnitFormatter(opts ...JUnitOption) *JUnitFormatter {
	f := &JUnitFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JUnitWithWriter(w io.Writer) JUnitOption {
	return func(f *JUnitFormatter) {
		f.writer = w
	}
}

func (f *JUnitFormatter) FormatSummary(summary *checks.Summary) {
	suite := JUnitTestSuite{
		Name:      "imgprobe",
		Tests:     len(summary.Results),
		Failures:  summary.Failed,
		Time:      summary.Duration.Seconds(),
		Timestamp: time.Now().Format(time.RFC3339),
		TestCases: make([]JUnitTestCase, 0, len(summary.Results)),
	}

	for _, r := range summary.Results {
		tc := JUnitTestCase{
			Name:      r.Name,
			ClassName: "imgprobe",
			Time:      r.Duration.Seconds(),
		}
		if !r.Passed {
			tc.Failure = &JUnitFailure{
				Message: "check failed",
				Type:    "CheckFailure",
			}
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	fmt.Fprintf(f.writer, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	_ = encoder.Encode(suite)
	fmt.Fprintln(f.writer)
}

func (f *JUnitFormatter) FormatError(err error) {
	// Errors surface as failed test cases
}

func (f *JUnitFormatter) FormatHeader(version, baseURL, apiKey, prompt string) {
	// No header for JUnit XML
}
