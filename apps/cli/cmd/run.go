package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/perly6185-lab/imgprobe/packages/checks"
	"github.com/perly6185-lab/imgprobe/packages/config"
	"github.com/perly6185-lab/imgprobe/packages/history"
	"github.com/perly6185-lab/imgprobe/packages/openai"
	"github.com/perly6185-lab/imgprobe/packages/output"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the check suite against a live server",
	Long: `Run the four smoke-test checks against an OpenAI-compatible
image-generation API.

Examples:
  imgprobe run
  imgprobe run --base-url http://localhost:8999 --api-key your-key
  imgprobe run --skip-generation
  imgprobe run --output junit --output-file report.xml

Configuration falls back from flags to environment variables
(PROXYCAST_BASE_URL, PROXYCAST_API_KEY) to an optional imgprobe.yaml to
built-in defaults. A .env file in the working directory is honored.`,
	RunE: runCommand,
}

var (
	baseURLFlag        string
	apiKeyFlag         string
	promptFlag         string
	skipGenerationFlag bool
	configFlag         string
	timeoutFlag        string
	outputFlag         string
	outputFileFlag     string
	noColorFlag        bool
	rpsFlag            float64
	historyDBFlag      string
	verboseFlag        int
)

func init() {
	runCmd.Flags().StringVar(&baseURLFlag, "base-url", "", "API server address (env: PROXYCAST_BASE_URL)")
	runCmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "API key (env: PROXYCAST_API_KEY)")
	runCmd.Flags().StringVar(&promptFlag, "prompt", "", "Prompt used by the generation checks")
	runCmd.Flags().BoolVar(&skipGenerationFlag, "skip-generation", false, "Skip generation checks, run only error handling")
	runCmd.Flags().StringVar(&configFlag, "config", "", "Path to config file (default: imgprobe.yaml if present)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", "30s", "Request timeout (e.g., 30s, 1m)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", "console", "Output format: console, json, junit")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", "", "Write output to file (default: stdout)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
	runCmd.Flags().Float64Var(&rpsFlag, "rps", 0, "Client-side request rate limit (0 = unlimited)")
	runCmd.Flags().StringVar(&historyDBFlag, "history-db", "", "Record this run to a SQLite history database")
	runCmd.Flags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output (-v for debug, -vv for trace)")
}

// Formatter renders a finished run.
type Formatter interface {
	FormatSummary(summary *checks.Summary)
	FormatError(err error)
	FormatHeader(version, baseURL, apiKey, prompt string)
}

func runCommand(cmd *cobra.Command, args []string) error {
	switch verboseFlag {
	case 0:
	case 1:
		Logger.SetLevel(logrus.DebugLevel)
	default:
		Logger.SetLevel(logrus.TraceLevel)
	}

	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return err
	}

	lookup := func(key string) (string, bool) { return os.LookupEnv(key) }
	baseURL := config.ResolveChain(baseURLFlag, lookup, config.EnvBaseURL, fileConfig.BaseURL, config.DefaultBaseURL)
	apiKey := config.ResolveChain(apiKeyFlag, lookup, config.EnvAPIKey, fileConfig.APIKey, config.DefaultAPIKey)
	prompt := promptFlag
	if prompt == "" {
		prompt = fileConfig.Prompt
	}
	if prompt == "" {
		prompt = config.DefaultPrompt
	}

	timeoutValue := timeoutFlag
	if !cmd.Flags().Changed("timeout") && fileConfig.Timeout != "" {
		timeoutValue = fileConfig.Timeout
	}
	timeout, err := time.ParseDuration(timeoutValue)
	if err != nil {
		return fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutValue, err)
	}

	var outWriter *os.File
	if outputFileFlag != "" {
		outWriter, err = os.Create(outputFileFlag)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer outWriter.Close()
	}

	noColor := noColorFlag || fileConfig.GetNoColor()

	var formatter Formatter
	switch strings.ToLower(outputFlag) {
	case "json":
		opts := []output.JSONOption{}
		if outWriter != nil {
			opts = append(opts, output.JSONWithWriter(outWriter))
		}
		formatter = output.NewJSONFormatter(opts...)
	case "junit":
		opts := []output.JUnitOption{}
		if outWriter != nil {
			opts = append(opts, output.JUnitWithWriter(outWriter))
		}
		formatter = output.NewJUnitFormatter(opts...)
	default: // "console"
		opts := []output.ConsoleOption{output.WithNoColor(noColor)}
		if outWriter != nil {
			opts = append(opts, output.WithWriter(outWriter))
		}
		formatter = output.NewConsoleFormatter(opts...)
	}

	formatter.FormatHeader(version, baseURL, apiKey, prompt)

	clientOpts := []openai.ClientOption{
		openai.WithTimeout(timeout),
		openai.WithUserAgent("imgprobe/" + version),
	}
	if rpsFlag > 0 {
		clientOpts = append(clientOpts, openai.WithRateLimit(rpsFlag))
	}
	if verboseFlag > 0 {
		clientOpts = append(clientOpts, openai.WithLogger(Logger))
	}
	client := openai.NewClient(baseURL, apiKey, clientOpts...)

	// Check diagnostics go to stderr when stdout carries machine output.
	runnerOpts := []checks.RunnerOption{}
	if strings.ToLower(outputFlag) != "console" && outWriter == nil {
		runnerOpts = append(runnerOpts, checks.WithOutput(os.Stderr))
	}
	runner := checks.NewRunner(client, prompt, runnerOpts...)

	startedAt := time.Now()
	summary := runner.Run(context.Background(), skipGenerationFlag)

	formatter.FormatSummary(summary)

	if historyDBFlag != "" {
		store, err := history.Open(historyDBFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		} else {
			defer store.Close()
			if _, err := store.RecordRun(summary, baseURL, startedAt); err != nil {
				fmt.Fprintf(os.Stderr, "warning: recording run: %v\n", err)
			}
		}
	}

	if summary.Failed > 0 {
		os.Exit(1)
	}
	return nil
}
