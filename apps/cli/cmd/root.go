package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/perly6185-lab/imgprobe/packages/config"
)

var (
	version   = "dev"
	buildTime = "unknown"

	// Logger is the shared debug logger for all commands. Normal program
	// output goes to stdout; the logger carries transport-level detail on
	// stderr behind --verbose.
	Logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "imgprobe",
	Short: "Smoke-test an OpenAI-compatible image-generation API",
	Long: `imgprobe runs a fixed suite of checks against a live image-generation
server (URL response format, b64_json response format, response structure,
and error handling), prints human-readable diagnostics, and exits non-zero
when any check fails.`,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	config.LoadDotenv()

	Logger = logrus.New()
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.WarnLevel)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(mockCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
