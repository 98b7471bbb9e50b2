package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/perly6185-lab/imgprobe/packages/mock"
)

var (
	mockPortFlag     int
	mockDelayFlag    string
	mockFixturesFlag string
	mockWatchFlag    bool
	mockVerboseFlag  int
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Start a local mock image-generation server",
	Long: `Start an HTTP server that speaks the OpenAI images API, for running
the check suite without a live backend.

The mock server:
- serves POST /v1/images/generations
- rejects missing bearer tokens and empty prompts with OpenAI-style errors
- returns a real PNG as a data URL or base64, honoring n and response_format
- can serve per-model fixture images from a directory of JSON files

Examples:
  imgprobe mock
  imgprobe mock --port 8999 --delay 100ms
  imgprobe mock --fixtures ./fixtures --watch`,
	RunE: mockCommand,
}

func init() {
	mockCmd.Flags().IntVarP(&mockPortFlag, "port", "p", 8999, "Port to run the mock server on")
	mockCmd.Flags().StringVarP(&mockDelayFlag, "delay", "d", "0", "Delay to add to all responses (e.g., 100ms, 1s)")
	mockCmd.Flags().StringVar(&mockFixturesFlag, "fixtures", "", "Directory of per-model fixture JSON files")
	mockCmd.Flags().BoolVarP(&mockWatchFlag, "watch", "w", false, "Reload fixtures when files change")
	mockCmd.Flags().CountVarP(&mockVerboseFlag, "verbose", "v", "Verbose output (-v for debug, -vv for trace)")
}

func mockCommand(cmd *cobra.Command, args []string) error {
	switch mockVerboseFlag {
	case 0:
	case 1:
		Logger.SetLevel(logrus.DebugLevel)
	default:
		Logger.SetLevel(logrus.TraceLevel)
	}

	var delay time.Duration
	if mockDelayFlag != "0" {
		var err error
		delay, err = time.ParseDuration(mockDelayFlag)
		if err != nil {
			return fmt.Errorf("invalid delay value %q: %w", mockDelayFlag, err)
		}
	}

	opts := []mock.Option{
		mock.WithPort(mockPortFlag),
		mock.WithDelay(delay),
		mock.WithLogger(Logger),
	}

	if mockFixturesFlag != "" {
		fixtures, err := mock.NewFixtureSet(mockFixturesFlag, Logger)
		if err != nil {
			return fmt.Errorf("loading fixtures: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d fixtures from %s\n", fixtures.Len(), mockFixturesFlag)
		opts = append(opts, mock.WithFixtures(fixtures))

		if mockWatchFlag {
			go func() {
				if err := fixtures.Watch(); err != nil {
					Logger.Warnf("fixture watcher stopped: %v", err)
				}
			}()
		}
	} else if mockWatchFlag {
		return fmt.Errorf("--watch requires --fixtures")
	}

	server := mock.NewServer(opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down mock server...")
		cancel()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Mock image API listening on http://localhost:%d\n", mockPortFlag)
	return server.StartWithContext(ctx)
}
