// Nsqwire encodes and decodes the NSQ V2 TCP wire protocol.
//
// It builds client commands, decodes captured server byte streams and
// synthesizes server frames for fixtures. It does not open connections.
//
// Usage:
//
//	nsqwire [command] [flags]
//
// See 'nsqwire --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/nsqwire/internal/logging"
	"github.com/muurk/nsqwire/internal/version"
)

var logLevel string

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "nsqwire",
	Short: "NSQ wire protocol codec utility",
	Long: `Encode and decode the NSQ V2 TCP wire protocol.

Builds client commands (SUB, RDY, FIN, PUB, ...), decodes captured server
byte streams into responses, errors, heartbeats and messages, and
synthesizes server frames for test fixtures.

Set NSQWIRE_LOG_LEVEL or --log-level to trace frames on stderr.`,
	Version:      version.Full(),
	SilenceUsage: true,
	Example: `  # Encode a subscription
  nsqwire encode sub events archive

  # Decode a capture and browse it
  nsqwire decode capture.bin --interactive

  # Build a message frame for a test fixture
  nsqwire frame message "hello" --raw > message.bin`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "nsqwire %s (commit: %s, %s, %s)\n",
			info.Version, info.Commit, info.GoVersion, info.Platform)
	},
}
