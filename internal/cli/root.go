package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var flags sessionFlags

var rootCmd = &cobra.Command{
	Use:   "looper",
	Short: "Two-channel audio looper",
	Long: `Looper records a stereo input into memory and plays it back in an
endless loop.

Each key press advances the transport:
  not started -> recording -> looping -> stopping

While not started the input is passed straight through. While recording it
is appended to the loop (and monitored unless --record-output=silence).
Looping plays the recording back until the next key stops the session.

Example:
  looper
  looper --backend sim --headless
  looper --config looper.yaml --record-output silence`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSession,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("looper version {{.Version}}\n")
	flags.register(rootCmd.Flags())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
