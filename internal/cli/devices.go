package cli

import (
	"fmt"

	"github.com/0xlemi/looper/internal/audio"
	"github.com/spf13/cobra"
)

var devicesAll bool

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio devices",
	Long: `List the audio devices PortAudio can open. Device names can be passed
to --input and --output or set in the config file.

By default only devices with at least two input or output channels are
shown.

Example:
  looper devices
  looper devices --all`,
	Args: cobra.NoArgs,
	RunE: runDevices,
}

func init() {
	devicesCmd.Flags().BoolVar(&devicesAll, "all", false, "Also list devices with fewer than two channels")
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, _ []string) error {
	devices, err := audio.ListDevices()
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	printDevices(cmd, devices, devicesAll)
	return nil
}

func printDevices(cmd *cobra.Command, devices []audio.Device, all bool) {
	out := cmd.OutOrStdout()

	shown := 0
	for _, d := range devices {
		if !all && !d.Usable() {
			continue
		}
		shown++

		marker := " "
		switch {
		case d.DefaultInput && d.DefaultOutput:
			marker = "*"
		case d.DefaultInput:
			marker = "<"
		case d.DefaultOutput:
			marker = ">"
		}

		fmt.Fprintf(out, "%s %s\n", marker, d.Name)
		fmt.Fprintf(out, "    Host API:    %s\n", d.HostAPI)
		fmt.Fprintf(out, "    Channels:    %d in, %d out\n", d.MaxInputChannels, d.MaxOutputChannels)
		fmt.Fprintf(out, "    Sample rate: %.0f Hz\n", d.DefaultSampleRate)
		fmt.Fprintf(out, "    Latency:     %s in, %s out\n", d.DefaultLowInputLatency, d.DefaultLowOutputLatency)
	}

	if shown == 0 {
		fmt.Fprintln(out, "No audio devices found.")
		return
	}
	fmt.Fprintln(out, "\n(* default input and output, < default input, > default output)")
}
