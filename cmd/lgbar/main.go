// Lgbar is a network control utility for LG soundbars.
//
// It speaks the encrypted TCP control protocol the vendor mobile app
// uses, so it works over the local network without hardware modification.
// The tool provides device discovery, direct control commands, a live
// WebSocket event bridge, and an interactive dashboard.
//
// Usage:
//
//	lgbar [command] [flags]
//
// Running without arguments launches the interactive dashboard.
// See 'lgbar --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmholter/lgbar/internal/logging"
	"github.com/tmholter/lgbar/internal/soundbar"
	"github.com/tmholter/lgbar/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lgbar",
	Short: "LG Soundbar Control Utility",
	Long: `A standalone utility for controlling LG soundbars over the network.

Provides device discovery, direct control commands (volume, mute, input,
sound mode, settings), raw device info panels, a WebSocket event bridge,
and an interactive dashboard.

If no command is specified, the interactive dashboard will launch
automatically.`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.InitializeFromEnv()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the dashboard when no subcommand provided
		return runDashboard(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "Device IP address or hostname (skips discovery)")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", soundbar.DefaultPort, "Device control port")
	rootCmd.PersistentFlags().StringVar(&flagDevice, "name", "", "Saved device name from the registry")
	rootCmd.PersistentFlags().IntVar(&flagTimeout, "timeout", 5, "Command timeout in seconds")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lgbar %s (commit: %s)\n", version.Version, version.Commit)
	},
}
