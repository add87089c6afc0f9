package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "divapi",
	Short: "Admission gateway for the dividend analysis API",
	Long: `Divapi is the admission layer for the high-yield dividend analysis API.

It terminates HTTP, authenticates API keys, meters tiered request quotas
across minute/hour/day windows, throttles brute-force attempts on the auth
endpoints and rate-guards the health probes.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
