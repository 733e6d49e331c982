package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "qsim",
	Short: "qsim - dense state-vector simulator running the Deutsch-Jozsa algorithm",
	Long: `qsim simulates small quantum registers on a dense amplitude vector.

It builds the Deutsch-Jozsa circuit around a constant or balanced oracle,
samples the input register and decides from the counts whether the oracle
function was constant or balanced.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default: built-in defaults)")

	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
