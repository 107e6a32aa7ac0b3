package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "guideflow",
	Short: "Guided reflection dialogue engine",
	Long: `Guideflow runs a fixed multi-phase guided reflection protocol: it walks
each session from topic intake through grounding, detail exploration and
integration to a close, grounding its replies in a labeled corpus of
reference exchanges. It serves sessions over HTTP, over MCP for AI agent
hosts, or interactively in the terminal.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".guideflow.yml", "config file path")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
