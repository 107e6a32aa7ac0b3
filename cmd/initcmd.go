package cmd

import (
	"github.com/spf13/cobra"

	"github.com/karimzakaria/guideflow/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize guideflow configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure guideflow and generates a .guideflow.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
