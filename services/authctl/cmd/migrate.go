package cmd

import (
	"github.com/spf13/cobra"

	"github.com/projectcancer/internal/startup"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return startup.RunMigrations(cfg.DatabaseURL())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
