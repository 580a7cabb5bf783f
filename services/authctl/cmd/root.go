package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/projectcancer/internal/config"
	"github.com/projectcancer/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "authctl",
	Short: "Maintenance commands for the auth service",
	Long: `authctl applies schema migrations, removes expired sessions and prints bcrypt hashes.
Configuration is read the same way as the auth service (config/auth.yaml, .env, environment).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetPrefix("authctl")
	},
}

func Execute() {
	err := rootCmd.Execute()
	logger.Flush(time.Second)
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig: конфигурация auth-сервиса с уровнем логирования из неё.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.SetLevel(cfg.LogLevel)
	return cfg, nil
}
