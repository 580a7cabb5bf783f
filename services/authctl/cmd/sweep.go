package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/projectcancer/internal/repository"
	"github.com/projectcancer/internal/service"
	"github.com/projectcancer/internal/startup"
	"github.com/projectcancer/internal/token"
)

var sweepWait time.Duration

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete sessions whose refresh token has expired",
	Long: `Runs one pass of the expired-session sweeper. Use it from cron when the service
runs with session_sweep_interval=0.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pool, err := startup.ConnectDB(cmd.Context(), cfg.DatabaseURL(), 2, sweepWait)
		if err != nil {
			return err
		}
		defer pool.Close()

		codec := token.NewCodec(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
		sessions := service.NewSessionManager(repository.NewClientRepository(pool), repository.NewSessionRepository(pool), codec, nil, nil)
		n, err := sessions.SweepExpired(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired sessions\n", n)
		return nil
	},
}

func init() {
	sweepCmd.Flags().DurationVar(&sweepWait, "wait", 10*time.Second, "how long to wait for the database")
	rootCmd.AddCommand(sweepCmd)
}
