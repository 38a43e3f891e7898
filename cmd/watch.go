package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lanternhealth/enforcement-cli/internal/schedule"
)

var watchRunNow bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run monitoring passes on the configured schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sched, err := schedule.NewScheduler(cfg.Schedule)
		if err != nil {
			return err
		}

		if watchRunNow {
			if err := env.checkOnce(ctx); err != nil {
				zap.L().Error("watch: initial check failed", zap.Error(err))
			}
		}

		err = sched.Run(ctx, env.checkOnce)
		if errors.Is(err, context.Canceled) {
			zap.L().Info("watch: stopped")
			return nil
		}
		return err
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchRunNow, "now", false, "run a check immediately before waiting for the schedule")
	rootCmd.AddCommand(watchCmd)
}
