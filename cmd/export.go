package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lanternhealth/enforcement-cli/internal/export"
)

var (
	exportOut  string
	exportDays int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recent records to an xlsx report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		since := time.Now().UTC().AddDate(0, 0, -exportDays)
		recs, err := env.store.ListRecent(ctx, since)
		if err != nil {
			return err
		}

		if err := export.WriteXLSX(exportOut, recs); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("path", exportOut),
			zap.Int("records", len(recs)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "enforcement-report.xlsx", "output file path")
	exportCmd.Flags().IntVar(&exportDays, "days", 90, "include records created in the last N days")
	rootCmd.AddCommand(exportCmd)
}
