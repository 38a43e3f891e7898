package main

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/lanternhealth/enforcement-cli/internal/model"
)

var (
	recordsDays int
	recordsMin  int
	recordsHigh bool
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List stored enforcement records as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var recs []model.EnforcementRecord
		if recordsHigh {
			recs, err = env.store.ListHighPriority(ctx, recordsMin)
		} else {
			since := time.Now().UTC().AddDate(0, 0, -recordsDays)
			recs, err = env.store.ListRecent(ctx, since)
		}
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(recs, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal records")
		}
		cmd.Println(string(out))
		return nil
	},
}

func init() {
	recordsCmd.Flags().IntVar(&recordsDays, "days", 30, "list records created in the last N days")
	recordsCmd.Flags().BoolVar(&recordsHigh, "high", false, "list high-priority records instead of recent ones")
	recordsCmd.Flags().IntVar(&recordsMin, "min", 70, "minimum priority score with --high")
	rootCmd.AddCommand(recordsCmd)
}
