package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/lanternhealth/enforcement-cli/internal/model"
)

var (
	processURL string
	processID  string
)

var processCmd = &cobra.Command{
	Use:   "process <pdf-file>",
	Short: "Run the extraction pipeline on a single local PDF",
	Long:  "Extracts, scores, validates, and stores one document, then prints the resulting record as JSON. Useful for debugging extraction against a downloaded notice.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pdf, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read %s", args[0])
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		// The document identity comes from the source URL when known,
		// otherwise from the local path.
		url := processURL
		if url == "" {
			url = "file://" + args[0]
		}
		doc := model.NewDocumentReference(url, time.Now().UTC())
		if processID != "" {
			doc.ID = processID
		}

		res, err := env.pipeline.Process(ctx, doc, pdf, nil)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(res.Record, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal record")
		}
		cmd.Println(string(out))
		return nil
	},
}

func init() {
	processCmd.Flags().StringVar(&processURL, "url", "", "source URL of the document (sets its stable ID)")
	processCmd.Flags().StringVar(&processID, "id", "", "override the derived document ID")
	rootCmd.AddCommand(processCmd)
}
