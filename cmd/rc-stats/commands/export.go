package commands

import (
	"bytes"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"rc-stats/internal/app"
	"rc-stats/internal/ords"
)

var (
	exportFrom    string
	exportTo      string
	exportOut     string
	exportPublish bool
	exportKey     string
)

var exportCmd = &cobra.Command{
	Use:   "export-ords",
	Short: "Export repair records in the Open Repair Data Standard CSV format",
	Long: `Writes every registered and externally provided repair record of the events held
between --from and --to as ORDS CSV, to stdout, to --out, or to the configured
S3 bucket with --publish.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		keys, err := theApp.Resolve(ctx, app.Selection{From: exportFrom, To: exportTo})
		if err != nil {
			return err
		}
		rows, err := theApp.Exporter().Rows(ctx, keys)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := ords.WriteCSV(&buf, rows); err != nil {
			return err
		}

		if exportPublish {
			pub, err := theApp.Publisher(ctx)
			if err != nil {
				return err
			}
			if err := pub.Publish(ctx, exportKey, buf.Bytes()); err != nil {
				return err
			}
		}
		switch {
		case exportOut != "":
			if err := os.WriteFile(exportOut, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("write %s: %w", exportOut, err)
			}
		case !exportPublish:
			if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
				return err
			}
		}
		log.Info().Int("events", keys.Len()).Int("rows", len(rows)).Msg("Exported ORDS feed")
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "first event date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "last event date (YYYY-MM-DD)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write the CSV to this file")
	exportCmd.Flags().BoolVar(&exportPublish, "publish", false, "upload the CSV to ORDS_S3_BUCKET")
	exportCmd.Flags().StringVar(&exportKey, "key", "ords.csv", "object key used with --publish")
	rootCmd.AddCommand(exportCmd)
}
