package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"rc-stats/internal/charts"
	"rc-stats/internal/group"
)

var (
	chartSel     selectionFlags
	chartGroupBy string
	chartFormat  string
	chartOpen    bool
)

var chartCmd = &cobra.Command{
	Use:       "chart <" + strings.Join(charts.Names, "|") + ">",
	Short:     "Build a chart for the selected events",
	Args:      cobra.ExactArgs(1),
	ValidArgs: charts.Names,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		keys, err := theApp.Resolve(ctx, chartSel.selection(cmd))
		if err != nil {
			return err
		}
		by, err := group.Parse(chartGroupBy)
		if err != nil {
			return err
		}
		chart, err := charts.Build(ctx, theApp.Session(), args[0], keys, by)
		if err != nil {
			return err
		}

		if chartOpen {
			return openChart(chart)
		}
		switch chartFormat {
		case "json":
			return writeJSON(cmd.OutOrStdout(), chart)
		case "mermaid":
			_, err := fmt.Fprintln(cmd.OutOrStdout(), charts.Mermaid(chart))
			return err
		case "html":
			return charts.WriteHTML(cmd.OutOrStdout(), chart)
		}
		return fmt.Errorf("unknown format %q (want json, mermaid or html)", chartFormat)
	},
}

// openChart renders the chart to a temporary HTML page and opens it in the
// default browser. The file is left behind for the browser to read.
func openChart(chart charts.Chart) error {
	f, err := os.CreateTemp("", "rc-stats-chart-*.html")
	if err != nil {
		return err
	}
	if err := charts.WriteHTML(f, chart); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Info().Str("path", f.Name()).Msg("Opening chart in browser")
	return browser.OpenFile(f.Name())
}

func init() {
	chartSel.register(chartCmd)
	chartCmd.Flags().StringVar(&chartGroupBy, "group-by", "", "grouping dimension for bar charts")
	chartCmd.Flags().StringVar(&chartFormat, "format", "mermaid", "output format: json, mermaid or html")
	chartCmd.Flags().BoolVar(&chartOpen, "open", false, "open the chart as an HTML page in the browser")
	rootCmd.AddCommand(chartCmd)
}
