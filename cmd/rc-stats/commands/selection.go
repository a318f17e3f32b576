package commands

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"rc-stats/internal/app"
)

// selectionFlags are the event selection flags shared by the reporting commands.
type selectionFlags struct {
	events []string
	from   string
	to     string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.events, "events", nil, "event keys (YYYYMMDD|descriptor|provider); pass --events= to select none")
	cmd.Flags().StringVar(&f.from, "from", "", "first event date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "last event date (YYYY-MM-DD)")
}

// selection distinguishes an absent --events from an explicitly empty one.
func (f *selectionFlags) selection(cmd *cobra.Command) app.Selection {
	sel := app.Selection{From: f.from, To: f.to}
	if cmd.Flags().Changed("events") {
		sel.Events = append([]string{}, f.events...)
	}
	return sel
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
