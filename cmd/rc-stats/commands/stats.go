package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rc-stats/internal/group"
	"rc-stats/internal/stats"
)

var (
	statsSel        selectionFlags
	statsGroupBy    string
	statsSource     string
	statsConfidence string
	statsJSON       bool
)

var statsCmd = &cobra.Command{
	Use:       "stats <" + strings.Join(stats.Kinds, "|") + ">",
	Short:     "Print grouped statistics for the selected events",
	Args:      cobra.ExactArgs(1),
	ValidArgs: stats.Kinds,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		keys, err := theApp.Resolve(ctx, statsSel.selection(cmd))
		if err != nil {
			return err
		}
		by, err := group.Parse(statsGroupBy)
		if err != nil {
			return err
		}
		sess := theApp.Session()
		if statsConfidence != "" {
			level, err := stats.ParseConfidenceLevel(statsConfidence)
			if err != nil {
				return err
			}
			sess = theApp.SessionAt(level)
		}

		rep, err := stats.BuildReport(ctx, sess, args[0], keys, by, statsSource)
		if err != nil {
			return err
		}
		if statsJSON {
			return writeJSON(cmd.OutOrStdout(), rep)
		}
		return printReport(cmd.OutOrStdout(), rep)
	},
}

func printReport(out io.Writer, rep stats.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	switch rep.Kind {
	case stats.KindItems:
		fmt.Fprintln(w, "GROUP\tITEMS\tFIXED\tREPAIRABLE\tEOL\tUNKNOWN\tDIVERSION")
	case stats.KindVisitors:
		fmt.Fprintln(w, "GROUP\tVISITORS\tFIRST TIME\tRETURNING\tUNKNOWN\tEMAIL\tMAIL LIST")
	case stats.KindVolunteers:
		fmt.Fprintln(w, "GROUP\tHEAD\tAPPRENTICE")
	default:
		fmt.Fprintln(w, "GROUP\tEVENTS")
	}
	for _, r := range rep.Rows {
		label := r.Label
		if label == "" {
			label = "Total"
		}
		switch {
		case r.Items != nil:
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n", label, r.Items.Items, r.Items.Fixed, r.Items.Repairable, r.Items.EndOfLife, r.Items.Unknown, diversion(r.Items.Diversion))
		case r.Visitors != nil:
			v := r.Visitors
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n", label, v.Visitors, v.FirstTime, v.Returning, v.Unknown, v.ProvidedEmail, v.JoinMailList)
		case r.Volunteers != nil:
			fmt.Fprintf(w, "%s\t%d\t%d\n", label, r.Volunteers.Head, r.Volunteers.Apprentice)
		case r.Events != nil:
			fmt.Fprintf(w, "%s\t%d\n", label, *r.Events)
		}
	}
	fmt.Fprintf(w, "\n%d event(s), source %s, %d%% confidence\n", rep.Events, rep.Source, int(rep.Level))
	return w.Flush()
}

func diversion(e stats.Estimate) string {
	if !e.HasData() {
		return "n/a"
	}
	return fmt.Sprintf("%.0f%% (%.0f-%.0f%%)", e.AdjustedRate*100, e.LowerBound*100, e.UpperBound*100)
}

func init() {
	statsSel.register(statsCmd)
	statsCmd.Flags().StringVar(&statsGroupBy, "group-by", "", "grouping dimension (total, event, item_type, fixer_station, station_and_type, volunteer_role, event_category)")
	statsCmd.Flags().StringVar(&statsSource, "source", "", "restrict to one source ("+strings.Join(stats.Sources, ", ")+")")
	statsCmd.Flags().StringVar(&statsConfidence, "confidence", "", "confidence level of the diversion interval (90, 95 or 99)")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(statsCmd)
}
