package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rc-stats/internal/config"
	"rc-stats/internal/refdata"
)

var refdataCmd = &cobra.Command{
	Use:   "refdata",
	Short: "Manage item types, fixer stations, volunteer roles and event categories",
}

var refdataListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reference data in display order",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := theApp.ReferenceData(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TAXONOMY\tID\tPOSITION\tNAME")
		for _, taxonomy := range refdata.Taxonomies {
			for _, t := range data[taxonomy] {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", taxonomy, t.ID, t.Position, t.Name)
			}
		}
		return w.Flush()
	},
}

var refdataImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Create or update terms from a reference data file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.LoadReferenceData(args[0])
		if err != nil {
			return err
		}
		n, err := theApp.ImportReferenceData(cmd.Context(), data)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d term(s)\n", n)
		return nil
	},
}

var refdataDeleteCmd = &cobra.Command{
	Use:   "delete <taxonomy> <id>",
	Short: "Delete a term, moving its counts to not specified",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		taxonomy, err := refdata.ParseTaxonomy(args[0])
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[1])
		}
		if err := theApp.Store.DeleteTerm(cmd.Context(), taxonomy, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %d\n", taxonomy, id)
		return nil
	},
}

func init() {
	refdataCmd.AddCommand(refdataListCmd, refdataImportCmd, refdataDeleteCmd)
	rootCmd.AddCommand(refdataCmd)
}
