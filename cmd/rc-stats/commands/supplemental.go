package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"rc-stats/internal/event"
	"rc-stats/internal/store"
)

var (
	supEvent      string
	supType       int64
	supStation    int64
	supRole       int64
	supFixed      int
	supRepairable int
	supEOL        int
	supUnreported int
	supFirstTime  int
	supReturning  int
	supHead       int
	supApprentice int
)

var supplementalCmd = &cobra.Command{
	Use:   "supplemental",
	Short: "Record counts that were not registered individually",
	Long: `Each write replaces the counts previously recorded for the same event and
dimensions. Writing all zeros removes them.`,
}

func eventFlag() (event.Key, error) {
	if supEvent == "" {
		return event.Key{}, fmt.Errorf("--event is required")
	}
	return event.ParseKey(supEvent)
}

func reportWrite(cmd *cobra.Command, k event.Key, cleared bool) {
	if cleared {
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared supplemental counts for %s\n", k)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded supplemental counts for %s\n", k)
}

var supItemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Record item outcomes for an item type and fixer station",
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := eventFlag()
		if err != nil {
			return err
		}
		r := store.SupplementalItem{
			EventKey: k, ItemTypeID: supType, FixerStationID: supStation,
			Fixed: supFixed, Repairable: supRepairable, EOL: supEOL, Unreported: supUnreported,
		}
		if err := theApp.SetSupplementalItem(cmd.Context(), r); err != nil {
			return err
		}
		reportWrite(cmd, k, supFixed == 0 && supRepairable == 0 && supEOL == 0 && supUnreported == 0)
		return nil
	},
}

var supVisitorsCmd = &cobra.Command{
	Use:   "visitors",
	Short: "Record visitor counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := eventFlag()
		if err != nil {
			return err
		}
		r := store.SupplementalVisitor{EventKey: k, FirstTime: supFirstTime, Returning: supReturning, Unreported: supUnreported}
		if err := theApp.SetSupplementalVisitor(cmd.Context(), r); err != nil {
			return err
		}
		reportWrite(cmd, k, supFirstTime == 0 && supReturning == 0 && supUnreported == 0)
		return nil
	},
}

var supVolunteersCmd = &cobra.Command{
	Use:   "volunteers",
	Short: "Record volunteer counts for a role and fixer station",
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := eventFlag()
		if err != nil {
			return err
		}
		r := store.SupplementalVolunteer{EventKey: k, RoleID: supRole, FixerStationID: supStation, Head: supHead, Apprentice: supApprentice}
		if err := theApp.SetSupplementalVolunteer(cmd.Context(), r); err != nil {
			return err
		}
		reportWrite(cmd, k, supHead == 0 && supApprentice == 0)
		return nil
	},
}

func init() {
	supplementalCmd.PersistentFlags().StringVar(&supEvent, "event", "", "event key (YYYYMMDD|descriptor|provider)")

	supItemsCmd.Flags().Int64Var(&supType, "item-type", 0, "item type term ID (0 for not specified)")
	supItemsCmd.Flags().Int64Var(&supStation, "station", 0, "fixer station term ID (0 for not specified)")
	supItemsCmd.Flags().IntVar(&supFixed, "fixed", 0, "items fixed")
	supItemsCmd.Flags().IntVar(&supRepairable, "repairable", 0, "items repairable")
	supItemsCmd.Flags().IntVar(&supEOL, "eol", 0, "items at end of life")
	supItemsCmd.Flags().IntVar(&supUnreported, "unreported", 0, "items with no reported outcome")

	supVisitorsCmd.Flags().IntVar(&supFirstTime, "first-time", 0, "first-time visitors")
	supVisitorsCmd.Flags().IntVar(&supReturning, "returning", 0, "returning visitors")
	supVisitorsCmd.Flags().IntVar(&supUnreported, "unreported", 0, "visitors who did not say")

	supVolunteersCmd.Flags().Int64Var(&supRole, "role", 0, "volunteer role term ID (0 for not specified)")
	supVolunteersCmd.Flags().Int64Var(&supStation, "station", 0, "fixer station term ID (0 for not specified)")
	supVolunteersCmd.Flags().IntVar(&supHead, "head", 0, "volunteers")
	supVolunteersCmd.Flags().IntVar(&supApprentice, "apprentice", 0, "how many of --head were apprentices")

	supplementalCmd.AddCommand(supItemsCmd, supVisitorsCmd, supVolunteersCmd)
	rootCmd.AddCommand(supplementalCmd)
}
