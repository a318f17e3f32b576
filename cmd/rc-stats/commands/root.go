package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"rc-stats/internal/app"
	"rc-stats/internal/config"
	"rc-stats/internal/logging"
	"rc-stats/internal/mcp"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	theApp *app.App
)

var rootCmd = &cobra.Command{
	Use:   "rc-stats",
	Short: "rc-stats aggregates repair café statistics",
	Long: `Aggregates item, visitor, volunteer and event statistics for repair cafés from
registrations, external providers and supplemental counts. Without a subcommand
it runs as an MCP server on stdio.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := logging.Init(verbose); err != nil {
			log.Warn().Err(err).Msg("File logging disabled")
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		theApp, err = app.Open(cmd.Context(), cfg)
		if err != nil {
			log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("Failed to open application")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("command", cmd.Name()).
			Msg("rc-stats starting")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if theApp != nil {
			if err := theApp.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close store")
			}
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(theApp)
		if err != nil {
			return err
		}
		return server.Run(cmd.Context())
	},
}

// Execute runs the root command, cancelling its context on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
