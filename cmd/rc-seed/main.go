package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"rc-stats/cmd/rc-seed/engine"
	"rc-stats/internal/store"
)

func main() {
	scenario := flag.String("scenario", "mixed", "Scenario to generate: quiet, busy, mixed")
	driver := flag.String("driver", store.DriverSQLite, "Database driver: sqlite or pgx")
	dsn := flag.String("dsn", "./rc-stats.db", "Database DSN or SQLite file")
	external := flag.String("external", "./partner.jsonl", "Where to write partner provider records (mixed scenario)")
	count := flag.Int("events", 12, "Number of monthly events to generate")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		Events:   *count,
		Seed:     *seed,
		Now:      time.Now(),
	}

	fmt.Printf("Generating scenario '%s' (%d events, seed %d) into %s...\n", cfg.Scenario, cfg.Events, cfg.Seed, *dsn)

	ds := engine.Generate(cfg)

	ctx := context.Background()
	st, err := store.Open(ctx, *driver, *dsn)
	if err != nil {
		fmt.Printf("Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := engine.Save(ctx, st, ds); err != nil {
		fmt.Printf("Failed to save generated data: %v\n", err)
		os.Exit(1)
	}
	if len(ds.External) > 0 {
		if err := engine.WriteExternal(*external, ds.External); err != nil {
			fmt.Printf("Failed to write partner records: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d partner records to %s (set EXTERNAL_RECORDS_FILE to use them)\n", len(ds.External), *external)
	}

	fmt.Println("Done.")
}
