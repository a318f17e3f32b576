// Package app wires configuration, the store and the provider registry
// into the services the MCP server, the HTTP API and the CLI share.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"rc-stats/internal/config"
	"rc-stats/internal/event"
	"rc-stats/internal/ords"
	"rc-stats/internal/provider"
	"rc-stats/internal/refdata"
	"rc-stats/internal/registration"
	"rc-stats/internal/stats"
	"rc-stats/internal/store"
)

// App holds the long-lived dependencies. Per-request state lives in the
// sessions it hands out.
type App struct {
	Config    *config.AppConfig
	Store     *store.Store
	Providers *provider.Registry
}

// Open connects to the store, seeds reference data and registers the
// configured providers.
func Open(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	st, err := store.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	a := New(cfg, st, provider.NewRegistry())

	if cfg.ReferenceDataFile != "" {
		data, err := config.LoadReferenceData(cfg.ReferenceDataFile)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		n, err := a.ImportReferenceData(ctx, data)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		log.Info().Str("path", cfg.ReferenceDataFile).Int("terms", n).Msg("Seeded reference data")
	}

	if cfg.ExternalRecordsFile != "" {
		src, err := provider.LoadFile(cfg.ExternalRecordsFile, "")
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		a.Providers.Register(src)
	}
	if cfg.ExternalProvider.BaseURL != "" {
		a.Providers.Register(provider.NewHTTPSource(cfg.ExternalProvider))
	}
	return a, nil
}

// New assembles an App from existing parts.
func New(cfg *config.AppConfig, st *store.Store, providers *provider.Registry) *App {
	if cfg == nil {
		cfg = &config.AppConfig{Confidence: stats.DefaultConfidence}
	}
	if providers == nil {
		providers = provider.NewRegistry()
	}
	return &App{Config: cfg, Store: st, Providers: providers}
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// Session starts a request at the configured confidence level.
func (a *App) Session() *stats.Session {
	return stats.NewSession(a.Store, a.Providers, a.Config.Confidence)
}

// SessionAt starts a request at level, falling back to the configured level
// when level is zero.
func (a *App) SessionAt(level stats.ConfidenceLevel) *stats.Session {
	if level == 0 {
		level = a.Config.Confidence
	}
	return stats.NewSession(a.Store, a.Providers, level)
}

// Viewer decides what personal data descriptors reveal.
func (a *App) Viewer() registration.Viewer {
	if a.Config.ShowPersonalData {
		return registration.Elevated()
	}
	return registration.Public()
}

func (a *App) Items() *registration.ItemFactory {
	return registration.NewItemFactory(a.Store, a.Providers, refdata.NewCache(a.Store))
}

func (a *App) Visitors() *registration.VisitorFactory {
	return registration.NewVisitorFactory(a.Store, a.Providers)
}

func (a *App) Volunteers() *registration.VolunteerFactory {
	return registration.NewVolunteerFactory(a.Store, a.Providers, refdata.NewCache(a.Store))
}

// Exporter builds ORDS feeds with the configured options.
func (a *App) Exporter() *ords.Exporter {
	return ords.NewExporter(a.Store, a.Providers, a.Items(), a.Config.ORDS)
}

// Publisher returns an S3 publisher for the configured bucket.
func (a *App) Publisher(ctx context.Context) (*ords.Publisher, error) {
	if a.Config.ORDSS3.Bucket == "" {
		return nil, fmt.Errorf("ORDS_S3_BUCKET is not configured")
	}
	return ords.NewPublisher(ctx, a.Config.ORDSS3)
}

// ImportReferenceData upserts every term and returns how many were written.
func (a *App) ImportReferenceData(ctx context.Context, data refdata.Static) (int, error) {
	n := 0
	for _, taxonomy := range refdata.Taxonomies {
		for _, t := range data[taxonomy] {
			if _, err := a.Store.UpsertTerm(ctx, taxonomy, t); err != nil {
				return n, fmt.Errorf("import %s %q: %w", taxonomy, t.Name, err)
			}
			n++
		}
	}
	return n, nil
}

// ReferenceData returns every taxonomy in canonical order.
func (a *App) ReferenceData(ctx context.Context) (map[refdata.Taxonomy][]refdata.Term, error) {
	out := make(map[refdata.Taxonomy][]refdata.Term, len(refdata.Taxonomies))
	for _, taxonomy := range refdata.Taxonomies {
		terms, err := a.Store.Terms(ctx, taxonomy)
		if err != nil {
			return nil, err
		}
		out[taxonomy] = terms
	}
	return out, nil
}

// Selection names the events a request covers. Events, when non-nil, lists
// canonical keys and wins over the date range; an empty non-nil list selects
// nothing. With neither, every known event is selected.
type Selection struct {
	Events []string
	From   string
	To     string
}

// DateLayout is the layout of Selection dates.
const DateLayout = time.DateOnly

// Resolve turns the selection into a key set.
func (a *App) Resolve(ctx context.Context, sel Selection) (event.KeySet, error) {
	if sel.Events != nil {
		return event.ParseKeySet(sel.Events)
	}
	if sel.From == "" && sel.To == "" {
		return event.All(), nil
	}
	from, err := parseDate(sel.From)
	if err != nil {
		return event.KeySet{}, fmt.Errorf("from: %w", err)
	}
	to, err := parseDate(sel.To)
	if err != nil {
		return event.KeySet{}, fmt.Errorf("to: %w", err)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return event.KeySet{}, fmt.Errorf("date range ends before it starts")
	}
	return a.Exporter().SelectEvents(ctx, from, to)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, s)
}
