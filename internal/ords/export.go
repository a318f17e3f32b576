// Package ords exports repair records in the Open Repair Data Standard
// CSV format and publishes the feed to object storage.
package ords

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"rc-stats/internal/event"
	"rc-stats/internal/metrics"
	"rc-stats/internal/provider"
	"rc-stats/internal/refdata"
	"rc-stats/internal/registration"
)

// Header is the column order of the feed.
var Header = []string{"id", "partner_product_category", "repair_status", "problem", "event_date", "country", "data_provider"}

// Repair statuses as named by the standard.
const (
	StatusFixed      = "Fixed"
	StatusRepairable = "Repairable"
	StatusEndOfLife  = "End of life"
	StatusUnknown    = "Unknown"
)

// Row is one exported repair record.
type Row struct {
	ID              string `json:"id"`
	ProductCategory string `json:"partner_product_category"`
	RepairStatus    string `json:"repair_status"`
	Problem         string `json:"problem"`
	EventDate       string `json:"event_date"`
	Country         string `json:"country"`
	DataProvider    string `json:"data_provider"`
}

func (r Row) record() []string {
	return []string{r.ID, r.ProductCategory, r.RepairStatus, r.Problem, r.EventDate, r.Country, r.DataProvider}
}

// Options configure an export.
type Options struct {
	DataProvider   string
	DefaultCountry string
	// ItemTypes is the allow-list of item type names. Empty allows every
	// configured item type; unspecified item types are never exported.
	ItemTypes []string
}

// EventStore supplies stored events.
type EventStore interface {
	refdata.Catalog
	Events(ctx context.Context, keys event.KeySet) ([]event.Event, error)
	EventKeys(ctx context.Context, from, to time.Time) ([]event.Key, error)
}

// EventKeyProviders reports events managed by external providers.
type EventKeyProviders interface {
	EventKeysInRange(ctx context.Context, from, to time.Time) ([]provider.KeyRecord, error)
}

// ItemSource produces item descriptors for a set of events.
type ItemSource interface {
	DescriptorsForEventKeySet(ctx context.Context, keys event.KeySet) ([]registration.ItemDescriptor, error)
}

// Exporter builds the feed.
type Exporter struct {
	store     EventStore
	providers EventKeyProviders
	items     ItemSource
	opts      Options
}

func NewExporter(st EventStore, providers EventKeyProviders, items ItemSource, opts Options) *Exporter {
	return &Exporter{store: st, providers: providers, items: items, opts: opts}
}

// SelectEvents returns the events held in [from, to]: stored events plus
// those providers report items for. Zero bounds are open.
func (x *Exporter) SelectEvents(ctx context.Context, from, to time.Time) (event.KeySet, error) {
	keys, err := x.store.EventKeys(ctx, from, to)
	if err != nil {
		return event.KeySet{}, err
	}
	if x.providers != nil {
		records, err := x.providers.EventKeysInRange(ctx, from, to)
		if err != nil {
			return event.KeySet{}, err
		}
		external, err := provider.EventKeys(records)
		if err != nil {
			return event.KeySet{}, err
		}
		keys = append(keys, external...)
	}
	return event.NewKeySet(keys...), nil
}

// Rows returns one row per qualifying item of the selected events. An item
// qualifies when it has an id and a description, belongs to a resolvable
// event and has an allowed item type.
func (x *Exporter) Rows(ctx context.Context, keys event.KeySet) ([]Row, error) {
	if keys.IsEmpty() {
		return nil, nil
	}
	types, err := x.store.Terms(ctx, refdata.ItemTypes)
	if err != nil {
		return nil, err
	}
	allowed := x.allowedTypes(types)

	stored, err := x.store.Events(ctx, keys)
	if err != nil {
		return nil, err
	}
	events := make(map[event.Key]event.Event, len(stored))
	for _, e := range stored {
		events[e.Key] = e
	}

	descriptors, err := x.items.DescriptorsForEventKeySet(ctx, keys)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for _, d := range descriptors {
		if d.ID() == "" || strings.TrimSpace(d.Description()) == "" {
			continue
		}
		category, ok := allowed[d.ItemTypeID()]
		if !ok {
			continue
		}
		k := d.EventKey()
		if k.IsZero() || !keys.Contains(k) {
			continue
		}
		country := x.opts.DefaultCountry
		if e, ok := events[k]; ok && e.Country != "" {
			country = e.Country
		}
		rows = append(rows, Row{
			ID:              rowID(d),
			ProductCategory: category,
			RepairStatus:    repairStatus(d.Status()),
			Problem:         d.Description(),
			EventDate:       k.Date.Format(time.DateOnly),
			Country:         country,
			DataProvider:    x.opts.DataProvider,
		})
	}
	return rows, nil
}

func (x *Exporter) allowedTypes(types []refdata.Term) map[int64]string {
	out := make(map[int64]string, len(types))
	for _, t := range types {
		if t.ID == refdata.UnspecifiedItemTypeID {
			continue
		}
		if len(x.opts.ItemTypes) == 0 || slices.ContainsFunc(x.opts.ItemTypes, func(n string) bool {
			return strings.EqualFold(strings.TrimSpace(n), t.Name)
		}) {
			out[t.ID] = t.Name
		}
	}
	return out
}

// rowID prefixes ids that did not originate here with their source.
func rowID(d registration.ItemDescriptor) string {
	if d.Source() == registration.Internal {
		return d.ID()
	}
	return string(d.Source()) + "-" + d.ID()
}

func repairStatus(s string) string {
	switch s {
	case provider.StatusFixed:
		return StatusFixed
	case provider.StatusRepairable:
		return StatusRepairable
	case provider.StatusEndOfLife:
		return StatusEndOfLife
	}
	return StatusUnknown
}

// WriteCSV writes the header and rows.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write ords csv: %w", err)
	}
	metrics.AddORDSRows(len(rows))
	return nil
}

// Export selects the events in range and writes their feed to w.
func (x *Exporter) Export(ctx context.Context, w io.Writer, from, to time.Time) (int, error) {
	keys, err := x.SelectEvents(ctx, from, to)
	if err != nil {
		return 0, err
	}
	rows, err := x.Rows(ctx, keys)
	if err != nil {
		return 0, err
	}
	if err := WriteCSV(w, rows); err != nil {
		return 0, err
	}
	log.Info().Int("events", keys.Len()).Int("rows", len(rows)).Msg("Exported ORDS feed")
	return len(rows), nil
}
