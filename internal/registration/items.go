package registration

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strconv"

	"github.com/rs/zerolog/log"

	"rc-stats/internal/event"
	"rc-stats/internal/provider"
	"rc-stats/internal/refdata"
	"rc-stats/internal/store"
)

type internalItem struct {
	item store.Item
}

func (d internalItem) EventKey() event.Key   { return d.item.EventKey }
func (d internalItem) Source() Source        { return Internal }
func (d internalItem) ID() string            { return strconv.FormatInt(d.item.ID, 10) }
func (d internalItem) Description() string   { return d.item.Description }
func (d internalItem) ItemTypeID() int64     { return d.item.ItemTypeID }
func (d internalItem) FixerStationID() int64 { return d.item.FixerStationID }
func (d internalItem) Status() string        { return d.item.Status }

func (d internalItem) VisitorName(v Viewer) string {
	return person{fullName: d.item.VisitorFullName, publicName: d.item.VisitorPublicName}.name(v, d)
}

type externalItem struct {
	record         provider.ItemRecord
	key            event.Key
	itemTypeID     int64
	fixerStationID int64
}

func (d externalItem) EventKey() event.Key   { return d.key }
func (d externalItem) Source() Source        { return External }
func (d externalItem) ID() string            { return d.record.ID }
func (d externalItem) Description() string   { return d.record.Description }
func (d externalItem) ItemTypeID() int64     { return d.itemTypeID }
func (d externalItem) FixerStationID() int64 { return d.fixerStationID }
func (d externalItem) Status() string        { return provider.NormalizeStatus(d.record.Status) }

func (d externalItem) VisitorName(v Viewer) string {
	return person{fullName: d.record.VisitorFullName, publicName: d.record.VisitorPublicName}.name(v, d)
}

// supplementalItem stands for one unit of a supplemental count. It has no
// id, description or visitor.
type supplementalItem struct {
	key            event.Key
	itemTypeID     int64
	fixerStationID int64
	status         string
}

func (d supplementalItem) EventKey() event.Key   { return d.key }
func (d supplementalItem) Source() Source        { return Supplemental }
func (d supplementalItem) ID() string            { return "" }
func (d supplementalItem) Description() string   { return "" }
func (d supplementalItem) ItemTypeID() int64     { return d.itemTypeID }
func (d supplementalItem) FixerStationID() int64 { return d.fixerStationID }
func (d supplementalItem) Status() string        { return d.status }
func (d supplementalItem) VisitorName(Viewer) string {
	return ""
}

// ExpandSupplementalItem yields one descriptor per unit counted in r: the
// fixed, repairable and end of life units followed by the unreported ones.
func ExpandSupplementalItem(r store.SupplementalItem) iter.Seq[ItemDescriptor] {
	return func(yield func(ItemDescriptor) bool) {
		runs := []struct {
			status string
			n      int
		}{
			{provider.StatusFixed, r.Fixed},
			{provider.StatusRepairable, r.Repairable},
			{provider.StatusEndOfLife, r.EOL},
			{"", r.Unreported},
		}
		for _, run := range runs {
			d := supplementalItem{key: r.EventKey, itemTypeID: r.ItemTypeID, fixerStationID: r.FixerStationID, status: run.status}
			for range run.n {
				if !yield(d) {
					return
				}
			}
		}
	}
}

// ItemStore reads internal and supplemental items.
type ItemStore interface {
	Items(ctx context.Context, keys event.KeySet) ([]store.Item, error)
	SupplementalItems(ctx context.Context, keys event.KeySet) ([]store.SupplementalItem, error)
}

// ItemProviders supplies external items.
type ItemProviders interface {
	Items(ctx context.Context, filter []provider.KeyRecord) ([]provider.ItemRecord, error)
}

// ItemFactory builds item descriptors for a set of events.
type ItemFactory struct {
	store     ItemStore
	providers ItemProviders
	catalog   refdata.Catalog
}

// NewItemFactory wires a factory. The catalog resolves external item type
// and fixer station names.
func NewItemFactory(st ItemStore, providers ItemProviders, catalog refdata.Catalog) *ItemFactory {
	return &ItemFactory{store: st, providers: providers, catalog: catalog}
}

// DescriptorsForEventKeySet returns the internal, external and supplemental
// items of the selected events, in that order.
func (f *ItemFactory) DescriptorsForEventKeySet(ctx context.Context, keys event.KeySet) ([]ItemDescriptor, error) {
	if keys.IsEmpty() {
		return nil, nil
	}
	out, err := f.Internal(ctx, keys)
	if err != nil {
		return nil, err
	}
	external, err := f.External(ctx, keys)
	if err != nil {
		return nil, err
	}
	out = append(out, external...)
	supplemental, err := f.Supplemental(ctx, keys)
	if err != nil {
		return nil, err
	}
	return slices.AppendSeq(out, supplemental), nil
}

// Internal returns items registered with this service.
func (f *ItemFactory) Internal(ctx context.Context, keys event.KeySet) ([]ItemDescriptor, error) {
	items, err := f.store.Items(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("internal items: %w", err)
	}
	out := make([]ItemDescriptor, len(items))
	for i, it := range items {
		out[i] = internalItem{item: it}
	}
	return out, nil
}

// External returns items supplied by providers. Records naming unknown item
// types or stations are kept, under the unspecified IDs.
func (f *ItemFactory) External(ctx context.Context, keys event.KeySet) ([]ItemDescriptor, error) {
	if f.providers == nil {
		return nil, nil
	}
	records, err := f.providers.Items(ctx, provider.KeyFilter(keys))
	if err != nil {
		return nil, fmt.Errorf("external items: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	types, err := f.catalog.Terms(ctx, refdata.ItemTypes)
	if err != nil {
		return nil, err
	}
	stations, err := f.catalog.Terms(ctx, refdata.FixerStations)
	if err != nil {
		return nil, err
	}
	out := make([]ItemDescriptor, 0, len(records))
	for _, r := range records {
		out = append(out, externalItem{
			record:         r,
			key:            recordKey(r.KeyRecord()),
			itemTypeID:     resolve(refdata.ItemTypes, types, r.ItemType),
			fixerStationID: resolve(refdata.FixerStations, stations, r.FixerStation),
		})
	}
	return out, nil
}

// Supplemental expands the supplemental item counts of the selected events.
func (f *ItemFactory) Supplemental(ctx context.Context, keys event.KeySet) (iter.Seq[ItemDescriptor], error) {
	rows, err := f.store.SupplementalItems(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("supplemental items: %w", err)
	}
	return func(yield func(ItemDescriptor) bool) {
		for _, r := range rows {
			for d := range ExpandSupplementalItem(r) {
				if !yield(d) {
					return
				}
			}
		}
	}, nil
}

// recordKey parses the event of an external record. Unparseable events
// yield the zero key.
func recordKey(r provider.KeyRecord) event.Key {
	k, err := r.Key()
	if err != nil {
		log.Debug().Err(err).Msg("External record names an unparseable event")
		return event.Key{}
	}
	return k
}

func resolve(taxonomy refdata.Taxonomy, terms []refdata.Term, name string) int64 {
	if t, ok := refdata.FindByName(terms, name); ok {
		return t.ID
	}
	return taxonomy.Unspecified()
}
