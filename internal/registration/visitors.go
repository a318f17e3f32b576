package registration

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strconv"

	"rc-stats/internal/event"
	"rc-stats/internal/provider"
	"rc-stats/internal/store"
)

type internalVisitor struct {
	reg store.VisitorRegistration
}

func (d internalVisitor) EventKey() event.Key { return d.reg.EventKey }
func (d internalVisitor) Source() Source      { return Internal }
func (d internalVisitor) ID() string          { return strconv.FormatInt(d.reg.ID, 10) }
func (d internalVisitor) IsFirstEvent() *bool { return d.reg.IsFirstEvent }
func (d internalVisitor) JoinMailList() bool  { return d.reg.JoinMailList }
func (d internalVisitor) ItemCount() int      { return d.reg.ItemCount }

func (d internalVisitor) person() person {
	return person{fullName: d.reg.FullName, publicName: d.reg.PublicName, email: d.reg.Email}
}
func (d internalVisitor) DisplayName(v Viewer) string { return d.person().name(v, d) }
func (d internalVisitor) Email(v Viewer) string       { return d.person().mail(v, d) }

type externalVisitor struct {
	record provider.VisitorRecord
	key    event.Key
}

func (d externalVisitor) EventKey() event.Key { return d.key }
func (d externalVisitor) Source() Source      { return External }
func (d externalVisitor) ID() string          { return d.record.ID }
func (d externalVisitor) IsFirstEvent() *bool { return d.record.IsFirstEvent }
func (d externalVisitor) JoinMailList() bool  { return d.record.JoinMailList }
func (d externalVisitor) ItemCount() int      { return d.record.ItemCount }

func (d externalVisitor) person() person {
	return person{fullName: d.record.FullName, publicName: d.record.PublicName, email: d.record.Email}
}
func (d externalVisitor) DisplayName(v Viewer) string { return d.person().name(v, d) }
func (d externalVisitor) Email(v Viewer) string       { return d.person().mail(v, d) }

type supplementalVisitor struct {
	key       event.Key
	firstTime *bool
}

func (d supplementalVisitor) EventKey() event.Key       { return d.key }
func (d supplementalVisitor) Source() Source            { return Supplemental }
func (d supplementalVisitor) ID() string                { return "" }
func (d supplementalVisitor) IsFirstEvent() *bool       { return d.firstTime }
func (d supplementalVisitor) JoinMailList() bool        { return false }
func (d supplementalVisitor) ItemCount() int            { return 0 }
func (d supplementalVisitor) DisplayName(Viewer) string { return "" }
func (d supplementalVisitor) Email(Viewer) string       { return "" }

// ExpandSupplementalVisitor yields one descriptor per visitor counted in r:
// first-time visitors, then returning ones, then those of unknown status.
func ExpandSupplementalVisitor(r store.SupplementalVisitor) iter.Seq[VisitorDescriptor] {
	yes, no := true, false
	return func(yield func(VisitorDescriptor) bool) {
		runs := []struct {
			firstTime *bool
			n         int
		}{
			{&yes, r.FirstTime},
			{&no, r.Returning},
			{nil, r.Unreported},
		}
		for _, run := range runs {
			d := supplementalVisitor{key: r.EventKey, firstTime: run.firstTime}
			for range run.n {
				if !yield(d) {
					return
				}
			}
		}
	}
}

// VisitorStore reads internal and supplemental visitor registrations.
type VisitorStore interface {
	VisitorRegistrations(ctx context.Context, keys event.KeySet) ([]store.VisitorRegistration, error)
	SupplementalVisitors(ctx context.Context, keys event.KeySet) ([]store.SupplementalVisitor, error)
}

// VisitorProviders supplies external visitor registrations.
type VisitorProviders interface {
	VisitorRegistrations(ctx context.Context, filter []provider.KeyRecord) ([]provider.VisitorRecord, error)
}

// VisitorFactory builds visitor descriptors for a set of events.
type VisitorFactory struct {
	store     VisitorStore
	providers VisitorProviders
}

func NewVisitorFactory(st VisitorStore, providers VisitorProviders) *VisitorFactory {
	return &VisitorFactory{store: st, providers: providers}
}

// DescriptorsForEventKeySet returns the internal, external and supplemental
// visitors of the selected events, in that order.
func (f *VisitorFactory) DescriptorsForEventKeySet(ctx context.Context, keys event.KeySet) ([]VisitorDescriptor, error) {
	if keys.IsEmpty() {
		return nil, nil
	}
	regs, err := f.store.VisitorRegistrations(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("internal visitors: %w", err)
	}
	out := make([]VisitorDescriptor, 0, len(regs))
	for _, r := range regs {
		out = append(out, internalVisitor{reg: r})
	}

	if f.providers != nil {
		records, err := f.providers.VisitorRegistrations(ctx, provider.KeyFilter(keys))
		if err != nil {
			return nil, fmt.Errorf("external visitors: %w", err)
		}
		for _, r := range records {
			out = append(out, externalVisitor{record: r, key: recordKey(r.KeyRecord())})
		}
	}

	rows, err := f.store.SupplementalVisitors(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("supplemental visitors: %w", err)
	}
	for _, r := range rows {
		out = slices.AppendSeq(out, ExpandSupplementalVisitor(r))
	}
	return out, nil
}
