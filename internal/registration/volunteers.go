package registration

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strconv"

	"rc-stats/internal/event"
	"rc-stats/internal/provider"
	"rc-stats/internal/refdata"
	"rc-stats/internal/store"
)

type internalVolunteer struct {
	reg store.VolunteerRegistration
}

func (d internalVolunteer) EventKey() event.Key   { return d.reg.EventKey }
func (d internalVolunteer) Source() Source        { return Internal }
func (d internalVolunteer) ID() string            { return strconv.FormatInt(d.reg.ID, 10) }
func (d internalVolunteer) RoleIDs() []int64      { return slices.Clone(d.reg.RoleIDs) }
func (d internalVolunteer) FixerStationID() int64 { return d.reg.FixerStationID }
func (d internalVolunteer) IsApprentice() bool    { return d.reg.IsApprentice }

func (d internalVolunteer) person() person {
	return person{fullName: d.reg.FullName, publicName: d.reg.PublicName, email: d.reg.Email}
}
func (d internalVolunteer) DisplayName(v Viewer) string { return d.person().name(v, d) }
func (d internalVolunteer) Email(v Viewer) string       { return d.person().mail(v, d) }

type externalVolunteer struct {
	record         provider.VolunteerRecord
	key            event.Key
	roleIDs        []int64
	fixerStationID int64
}

func (d externalVolunteer) EventKey() event.Key   { return d.key }
func (d externalVolunteer) Source() Source        { return External }
func (d externalVolunteer) ID() string            { return d.record.ID }
func (d externalVolunteer) RoleIDs() []int64      { return slices.Clone(d.roleIDs) }
func (d externalVolunteer) FixerStationID() int64 { return d.fixerStationID }
func (d externalVolunteer) IsApprentice() bool    { return d.record.IsApprentice }

func (d externalVolunteer) person() person {
	return person{fullName: d.record.FullName, publicName: d.record.PublicName, email: d.record.Email}
}
func (d externalVolunteer) DisplayName(v Viewer) string { return d.person().name(v, d) }
func (d externalVolunteer) Email(v Viewer) string       { return d.person().mail(v, d) }

type supplementalVolunteer struct {
	key            event.Key
	roleID         int64
	fixerStationID int64
	apprentice     bool
}

func (d supplementalVolunteer) EventKey() event.Key       { return d.key }
func (d supplementalVolunteer) Source() Source            { return Supplemental }
func (d supplementalVolunteer) ID() string                { return "" }
func (d supplementalVolunteer) RoleIDs() []int64          { return []int64{d.roleID} }
func (d supplementalVolunteer) FixerStationID() int64     { return d.fixerStationID }
func (d supplementalVolunteer) IsApprentice() bool        { return d.apprentice }
func (d supplementalVolunteer) DisplayName(Viewer) string { return "" }
func (d supplementalVolunteer) Email(Viewer) string       { return "" }

// ExpandSupplementalVolunteer yields one descriptor per head counted in r.
// The first min(apprentice, head) of them are apprentices.
func ExpandSupplementalVolunteer(r store.SupplementalVolunteer) iter.Seq[VolunteerDescriptor] {
	return func(yield func(VolunteerDescriptor) bool) {
		apprentices := min(r.Apprentice, r.Head)
		for i := range r.Head {
			d := supplementalVolunteer{
				key:            r.EventKey,
				roleID:         r.RoleID,
				fixerStationID: r.FixerStationID,
				apprentice:     i < apprentices,
			}
			if !yield(d) {
				return
			}
		}
	}
}

// VolunteerStore reads internal and supplemental volunteer registrations.
type VolunteerStore interface {
	VolunteerRegistrations(ctx context.Context, keys event.KeySet) ([]store.VolunteerRegistration, error)
	SupplementalVolunteers(ctx context.Context, keys event.KeySet) ([]store.SupplementalVolunteer, error)
}

// VolunteerProviders supplies external volunteer registrations.
type VolunteerProviders interface {
	VolunteerRegistrations(ctx context.Context, filter []provider.KeyRecord) ([]provider.VolunteerRecord, error)
}

// VolunteerFactory builds volunteer descriptors for a set of events.
type VolunteerFactory struct {
	store     VolunteerStore
	providers VolunteerProviders
	catalog   refdata.Catalog
}

func NewVolunteerFactory(st VolunteerStore, providers VolunteerProviders, catalog refdata.Catalog) *VolunteerFactory {
	return &VolunteerFactory{store: st, providers: providers, catalog: catalog}
}

// DescriptorsForEventKeySet returns the internal, external and supplemental
// volunteers of the selected events, in that order.
func (f *VolunteerFactory) DescriptorsForEventKeySet(ctx context.Context, keys event.KeySet) ([]VolunteerDescriptor, error) {
	if keys.IsEmpty() {
		return nil, nil
	}
	regs, err := f.store.VolunteerRegistrations(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("internal volunteers: %w", err)
	}
	out := make([]VolunteerDescriptor, 0, len(regs))
	for _, r := range regs {
		out = append(out, internalVolunteer{reg: r})
	}

	external, err := f.external(ctx, keys)
	if err != nil {
		return nil, err
	}
	out = append(out, external...)

	rows, err := f.store.SupplementalVolunteers(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("supplemental volunteers: %w", err)
	}
	for _, r := range rows {
		out = slices.AppendSeq(out, ExpandSupplementalVolunteer(r))
	}
	return out, nil
}

func (f *VolunteerFactory) external(ctx context.Context, keys event.KeySet) ([]VolunteerDescriptor, error) {
	if f.providers == nil {
		return nil, nil
	}
	records, err := f.providers.VolunteerRegistrations(ctx, provider.KeyFilter(keys))
	if err != nil {
		return nil, fmt.Errorf("external volunteers: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	roles, err := f.catalog.Terms(ctx, refdata.VolunteerRoles)
	if err != nil {
		return nil, err
	}
	stations, err := f.catalog.Terms(ctx, refdata.FixerStations)
	if err != nil {
		return nil, err
	}
	out := make([]VolunteerDescriptor, 0, len(records))
	for _, r := range records {
		ids := make([]int64, 0, len(r.Roles))
		for _, name := range r.Roles {
			ids = append(ids, resolve(refdata.VolunteerRoles, roles, name))
		}
		slices.Sort(ids)
		out = append(out, externalVolunteer{
			record:         r,
			key:            recordKey(r.KeyRecord()),
			roleIDs:        slices.Compact(ids),
			fixerStationID: resolve(refdata.FixerStations, stations, r.FixerStation),
		})
	}
	return out, nil
}
