// Package engine generates a synthetic repair café history for demos and
// manual testing.
package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"rc-stats/internal/event"
	"rc-stats/internal/provider"
	"rc-stats/internal/refdata"
	"rc-stats/internal/store"
)

// PartnerProviderID identifies events generated for the external records file.
const PartnerProviderID = "partner"

type GeneratorConfig struct {
	Scenario string // "quiet", "busy" or "mixed"
	Events   int
	Seed     int64
	Now      time.Time
}

// Visitor is a generated visitor registration and the items they brought.
type Visitor struct {
	Registration store.VisitorRegistration
	Items        []store.Item
}

// Dataset is everything Generate produces.
type Dataset struct {
	Reference  refdata.Static
	Events     []event.Event
	Visitors   []Visitor
	Volunteers []store.VolunteerRegistration

	SupplementalItems      []store.SupplementalItem
	SupplementalVisitors   []store.SupplementalVisitor
	SupplementalVolunteers []store.SupplementalVolunteer

	// External holds provider records for the partner's events, one JSON
	// object per line with a "kind" field.
	External []any
}

var (
	itemTypes = []refdata.Term{
		{ID: 1, Name: "Appliance", Position: 1},
		{ID: 2, Name: "Electronics", Position: 2, AlternateNames: []string{"Electrical"}},
		{ID: 3, Name: "Bike", Position: 3},
		{ID: 4, Name: "Clothing", Position: 4, AlternateNames: []string{"Textiles"}},
		{ID: 5, Name: "Furniture", Position: 5},
	}
	fixerStations = []refdata.Term{
		{ID: 1, Name: "Electrical", Position: 1},
		{ID: 2, Name: "Mechanical", Position: 2},
		{ID: 3, Name: "Sewing", Position: 3},
		{ID: 4, Name: "Woodwork", Position: 4},
	}
	volunteerRoles = []refdata.Term{
		{ID: 1, Name: "Greeter", Position: 1},
		{ID: 2, Name: "Fixer", Position: 2},
		{ID: 3, Name: "Refreshments", Position: 3},
	}
	eventCategories = []refdata.Term{
		{ID: 1, Name: "Repair Café", Position: 1},
		{ID: 2, Name: "Pop-up", Position: 2},
	}

	// stationFor pairs each item type with the station that usually fixes it.
	stationFor = map[int64]int64{1: 1, 2: 1, 3: 2, 4: 3, 5: 4}

	descriptions = map[int64][]string{
		1: {"Toaster won't heat", "Kettle leaks", "Vacuum lost suction", "Blender stalls"},
		2: {"Radio crackles", "Lamp flickers", "Laptop won't charge", "Headphones one side dead"},
		3: {"Flat tyre", "Gears slipping", "Brakes squeal"},
		4: {"Torn jacket lining", "Broken zip", "Hem coming down"},
		5: {"Wobbly chair", "Drawer sticks", "Cracked stool leg"},
	}

	firstNames = []string{"Alex", "Sam", "Jo", "Priya", "Chen", "Maria", "Tom", "Aisha", "Luc", "Ines"}
	lastNames  = []string{"Smith", "Nguyen", "Garcia", "Brown", "Okafor", "Martin", "Kowalski", "Haddad"}
)

// Generate builds a dataset of cfg.Events monthly events ending at cfg.Now.
func Generate(cfg GeneratorConfig) Dataset {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.Events <= 0 {
		cfg.Events = 12
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	ds := Dataset{Reference: refdata.Static{
		refdata.ItemTypes:       itemTypes,
		refdata.FixerStations:   fixerStations,
		refdata.VolunteerRoles:  volunteerRoles,
		refdata.EventCategories: eventCategories,
	}}

	visitorsPerEvent := 12
	switch cfg.Scenario {
	case "busy":
		visitorsPerEvent = 30
	case "quiet":
		visitorsPerEvent = 5
	}

	start := cfg.Now.AddDate(0, -cfg.Events, 0)
	for i := range cfg.Events {
		date := firstSaturday(start.AddDate(0, i+1, 0))
		k := event.NewKey(date, strconv.Itoa(100+i), event.InternalProviderID)

		category := int64(1)
		if i%4 == 3 {
			category = 2
		}
		ds.Events = append(ds.Events, event.Event{
			Key:        k,
			Title:      fmt.Sprintf("Repair Café %s", date.Format("January 2006")),
			Country:    "CA",
			Categories: []int64{category},
		})

		n := visitorsPerEvent/2 + rng.Intn(visitorsPerEvent)
		for range n {
			ds.Visitors = append(ds.Visitors, visitor(rng, k))
		}
		ds.Volunteers = append(ds.Volunteers, volunteers(rng, k)...)

		// Every third event also had a paper sign-in sheet.
		if cfg.Scenario == "mixed" && i%3 == 0 {
			typeID := int64(1 + rng.Intn(len(itemTypes)))
			ds.SupplementalItems = append(ds.SupplementalItems, store.SupplementalItem{
				EventKey: k, ItemTypeID: typeID, FixerStationID: stationFor[typeID],
				Fixed: 1 + rng.Intn(4), EOL: rng.Intn(2), Unreported: rng.Intn(3),
			})
			ds.SupplementalVisitors = append(ds.SupplementalVisitors, store.SupplementalVisitor{
				EventKey: k, FirstTime: rng.Intn(4), Returning: rng.Intn(4), Unreported: 1 + rng.Intn(3),
			})
			ds.SupplementalVolunteers = append(ds.SupplementalVolunteers, store.SupplementalVolunteer{
				EventKey: k, RoleID: 2, FixerStationID: 2, Head: 2, Apprentice: 1,
			})
		}
	}

	if cfg.Scenario == "mixed" {
		ds.External = partnerRecords(rng, cfg.Now)
	}
	return ds
}

func firstSaturday(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Saturday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func name(rng *rand.Rand) (full, public string) {
	first := firstNames[rng.Intn(len(firstNames))]
	last := lastNames[rng.Intn(len(lastNames))]
	return first + " " + last, first + " " + last[:1]
}

func outcome(rng *rand.Rand) string {
	switch p := rng.Float64(); {
	case p < 0.55:
		return provider.StatusFixed
	case p < 0.70:
		return provider.StatusRepairable
	case p < 0.85:
		return provider.StatusEndOfLife
	}
	return ""
}

func visitor(rng *rand.Rand, k event.Key) Visitor {
	full, public := name(rng)
	reg := store.VisitorRegistration{
		EventKey:     k,
		FullName:     full,
		PublicName:   public,
		JoinMailList: rng.Float64() < 0.3,
	}
	if rng.Float64() < 0.6 {
		reg.Email = fmt.Sprintf("visitor-%s@example.org", uuid.NewString()[:8])
	}
	if p := rng.Float64(); p < 0.8 {
		first := p < 0.4
		reg.IsFirstEvent = &first
	}

	v := Visitor{Registration: reg}
	for range 1 + rng.Intn(2) {
		typeID := int64(0)
		if rng.Float64() < 0.9 {
			typeID = int64(1 + rng.Intn(len(itemTypes)))
		}
		v.Items = append(v.Items, store.Item{
			EventKey:       k,
			Description:    descriptions[max(typeID, 1)][rng.Intn(len(descriptions[max(typeID, 1)]))],
			ItemTypeID:     typeID,
			FixerStationID: stationFor[typeID],
			Status:         outcome(rng),
		})
	}
	return v
}

func volunteers(rng *rand.Rand, k event.Key) []store.VolunteerRegistration {
	var out []store.VolunteerRegistration
	for i := range 4 + rng.Intn(4) {
		full, public := name(rng)
		r := store.VolunteerRegistration{
			EventKey:   k,
			FullName:   full,
			PublicName: public,
			Email:      fmt.Sprintf("volunteer-%d@example.org", i),
		}
		if i == 0 {
			r.RoleIDs = []int64{1}
		} else {
			r.RoleIDs = []int64{2}
			r.FixerStationID = int64(1 + rng.Intn(len(fixerStations)))
			r.IsApprentice = rng.Float64() < 0.2
		}
		if i == 1 {
			r.RoleIDs = append(r.RoleIDs, 3)
		}
		out = append(out, r)
	}
	return out
}

// partnerRecords simulates a neighbouring café whose registrations live in
// another system and reach us through a provider file.
func partnerRecords(rng *rand.Rand, now time.Time) []any {
	var out []any
	for i := range 3 {
		date := firstSaturday(now.AddDate(0, -i, 0)).AddDate(0, 0, 7)
		kr := provider.RecordOf(event.NewKey(date, uuid.NewString(), PartnerProviderID))
		for j := range 4 + rng.Intn(4) {
			full, public := name(rng)
			typeID := int64(1 + rng.Intn(len(itemTypes)))
			out = append(out,
				struct {
					Kind string `json:"kind"`
					provider.VisitorRecord
				}{provider.KindVisitor, provider.VisitorRecord{
					ID: uuid.NewString(), FullName: full, PublicName: public,
					EventDate: kr.Date, EventID: kr.DescriptorID, EventProvider: kr.ProviderID,
					ItemCount: 1, Source: PartnerProviderID,
				}},
				struct {
					Kind string `json:"kind"`
					provider.ItemRecord
				}{provider.KindItem, provider.ItemRecord{
					ID:          uuid.NewString(),
					Description: descriptions[typeID][j%len(descriptions[typeID])],
					EventDate:   kr.Date, EventID: kr.DescriptorID, EventProvider: kr.ProviderID,
					ItemType:     itemTypes[typeID-1].Name,
					FixerStation: fixerStations[stationFor[typeID]-1].Name,
					Status:       outcome(rng),
					Source:       PartnerProviderID,
				}},
			)
		}
	}
	return out
}

// Save writes the dataset into st.
func Save(ctx context.Context, st *store.Store, ds Dataset) error {
	for _, taxonomy := range refdata.Taxonomies {
		for _, t := range ds.Reference[taxonomy] {
			if _, err := st.UpsertTerm(ctx, taxonomy, t); err != nil {
				return err
			}
		}
	}
	for _, e := range ds.Events {
		if err := st.AddEvent(ctx, e); err != nil {
			return err
		}
	}
	for _, v := range ds.Visitors {
		id, err := st.AddVisitorRegistration(ctx, v.Registration)
		if err != nil {
			return err
		}
		for _, it := range v.Items {
			it.VisitorID = id
			if _, err := st.AddItem(ctx, it); err != nil {
				return err
			}
		}
	}
	for _, v := range ds.Volunteers {
		if _, err := st.AddVolunteerRegistration(ctx, v); err != nil {
			return err
		}
	}
	for _, r := range ds.SupplementalItems {
		if err := st.SetSupplementalItem(ctx, r); err != nil {
			return err
		}
	}
	for _, r := range ds.SupplementalVisitors {
		if err := st.SetSupplementalVisitor(ctx, r); err != nil {
			return err
		}
	}
	for _, r := range ds.SupplementalVolunteers {
		if err := st.SetSupplementalVolunteer(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// WriteExternal writes the partner records as a provider JSONL file.
func WriteExternal(path string, records []any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return w.Flush()
}
