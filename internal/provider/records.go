package provider

import (
	"fmt"
	"strings"
	"time"

	"rc-stats/internal/event"
)

// KeyRecord is the plain-data form of an event key handed to providers.
type KeyRecord struct {
	// Date is the recurrence date formatted as YYYYMMDD.
	Date         string `json:"date"`
	DescriptorID string `json:"descriptor_id"`
	ProviderID   string `json:"provider_id"`
}

// RecordOf converts an event key.
func RecordOf(k event.Key) KeyRecord {
	return KeyRecord{
		Date:         k.Date.Format(event.DateLayout),
		DescriptorID: k.DescriptorID,
		ProviderID:   k.ProviderID,
	}
}

// Key converts the record back into an event key. The descriptor is taken
// verbatim, so it may contain the key separator.
func (r KeyRecord) Key() (event.Key, error) {
	date, err := time.Parse(event.DateLayout, r.Date)
	if err != nil || r.DescriptorID == "" {
		return event.Key{}, fmt.Errorf("%w: %+v", event.ErrMalformedKey, r)
	}
	return event.NewKey(date, r.DescriptorID, r.ProviderID), nil
}

// EventKeys converts the records of the get_event_keys_for_items_in_date_range
// hook. A malformed record fails the conversion so that event counts never
// silently drop a provider's events.
func EventKeys(records []KeyRecord) ([]event.Key, error) {
	keys := make([]event.Key, 0, len(records))
	for _, r := range records {
		k, err := r.Key()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", HookEventKeysInRange, err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// KeyFilter converts a key set into a provider filter. ALL becomes nil.
func KeyFilter(s event.KeySet) []KeyRecord {
	if s.IsAll() {
		return nil
	}
	keys := s.Keys()
	out := make([]KeyRecord, len(keys))
	for i, k := range keys {
		out[i] = RecordOf(k)
	}
	return out
}

// Matches reports whether a nil-or-explicit filter selects r.
func Matches(filter []KeyRecord, r KeyRecord) bool {
	if filter == nil {
		return true
	}
	for _, f := range filter {
		if f == r {
			return true
		}
	}
	return false
}

// InRange reports whether r falls within [from, to]; zero bounds are open.
func (r KeyRecord) InRange(from, to time.Time) bool {
	d, err := time.Parse(event.DateLayout, r.Date)
	if err != nil {
		return false
	}
	if !from.IsZero() && d.Before(truncate(from)) {
		return false
	}
	if !to.IsZero() && d.After(truncate(to)) {
		return false
	}
	return true
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ItemStatsRow is one aggregate row returned by get_item_stats.
type ItemStatsRow struct {
	// Name is the free-text group name: an item type or fixer station name,
	// "station|type" for the composite dimension, an event key string, or ""
	// for totals.
	Name            string `json:"name"`
	ItemCount       int    `json:"item_count"`
	FixedCount      int    `json:"fixed_count"`
	RepairableCount int    `json:"repairable_count"`
	EOLCount        int    `json:"eol_count"`
}

// VisitorStatsRow is one aggregate row returned by get_visitor_registration_stats.
type VisitorStatsRow struct {
	Name                     string `json:"name"`
	FirstTimeCount           int    `json:"first_time_count"`
	ReturningCount           int    `json:"returning_count"`
	UnknownReturnStatusCount int    `json:"unknown_return_status_count"`
	ProvidedEmailCount       int    `json:"provided_email_count"`
	JoinMailListCount        int    `json:"join_mail_list_count"`
}

// VolunteerStatsRow is one aggregate row returned by get_volunteer_registration_stats.
type VolunteerStatsRow struct {
	Name            string `json:"name"`
	HeadCount       int    `json:"head_count"`
	ApprenticeCount int    `json:"apprentice_count"`
}

// Item repair statuses as reported by providers.
const (
	StatusFixed      = "fixed"
	StatusRepairable = "repairable"
	StatusEndOfLife  = "eol"
)

// NormalizeStatus maps the spellings providers use onto the status constants.
// Anything unrecognised is reported as "" (unknown).
func NormalizeStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed", "repaired":
		return StatusFixed
	case "repairable":
		return StatusRepairable
	case "eol", "end_of_life", "end-of-life", "end of life":
		return StatusEndOfLife
	}
	return ""
}

// ItemRecord is one raw item returned by get_items.
type ItemRecord struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	EventDate     string `json:"event-date"`
	EventID       string `json:"event-id"`
	EventProvider string `json:"event-provider"`
	ItemType      string `json:"item-type"`
	FixerStation  string `json:"fixer-station"`
	Status        string `json:"status"`
	Source        string `json:"source"`

	VisitorPublicName string `json:"visitor-public-name,omitempty"`
	VisitorFullName   string `json:"visitor-full-name,omitempty"`
}

// KeyRecord returns the event the item was registered at.
func (r ItemRecord) KeyRecord() KeyRecord {
	return KeyRecord{Date: r.EventDate, DescriptorID: r.EventID, ProviderID: r.EventProvider}
}

// VisitorRecord is one raw visitor registration returned by get_visitor_registrations.
type VisitorRecord struct {
	ID            string `json:"id"`
	FullName      string `json:"full-name"`
	PublicName    string `json:"public-name"`
	Email         string `json:"email"`
	EventDate     string `json:"event-date"`
	EventID       string `json:"event-id"`
	EventProvider string `json:"event-provider"`
	// IsFirstEvent is nil when the provider does not know.
	IsFirstEvent *bool  `json:"is-first-event"`
	JoinMailList bool   `json:"join-mail-list"`
	ItemCount    int    `json:"item-count"`
	Source       string `json:"source"`
}

// KeyRecord returns the event the visitor registered for.
func (r VisitorRecord) KeyRecord() KeyRecord {
	return KeyRecord{Date: r.EventDate, DescriptorID: r.EventID, ProviderID: r.EventProvider}
}

// VolunteerRecord is one raw volunteer registration returned by get_all_volunteer_registrations.
type VolunteerRecord struct {
	ID            string   `json:"id"`
	FullName      string   `json:"full-name"`
	PublicName    string   `json:"public-name"`
	Email         string   `json:"email"`
	EventDate     string   `json:"event-date"`
	EventID       string   `json:"event-id"`
	EventProvider string   `json:"event-provider"`
	Roles         []string `json:"roles"`
	FixerStation  string   `json:"fixer-station"`
	IsApprentice  bool     `json:"is-apprentice"`
	Source        string   `json:"source"`
}

// KeyRecord returns the event the volunteer registered for.
func (r VolunteerRecord) KeyRecord() KeyRecord {
	return KeyRecord{Date: r.EventDate, DescriptorID: r.EventID, ProviderID: r.EventProvider}
}
