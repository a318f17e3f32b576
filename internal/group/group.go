// Package group defines grouping dimensions and the keys statistics are bucketed by.
package group

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"rc-stats/internal/refdata"
)

// ErrUnsupportedGrouping is returned when a collection cannot group by a dimension.
var ErrUnsupportedGrouping = errors.New("unsupported grouping")

// Key is the dimension value a statistic is bucketed under.
type Key string

// Total is the key used when statistics are not grouped.
const Total Key = ""

// By names a grouping dimension.
type By string

const (
	ByTotal          By = "total"
	ByEvent          By = "event"
	ByItemType       By = "item_type"
	ByFixerStation   By = "fixer_station"
	ByStationAndType By = "station_and_type"
	ByVolunteerRole  By = "volunteer_role"
	ByEventCategory  By = "event_category"
)

var all = []By{ByTotal, ByEvent, ByItemType, ByFixerStation, ByStationAndType, ByVolunteerRole, ByEventCategory}

// All lists every dimension.
func All() []By { return append([]By(nil), all...) }

// Parse validates a dimension name. The empty string means ByTotal.
func Parse(s string) (By, error) {
	if s == "" {
		return ByTotal, nil
	}
	for _, b := range all {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedGrouping, s)
}

// Taxonomy returns the reference-data taxonomy backing a single taxonomy dimension.
// The composite station-and-type dimension is not a single taxonomy.
func (b By) Taxonomy() (refdata.Taxonomy, bool) {
	switch b {
	case ByItemType:
		return refdata.ItemTypes, true
	case ByFixerStation:
		return refdata.FixerStations, true
	case ByVolunteerRole:
		return refdata.VolunteerRoles, true
	case ByEventCategory:
		return refdata.EventCategories, true
	}
	return "", false
}

// IsTaxonomy reports whether results grouped by b are canonicalised against reference data.
func (b By) IsTaxonomy() bool {
	_, ok := b.Taxonomy()
	return ok || b == ByStationAndType
}

// IDKey returns the key for a reference-data term ID.
func IDKey(id int64) Key {
	return Key(strconv.FormatInt(id, 10))
}

// ID parses a key produced by IDKey.
func (k Key) ID() (int64, bool) {
	id, err := strconv.ParseInt(string(k), 10, 64)
	return id, err == nil
}

// Composite returns the station-and-type key "{station_id}|{type_id}".
func Composite(stationID, itemTypeID int64) Key {
	return JoinComposite(IDKey(stationID), IDKey(itemTypeID))
}

// JoinComposite builds a composite key from station and item type keys.
func JoinComposite(station, itemType Key) Key {
	return station + "|" + itemType
}

// SplitComposite splits a composite key into its station and item type parts.
func SplitComposite(k Key) (station, itemType Key, ok bool) {
	s, t, found := strings.Cut(string(k), "|")
	if !found {
		return "", "", false
	}
	return Key(s), Key(t), true
}

// CompositeName joins external station and item type names the way providers
// report the station-and-type dimension.
func CompositeName(station, itemType string) string {
	return station + "|" + itemType
}
