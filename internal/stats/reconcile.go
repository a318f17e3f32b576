package stats

import (
	"strings"

	"github.com/rs/zerolog/log"

	"rc-stats/internal/event"
	"rc-stats/internal/group"
	"rc-stats/internal/provider"
	"rc-stats/internal/refdata"
)

// providerGrouping returns the groupBy argument passed to stats hooks.
func providerGrouping(by group.By) string {
	if by == group.ByTotal {
		return provider.GroupTotal
	}
	return string(by)
}

// reconcileName maps a free-text group name reported by a provider onto the
// key internal data uses for the same group. Names that match no known term,
// by name or alternate name, map to the unspecified key; providers never
// create new groups of a taxonomy dimension.
func reconcileName(by group.By, name string, terms termSource) group.Key {
	switch by {
	case group.ByTotal:
		return group.Total
	case group.ByEvent:
		if k, err := event.ParseKey(name); err == nil {
			return group.Key(k.String())
		}
		return group.Key(name)
	case group.ByStationAndType:
		stationName, typeName, _ := strings.Cut(name, "|")
		station := reconcileTerm(refdata.FixerStations, stationName, terms)
		itemType := reconcileTerm(refdata.ItemTypes, typeName, terms)
		return group.JoinComposite(station, itemType)
	}
	taxonomy, ok := by.Taxonomy()
	if !ok {
		return group.Key(name)
	}
	return reconcileTerm(taxonomy, name, terms)
}

func reconcileTerm(taxonomy refdata.Taxonomy, name string, terms termSource) group.Key {
	if t, ok := refdata.FindByName(terms(taxonomy), name); ok {
		return group.IDKey(t.ID)
	}
	if strings.TrimSpace(name) != "" {
		log.Debug().Str("taxonomy", string(taxonomy)).Str("name", name).Msg("External name matches no reference value, counting as unspecified")
	}
	return group.IDKey(taxonomy.Unspecified())
}
