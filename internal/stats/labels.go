package stats

import (
	"context"

	"rc-stats/internal/event"
	"rc-stats/internal/group"
	"rc-stats/internal/refdata"
)

// UnspecifiedLabel is shown for groups without a reference value.
const UnspecifiedLabel = "Unspecified"

// Labels returns a function naming the group keys of a dimension.
func (s *Session) Labels(ctx context.Context, by group.By) (func(group.Key) string, error) {
	terms, err := s.termsFor(ctx, by)
	if err != nil {
		return nil, err
	}
	return func(k group.Key) string { return label(by, k, terms) }, nil
}

func label(by group.By, k group.Key, terms termSource) string {
	switch by {
	case group.ByTotal:
		return "Total"
	case group.ByEvent:
		if ek, err := event.ParseKey(string(k)); err == nil {
			return ek.Date.Format("2006-01-02")
		}
		return string(k)
	case group.ByStationAndType:
		station, itemType, ok := group.SplitComposite(k)
		if !ok {
			return UnspecifiedLabel
		}
		return termLabel(refdata.FixerStations, station, terms) + " / " + termLabel(refdata.ItemTypes, itemType, terms)
	}
	if taxonomy, ok := by.Taxonomy(); ok {
		return termLabel(taxonomy, k, terms)
	}
	return string(k)
}

func termLabel(taxonomy refdata.Taxonomy, k group.Key, terms termSource) string {
	id, ok := k.ID()
	if !ok {
		return UnspecifiedLabel
	}
	if name := refdata.NameOf(terms(taxonomy), id); name != "" {
		return name
	}
	return UnspecifiedLabel
}
