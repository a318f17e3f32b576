// Package charts builds chart datasets from statistics collections and
// renders them as Mermaid diagrams or standalone HTML pages.
package charts

import (
	"context"
	"errors"
	"fmt"

	"rc-stats/internal/event"
	"rc-stats/internal/group"
	"rc-stats/internal/stats"
)

// Type is the kind of chart a dataset is meant for.
type Type string

const (
	Bar        Type = "bar"
	StackedBar Type = "stacked_bar"
	Pie        Type = "pie"
)

// Dataset is one series of values, aligned with the chart labels.
type Dataset struct {
	Label string `json:"label"`
	Data  []int  `json:"data"`
}

// Chart is a renderer-independent chart.
type Chart struct {
	Type     Type      `json:"type"`
	Title    string    `json:"title"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// IsEmpty reports whether the chart has nothing to show.
func (c Chart) IsEmpty() bool {
	for _, d := range c.Datasets {
		for _, v := range d.Data {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

// ErrUnknownChart is returned by Build for names not in Names.
var ErrUnknownChart = errors.New("unknown chart")

// Names lists the charts Build knows.
var Names = []string{"events", "items", "repairs", "visitors", "volunteers"}

// Build creates the named chart. by is ignored by the pie charts.
func Build(ctx context.Context, s *stats.Session, name string, keys event.KeySet, by group.By) (Chart, error) {
	switch name {
	case "events":
		return EventsChart(ctx, s, keys, by)
	case "items":
		return ItemsChart(ctx, s, keys, by)
	case "repairs":
		return RepairsChart(ctx, s, keys)
	case "visitors":
		return VisitorsChart(ctx, s, keys)
	case "volunteers":
		return VolunteersChart(ctx, s, keys, by)
	}
	return Chart{}, fmt.Errorf("%w %q", ErrUnknownChart, name)
}

// EventsChart counts events per group, by category unless by says otherwise.
func EventsChart(ctx context.Context, s *stats.Session, keys event.KeySet, by group.By) (Chart, error) {
	if by == group.ByTotal {
		by = group.ByEventCategory
	}
	c, err := stats.NewEventStatsCollection(s, keys, by)
	if err != nil {
		return Chart{}, err
	}
	all, err := c.AllStatsMap(ctx)
	if err != nil {
		return Chart{}, err
	}
	labelOf, err := s.Labels(ctx, by)
	if err != nil {
		return Chart{}, err
	}
	out := Chart{Type: Bar, Title: "Events", Datasets: []Dataset{{Label: "Events"}}}
	for k, st := range all.All() {
		out.Labels = append(out.Labels, labelOf(k))
		out.Datasets[0].Data = append(out.Datasets[0].Data, st.EventCount())
	}
	return out, nil
}

// ItemsChart stacks repair outcomes per group, by item type unless by says
// otherwise.
func ItemsChart(ctx context.Context, s *stats.Session, keys event.KeySet, by group.By) (Chart, error) {
	if by == group.ByTotal {
		by = group.ByItemType
	}
	c, err := stats.NewItemStatsCollection(s, keys, by)
	if err != nil {
		return Chart{}, err
	}
	all, err := c.AllStatsMap(ctx)
	if err != nil {
		return Chart{}, err
	}
	labelOf, err := s.Labels(ctx, by)
	if err != nil {
		return Chart{}, err
	}
	out := Chart{
		Type:  StackedBar,
		Title: "Items",
		Datasets: []Dataset{
			{Label: "Fixed"}, {Label: "Repairable"}, {Label: "End of life"}, {Label: "Unknown"},
		},
	}
	for k, st := range all.All() {
		out.Labels = append(out.Labels, labelOf(k))
		for i, v := range []int{st.FixedCount(), st.RepairableCount(), st.EndOfLifeCount(), st.UnknownCount()} {
			out.Datasets[i].Data = append(out.Datasets[i].Data, v)
		}
	}
	return out, nil
}

// RepairsChart shows the share of each repair outcome.
func RepairsChart(ctx context.Context, s *stats.Session, keys event.KeySet) (Chart, error) {
	c, err := stats.NewItemStatsCollection(s, keys, group.ByTotal)
	if err != nil {
		return Chart{}, err
	}
	total, err := c.Total(ctx)
	if err != nil {
		return Chart{}, err
	}
	return Chart{
		Type:   Pie,
		Title:  "Repair outcomes",
		Labels: []string{"Fixed", "Repairable", "End of life", "Unknown"},
		Datasets: []Dataset{{
			Label: "Items",
			Data:  []int{total.FixedCount(), total.RepairableCount(), total.EndOfLifeCount(), total.UnknownCount()},
		}},
	}, nil
}

// VisitorsChart shows first-time against returning visitors.
func VisitorsChart(ctx context.Context, s *stats.Session, keys event.KeySet) (Chart, error) {
	c, err := stats.NewVisitorStatsCollection(s, keys, group.ByTotal)
	if err != nil {
		return Chart{}, err
	}
	total, err := c.Total(ctx)
	if err != nil {
		return Chart{}, err
	}
	return Chart{
		Type:   Pie,
		Title:  "Visitors",
		Labels: []string{"First time", "Returning", "Unknown"},
		Datasets: []Dataset{{
			Label: "Visitors",
			Data:  []int{total.FirstTimeCount(), total.ReturningCount(), total.UnknownReturnStatusCount()},
		}},
	}, nil
}

// VolunteersChart counts volunteers per group, by role unless by says otherwise.
func VolunteersChart(ctx context.Context, s *stats.Session, keys event.KeySet, by group.By) (Chart, error) {
	if by == group.ByTotal {
		by = group.ByVolunteerRole
	}
	c, err := stats.NewVolunteerStatsCollection(s, keys, by)
	if err != nil {
		return Chart{}, err
	}
	all, err := c.AllStatsMap(ctx)
	if err != nil {
		return Chart{}, err
	}
	labelOf, err := s.Labels(ctx, by)
	if err != nil {
		return Chart{}, err
	}
	out := Chart{Type: Bar, Title: "Volunteers", Datasets: []Dataset{{Label: "Volunteers"}, {Label: "Apprentices"}}}
	for k, st := range all.All() {
		out.Labels = append(out.Labels, labelOf(k))
		out.Datasets[0].Data = append(out.Datasets[0].Data, st.HeadCount())
		out.Datasets[1].Data = append(out.Datasets[1].Data, st.ApprenticeCount())
	}
	return out, nil
}
