package charts

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"rc-stats/internal/event"
	"rc-stats/internal/group"
	"rc-stats/internal/provider"
	"rc-stats/internal/refdata"
	"rc-stats/internal/stats"
	"rc-stats/internal/store"
)

func TestMermaid_Bars(t *testing.T) {
	c := Chart{
		Type:     StackedBar,
		Title:    "Items",
		Labels:   []string{"Toaster", "Lamp"},
		Datasets: []Dataset{{Label: "Fixed", Data: []int{3, 1}}, {Label: "End of life", Data: []int{2, 0}}},
	}
	got := Mermaid(c)

	if !strings.HasPrefix(got, "```mermaid\nxychart-beta\n") {
		t.Errorf("Expected xychart block, got %q", got)
	}
	if !strings.Contains(got, `x-axis ["Toaster", "Lamp"]`) {
		t.Errorf("Expected labels on x-axis, got %q", got)
	}
	if !strings.Contains(got, "bar [3, 1]") || !strings.Contains(got, "bar [2, 0]") {
		t.Errorf("Expected one bar series per dataset, got %q", got)
	}
	if !strings.Contains(got, "y-axis \"Count\" 0 --> 6") {
		t.Errorf("Expected y-axis scaled from stacked total 5, got %q", got)
	}
}

func TestMermaid_PieSkipsZeroSlices(t *testing.T) {
	c := Chart{Type: Pie, Title: "Visitors", Labels: []string{"First time", "Returning"}, Datasets: []Dataset{{Data: []int{4, 0}}}}
	got := Mermaid(c)
	if !strings.Contains(got, "pie title Visitors") || !strings.Contains(got, `"First time" : 4`) {
		t.Errorf("Unexpected pie: %q", got)
	}
	if strings.Contains(got, "Returning") {
		t.Errorf("Expected zero slice omitted, got %q", got)
	}
}

func TestMermaid_EmptyChart(t *testing.T) {
	if got := Mermaid(Chart{Type: Bar, Labels: []string{"A"}, Datasets: []Dataset{{Data: []int{0}}}}); got != "" {
		t.Errorf("Expected empty output, got %q", got)
	}
}

func TestWriteHTML_EscapesLabels(t *testing.T) {
	var buf bytes.Buffer
	c := Chart{Type: Bar, Title: "Events", Labels: []string{"<b>x</b>"}, Datasets: []Dataset{{Label: "Events", Data: []int{2}}}}
	if err := WriteHTML(&buf, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(buf.String(), "<b>x</b>") {
		t.Errorf("Expected label to be escaped")
	}
	if !strings.Contains(buf.String(), "<td>2</td>") {
		t.Errorf("Expected data table, got %s", buf.String())
	}
}

type chartStore struct {
	refdata.Static
}

func (chartStore) Events(context.Context, event.KeySet) ([]event.Event, error) { return nil, nil }
func (chartStore) EventKeys(context.Context, time.Time, time.Time) ([]event.Key, error) {
	return nil, nil
}

func (chartStore) ItemCounts(context.Context, event.KeySet, group.By) ([]store.ItemCountRow, error) {
	return []store.ItemCountRow{{Key: "11", Items: 4, Fixed: 2, EOL: 1}}, nil
}

func (chartStore) SupplementalItemCounts(context.Context, event.KeySet, group.By) ([]store.ItemCountRow, error) {
	return nil, nil
}

func (chartStore) VisitorCounts(context.Context, event.KeySet, group.By) ([]store.VisitorCountRow, error) {
	return nil, nil
}

func (chartStore) SupplementalVisitorCounts(context.Context, event.KeySet, group.By) ([]store.VisitorCountRow, error) {
	return nil, nil
}

func (chartStore) VolunteerCounts(context.Context, event.KeySet, group.By) ([]store.VolunteerCountRow, error) {
	return nil, nil
}

func (chartStore) SupplementalVolunteerCounts(context.Context, event.KeySet, group.By) ([]store.VolunteerCountRow, error) {
	return nil, nil
}

func TestItemsChart_FollowsCanonicalOrder(t *testing.T) {
	st := chartStore{refdata.Static{
		refdata.ItemTypes: {{ID: 10, Name: "Toaster"}, {ID: 11, Name: "Lamp"}},
	}}
	s := stats.NewSession(st, provider.NewRegistry(), stats.DefaultConfidence)

	c, err := ItemsChart(context.Background(), s, event.All(), group.ByTotal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(c.Labels, ",") != "Toaster,Lamp" {
		t.Errorf("Expected every item type in order, got %v", c.Labels)
	}
	if c.Datasets[0].Data[1] != 2 || c.Datasets[2].Data[1] != 1 || c.Datasets[3].Data[1] != 1 {
		t.Errorf("Unexpected lamp outcomes: %v", c.Datasets)
	}
	if c.Datasets[0].Data[0] != 0 {
		t.Errorf("Expected zero-filled toaster, got %d", c.Datasets[0].Data[0])
	}
}
