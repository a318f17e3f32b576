package stats

import (
	"context"

	"golang.org/x/sync/errgroup"

	"rc-stats/internal/event"
	"rc-stats/internal/group"
)

// ItemSummary reports item totals and the estimated diversion rate.
type ItemSummary struct {
	Items      int      `json:"items"`
	Fixed      int      `json:"fixed"`
	Repairable int      `json:"repairable"`
	EndOfLife  int      `json:"end_of_life"`
	Unknown    int      `json:"unknown"`
	Diversion  Estimate `json:"diversion"`
}

// VisitorSummary reports visitor totals.
type VisitorSummary struct {
	Visitors      int `json:"visitors"`
	FirstTime     int `json:"first_time"`
	Returning     int `json:"returning"`
	Unknown       int `json:"unknown_return_status"`
	ProvidedEmail int `json:"provided_email"`
	JoinMailList  int `json:"join_mail_list"`
}

// VolunteerSummary reports volunteer totals.
type VolunteerSummary struct {
	Head       int `json:"head"`
	Apprentice int `json:"apprentice"`
}

// Summary is the headline view over a set of events.
type Summary struct {
	Events              int              `json:"events"`
	Level               ConfidenceLevel  `json:"confidence_level"`
	Items               ItemSummary      `json:"items"`
	Visitors            VisitorSummary   `json:"visitors"`
	Volunteers          VolunteerSummary `json:"volunteers"`
	MedianItemsPerEvent float64          `json:"median_items_per_event"`
}

// NewItemSummary reports s at the given confidence level.
func NewItemSummary(s *ItemGroupStats, level ConfidenceLevel) ItemSummary {
	return ItemSummary{
		Items:      s.ItemCount(),
		Fixed:      s.FixedCount(),
		Repairable: s.RepairableCount(),
		EndOfLife:  s.EndOfLifeCount(),
		Unknown:    s.UnknownCount(),
		Diversion:  s.Diversion(level),
	}
}

// NewVisitorSummary reports s.
func NewVisitorSummary(s *VisitorGroupStats) VisitorSummary {
	return VisitorSummary{
		Visitors:      s.VisitorCount(),
		FirstTime:     s.FirstTimeCount(),
		Returning:     s.ReturningCount(),
		Unknown:       s.UnknownReturnStatusCount(),
		ProvidedEmail: s.ProvidedEmailCount(),
		JoinMailList:  s.JoinMailListCount(),
	}
}

// BuildSummary computes the totals of every statistics kind over keys. Each
// kind is built in its own collection, concurrently.
func BuildSummary(ctx context.Context, s *Session, keys event.KeySet) (Summary, error) {
	out := Summary{Level: s.ConfidenceLevel()}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c, err := NewItemStatsCollection(s, keys, group.ByTotal)
		if err != nil {
			return err
		}
		total, err := c.Total(ctx)
		if err != nil {
			return err
		}
		out.Items = NewItemSummary(total, s.ConfidenceLevel())
		return nil
	})
	g.Go(func() error {
		c, err := NewVisitorStatsCollection(s, keys, group.ByTotal)
		if err != nil {
			return err
		}
		total, err := c.Total(ctx)
		if err != nil {
			return err
		}
		out.Visitors = NewVisitorSummary(total)
		return nil
	})
	g.Go(func() error {
		c, err := NewVolunteerStatsCollection(s, keys, group.ByTotal)
		if err != nil {
			return err
		}
		total, err := c.Total(ctx)
		if err != nil {
			return err
		}
		out.Volunteers = VolunteerSummary{Head: total.HeadCount(), Apprentice: total.ApprenticeCount()}
		return nil
	})
	g.Go(func() error {
		c, err := NewEventStatsCollection(s, keys, group.ByTotal)
		if err != nil {
			return err
		}
		total, err := c.Total(ctx)
		if err != nil {
			return err
		}
		out.Events = total.EventCount()
		return nil
	})
	g.Go(func() error {
		median, err := MedianItemsPerEvent(ctx, s, keys)
		if err != nil {
			return err
		}
		out.MedianItemsPerEvent = median
		return nil
	})

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return out, nil
}

// MedianItemsPerEvent returns the median number of items brought to the
// selected events that recorded any items.
func MedianItemsPerEvent(ctx context.Context, s *Session, keys event.KeySet) (float64, error) {
	c, err := NewItemStatsCollection(s, keys, group.ByEvent)
	if err != nil {
		return 0, err
	}
	all, err := c.AllStatsMap(ctx)
	if err != nil {
		return 0, err
	}
	counts := make([]int, 0, all.Len())
	for _, st := range all.Values() {
		if st.ItemCount() > 0 {
			counts = append(counts, st.ItemCount())
		}
	}
	return CalculateMedianDiscrete(counts), nil
}
