package stats

import "rc-stats/internal/group"

// Counts is implemented by the group statistics types. Values are
// accumulated only through AddToCounts; Plus and Clone return new values.
type Counts[S any] interface {
	Key() group.Key
	Plus(other S) S
	Clone() S
	Rekey(k group.Key) S
	IsZero() bool
}

// ItemGroupStats counts items and their repair outcomes in one group.
// It is not safe for concurrent use.
type ItemGroupStats struct {
	key             group.Key
	itemCount       int
	fixedCount      int
	repairableCount int
	eolCount        int

	estimates map[ConfidenceLevel]Estimate
}

// NewItemGroupStats returns stats for key holding the given counts.
func NewItemGroupStats(key group.Key, items, fixed, repairable, eol int) *ItemGroupStats {
	s := &ItemGroupStats{key: key}
	s.AddToCounts(items, fixed, repairable, eol)
	return s
}

func (s *ItemGroupStats) Key() group.Key       { return s.key }
func (s *ItemGroupStats) ItemCount() int       { return s.itemCount }
func (s *ItemGroupStats) FixedCount() int      { return s.fixedCount }
func (s *ItemGroupStats) RepairableCount() int { return s.repairableCount }
func (s *ItemGroupStats) EndOfLifeCount() int  { return s.eolCount }

// UnknownCount is the number of items whose outcome was not reported.
func (s *ItemGroupStats) UnknownCount() int {
	return max(0, s.itemCount-(s.fixedCount+s.repairableCount+s.eolCount))
}

// DivertedCount is the number of items known to be fixed or repairable.
func (s *ItemGroupStats) DivertedCount() int {
	return s.fixedCount + s.repairableCount
}

// AddToCounts adds to the counters. Negative amounts are ignored.
func (s *ItemGroupStats) AddToCounts(items, fixed, repairable, eol int) {
	s.itemCount += max(items, 0)
	s.fixedCount += max(fixed, 0)
	s.repairableCount += max(repairable, 0)
	s.eolCount += max(eol, 0)
	s.estimates = nil
}

// Plus returns a new value holding the sum of s and o, keyed like s.
func (s *ItemGroupStats) Plus(o *ItemGroupStats) *ItemGroupStats {
	out := s.Clone()
	out.AddToCounts(o.itemCount, o.fixedCount, o.repairableCount, o.eolCount)
	return out
}

// Clone returns an independent copy of s.
func (s *ItemGroupStats) Clone() *ItemGroupStats {
	return s.Rekey(s.key)
}

// Rekey returns a copy of s bucketed under k.
func (s *ItemGroupStats) Rekey(k group.Key) *ItemGroupStats {
	return &ItemGroupStats{
		key:             k,
		itemCount:       s.itemCount,
		fixedCount:      s.fixedCount,
		repairableCount: s.repairableCount,
		eolCount:        s.eolCount,
	}
}

// IsZero reports whether s holds no counts.
func (s *ItemGroupStats) IsZero() bool {
	return s.itemCount == 0 && s.fixedCount == 0 && s.repairableCount == 0 && s.eolCount == 0
}

// Diversion estimates the number of items kept out of landfill, treating
// items with a reported outcome as the sample.
func (s *ItemGroupStats) Diversion(level ConfidenceLevel) Estimate {
	if e, ok := s.estimates[level]; ok {
		return e
	}
	diverted := s.DivertedCount()
	e := NewEstimate(diverted, diverted+s.eolCount, s.itemCount, level)
	if s.estimates == nil {
		s.estimates = make(map[ConfidenceLevel]Estimate, 1)
	}
	s.estimates[level] = e
	return e
}

// VisitorGroupStats counts visitors in one group.
type VisitorGroupStats struct {
	key                group.Key
	firstTimeCount     int
	returningCount     int
	unknownReturnCount int
	providedEmailCount int
	joinMailListCount  int
}

// NewVisitorGroupStats returns stats for key holding the given counts.
func NewVisitorGroupStats(key group.Key, firstTime, returning, unknown, providedEmail, joinMailList int) *VisitorGroupStats {
	s := &VisitorGroupStats{key: key}
	s.AddToCounts(firstTime, returning, unknown, providedEmail, joinMailList)
	return s
}

func (s *VisitorGroupStats) Key() group.Key                { return s.key }
func (s *VisitorGroupStats) FirstTimeCount() int           { return s.firstTimeCount }
func (s *VisitorGroupStats) ReturningCount() int           { return s.returningCount }
func (s *VisitorGroupStats) UnknownReturnStatusCount() int { return s.unknownReturnCount }
func (s *VisitorGroupStats) ProvidedEmailCount() int       { return s.providedEmailCount }
func (s *VisitorGroupStats) JoinMailListCount() int        { return s.joinMailListCount }

// VisitorCount is the number of visitors whatever their return status.
func (s *VisitorGroupStats) VisitorCount() int {
	return s.firstTimeCount + s.returningCount + s.unknownReturnCount
}

// AddToCounts adds to the counters. Negative amounts are ignored.
func (s *VisitorGroupStats) AddToCounts(firstTime, returning, unknown, providedEmail, joinMailList int) {
	s.firstTimeCount += max(firstTime, 0)
	s.returningCount += max(returning, 0)
	s.unknownReturnCount += max(unknown, 0)
	s.providedEmailCount += max(providedEmail, 0)
	s.joinMailListCount += max(joinMailList, 0)
}

func (s *VisitorGroupStats) Plus(o *VisitorGroupStats) *VisitorGroupStats {
	out := s.Clone()
	out.AddToCounts(o.firstTimeCount, o.returningCount, o.unknownReturnCount, o.providedEmailCount, o.joinMailListCount)
	return out
}

// Clone returns an independent copy of s.
func (s *VisitorGroupStats) Clone() *VisitorGroupStats { return s.Rekey(s.key) }

// Rekey returns a copy of s bucketed under k.
func (s *VisitorGroupStats) Rekey(k group.Key) *VisitorGroupStats {
	out := *s
	out.key = k
	return &out
}

// IsZero reports whether s holds no counts.
func (s *VisitorGroupStats) IsZero() bool {
	return s.VisitorCount() == 0 && s.providedEmailCount == 0 && s.joinMailListCount == 0
}

// VolunteerGroupStats counts volunteers in one group.
type VolunteerGroupStats struct {
	key             group.Key
	headCount       int
	apprenticeCount int
}

// NewVolunteerGroupStats returns stats for key holding the given counts.
func NewVolunteerGroupStats(key group.Key, head, apprentice int) *VolunteerGroupStats {
	s := &VolunteerGroupStats{key: key}
	s.AddToCounts(head, apprentice)
	return s
}

func (s *VolunteerGroupStats) Key() group.Key       { return s.key }
func (s *VolunteerGroupStats) HeadCount() int       { return s.headCount }
func (s *VolunteerGroupStats) ApprenticeCount() int { return s.apprenticeCount }

// AddToCounts adds to the counters. Negative amounts are ignored.
func (s *VolunteerGroupStats) AddToCounts(head, apprentice int) {
	s.headCount += max(head, 0)
	s.apprenticeCount += max(apprentice, 0)
}

func (s *VolunteerGroupStats) Plus(o *VolunteerGroupStats) *VolunteerGroupStats {
	out := s.Clone()
	out.AddToCounts(o.headCount, o.apprenticeCount)
	return out
}

// Clone returns an independent copy of s.
func (s *VolunteerGroupStats) Clone() *VolunteerGroupStats { return s.Rekey(s.key) }

// Rekey returns a copy of s bucketed under k.
func (s *VolunteerGroupStats) Rekey(k group.Key) *VolunteerGroupStats {
	out := *s
	out.key = k
	return &out
}

// IsZero reports whether s holds no counts.
func (s *VolunteerGroupStats) IsZero() bool {
	return s.headCount == 0 && s.apprenticeCount == 0
}

// EventGroupStats counts events in one group.
type EventGroupStats struct {
	key        group.Key
	eventCount int
}

// NewEventGroupStats returns stats for key holding count events.
func NewEventGroupStats(key group.Key, count int) *EventGroupStats {
	s := &EventGroupStats{key: key}
	s.AddToCounts(count)
	return s
}

func (s *EventGroupStats) Key() group.Key  { return s.key }
func (s *EventGroupStats) EventCount() int { return s.eventCount }

// AddToCounts adds to the counter. Negative amounts are ignored.
func (s *EventGroupStats) AddToCounts(count int) {
	s.eventCount += max(count, 0)
}

func (s *EventGroupStats) Plus(o *EventGroupStats) *EventGroupStats {
	out := s.Clone()
	out.AddToCounts(o.eventCount)
	return out
}

// Clone returns an independent copy of s.
func (s *EventGroupStats) Clone() *EventGroupStats { return s.Rekey(s.key) }

// Rekey returns a copy of s bucketed under k.
func (s *EventGroupStats) Rekey(k group.Key) *EventGroupStats {
	return &EventGroupStats{key: k, eventCount: s.eventCount}
}

// IsZero reports whether s holds no counts.
func (s *EventGroupStats) IsZero() bool { return s.eventCount == 0 }
