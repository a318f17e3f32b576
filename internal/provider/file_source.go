package provider

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Record kinds accepted in a JSONL provider file.
const (
	KindItem      = "item"
	KindVisitor   = "visitor"
	KindVolunteer = "volunteer"
)

type envelope struct {
	Kind string `json:"kind"`
}

// FileSource is a provider backed by a JSONL file exported from another
// system. Each line carries a "kind" field plus the fields of an
// ItemRecord, VisitorRecord or VolunteerRecord.
type FileSource struct {
	name       string
	items      []ItemRecord
	visitors   []VisitorRecord
	volunteers []VolunteerRecord
}

// LoadFile reads a provider file. The provider is named after the file
// unless name is non-empty.
func LoadFile(path, name string) (*FileSource, error) {
	if name == "" {
		name = "file:" + strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open provider file: %w", err)
	}
	defer file.Close()

	s := &FileSource{name: name}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}
		if err := s.decode(raw); err != nil {
			log.Warn().Err(err).Str("provider", name).Int("line", line).Msg("Skipping invalid JSON line in provider file")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading provider file: %w", err)
	}

	log.Info().
		Str("provider", name).
		Int("items", len(s.items)).
		Int("visitors", len(s.visitors)).
		Int("volunteers", len(s.volunteers)).
		Msg("Loaded provider file")
	return s, nil
}

func (s *FileSource) decode(raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	switch env.Kind {
	case KindItem:
		var r ItemRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		if r.Source == "" {
			r.Source = s.name
		}
		s.items = append(s.items, r)
	case KindVisitor:
		var r VisitorRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		if r.Source == "" {
			r.Source = s.name
		}
		s.visitors = append(s.visitors, r)
	case KindVolunteer:
		var r VolunteerRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		if r.Source == "" {
			r.Source = s.name
		}
		s.volunteers = append(s.volunteers, r)
	default:
		return fmt.Errorf("unknown record kind %q", env.Kind)
	}
	return nil
}

// Name implements Provider.
func (s *FileSource) Name() string { return s.name }

func filtered[T interface{ KeyRecord() KeyRecord }](records []T, filter []KeyRecord) []T {
	if filter == nil {
		return records
	}
	var out []T
	for _, r := range records {
		if Matches(filter, r.KeyRecord()) {
			out = append(out, r)
		}
	}
	return out
}

func (s *FileSource) ItemStats(_ context.Context, acc []ItemStatsRow, filter []KeyRecord, groupBy string) ([]ItemStatsRow, error) {
	return append(acc, AggregateItems(filtered(s.items, filter), groupBy)...), nil
}

func (s *FileSource) VisitorStats(_ context.Context, acc []VisitorStatsRow, filter []KeyRecord, groupBy string) ([]VisitorStatsRow, error) {
	return append(acc, AggregateVisitors(filtered(s.visitors, filter), groupBy)...), nil
}

func (s *FileSource) VolunteerStats(_ context.Context, acc []VolunteerStatsRow, filter []KeyRecord, groupBy string) ([]VolunteerStatsRow, error) {
	return append(acc, AggregateVolunteers(filtered(s.volunteers, filter), groupBy)...), nil
}

func (s *FileSource) Items(_ context.Context, acc []ItemRecord, filter []KeyRecord) ([]ItemRecord, error) {
	return append(acc, filtered(s.items, filter)...), nil
}

func (s *FileSource) VisitorRegistrations(_ context.Context, acc []VisitorRecord, filter []KeyRecord) ([]VisitorRecord, error) {
	return append(acc, filtered(s.visitors, filter)...), nil
}

func (s *FileSource) VolunteerRegistrations(_ context.Context, acc []VolunteerRecord, filter []KeyRecord) ([]VolunteerRecord, error) {
	return append(acc, filtered(s.volunteers, filter)...), nil
}

// EventKeysInRange returns the events at which the file records items.
func (s *FileSource) EventKeysInRange(_ context.Context, acc []KeyRecord, from, to time.Time) ([]KeyRecord, error) {
	var keys []KeyRecord
	for _, r := range s.items {
		k := r.KeyRecord()
		if k.InRange(from, to) && !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return append(acc, keys...), nil
}
