package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"rc-stats/internal/event"
	"rc-stats/internal/metrics"
)

// ErrNegativeCount is returned when a supplemental write carries a negative count.
var ErrNegativeCount = errors.New("supplemental counts must not be negative")

// SupplementalItem is one supplemental item row.
type SupplementalItem struct {
	EventKey       event.Key `json:"event_key"`
	ItemTypeID     int64     `json:"item_type_id"`
	FixerStationID int64     `json:"fixer_station_id"`
	Fixed          int       `json:"fixed_count"`
	Repairable     int       `json:"repairable_count"`
	EOL            int       `json:"eol_count"`
	Unreported     int       `json:"unreported_count"`
}

func (r SupplementalItem) isZero() bool {
	return r.Fixed == 0 && r.Repairable == 0 && r.EOL == 0 && r.Unreported == 0
}

func (r SupplementalItem) negative() bool {
	return r.Fixed < 0 || r.Repairable < 0 || r.EOL < 0 || r.Unreported < 0
}

// SupplementalVisitor is one supplemental visitor row.
type SupplementalVisitor struct {
	EventKey   event.Key `json:"event_key"`
	FirstTime  int       `json:"first_time_count"`
	Returning  int       `json:"returning_count"`
	Unreported int       `json:"unreported_count"`
}

func (r SupplementalVisitor) isZero() bool {
	return r.FirstTime == 0 && r.Returning == 0 && r.Unreported == 0
}

func (r SupplementalVisitor) negative() bool {
	return r.FirstTime < 0 || r.Returning < 0 || r.Unreported < 0
}

// SupplementalVolunteer is one supplemental volunteer row.
type SupplementalVolunteer struct {
	EventKey       event.Key `json:"event_key"`
	RoleID         int64     `json:"role_id"`
	FixerStationID int64     `json:"fixer_station_id"`
	Head           int       `json:"head_count"`
	Apprentice     int       `json:"apprentice_count"`
}

func (r SupplementalVolunteer) isZero() bool {
	return r.Head == 0 && r.Apprentice == 0
}

func (r SupplementalVolunteer) negative() bool {
	return r.Head < 0 || r.Apprentice < 0
}

// writeSupplemental applies the supplemental write contract: all-zero counts
// delete the row, which is a successful no-op when it does not exist, and
// anything else upserts it.
func (s *Store) writeSupplemental(ctx context.Context, table string, zero bool, del string, delArgs []any, upsert string, upsertArgs []any) error {
	op := "upsert"
	query, args := upsert, upsertArgs
	if zero {
		op = "delete"
		query, args = del, delArgs
	}
	_, err := s.exec(ctx, s.db, query, args...)
	metrics.ObserveSupplementalWrite(table, op, err)
	if err != nil {
		log.Error().Err(err).Str("table", table).Str("op", op).Msg("Supplemental write failed")
		return fmt.Errorf("%s %s: %w", op, table, err)
	}
	return nil
}

// SetSupplementalItem stores or clears one supplemental item row.
func (s *Store) SetSupplementalItem(ctx context.Context, r SupplementalItem) error {
	if r.negative() {
		return ErrNegativeCount
	}
	key := r.EventKey.String()
	return s.writeSupplemental(ctx, "sup_items", r.isZero(),
		`DELETE FROM sup_items WHERE event_key = ? AND item_type_id = ? AND fixer_station_id = ?`,
		[]any{key, r.ItemTypeID, r.FixerStationID},
		`INSERT INTO sup_items (event_key, item_type_id, fixer_station_id,
			fixed_count, repairable_count, eol_count, unreported_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_key, item_type_id, fixer_station_id) DO UPDATE SET
			fixed_count = excluded.fixed_count,
			repairable_count = excluded.repairable_count,
			eol_count = excluded.eol_count,
			unreported_count = excluded.unreported_count`,
		[]any{key, r.ItemTypeID, r.FixerStationID, r.Fixed, r.Repairable, r.EOL, r.Unreported})
}

// SetSupplementalVisitor stores or clears the supplemental visitor row of an event.
func (s *Store) SetSupplementalVisitor(ctx context.Context, r SupplementalVisitor) error {
	if r.negative() {
		return ErrNegativeCount
	}
	key := r.EventKey.String()
	return s.writeSupplemental(ctx, "sup_visitors", r.isZero(),
		`DELETE FROM sup_visitors WHERE event_key = ?`,
		[]any{key},
		`INSERT INTO sup_visitors (event_key, first_time_count, returning_count, unreported_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (event_key) DO UPDATE SET
			first_time_count = excluded.first_time_count,
			returning_count = excluded.returning_count,
			unreported_count = excluded.unreported_count`,
		[]any{key, r.FirstTime, r.Returning, r.Unreported})
}

// SetSupplementalVolunteer stores or clears one supplemental volunteer row.
func (s *Store) SetSupplementalVolunteer(ctx context.Context, r SupplementalVolunteer) error {
	if r.negative() {
		return ErrNegativeCount
	}
	key := r.EventKey.String()
	return s.writeSupplemental(ctx, "sup_volunteers", r.isZero(),
		`DELETE FROM sup_volunteers WHERE event_key = ? AND role_id = ? AND fixer_station_id = ?`,
		[]any{key, r.RoleID, r.FixerStationID},
		`INSERT INTO sup_volunteers (event_key, role_id, fixer_station_id, head_count, apprentice_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (event_key, role_id, fixer_station_id) DO UPDATE SET
			head_count = excluded.head_count,
			apprentice_count = excluded.apprentice_count`,
		[]any{key, r.RoleID, r.FixerStationID, r.Head, r.Apprentice})
}

// SupplementalItems returns the supplemental item rows at the selected events.
func (s *Store) SupplementalItems(ctx context.Context, keys event.KeySet) ([]SupplementalItem, error) {
	if keys.IsEmpty() {
		return nil, nil
	}
	cond, args := keyClause("event_key", keys)
	rows, err := s.query(ctx, s.db, `SELECT event_key, item_type_id, fixer_station_id,
			fixed_count, repairable_count, eol_count, unreported_count
		FROM sup_items`+where(cond)+` ORDER BY event_key, fixer_station_id, item_type_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("select supplemental items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SupplementalItem
	for rows.Next() {
		var r SupplementalItem
		var raw string
		if err := rows.Scan(&raw, &r.ItemTypeID, &r.FixerStationID, &r.Fixed, &r.Repairable, &r.EOL, &r.Unreported); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if r.EventKey, err = event.ParseKey(raw); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SupplementalVisitors returns the supplemental visitor rows at the selected events.
func (s *Store) SupplementalVisitors(ctx context.Context, keys event.KeySet) ([]SupplementalVisitor, error) {
	if keys.IsEmpty() {
		return nil, nil
	}
	cond, args := keyClause("event_key", keys)
	rows, err := s.query(ctx, s.db, `SELECT event_key, first_time_count, returning_count, unreported_count
		FROM sup_visitors`+where(cond)+` ORDER BY event_key`, args...)
	if err != nil {
		return nil, fmt.Errorf("select supplemental visitors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SupplementalVisitor
	for rows.Next() {
		var r SupplementalVisitor
		var raw string
		if err := rows.Scan(&raw, &r.FirstTime, &r.Returning, &r.Unreported); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if r.EventKey, err = event.ParseKey(raw); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SupplementalVolunteers returns the supplemental volunteer rows at the selected events.
func (s *Store) SupplementalVolunteers(ctx context.Context, keys event.KeySet) ([]SupplementalVolunteer, error) {
	if keys.IsEmpty() {
		return nil, nil
	}
	cond, args := keyClause("event_key", keys)
	rows, err := s.query(ctx, s.db, `SELECT event_key, role_id, fixer_station_id, head_count, apprentice_count
		FROM sup_volunteers`+where(cond)+` ORDER BY event_key, role_id, fixer_station_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("select supplemental volunteers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SupplementalVolunteer
	for rows.Next() {
		var r SupplementalVolunteer
		var raw string
		if err := rows.Scan(&raw, &r.RoleID, &r.FixerStationID, &r.Head, &r.Apprentice); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if r.EventKey, err = event.ParseKey(raw); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
