package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"rc-stats/internal/event"
)

// keyClause returns a condition restricting column to the key set, or ""
// when the set is ALL. An explicit empty set yields a condition that
// matches nothing.
func keyClause(column string, keys event.KeySet) (string, []any) {
	if keys.IsAll() {
		return "", nil
	}
	if keys.IsEmpty() {
		return "1 = 0", nil
	}
	strs := keys.Strings()
	args := make([]any, len(strs))
	for i, s := range strs {
		args[i] = s
	}
	return column + " IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(strs)), ", ") + ")", args
}

func where(conds ...string) string {
	var parts []string
	for _, c := range conds {
		if c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

// AddEvent inserts or replaces an event and its categories.
func (s *Store) AddEvent(ctx context.Context, e event.Event) error {
	k := e.Key
	if k.DescriptorID == "" {
		return fmt.Errorf("add event: %w: missing descriptor", event.ErrMalformedKey)
	}
	if k.ProviderID == "" {
		k.ProviderID = event.InternalProviderID
	}
	key := k.String()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, `INSERT INTO events (event_key, descriptor_id, provider_id, event_date, title, country)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (event_key) DO UPDATE SET title = excluded.title, country = excluded.country`,
			key, k.DescriptorID, k.ProviderID, k.Date.Format(event.DateLayout), e.Title, e.Country); err != nil {
			return err
		}
		if _, err := s.exec(ctx, tx, `DELETE FROM event_categories WHERE event_key = ?`, key); err != nil {
			return err
		}
		for _, c := range e.Categories {
			if _, err := s.exec(ctx, tx, `INSERT INTO event_categories (event_key, category_id) VALUES (?, ?)
				ON CONFLICT (event_key, category_id) DO NOTHING`, key, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("add event %s: %w", key, err)
	}
	return nil
}

// Events returns the stored events selected by keys, ordered by key.
func (s *Store) Events(ctx context.Context, keys event.KeySet) ([]event.Event, error) {
	if keys.IsEmpty() {
		return nil, nil
	}
	cond, args := keyClause("event_key", keys)
	rows, err := s.query(ctx, s.db, `SELECT event_key, title, country FROM events`+where(cond)+
		` ORDER BY event_date, descriptor_id, provider_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	var out []event.Event
	index := make(map[string]int)
	for rows.Next() {
		var raw string
		var e event.Event
		if err := rows.Scan(&raw, &e.Title, &e.Country); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan: %w", err)
		}
		k, err := event.ParseKey(raw)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		e.Key = k
		index[raw] = len(out)
		out = append(out, e)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cond, args = keyClause("event_key", keys)
	crows, err := s.query(ctx, s.db, `SELECT event_key, category_id FROM event_categories`+where(cond)+
		` ORDER BY event_key, category_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("select event categories: %w", err)
	}
	defer func() { _ = crows.Close() }()
	for crows.Next() {
		var raw string
		var c int64
		if err := crows.Scan(&raw, &c); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if i, ok := index[raw]; ok {
			out[i].Categories = append(out[i].Categories, c)
		}
	}
	return out, crows.Err()
}

// EventKeys returns the keys of stored events dated within [from, to].
// Zero bounds are open.
func (s *Store) EventKeys(ctx context.Context, from, to time.Time) ([]event.Key, error) {
	var conds []string
	var args []any
	if !from.IsZero() {
		conds = append(conds, "event_date >= ?")
		args = append(args, from.Format(event.DateLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "event_date <= ?")
		args = append(args, to.Format(event.DateLayout))
	}
	rows, err := s.query(ctx, s.db, `SELECT event_key FROM events`+where(conds...)+
		` ORDER BY event_date, descriptor_id, provider_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("select event keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []event.Key
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		k, err := event.ParseKey(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// CountEvents returns the number of stored events.
func (s *Store) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.queryRow(ctx, s.db, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
