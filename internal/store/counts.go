package store

import (
	"context"
	"fmt"

	"rc-stats/internal/event"
	"rc-stats/internal/group"
)

// ItemCountRow is one grouped item aggregate.
type ItemCountRow struct {
	Key        group.Key
	Items      int
	Fixed      int
	Repairable int
	EOL        int
}

// VisitorCountRow is one grouped visitor aggregate.
type VisitorCountRow struct {
	Key           group.Key
	FirstTime     int
	Returning     int
	Unknown       int
	ProvidedEmail int
	JoinMailList  int
}

// VolunteerCountRow is one grouped volunteer aggregate.
type VolunteerCountRow struct {
	Key        group.Key
	Head       int
	Apprentice int
}

// groupExpr returns the SQL expression producing the group key string for a
// dimension, given the table alias prefix. Tables use the same column names
// for the same dimension so the expressions are shared.
func groupExpr(by group.By, p string) (string, error) {
	switch by {
	case group.ByTotal:
		return "''", nil
	case group.ByEvent:
		return p + "event_key", nil
	case group.ByItemType:
		return "CAST(" + p + "item_type_id AS TEXT)", nil
	case group.ByFixerStation:
		return "CAST(" + p + "fixer_station_id AS TEXT)", nil
	case group.ByStationAndType:
		return "CAST(" + p + "fixer_station_id AS TEXT) || '|' || CAST(" + p + "item_type_id AS TEXT)", nil
	case group.ByVolunteerRole:
		return "CAST(" + p + "role_id AS TEXT)", nil
	}
	return "", fmt.Errorf("%w: %s", group.ErrUnsupportedGrouping, by)
}

func itemGrouping(by group.By) bool {
	switch by {
	case group.ByTotal, group.ByEvent, group.ByItemType, group.ByFixerStation, group.ByStationAndType:
		return true
	}
	return false
}

func (s *Store) scanItemRows(ctx context.Context, query string, args ...any) ([]ItemCountRow, error) {
	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ItemCountRow
	for rows.Next() {
		var r ItemCountRow
		var key string
		if err := rows.Scan(&key, &r.Items, &r.Fixed, &r.Repairable, &r.EOL); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if r.Items == 0 {
			continue
		}
		r.Key = group.Key(key)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ItemCounts aggregates internal items at the selected events.
func (s *Store) ItemCounts(ctx context.Context, keys event.KeySet, by group.By) ([]ItemCountRow, error) {
	if !itemGrouping(by) {
		return nil, fmt.Errorf("%w: items by %s", group.ErrUnsupportedGrouping, by)
	}
	if keys.IsEmpty() {
		return nil, nil
	}
	g, _ := groupExpr(by, "")
	cond, args := keyClause("event_key", keys)
	rows, err := s.scanItemRows(ctx, `SELECT `+g+`, COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'fixed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'repairable' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'eol' THEN 1 ELSE 0 END), 0)
		FROM items`+where(cond)+` GROUP BY 1 ORDER BY 1`, args...)
	if err != nil {
		return nil, fmt.Errorf("item counts by %s: %w", by, err)
	}
	return rows, nil
}

// SupplementalItemCounts aggregates supplemental item rows at the selected events.
// Unreported items count towards the item total only.
func (s *Store) SupplementalItemCounts(ctx context.Context, keys event.KeySet, by group.By) ([]ItemCountRow, error) {
	if !itemGrouping(by) {
		return nil, fmt.Errorf("%w: items by %s", group.ErrUnsupportedGrouping, by)
	}
	if keys.IsEmpty() {
		return nil, nil
	}
	g, _ := groupExpr(by, "")
	cond, args := keyClause("event_key", keys)
	rows, err := s.scanItemRows(ctx, `SELECT `+g+`,
			COALESCE(SUM(fixed_count + repairable_count + eol_count + unreported_count), 0),
			COALESCE(SUM(fixed_count), 0),
			COALESCE(SUM(repairable_count), 0),
			COALESCE(SUM(eol_count), 0)
		FROM sup_items`+where(cond)+` GROUP BY 1 ORDER BY 1`, args...)
	if err != nil {
		return nil, fmt.Errorf("supplemental item counts by %s: %w", by, err)
	}
	return rows, nil
}

func (s *Store) scanVisitorRows(ctx context.Context, query string, args ...any) ([]VisitorCountRow, error) {
	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []VisitorCountRow
	for rows.Next() {
		var r VisitorCountRow
		var key string
		if err := rows.Scan(&key, &r.FirstTime, &r.Returning, &r.Unknown, &r.ProvidedEmail, &r.JoinMailList); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if r.FirstTime+r.Returning+r.Unknown+r.ProvidedEmail+r.JoinMailList == 0 {
			continue
		}
		r.Key = group.Key(key)
		out = append(out, r)
	}
	return out, rows.Err()
}

func visitorGrouping(by group.By) bool {
	return by == group.ByTotal || by == group.ByEvent
}

// VisitorCounts aggregates internal visitor registrations at the selected events.
func (s *Store) VisitorCounts(ctx context.Context, keys event.KeySet, by group.By) ([]VisitorCountRow, error) {
	if !visitorGrouping(by) {
		return nil, fmt.Errorf("%w: visitors by %s", group.ErrUnsupportedGrouping, by)
	}
	if keys.IsEmpty() {
		return nil, nil
	}
	g, _ := groupExpr(by, "")
	cond, args := keyClause("event_key", keys)
	rows, err := s.scanVisitorRows(ctx, `SELECT `+g+`,
			COALESCE(SUM(CASE WHEN is_first_event = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_first_event = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_first_event IS NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN email <> '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN join_mail_list = 1 THEN 1 ELSE 0 END), 0)
		FROM visitor_registrations`+where(cond)+` GROUP BY 1 ORDER BY 1`, args...)
	if err != nil {
		return nil, fmt.Errorf("visitor counts by %s: %w", by, err)
	}
	return rows, nil
}

// SupplementalVisitorCounts aggregates supplemental visitor rows at the selected events.
func (s *Store) SupplementalVisitorCounts(ctx context.Context, keys event.KeySet, by group.By) ([]VisitorCountRow, error) {
	if !visitorGrouping(by) {
		return nil, fmt.Errorf("%w: visitors by %s", group.ErrUnsupportedGrouping, by)
	}
	if keys.IsEmpty() {
		return nil, nil
	}
	g, _ := groupExpr(by, "")
	cond, args := keyClause("event_key", keys)
	rows, err := s.scanVisitorRows(ctx, `SELECT `+g+`,
			COALESCE(SUM(first_time_count), 0),
			COALESCE(SUM(returning_count), 0),
			COALESCE(SUM(unreported_count), 0),
			0, 0
		FROM sup_visitors`+where(cond)+` GROUP BY 1 ORDER BY 1`, args...)
	if err != nil {
		return nil, fmt.Errorf("supplemental visitor counts by %s: %w", by, err)
	}
	return rows, nil
}

func volunteerGrouping(by group.By) bool {
	switch by {
	case group.ByTotal, group.ByEvent, group.ByVolunteerRole, group.ByFixerStation:
		return true
	}
	return false
}

func (s *Store) scanVolunteerRows(ctx context.Context, query string, args ...any) ([]VolunteerCountRow, error) {
	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []VolunteerCountRow
	for rows.Next() {
		var r VolunteerCountRow
		var key string
		if err := rows.Scan(&key, &r.Head, &r.Apprentice); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if r.Head == 0 && r.Apprentice == 0 {
			continue
		}
		r.Key = group.Key(key)
		out = append(out, r)
	}
	return out, rows.Err()
}

// VolunteerCounts aggregates internal volunteer registrations at the selected
// events. Grouped by role, a volunteer counts once per role and a volunteer
// without roles counts under the unspecified role.
func (s *Store) VolunteerCounts(ctx context.Context, keys event.KeySet, by group.By) ([]VolunteerCountRow, error) {
	if !volunteerGrouping(by) {
		return nil, fmt.Errorf("%w: volunteers by %s", group.ErrUnsupportedGrouping, by)
	}
	if keys.IsEmpty() {
		return nil, nil
	}
	cond, args := keyClause("v.event_key", keys)
	from := ` FROM volunteer_registrations v`
	g, _ := groupExpr(by, "v.")
	if by == group.ByVolunteerRole {
		g = "CAST(COALESCE(r.role_id, 0) AS TEXT)"
		from += ` LEFT JOIN volunteer_registration_roles r ON r.registration_id = v.id`
	}
	rows, err := s.scanVolunteerRows(ctx, `SELECT `+g+`, COUNT(*),
			COALESCE(SUM(CASE WHEN v.is_apprentice = 1 THEN 1 ELSE 0 END), 0)`+
		from+where(cond)+` GROUP BY 1 ORDER BY 1`, args...)
	if err != nil {
		return nil, fmt.Errorf("volunteer counts by %s: %w", by, err)
	}
	return rows, nil
}

// SupplementalVolunteerCounts aggregates supplemental volunteer rows at the selected events.
func (s *Store) SupplementalVolunteerCounts(ctx context.Context, keys event.KeySet, by group.By) ([]VolunteerCountRow, error) {
	if !volunteerGrouping(by) {
		return nil, fmt.Errorf("%w: volunteers by %s", group.ErrUnsupportedGrouping, by)
	}
	if keys.IsEmpty() {
		return nil, nil
	}
	g, _ := groupExpr(by, "")
	cond, args := keyClause("event_key", keys)
	rows, err := s.scanVolunteerRows(ctx, `SELECT `+g+`,
			COALESCE(SUM(head_count), 0),
			COALESCE(SUM(apprentice_count), 0)
		FROM sup_volunteers`+where(cond)+` GROUP BY 1 ORDER BY 1`, args...)
	if err != nil {
		return nil, fmt.Errorf("supplemental volunteer counts by %s: %w", by, err)
	}
	return rows, nil
}
