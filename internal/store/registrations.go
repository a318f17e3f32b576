package store

import (
	"context"
	"database/sql"
	"fmt"

	"rc-stats/internal/event"
	"rc-stats/internal/provider"
)

// Item is an item registered for repair at an event.
type Item struct {
	ID             int64
	EventKey       event.Key
	Description    string
	ItemTypeID     int64
	FixerStationID int64
	// Status is one of the provider status constants, or "" when unknown.
	Status string
	// VisitorID is the owning visitor registration, 0 if none.
	VisitorID int64

	VisitorFullName   string
	VisitorPublicName string
}

// VisitorRegistration is a visitor registered at an event.
type VisitorRegistration struct {
	ID         int64
	EventKey   event.Key
	FullName   string
	PublicName string
	Email      string
	// IsFirstEvent is nil when the visitor did not say.
	IsFirstEvent *bool
	JoinMailList bool
	// ItemCount is derived from the items referencing the registration.
	ItemCount int
}

// VolunteerRegistration is a volunteer registered at an event.
type VolunteerRegistration struct {
	ID             int64
	EventKey       event.Key
	FullName       string
	PublicName     string
	Email          string
	RoleIDs        []int64
	FixerStationID int64
	IsApprentice   bool
}

func (s *Store) insertReturningID(ctx context.Context, q querier, query string, args ...any) (int64, error) {
	var id int64
	if err := s.queryRow(ctx, q, query+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// AddItem stores an item and returns its ID.
func (s *Store) AddItem(ctx context.Context, it Item) (int64, error) {
	var visitor any
	if it.VisitorID != 0 {
		visitor = it.VisitorID
	}
	id, err := s.insertReturningID(ctx, s.db,
		`INSERT INTO items (event_key, description, item_type_id, fixer_station_id, status, visitor_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		it.EventKey.String(), it.Description, it.ItemTypeID, it.FixerStationID,
		provider.NormalizeStatus(it.Status), visitor)
	if err != nil {
		return 0, fmt.Errorf("add item: %w", err)
	}
	return id, nil
}

// AddVisitorRegistration stores a visitor registration and returns its ID.
func (s *Store) AddVisitorRegistration(ctx context.Context, v VisitorRegistration) (int64, error) {
	var first any
	if v.IsFirstEvent != nil {
		first = boolInt(*v.IsFirstEvent)
	}
	id, err := s.insertReturningID(ctx, s.db,
		`INSERT INTO visitor_registrations (event_key, full_name, public_name, email, is_first_event, join_mail_list)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.EventKey.String(), v.FullName, v.PublicName, v.Email, first, boolInt(v.JoinMailList))
	if err != nil {
		return 0, fmt.Errorf("add visitor registration: %w", err)
	}
	return id, nil
}

// AddVolunteerRegistration stores a volunteer registration with its roles
// and returns its ID.
func (s *Store) AddVolunteerRegistration(ctx context.Context, v VolunteerRegistration) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.insertReturningID(ctx, tx,
			`INSERT INTO volunteer_registrations (event_key, full_name, public_name, email, fixer_station_id, is_apprentice)
			VALUES (?, ?, ?, ?, ?, ?)`,
			v.EventKey.String(), v.FullName, v.PublicName, v.Email, v.FixerStationID, boolInt(v.IsApprentice))
		if err != nil {
			return err
		}
		for _, role := range v.RoleIDs {
			if _, err := s.exec(ctx, tx, `INSERT INTO volunteer_registration_roles (registration_id, role_id) VALUES (?, ?)
				ON CONFLICT (registration_id, role_id) DO NOTHING`, id, role); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("add volunteer registration: %w", err)
	}
	return id, nil
}

// Items returns the internal items registered at the selected events.
func (s *Store) Items(ctx context.Context, keys event.KeySet) ([]Item, error) {
	if keys.IsEmpty() {
		return nil, nil
	}
	cond, args := keyClause("i.event_key", keys)
	rows, err := s.query(ctx, s.db, `SELECT i.id, i.event_key, i.description, i.item_type_id, i.fixer_station_id,
			i.status, COALESCE(i.visitor_id, 0), COALESCE(v.full_name, ''), COALESCE(v.public_name, '')
		FROM items i LEFT JOIN visitor_registrations v ON v.id = i.visitor_id`+where(cond)+
		` ORDER BY i.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Item
	for rows.Next() {
		var it Item
		var raw string
		if err := rows.Scan(&it.ID, &raw, &it.Description, &it.ItemTypeID, &it.FixerStationID,
			&it.Status, &it.VisitorID, &it.VisitorFullName, &it.VisitorPublicName); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if it.EventKey, err = event.ParseKey(raw); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// VisitorRegistrations returns the internal visitor registrations at the selected events.
func (s *Store) VisitorRegistrations(ctx context.Context, keys event.KeySet) ([]VisitorRegistration, error) {
	if keys.IsEmpty() {
		return nil, nil
	}
	cond, args := keyClause("v.event_key", keys)
	rows, err := s.query(ctx, s.db, `SELECT v.id, v.event_key, v.full_name, v.public_name, v.email,
			v.is_first_event, v.join_mail_list,
			(SELECT COUNT(*) FROM items i WHERE i.visitor_id = v.id)
		FROM visitor_registrations v`+where(cond)+` ORDER BY v.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("select visitor registrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []VisitorRegistration
	for rows.Next() {
		var v VisitorRegistration
		var raw string
		var first sql.NullInt64
		var join int
		if err := rows.Scan(&v.ID, &raw, &v.FullName, &v.PublicName, &v.Email, &first, &join, &v.ItemCount); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if v.EventKey, err = event.ParseKey(raw); err != nil {
			return nil, err
		}
		if first.Valid {
			b := first.Int64 == 1
			v.IsFirstEvent = &b
		}
		v.JoinMailList = join == 1
		out = append(out, v)
	}
	return out, rows.Err()
}

// VolunteerRegistrations returns the internal volunteer registrations at the selected events.
func (s *Store) VolunteerRegistrations(ctx context.Context, keys event.KeySet) ([]VolunteerRegistration, error) {
	if keys.IsEmpty() {
		return nil, nil
	}
	cond, args := keyClause("v.event_key", keys)
	rows, err := s.query(ctx, s.db, `SELECT v.id, v.event_key, v.full_name, v.public_name, v.email,
			v.fixer_station_id, v.is_apprentice
		FROM volunteer_registrations v`+where(cond)+` ORDER BY v.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("select volunteer registrations: %w", err)
	}
	var out []VolunteerRegistration
	index := make(map[int64]int)
	for rows.Next() {
		var v VolunteerRegistration
		var raw string
		var apprentice int
		if err := rows.Scan(&v.ID, &raw, &v.FullName, &v.PublicName, &v.Email, &v.FixerStationID, &apprentice); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan: %w", err)
		}
		if v.EventKey, err = event.ParseKey(raw); err != nil {
			_ = rows.Close()
			return nil, err
		}
		v.IsApprentice = apprentice == 1
		index[v.ID] = len(out)
		out = append(out, v)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rrows, err := s.query(ctx, s.db, `SELECT r.registration_id, r.role_id
		FROM volunteer_registration_roles r JOIN volunteer_registrations v ON v.id = r.registration_id`+
		where(cond)+` ORDER BY r.registration_id, r.role_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("select volunteer roles: %w", err)
	}
	defer func() { _ = rrows.Close() }()
	for rrows.Next() {
		var regID, roleID int64
		if err := rrows.Scan(&regID, &roleID); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if i, ok := index[regID]; ok {
			out[i].RoleIDs = append(out[i].RoleIDs, roleID)
		}
	}
	return out, rrows.Err()
}
