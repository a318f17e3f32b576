package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"rc-stats/internal/refdata"
)

func checkTaxonomy(t refdata.Taxonomy) error {
	if _, err := refdata.ParseTaxonomy(string(t)); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownTaxonomy, t)
	}
	return nil
}

// UpsertTerm inserts or replaces a reference-data term. A zero ID is
// assigned the next free ID of the taxonomy. The stored term is returned.
func (s *Store) UpsertTerm(ctx context.Context, taxonomy refdata.Taxonomy, t refdata.Term) (refdata.Term, error) {
	if err := checkTaxonomy(taxonomy); err != nil {
		return refdata.Term{}, err
	}
	if t.ID == taxonomy.Unspecified() && t.ID != 0 {
		return refdata.Term{}, fmt.Errorf("term id %d is reserved for unspecified %s", t.ID, taxonomy)
	}
	alts := t.AlternateNames
	if alts == nil {
		alts = []string{}
	}
	altJSON, err := json.Marshal(alts)
	if err != nil {
		return refdata.Term{}, err
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if t.ID == 0 {
			if err := s.queryRow(ctx, tx,
				`SELECT COALESCE(MAX(id), 0) + 1 FROM terms WHERE taxonomy = ?`, string(taxonomy),
			).Scan(&t.ID); err != nil {
				return err
			}
			if t.ID <= 0 {
				t.ID = 1
			}
		}
		_, err := s.exec(ctx, tx, `INSERT INTO terms (taxonomy, id, name, alt_names, position)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (taxonomy, id) DO UPDATE SET
				name = excluded.name,
				alt_names = excluded.alt_names,
				position = excluded.position`,
			string(taxonomy), t.ID, t.Name, string(altJSON), t.Position)
		return err
	})
	if err != nil {
		return refdata.Term{}, fmt.Errorf("upsert %s term: %w", taxonomy, err)
	}
	return t, nil
}

// Terms implements refdata.Catalog, returning terms in display order.
func (s *Store) Terms(ctx context.Context, taxonomy refdata.Taxonomy) ([]refdata.Term, error) {
	if err := checkTaxonomy(taxonomy); err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, s.db,
		`SELECT id, name, alt_names, position FROM terms WHERE taxonomy = ? ORDER BY position, id`,
		string(taxonomy))
	if err != nil {
		return nil, fmt.Errorf("select %s terms: %w", taxonomy, err)
	}
	defer func() { _ = rows.Close() }()

	var out []refdata.Term
	for rows.Next() {
		var t refdata.Term
		var alts string
		if err := rows.Scan(&t.ID, &t.Name, &alts, &t.Position); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if alts != "" {
			if err := json.Unmarshal([]byte(alts), &t.AlternateNames); err != nil {
				return nil, fmt.Errorf("decode alternate names of %s %d: %w", taxonomy, t.ID, err)
			}
		}
		if len(t.AlternateNames) == 0 {
			t.AlternateNames = nil
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// rebucket lists the statements that move rows referencing a deleted term
// into the unspecified value. Supplemental rows are merged additively into
// the unspecified row of the same event before the originals are removed.
type rebucket struct {
	updates []string
	merges  []string
	cleanup []string
}

var rebuckets = map[refdata.Taxonomy]rebucket{
	refdata.ItemTypes: {
		updates: []string{`UPDATE items SET item_type_id = 0 WHERE item_type_id = ?`},
		merges:  []string{supItemsMerge("0", "fixer_station_id", "item_type_id")},
		cleanup: []string{`DELETE FROM sup_items WHERE item_type_id = ?`},
	},
	refdata.FixerStations: {
		updates: []string{
			`UPDATE items SET fixer_station_id = 0 WHERE fixer_station_id = ?`,
			`UPDATE volunteer_registrations SET fixer_station_id = 0 WHERE fixer_station_id = ?`,
		},
		merges: []string{
			supItemsMerge("item_type_id", "0", "fixer_station_id"),
			supVolunteersMerge("role_id", "0", "fixer_station_id"),
		},
		cleanup: []string{
			`DELETE FROM sup_items WHERE fixer_station_id = ?`,
			`DELETE FROM sup_volunteers WHERE fixer_station_id = ?`,
		},
	},
	// Registrations left without roles fall into the unspecified role through
	// the LEFT JOIN in VolunteerCounts, so only the role link is removed.
	refdata.VolunteerRoles: {
		merges: []string{supVolunteersMerge("0", "fixer_station_id", "role_id")},
		cleanup: []string{
			`DELETE FROM volunteer_registration_roles WHERE role_id = ?`,
			`DELETE FROM sup_volunteers WHERE role_id = ?`,
		},
	},
	refdata.EventCategories: {
		cleanup: []string{`DELETE FROM event_categories WHERE category_id = ?`},
	},
}

func supItemsMerge(typeExpr, stationExpr, column string) string {
	return `INSERT INTO sup_items (event_key, item_type_id, fixer_station_id,
			fixed_count, repairable_count, eol_count, unreported_count)
		SELECT event_key, ` + typeExpr + `, ` + stationExpr + `,
			fixed_count, repairable_count, eol_count, unreported_count
		FROM sup_items WHERE ` + column + ` = ?
		ON CONFLICT (event_key, item_type_id, fixer_station_id) DO UPDATE SET
			fixed_count = sup_items.fixed_count + excluded.fixed_count,
			repairable_count = sup_items.repairable_count + excluded.repairable_count,
			eol_count = sup_items.eol_count + excluded.eol_count,
			unreported_count = sup_items.unreported_count + excluded.unreported_count`
}

func supVolunteersMerge(roleExpr, stationExpr, column string) string {
	return `INSERT INTO sup_volunteers (event_key, role_id, fixer_station_id, head_count, apprentice_count)
		SELECT event_key, ` + roleExpr + `, ` + stationExpr + `, head_count, apprentice_count
		FROM sup_volunteers WHERE ` + column + ` = ?
		ON CONFLICT (event_key, role_id, fixer_station_id) DO UPDATE SET
			head_count = sup_volunteers.head_count + excluded.head_count,
			apprentice_count = sup_volunteers.apprentice_count + excluded.apprentice_count`
}

// DeleteTerm removes a term and re-buckets every internal and supplemental
// row referencing it into the unspecified value of the same event. The
// unspecified sentinel itself cannot be deleted.
func (s *Store) DeleteTerm(ctx context.Context, taxonomy refdata.Taxonomy, id int64) error {
	if err := checkTaxonomy(taxonomy); err != nil {
		return err
	}
	if id == taxonomy.Unspecified() || id == 0 {
		return fmt.Errorf("cannot delete unspecified %s", taxonomy)
	}
	rb := rebuckets[taxonomy]

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, stmts := range [][]string{rb.updates, rb.merges, rb.cleanup} {
			for _, q := range stmts {
				if _, err := s.exec(ctx, tx, q, id); err != nil {
					return err
				}
			}
		}
		_, err := s.exec(ctx, tx, `DELETE FROM terms WHERE taxonomy = ? AND id = ?`, string(taxonomy), id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", taxonomy, id, err)
	}
	log.Info().Str("taxonomy", string(taxonomy)).Int64("id", id).Msg("Deleted reference term and re-bucketed rows")
	return nil
}
