// Package refdata holds the reference data that statistics are grouped by:
// item types, fixer stations, volunteer roles and event categories.
package refdata

import (
	"context"
	"fmt"
	"strings"
)

// Taxonomy names one kind of reference data.
type Taxonomy string

const (
	ItemTypes       Taxonomy = "item_type"
	FixerStations   Taxonomy = "fixer_station"
	VolunteerRoles  Taxonomy = "volunteer_role"
	EventCategories Taxonomy = "event_category"
)

// Sentinel IDs meaning "not specified" for each taxonomy.
const (
	UnspecifiedItemTypeID      int64 = 0
	UnspecifiedFixerStationID  int64 = 0
	UnspecifiedVolunteerRoleID int64 = 0
	CategoryNotSpecified       int64 = -1
)

// Taxonomies lists every taxonomy in a stable order.
var Taxonomies = []Taxonomy{ItemTypes, FixerStations, VolunteerRoles, EventCategories}

// ParseTaxonomy validates a taxonomy name.
func ParseTaxonomy(s string) (Taxonomy, error) {
	for _, t := range Taxonomies {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown taxonomy %q", s)
}

// Unspecified returns the "not specified" sentinel ID of the taxonomy.
func (t Taxonomy) Unspecified() int64 {
	if t == EventCategories {
		return CategoryNotSpecified
	}
	return 0
}

// Term is one reference-data value.
type Term struct {
	ID   int64  `json:"id" koanf:"id"`
	Name string `json:"name" koanf:"name"`
	// AlternateNames are matched when reconciling names supplied by external providers.
	AlternateNames []string `json:"alternate_names,omitempty" koanf:"alternate_names"`
	// Position is the display order; ties are broken by ID.
	Position int `json:"position" koanf:"position"`
}

// Catalog supplies the canonically ordered terms of a taxonomy.
type Catalog interface {
	Terms(ctx context.Context, taxonomy Taxonomy) ([]Term, error)
}

// FindByName returns the term whose name or alternate name matches name,
// ignoring case and surrounding whitespace.
func FindByName(terms []Term, name string) (Term, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Term{}, false
	}
	for _, t := range terms {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	for _, t := range terms {
		for _, alt := range t.AlternateNames {
			if strings.EqualFold(alt, name) {
				return t, true
			}
		}
	}
	return Term{}, false
}

// FindByID returns the term with the given ID.
func FindByID(terms []Term, id int64) (Term, bool) {
	for _, t := range terms {
		if t.ID == id {
			return t, true
		}
	}
	return Term{}, false
}

// NameOf returns the name of the term with the given ID, or "" if unknown.
func NameOf(terms []Term, id int64) string {
	if t, ok := FindByID(terms, id); ok {
		return t.Name
	}
	return ""
}
