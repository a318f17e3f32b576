// Package registration exposes individual registrations, whatever their
// provenance, as read-only descriptors.
package registration

import (
	"rc-stats/internal/event"
)

// Source names where a descriptor's record came from.
type Source string

const (
	Internal     Source = "internal"
	External     Source = "external"
	Supplemental Source = "supplemental"
)

// Descriptor is the part shared by every registration view.
type Descriptor interface {
	// EventKey is the event the record belongs to. It is the zero key when an
	// external record names an event that cannot be parsed.
	EventKey() event.Key
	Source() Source
}

// Viewer decides, per descriptor, whether the caller may see personal data
// (full name and email). A nil Viewer sees public names only.
type Viewer func(d Descriptor) bool

// Public never reveals personal data.
func Public() Viewer { return nil }

// Elevated always reveals personal data.
func Elevated() Viewer { return func(Descriptor) bool { return true } }

func (v Viewer) allows(d Descriptor) bool { return v != nil && v(d) }

// person holds the identity fields shared by registrations of people.
type person struct {
	fullName   string
	publicName string
	email      string
}

func (p person) name(v Viewer, d Descriptor) string {
	if v.allows(d) && p.fullName != "" {
		return p.fullName
	}
	return p.publicName
}

func (p person) mail(v Viewer, d Descriptor) string {
	if v.allows(d) {
		return p.email
	}
	return ""
}

// ItemDescriptor is one item brought for repair.
type ItemDescriptor interface {
	Descriptor
	ID() string
	Description() string
	ItemTypeID() int64
	FixerStationID() int64
	// Status is fixed, repairable, eol or "" when not reported.
	Status() string
	VisitorName(v Viewer) string
}

// VisitorDescriptor is one visitor registration.
type VisitorDescriptor interface {
	Descriptor
	ID() string
	// IsFirstEvent is nil when the return status is unknown.
	IsFirstEvent() *bool
	JoinMailList() bool
	ItemCount() int
	DisplayName(v Viewer) string
	Email(v Viewer) string
}

// VolunteerDescriptor is one volunteer registration.
type VolunteerDescriptor interface {
	Descriptor
	ID() string
	RoleIDs() []int64
	FixerStationID() int64
	IsApprentice() bool
	DisplayName(v Viewer) string
	Email(v Viewer) string
}
