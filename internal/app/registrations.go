package app

import (
	"context"
	"errors"
	"fmt"

	"rc-stats/internal/event"
	"rc-stats/internal/refdata"
	"rc-stats/internal/registration"
)

// Registration kinds.
const (
	RegistrationItems      = "items"
	RegistrationVisitors   = "visitors"
	RegistrationVolunteers = "volunteers"
)

// ErrUnknownRegistrationKind is returned for kinds other than the ones above.
var ErrUnknownRegistrationKind = errors.New("unknown registration kind")

// ItemView is an item descriptor as shown to a viewer.
type ItemView struct {
	EventKey     event.Key           `json:"event_key"`
	Source       registration.Source `json:"source"`
	ID           string              `json:"id,omitempty"`
	Description  string              `json:"description,omitempty"`
	ItemType     string              `json:"item_type"`
	FixerStation string              `json:"fixer_station"`
	Status       string              `json:"status,omitempty"`
	Visitor      string              `json:"visitor,omitempty"`
}

// VisitorView is a visitor descriptor as shown to a viewer.
type VisitorView struct {
	EventKey     event.Key           `json:"event_key"`
	Source       registration.Source `json:"source"`
	ID           string              `json:"id,omitempty"`
	Name         string              `json:"name,omitempty"`
	Email        string              `json:"email,omitempty"`
	IsFirstEvent *bool               `json:"is_first_event"`
	JoinMailList bool                `json:"join_mail_list"`
	ItemCount    int                 `json:"item_count"`
}

// VolunteerView is a volunteer descriptor as shown to a viewer.
type VolunteerView struct {
	EventKey     event.Key           `json:"event_key"`
	Source       registration.Source `json:"source"`
	ID           string              `json:"id,omitempty"`
	Name         string              `json:"name,omitempty"`
	Email        string              `json:"email,omitempty"`
	Roles        []string            `json:"roles"`
	FixerStation string              `json:"fixer_station"`
	Apprentice   bool                `json:"apprentice"`
}

func termName(terms []refdata.Term, id int64) string {
	if name := refdata.NameOf(terms, id); name != "" {
		return name
	}
	return "Unspecified"
}

// Registrations lists the descriptors of kind at the selected events.
func (a *App) Registrations(ctx context.Context, kind string, keys event.KeySet) (any, error) {
	viewer := a.Viewer()
	cache := refdata.NewCache(a.Store)
	stations, err := cache.Terms(ctx, refdata.FixerStations)
	if err != nil {
		return nil, err
	}

	switch kind {
	case RegistrationItems:
		types, err := cache.Terms(ctx, refdata.ItemTypes)
		if err != nil {
			return nil, err
		}
		descriptors, err := a.Items().DescriptorsForEventKeySet(ctx, keys)
		if err != nil {
			return nil, err
		}
		out := make([]ItemView, 0, len(descriptors))
		for _, d := range descriptors {
			out = append(out, ItemView{
				EventKey:     d.EventKey(),
				Source:       d.Source(),
				ID:           d.ID(),
				Description:  d.Description(),
				ItemType:     termName(types, d.ItemTypeID()),
				FixerStation: termName(stations, d.FixerStationID()),
				Status:       d.Status(),
				Visitor:      d.VisitorName(viewer),
			})
		}
		return out, nil

	case RegistrationVisitors:
		descriptors, err := a.Visitors().DescriptorsForEventKeySet(ctx, keys)
		if err != nil {
			return nil, err
		}
		out := make([]VisitorView, 0, len(descriptors))
		for _, d := range descriptors {
			out = append(out, VisitorView{
				EventKey:     d.EventKey(),
				Source:       d.Source(),
				ID:           d.ID(),
				Name:         d.DisplayName(viewer),
				Email:        d.Email(viewer),
				IsFirstEvent: d.IsFirstEvent(),
				JoinMailList: d.JoinMailList(),
				ItemCount:    d.ItemCount(),
			})
		}
		return out, nil

	case RegistrationVolunteers:
		roles, err := cache.Terms(ctx, refdata.VolunteerRoles)
		if err != nil {
			return nil, err
		}
		descriptors, err := a.Volunteers().DescriptorsForEventKeySet(ctx, keys)
		if err != nil {
			return nil, err
		}
		out := make([]VolunteerView, 0, len(descriptors))
		for _, d := range descriptors {
			v := VolunteerView{
				EventKey:     d.EventKey(),
				Source:       d.Source(),
				ID:           d.ID(),
				Name:         d.DisplayName(viewer),
				Email:        d.Email(viewer),
				FixerStation: termName(stations, d.FixerStationID()),
				Apprentice:   d.IsApprentice(),
			}
			for _, id := range d.RoleIDs() {
				v.Roles = append(v.Roles, termName(roles, id))
			}
			out = append(out, v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownRegistrationKind, kind)
}
