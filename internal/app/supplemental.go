package app

import (
	"context"
	"errors"

	"rc-stats/internal/event"
	"rc-stats/internal/store"
)

// ErrMissingEvent is returned for supplemental writes without an event key.
var ErrMissingEvent = errors.New("supplemental counts need an event key")

func checkEvent(k event.Key) error {
	if k.IsZero() || k.DescriptorID == "" {
		return ErrMissingEvent
	}
	return nil
}

// SetSupplementalItem writes one supplemental item row. All-zero counts clear it.
func (a *App) SetSupplementalItem(ctx context.Context, r store.SupplementalItem) error {
	if err := checkEvent(r.EventKey); err != nil {
		return err
	}
	return a.Store.SetSupplementalItem(ctx, r)
}

// SetSupplementalVisitor writes the supplemental visitor row of an event.
func (a *App) SetSupplementalVisitor(ctx context.Context, r store.SupplementalVisitor) error {
	if err := checkEvent(r.EventKey); err != nil {
		return err
	}
	return a.Store.SetSupplementalVisitor(ctx, r)
}

// SetSupplementalVolunteer writes one supplemental volunteer row.
func (a *App) SetSupplementalVolunteer(ctx context.Context, r store.SupplementalVolunteer) error {
	if err := checkEvent(r.EventKey); err != nil {
		return err
	}
	return a.Store.SetSupplementalVolunteer(ctx, r)
}
