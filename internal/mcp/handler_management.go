package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"rc-stats/internal/event"
	"rc-stats/internal/store"
)

func written(k event.Key, cleared bool) writeOutput {
	return writeOutput{Status: "ok", EventKey: k.String(), Cleared: cleared}
}

func (s *Server) handleSetSupplementalItems(ctx context.Context, _ *mcp.CallToolRequest, args supplementalItemInput) (*mcp.CallToolResult, writeOutput, error) {
	k, err := event.ParseKey(args.EventKey)
	if err != nil {
		return nil, writeOutput{}, err
	}
	r := store.SupplementalItem{
		EventKey:       k,
		ItemTypeID:     args.ItemTypeID,
		FixerStationID: args.FixerStationID,
		Fixed:          args.Fixed,
		Repairable:     args.Repairable,
		EOL:            args.EOL,
		Unreported:     args.Unreported,
	}
	if err := s.app.SetSupplementalItem(ctx, r); err != nil {
		return nil, writeOutput{}, err
	}
	return nil, written(k, r.Fixed == 0 && r.Repairable == 0 && r.EOL == 0 && r.Unreported == 0), nil
}

func (s *Server) handleSetSupplementalVisitors(ctx context.Context, _ *mcp.CallToolRequest, args supplementalVisitorInput) (*mcp.CallToolResult, writeOutput, error) {
	k, err := event.ParseKey(args.EventKey)
	if err != nil {
		return nil, writeOutput{}, err
	}
	r := store.SupplementalVisitor{
		EventKey:   k,
		FirstTime:  args.FirstTime,
		Returning:  args.Returning,
		Unreported: args.Unreported,
	}
	if err := s.app.SetSupplementalVisitor(ctx, r); err != nil {
		return nil, writeOutput{}, err
	}
	return nil, written(k, r.FirstTime == 0 && r.Returning == 0 && r.Unreported == 0), nil
}

func (s *Server) handleSetSupplementalVolunteers(ctx context.Context, _ *mcp.CallToolRequest, args supplementalVolunteerInput) (*mcp.CallToolResult, writeOutput, error) {
	k, err := event.ParseKey(args.EventKey)
	if err != nil {
		return nil, writeOutput{}, err
	}
	r := store.SupplementalVolunteer{
		EventKey:       k,
		RoleID:         args.RoleID,
		FixerStationID: args.FixerStationID,
		Head:           args.Head,
		Apprentice:     args.Apprentice,
	}
	if err := s.app.SetSupplementalVolunteer(ctx, r); err != nil {
		return nil, writeOutput{}, err
	}
	return nil, written(k, r.Head == 0 && r.Apprentice == 0), nil
}
