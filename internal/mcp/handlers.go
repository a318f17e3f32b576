package mcp

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"rc-stats/internal/app"
	"rc-stats/internal/charts"
	"rc-stats/internal/group"
	"rc-stats/internal/ords"
	"rc-stats/internal/refdata"
	"rc-stats/internal/stats"
)

func (s *Server) statsHandler(kind string) mcp.ToolHandlerFor[statsInput, stats.Report] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, args statsInput) (*mcp.CallToolResult, stats.Report, error) {
		start := time.Now()
		keys, err := s.resolve(ctx, args.Events, args.From, args.To)
		if err != nil {
			return nil, stats.Report{}, err
		}
		by, err := group.Parse(args.GroupBy)
		if err != nil {
			return nil, stats.Report{}, err
		}
		sess, err := s.session(args.Confidence)
		if err != nil {
			return nil, stats.Report{}, err
		}
		rep, err := stats.BuildReport(ctx, sess, kind, keys, by, args.Source)
		if err != nil {
			return nil, stats.Report{}, err
		}
		log.Debug().Str("kind", kind).Str("group_by", string(by)).Int("rows", len(rep.Rows)).Dur("elapsed", time.Since(start)).Msg("Built statistics report")
		return nil, rep, nil
	}
}

func (s *Server) handleGetSummary(ctx context.Context, _ *mcp.CallToolRequest, args summaryInput) (*mcp.CallToolResult, stats.Summary, error) {
	keys, err := s.resolve(ctx, args.Events, args.From, args.To)
	if err != nil {
		return nil, stats.Summary{}, err
	}
	sess, err := s.session(args.Confidence)
	if err != nil {
		return nil, stats.Summary{}, err
	}
	sum, err := stats.BuildSummary(ctx, sess, keys)
	if err != nil {
		return nil, stats.Summary{}, err
	}
	return nil, sum, nil
}

func (s *Server) handleGetChart(ctx context.Context, _ *mcp.CallToolRequest, args chartInput) (*mcp.CallToolResult, chartOutput, error) {
	keys, err := s.resolve(ctx, args.Events, args.From, args.To)
	if err != nil {
		return nil, chartOutput{}, err
	}
	by, err := group.Parse(args.GroupBy)
	if err != nil {
		return nil, chartOutput{}, err
	}
	chart, err := charts.Build(ctx, s.app.Session(), args.Name, keys, by)
	if err != nil {
		return nil, chartOutput{}, err
	}

	out := chartOutput{Chart: chart}
	switch args.Format {
	case "", "json":
		if s.app.Config.EnableMermaidCharts {
			out.Mermaid = charts.Mermaid(chart)
		}
	case "mermaid":
		out.Mermaid = charts.Mermaid(chart)
		if out.Mermaid == "" {
			return textResult("No data to chart for the selected events."), out, nil
		}
		return textResult(out.Mermaid), out, nil
	default:
		return nil, chartOutput{}, fmt.Errorf("unknown format %q (want json or mermaid)", args.Format)
	}
	return nil, out, nil
}

func (s *Server) handleListReferenceData(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, referenceDataOutput, error) {
	data, err := s.app.ReferenceData(ctx)
	if err != nil {
		return nil, referenceDataOutput{}, err
	}
	out := referenceDataOutput{Taxonomies: make(map[string][]refdata.Term, len(data))}
	for taxonomy, terms := range data {
		out.Taxonomies[string(taxonomy)] = terms
	}
	return nil, out, nil
}

func (s *Server) handleListRegistrations(ctx context.Context, _ *mcp.CallToolRequest, args registrationsInput) (*mcp.CallToolResult, registrationsOutput, error) {
	keys, err := s.resolve(ctx, args.Events, args.From, args.To)
	if err != nil {
		return nil, registrationsOutput{}, err
	}
	regs, err := s.app.Registrations(ctx, args.Kind, keys)
	if err != nil {
		return nil, registrationsOutput{}, err
	}
	return nil, registrationsOutput{Kind: args.Kind, Registrations: regs}, nil
}

func (s *Server) handleExportORDS(ctx context.Context, _ *mcp.CallToolRequest, args exportInput) (*mcp.CallToolResult, exportOutput, error) {
	keys, err := s.app.Resolve(ctx, app.Selection{From: args.From, To: args.To})
	if err != nil {
		return nil, exportOutput{}, err
	}
	rows, err := s.app.Exporter().Rows(ctx, keys)
	if err != nil {
		return nil, exportOutput{}, err
	}
	var buf bytes.Buffer
	if err := ords.WriteCSV(&buf, rows); err != nil {
		return nil, exportOutput{}, err
	}
	return textResult(buf.String()), exportOutput{Rows: len(rows), CSV: buf.String()}, nil
}
