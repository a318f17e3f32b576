package mcp

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"rc-stats/internal/app"
	"rc-stats/internal/charts"
	"rc-stats/internal/group"
	"rc-stats/internal/refdata"
	"rc-stats/internal/stats"
)

// Tool input types. Fields without omitempty are required.

type statsInput struct {
	Events     []string `json:"events,omitempty" jsonschema:"Event keys (YYYYMMDD|descriptor|provider). Omit for every event; an empty list selects none"`
	From       string   `json:"from,omitempty" jsonschema:"First event date (YYYY-MM-DD), ignored when events is given"`
	To         string   `json:"to,omitempty" jsonschema:"Last event date (YYYY-MM-DD), ignored when events is given"`
	GroupBy    string   `json:"group_by,omitempty" jsonschema:"Grouping dimension; omit for totals"`
	Source     string   `json:"source,omitempty" jsonschema:"Restrict the rows to one data source; omit for all sources"`
	Confidence int      `json:"confidence,omitempty" jsonschema:"Confidence level in percent of the diversion interval: 90, 95 or 99"`
}

type summaryInput struct {
	Events     []string `json:"events,omitempty" jsonschema:"Event keys (YYYYMMDD|descriptor|provider). Omit for every event; an empty list selects none"`
	From       string   `json:"from,omitempty" jsonschema:"First event date (YYYY-MM-DD), ignored when events is given"`
	To         string   `json:"to,omitempty" jsonschema:"Last event date (YYYY-MM-DD), ignored when events is given"`
	Confidence int      `json:"confidence,omitempty" jsonschema:"Confidence level in percent of the diversion interval: 90, 95 or 99"`
}

type chartInput struct {
	Name    string   `json:"name" jsonschema:"Chart to build"`
	Events  []string `json:"events,omitempty" jsonschema:"Event keys (YYYYMMDD|descriptor|provider). Omit for every event; an empty list selects none"`
	From    string   `json:"from,omitempty" jsonschema:"First event date (YYYY-MM-DD), ignored when events is given"`
	To      string   `json:"to,omitempty" jsonschema:"Last event date (YYYY-MM-DD), ignored when events is given"`
	GroupBy string   `json:"group_by,omitempty" jsonschema:"Grouping dimension for bar charts; omit for the chart's default"`
	Format  string   `json:"format,omitempty" jsonschema:"Result format: json (default) or mermaid"`
}

type registrationsInput struct {
	Kind   string   `json:"kind" jsonschema:"Kind of registration to list"`
	Events []string `json:"events,omitempty" jsonschema:"Event keys (YYYYMMDD|descriptor|provider). Omit for every event; an empty list selects none"`
	From   string   `json:"from,omitempty" jsonschema:"First event date (YYYY-MM-DD), ignored when events is given"`
	To     string   `json:"to,omitempty" jsonschema:"Last event date (YYYY-MM-DD), ignored when events is given"`
}

type emptyInput struct{}

type exportInput struct {
	From string `json:"from,omitempty" jsonschema:"First event date (YYYY-MM-DD); omit for no lower bound"`
	To   string `json:"to,omitempty" jsonschema:"Last event date (YYYY-MM-DD); omit for no upper bound"`
}

type supplementalItemInput struct {
	EventKey       string `json:"event_key" jsonschema:"Event key (YYYYMMDD|descriptor|provider)"`
	ItemTypeID     int64  `json:"item_type_id,omitempty" jsonschema:"Item type term ID; omit for not specified"`
	FixerStationID int64  `json:"fixer_station_id,omitempty" jsonschema:"Fixer station term ID; omit for not specified"`
	Fixed          int    `json:"fixed_count,omitempty" jsonschema:"Items fixed"`
	Repairable     int    `json:"repairable_count,omitempty" jsonschema:"Items repairable but not fixed"`
	EOL            int    `json:"eol_count,omitempty" jsonschema:"Items at end of life"`
	Unreported     int    `json:"unreported_count,omitempty" jsonschema:"Items with no reported outcome"`
}

type supplementalVisitorInput struct {
	EventKey   string `json:"event_key" jsonschema:"Event key (YYYYMMDD|descriptor|provider)"`
	FirstTime  int    `json:"first_time_count,omitempty" jsonschema:"First-time visitors"`
	Returning  int    `json:"returning_count,omitempty" jsonschema:"Returning visitors"`
	Unreported int    `json:"unreported_count,omitempty" jsonschema:"Visitors who did not say"`
}

type supplementalVolunteerInput struct {
	EventKey       string `json:"event_key" jsonschema:"Event key (YYYYMMDD|descriptor|provider)"`
	RoleID         int64  `json:"role_id,omitempty" jsonschema:"Volunteer role term ID; omit for not specified"`
	FixerStationID int64  `json:"fixer_station_id,omitempty" jsonschema:"Fixer station term ID; omit for not specified"`
	Head           int    `json:"head_count,omitempty" jsonschema:"Volunteers"`
	Apprentice     int    `json:"apprentice_count,omitempty" jsonschema:"How many of head_count were apprentices"`
}

// Tool output types.

type chartOutput struct {
	Chart   charts.Chart `json:"chart"`
	Mermaid string       `json:"mermaid,omitempty"`
}

type referenceDataOutput struct {
	Taxonomies map[string][]refdata.Term `json:"taxonomies"`
}

type registrationsOutput struct {
	Kind          string `json:"kind"`
	Registrations any    `json:"registrations"`
}

type writeOutput struct {
	Status   string `json:"status"`
	EventKey string `json:"event_key"`
	Cleared  bool   `json:"cleared"`
}

type exportOutput struct {
	Rows int    `json:"rows"`
	CSV  string `json:"csv"`
}

var statsDescriptions = map[string]string{
	stats.KindItems: "Item repair outcomes for the selected events: items registered, fixed, repairable, end of life, unknown, " +
		"and the estimated diversion rate with its confidence interval. " +
		"Registered, external and supplemental data are merged. Taxonomy groupings list every term in display order.",
	stats.KindVisitors: "Visitor counts for the selected events: first-time, returning, unknown, email provided and mailing list sign-ups.",
	stats.KindVolunteers: "Volunteer head counts and apprentices for the selected events. " +
		"Grouped by role, a volunteer with several roles counts once in each.",
	stats.KindEvents: "Event counts for the selected events, optionally by event or category. Events known only to external providers count as not specified.",
}

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools() error {
	if err := s.registerStatsTools(); err != nil {
		return err
	}

	chartSchema, err := schemaWithEnums[chartInput](map[string][]string{
		"name":     charts.Names,
		"group_by": names(group.All()),
		"format":   {"json", "mermaid"},
	})
	if err != nil {
		return err
	}
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_chart",
		Description: "Build a chart dataset (labels and series) for the selected events. With format mermaid, or when Mermaid charts are enabled, the result also carries a Mermaid diagram.",
		InputSchema: chartSchema,
	}, s.handleGetChart)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_stats_summary",
		Description: "Headline totals for the selected events: items and diversion, visitors, volunteers and median items per event.",
	}, s.handleGetSummary)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_reference_data",
		Description: "List the item types, fixer stations, volunteer roles and event categories with their IDs, in display order.",
	}, s.handleListReferenceData)

	regSchema, err := schemaWithEnums[registrationsInput](map[string][]string{
		"kind": {app.RegistrationItems, app.RegistrationVisitors, app.RegistrationVolunteers},
	})
	if err != nil {
		return err
	}
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_registrations",
		Description: "List individual item, visitor or volunteer records for the selected events, including supplemental placeholders. Personal data is shown only when the server is configured to reveal it.",
		InputSchema: regSchema,
	}, s.handleListRegistrations)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "export_ords",
		Description: "Export repair records held in a date range as Open Repair Data Standard CSV.",
	}, s.handleExportORDS)

	s.registerSupplementalTools()
	return nil
}

func (s *Server) registerStatsTools() error {
	for _, kind := range stats.Kinds {
		groupings, err := stats.Groupings(kind)
		if err != nil {
			return err
		}
		schema, err := schemaWithEnums[statsInput](map[string][]string{
			"group_by": names(groupings),
			"source":   stats.Sources,
		})
		if err != nil {
			return err
		}
		name := fmt.Sprintf("get_%s_stats", singular(kind))
		mcp.AddTool(s.mcp, &mcp.Tool{
			Name:        name,
			Description: statsDescriptions[kind],
			InputSchema: schema,
		}, s.statsHandler(kind))
	}
	return nil
}

func (s *Server) registerSupplementalTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "set_supplemental_item_counts",
		Description: "Record item outcomes counted at an event but not registered individually. " +
			"The counts replace any previous ones for the same event, item type and station; all zeros clears them.",
	}, s.handleSetSupplementalItems)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "set_supplemental_visitor_counts",
		Description: "Record visitors counted at an event but not registered individually. " +
			"The counts replace any previous ones for the event; all zeros clears them.",
	}, s.handleSetSupplementalVisitors)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "set_supplemental_volunteer_counts",
		Description: "Record volunteers counted at an event but not registered individually. " +
			"The counts replace any previous ones for the same event, role and station; all zeros clears them.",
	}, s.handleSetSupplementalVolunteers)
}

func singular(kind string) string {
	switch kind {
	case stats.KindItems:
		return "item"
	case stats.KindVisitors:
		return "visitor"
	case stats.KindVolunteers:
		return "volunteer"
	}
	return "event"
}
