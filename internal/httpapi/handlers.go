package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"rc-stats/internal/app"
	"rc-stats/internal/charts"
	"rc-stats/internal/event"
	"rc-stats/internal/group"
	"rc-stats/internal/ords"
	"rc-stats/internal/stats"
	"rc-stats/internal/store"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// WriteResponse acknowledges a supplemental write.
type WriteResponse struct {
	Status   string    `json:"status"`
	EventKey event.Key `json:"event_key"`
	Cleared  bool      `json:"cleared"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// selection reads the event selection. An absent events parameter selects
// every event; "events=" selects none.
func selection(c echo.Context) app.Selection {
	sel := app.Selection{From: c.QueryParam("from"), To: c.QueryParam("to")}
	if values, ok := c.QueryParams()["events"]; ok {
		sel.Events = []string{}
		for _, v := range values {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					sel.Events = append(sel.Events, part)
				}
			}
		}
	}
	return sel
}

func (s *Server) keys(c echo.Context) (event.KeySet, error) {
	return s.app.Resolve(c.Request().Context(), selection(c))
}

func (s *Server) session(c echo.Context) (*stats.Session, error) {
	raw := c.QueryParam("confidence")
	if raw == "" {
		return s.app.Session(), nil
	}
	level, err := stats.ParseConfidenceLevel(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return s.app.SessionAt(level), nil
}

func groupBy(c echo.Context) (group.By, error) {
	by, err := group.Parse(c.QueryParam("group_by"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return by, nil
}

func (s *Server) handleStats(c echo.Context) error {
	kind := c.Param("kind")
	if _, err := stats.Groupings(kind); err != nil {
		return err
	}
	keys, err := s.keys(c)
	if err != nil {
		return err
	}
	by, err := groupBy(c)
	if err != nil {
		return err
	}
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	rep, err := stats.BuildReport(c.Request().Context(), sess, kind, keys, by, c.QueryParam("source"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rep)
}

func (s *Server) handleSummary(c echo.Context) error {
	keys, err := s.keys(c)
	if err != nil {
		return err
	}
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	sum, err := stats.BuildSummary(c.Request().Context(), sess, keys)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sum)
}

func (s *Server) handleChart(c echo.Context) error {
	keys, err := s.keys(c)
	if err != nil {
		return err
	}
	by, err := groupBy(c)
	if err != nil {
		return err
	}
	chart, err := charts.Build(c.Request().Context(), s.app.Session(), c.Param("name"), keys, by)
	if err != nil {
		return err
	}

	switch c.QueryParam("format") {
	case "", "json":
		return c.JSON(http.StatusOK, chart)
	case "mermaid":
		return c.String(http.StatusOK, charts.Mermaid(chart))
	case "html":
		var buf bytes.Buffer
		if err := charts.WriteHTML(&buf, chart); err != nil {
			return err
		}
		return c.HTMLBlob(http.StatusOK, buf.Bytes())
	}
	return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown format %q", c.QueryParam("format")))
}

func (s *Server) handleRegistrations(c echo.Context) error {
	keys, err := s.keys(c)
	if err != nil {
		return err
	}
	out, err := s.app.Registrations(c.Request().Context(), c.Param("kind"), keys)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleReferenceData(c echo.Context) error {
	data, err := s.app.ReferenceData(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, data)
}

func written(k event.Key, cleared bool) WriteResponse {
	return WriteResponse{Status: "ok", EventKey: k, Cleared: cleared}
}

func (s *Server) handleSupplementalItems(c echo.Context) error {
	var r store.SupplementalItem
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.app.SetSupplementalItem(c.Request().Context(), r); err != nil {
		return err
	}
	cleared := r.Fixed == 0 && r.Repairable == 0 && r.EOL == 0 && r.Unreported == 0
	return c.JSON(http.StatusOK, written(r.EventKey, cleared))
}

func (s *Server) handleSupplementalVisitors(c echo.Context) error {
	var r store.SupplementalVisitor
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.app.SetSupplementalVisitor(c.Request().Context(), r); err != nil {
		return err
	}
	cleared := r.FirstTime == 0 && r.Returning == 0 && r.Unreported == 0
	return c.JSON(http.StatusOK, written(r.EventKey, cleared))
}

func (s *Server) handleSupplementalVolunteers(c echo.Context) error {
	var r store.SupplementalVolunteer
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.app.SetSupplementalVolunteer(c.Request().Context(), r); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, written(r.EventKey, r.Head == 0 && r.Apprentice == 0))
}

func (s *Server) handleORDS(c echo.Context) error {
	sel := app.Selection{From: c.QueryParam("from"), To: c.QueryParam("to")}
	ctx := c.Request().Context()
	keys, err := s.app.Resolve(ctx, sel)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rows, err := s.app.Exporter().Rows(ctx, keys)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set("Content-Disposition", `attachment; filename="ords.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return ords.WriteCSV(c.Response(), rows)
}
