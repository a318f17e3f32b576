// Package httpapi serves statistics, charts, supplemental data entry and
// the ORDS feed over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"rc-stats/internal/app"
	"rc-stats/internal/charts"
	"rc-stats/internal/event"
	"rc-stats/internal/group"
	"rc-stats/internal/stats"
	"rc-stats/internal/store"
)

// Server provides the HTTP endpoints.
type Server struct {
	echo *echo.Echo
	app  *app.App
}

// NewServer creates a server over a.
func NewServer(a *app.App) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(e)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			log.Info().
				Str("method", c.Request().Method).
				Str("uri", c.Request().RequestURI).
				Int("status", c.Response().Status).
				Dur("duration", time.Since(start)).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("http request")
			return nil
		}
	})

	s := &Server{echo: e, app: a}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/ords.csv", s.handleORDS)

	v1 := s.echo.Group("/api/v1")
	v1.GET("/stats/:kind", s.handleStats)
	v1.GET("/summary", s.handleSummary)
	v1.GET("/charts/:name", s.handleChart)
	v1.GET("/registrations/:kind", s.handleRegistrations)
	v1.GET("/refdata", s.handleReferenceData)
	v1.PUT("/supplemental/items", s.handleSupplementalItems)
	v1.PUT("/supplemental/visitors", s.handleSupplementalVisitors)
	v1.PUT("/supplemental/volunteers", s.handleSupplementalVolunteers)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	log.Info().Str("addr", addr).Msg("Starting HTTP server")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// errorHandler maps domain errors onto client errors and logs the rest.
func errorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			switch {
			case errors.Is(err, event.ErrMalformedKey),
				errors.Is(err, group.ErrUnsupportedGrouping),
				errors.Is(err, store.ErrNegativeCount),
				errors.Is(err, store.ErrUnknownTaxonomy),
				errors.Is(err, app.ErrMissingEvent),
				errors.Is(err, stats.ErrUnknownSource):
				he = echo.NewHTTPError(http.StatusBadRequest, err.Error())
			case errors.Is(err, stats.ErrUnknownKind),
				errors.Is(err, charts.ErrUnknownChart),
				errors.Is(err, app.ErrUnknownRegistrationKind):
				he = echo.NewHTTPError(http.StatusNotFound, err.Error())
			default:
				log.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("Request failed")
				he = echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
		}
		e.DefaultHTTPErrorHandler(he, c)
	}
}
