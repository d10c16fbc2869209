package server

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/logstream-io/logstream/internal/model"
	"github.com/logstream-io/logstream/internal/response"
)

// handleNewLogs serves cursor-based polling (GET /logs/new?since=...).
// Records with date strictly greater than since are returned ascending by
// date, so callers can use the last record's date as the next cursor.
// Results are capped at read.max_results; truncation happens only at the
// tail, which preserves the cursor contract.
func (s *Server) handleNewLogs(c echo.Context) error {
	since := time.Unix(0, 0)
	if raw := c.QueryParam("since"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return response.BadRequest(c, "invalid since parameter", err.Error())
		}
		since = t
	}

	records, err := s.logs.ListNewerThan(c.Request().Context(), since, s.Config.Read.MaxResults)
	if err != nil {
		return response.InternalError(c, "could not fetch logs", err.Error())
	}
	if records == nil {
		records = []model.LogRecord{}
	}
	return response.OK(c, records, "")
}

// handleRecentLogs returns the most recently stored records, newest first
// (GET /logs).
func (s *Server) handleRecentLogs(c echo.Context) error {
	records, err := s.logs.ListRecent(c.Request().Context(), s.Config.Read.MaxResults)
	if err != nil {
		return response.InternalError(c, "could not fetch logs", err.Error())
	}
	if records == nil {
		records = []model.LogRecord{}
	}
	return response.OK(c, records, "Logs fetched successfully")
}

// handleSources lists the known log source applications (GET /sources).
// Read-only; source management lives in the resource API.
func (s *Server) handleSources(c echo.Context) error {
	apps, err := s.sources.List(c.Request().Context())
	if err != nil {
		return response.InternalError(c, "could not fetch sources", err.Error())
	}
	if apps == nil {
		apps = []model.Application{}
	}
	return response.OK(c, apps, "")
}

// handleHealth reports liveness (GET /healthz).
func (s *Server) handleHealth(c echo.Context) error {
	return response.OK(c, map[string]any{
		"status":    "ok",
		"service":   "logstream",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, "")
}
