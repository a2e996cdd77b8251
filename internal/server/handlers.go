package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seatwatch/seatwatch/internal/engine"
	"github.com/seatwatch/seatwatch/internal/registry"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type observationRequest struct {
	Labels []string `json:"labels"`
}

type stateRequest struct {
	State string `json:"state"`
}

type authorizedRequest struct {
	Authorized bool `json:"authorized"`
}

type tickResponse struct {
	Alerts []engine.Alert `json:"alerts"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listSeats(c echo.Context) error {
	now := s.monitor.Clock().Now()
	return c.JSON(http.StatusOK, s.monitor.Statuses(now))
}

func (s *Server) getSeat(c echo.Context) error {
	now := s.monitor.Clock().Now()
	status, err := s.monitor.Status(c.Param("id"), now)
	if err != nil {
		return s.engineError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) ingestObservation(c echo.Context) error {
	var req observationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed observation body")
	}
	now := s.monitor.Clock().Now()
	status, err := s.monitor.IngestObservation(c.Param("id"), req.Labels, now)
	if err != nil {
		return s.engineError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) tick(c echo.Context) error {
	now := s.monitor.Clock().Now()
	alerts := s.monitor.TickPolicies(now)
	if alerts == nil {
		alerts = []engine.Alert{}
	}
	return c.JSON(http.StatusOK, tickResponse{Alerts: alerts})
}

func (s *Server) setState(c echo.Context) error {
	var req stateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed state body")
	}
	now := s.monitor.Clock().Now()
	if err := s.monitor.ManualSetState(c.Param("id"), registry.State(req.State), now); err != nil {
		return s.engineError(c, err)
	}
	status, err := s.monitor.Status(c.Param("id"), now)
	if err != nil {
		return s.engineError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) reserve(c echo.Context) error {
	now := s.monitor.Clock().Now()
	if err := s.monitor.CreateReservation(c.Param("id"), now); err != nil {
		return s.engineError(c, err)
	}
	status, err := s.monitor.Status(c.Param("id"), now)
	if err != nil {
		return s.engineError(c, err)
	}
	return c.JSON(http.StatusCreated, status)
}

func (s *Server) unreserve(c echo.Context) error {
	if err := s.monitor.ClearReservation(c.Param("id")); err != nil {
		return s.engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) setAuthorized(c echo.Context) error {
	var req authorizedRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed authorization body")
	}
	if err := s.monitor.SetAuthorized(c.Param("id"), req.Authorized); err != nil {
		return s.engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// engineError maps engine error codes to HTTP statuses. Unknown seats are
// 404, rejected administrative input is 400, anything else is a 500.
func (s *Server) engineError(c echo.Context, err error) error {
	switch {
	case engine.IsUnknownSeat(err):
		return c.JSON(http.StatusNotFound, errorBody{Code: string(engine.ErrCodeUnknownSeat), Message: err.Error()})
	case engine.IsInvalidState(err):
		return c.JSON(http.StatusBadRequest, errorBody{Code: string(engine.ErrCodeInvalidState), Message: err.Error()})
	default:
		s.logger.Error("unhandled engine error", "error", err)
		return c.JSON(http.StatusInternalServerError, errorBody{Code: "INTERNAL", Message: "internal error"})
	}
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, errorBody{Code: "BAD_REQUEST", Message: message})
}
