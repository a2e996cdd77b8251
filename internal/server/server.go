// Package server exposes the monitor over HTTP.
//
// The server is a thin host: request handling stamps a cycle timestamp
// from the monitor's clock, delegates to the engine, and maps engine
// errors to HTTP statuses. No seat logic lives here.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/seatwatch/seatwatch/internal/engine"
)

// Server hosts the seat monitoring HTTP API.
type Server struct {
	echo    *echo.Echo
	monitor *engine.Monitor
	logger  *slog.Logger
}

// New assembles the server and its routes.
func New(monitor *engine.Monitor, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, monitor: monitor, logger: logger}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", s.health)
	s.echo.GET("/seats", s.listSeats)
	s.echo.GET("/seats/:id", s.getSeat)
	s.echo.POST("/seats/:id/observations", s.ingestObservation)
	s.echo.POST("/tick", s.tick)
	s.echo.PUT("/seats/:id/state", s.setState)
	s.echo.POST("/seats/:id/reservation", s.reserve)
	s.echo.DELETE("/seats/:id/reservation", s.unreserve)
	s.echo.PUT("/seats/:id/authorized", s.setAuthorized)
}

// Start begins serving on addr and blocks until Shutdown or failure.
func (s *Server) Start(addr string) error {
	s.logger.Info("http host listening", "addr", addr)
	err := s.echo.Start(addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler returns the http.Handler, for tests.
func (s *Server) Handler() http.Handler { return s.echo }
