package server

import (
	"net/http"
	"time"

	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/api/sensors", s.SensorsHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

// SensorsHandler lists the last value published for every sensor.
func (s *Server) SensorsHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetSensorStatesRequest{}, 5*time.Second).Result()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	response, ok := res.(domain.GetSensorStatesResponse)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected response")
	}
	if response.HasResponseError() {
		return echo.NewHTTPError(http.StatusInternalServerError, response.GetResponseError().Error())
	}
	states := response.States
	if states == nil {
		states = []domain.SensorState{}
	}
	return c.JSON(http.StatusOK, states)
}
