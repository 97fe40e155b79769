package middleware

import (
	"strconv"
	"time"

	"github.com/worckyky/sport-booking-backend/app/observability"

	"github.com/labstack/echo/v4"
)

// Metrics records request counts and latency by route template.
func Metrics(m *observability.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			status := strconv.Itoa(c.Response().Status)
			m.HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())

			return nil
		}
	}
}
