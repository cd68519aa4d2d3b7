package observability

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records RequestsTotal and RequestDuration for every request.  The
// route label is the registered path template (/contacts/:id), never the
// raw URL, so ids do not explode the label space.  Errors still returned by
// the chain are rendered here so the recorded status is the one the client
// sees; a response the request logger already rendered is left as is.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			RequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// Handler exposes the default registry for scraping.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
