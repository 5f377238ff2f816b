package observability

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// probeRoutes are polled by supervisors and scrapers.
var probeRoutes = map[string]struct{}{
	"/health":  {},
	"/ready":   {},
	"/metrics": {},
}

func routeOf(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return c.Request.URL.Path
}

func isProbe(route string) bool {
	_, ok := probeRoutes[route]
	return ok
}

// RequestLogger logs alarm API traffic at debug and lifecycle deliveries at info.
// Successful probe requests are not logged.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := routeOf(c)
		if isProbe(route) && status < 400 {
			return
		}

		lifecycle := strings.HasPrefix(route, "/lifecycle")
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		case lifecycle:
			event = logger.Info()
		default:
			event = logger.Debug()
		}

		event = event.
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP())
		if id := c.Param("id"); id != "" {
			event = event.Str("target_id", id)
		}
		if lifecycle {
			event = event.Str("signal_param", c.Param("signal"))
			event.Msg("lifecycle delivery")
			return
		}
		event.Msg("api request")
	}
}

// RequestMetricsMiddleware records request counts and latency for every route
// except the probes.
func RequestMetricsMiddleware(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := routeOf(c)
		if isProbe(route) {
			return
		}
		RecordHTTPRequest(service, c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
