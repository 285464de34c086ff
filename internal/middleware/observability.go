package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coach-api/internal/observability"
)

// unobservedPaths are polled by scrapers and orchestrators and would drown out real traffic.
var unobservedPaths = map[string]struct{}{
	"/metrics":       {},
	"/api/v1/health": {},
}

// Observability records Prometheus request metrics and one structured log line per request.
// Model-backed routes regularly take seconds, so latency buckets reach up to the model timeout range.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		if _, skip := unobservedPaths[c.Path()]; skip {
			return err
		}
		recordRequest(c, logger, time.Since(start))
		return err
	}
}

func recordRequest(c *fiber.Ctx, logger zerolog.Logger, duration time.Duration) {
	route := routeTemplate(c)
	method := c.Method()
	status := c.Response().StatusCode()
	statusLabel := strconv.Itoa(status)

	observability.HTTPRequests().WithLabelValues(method, route, statusLabel).Inc()
	observability.HTTPLatency().WithLabelValues(method, route).Observe(duration.Seconds())
	if status >= fiber.StatusBadRequest {
		observability.HTTPErrors().WithLabelValues(method, route, statusLabel).Inc()
	}

	event := logger.Info()
	msg := "request completed"
	switch {
	case status >= fiber.StatusInternalServerError:
		event, msg = logger.Error(), "request failed"
	case status >= fiber.StatusBadRequest:
		event, msg = logger.Warn(), "request rejected"
	}

	event.
		Str("correlation_id", GetCorrelationID(c)).
		Str("route", route).
		Str("method", method).
		Int("status", status).
		Str("caller", callerKind(c)).
		Float64("latency_ms", float64(duration)/float64(time.Millisecond)).
		Str("latency_bucket", latencyBucket(duration)).
		Msg(msg)
}

// callerKind tells whether the request carried a signed-in user, an anonymous session id, or neither.
func callerKind(c *fiber.Ctx) string {
	switch {
	case UserID(c) != "":
		return "user"
	case c.Get(SessionHeader) != "":
		return "anonymous"
	default:
		return "ephemeral"
	}
}

func routeTemplate(c *fiber.Ctx) string {
	if c.Route() != nil && c.Route().Path != "" {
		return c.Route().Path
	}
	return c.Path()
}

func latencyBucket(duration time.Duration) string {
	switch {
	case duration <= 50*time.Millisecond:
		return "<=50ms"
	case duration <= 250*time.Millisecond:
		return "<=250ms"
	case duration <= time.Second:
		return "<=1s"
	case duration <= 5*time.Second:
		return "<=5s"
	case duration <= 30*time.Second:
		return "<=30s"
	default:
		return ">30s"
	}
}
