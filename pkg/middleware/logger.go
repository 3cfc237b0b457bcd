package middleware

import (
	"log/slog"
	"time"

	"github.com/xink-dev/xink/pkg/endpoint"
)

// Logger logs one line per request. Errors are logged at error level,
// 5xx responses at warn and everything else at info.
func Logger(logger *slog.Logger) endpoint.Handle {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ev *endpoint.Event, resolve endpoint.Resolve) (*endpoint.Response, error) {
		start := time.Now()
		res, err := resolve(ev)

		attrs := []any{
			"method", ev.Method(),
			"path", ev.URL.Path,
			"route", routeLabel(ev),
			"duration", time.Since(start),
		}
		if id := GetRequestID(ev); id != "" {
			attrs = append(attrs, "request_id", id)
		}

		switch {
		case err != nil:
			logger.Error("request failed", append(attrs, "error", err)...)
		case res == nil:
			logger.Error("request failed", append(attrs, "error", "no response")...)
		default:
			status := statusOf(res)
			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelWarn
			}
			logger.Log(ev.Context(), level, "request", append(attrs, "status", status)...)
		}
		return res, err
	}
}
