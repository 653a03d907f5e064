package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/membercards/pkg/logger"
)

// trackedWriter remembers the status and byte count of a response.
type trackedWriter struct {
	http.ResponseWriter
	code    int
	written int64
}

func (t *trackedWriter) WriteHeader(code int) {
	if t.code == 0 {
		t.code = code
	}
	t.ResponseWriter.WriteHeader(code)
}

func (t *trackedWriter) Write(b []byte) (int, error) {
	if t.code == 0 {
		t.code = http.StatusOK
	}
	n, err := t.ResponseWriter.Write(b)
	t.written += int64(n)
	return n, err
}

func (t *trackedWriter) Unwrap() http.ResponseWriter {
	return t.ResponseWriter
}

// status is 200 when the handler never wrote anything.
func (t *trackedWriter) status() int {
	if t.code == 0 {
		return http.StatusOK
	}
	return t.code
}

// Logging writes one access line per request. Requests to /health and
// /metrics are logged at debug so they do not drown member traffic.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			tw := &trackedWriter{ResponseWriter: w}
			next.ServeHTTP(tw, r.WithContext(ctx))

			ctx = logg.WithFields(ctx, map[string]any{
				"route":       routePattern(r),
				"status":      tw.status(),
				"bytes":       tw.written,
				"duration_ms": time.Since(started).Milliseconds(),
			})
			switch {
			case quietPath(r.URL.Path):
				logg.Debug(ctx, "http.request")
			case tw.status() >= http.StatusInternalServerError:
				logg.Warn(ctx, "http.request")
			default:
				logg.Info(ctx, "http.request")
			}
		})
	}
}

func quietPath(path string) bool {
	return strings.HasPrefix(path, "/health") || path == "/metrics"
}
