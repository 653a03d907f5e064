package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/membercards/api/responses"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/angelmondragon/membercards/pkg/logger"
	pkgredis "github.com/angelmondragon/membercards/pkg/redis"
)

// AuthRateLimitPolicy throttles one login surface per client IP and per
// username. A zero limit disables that dimension.
type AuthRateLimitPolicy struct {
	name          string
	window        time.Duration
	ipLimit       int64
	usernameLimit int64
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, usernameLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{
		name:          name,
		window:        window,
		ipLimit:       int64(ipLimit),
		usernameLimit: int64(usernameLimit),
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.usernameLimit > 0)
}

// check is one counter to consult for a request.
type check struct {
	dimension string
	value     string
	limit     int64
}

func (p AuthRateLimitPolicy) checks(r *http.Request, body []byte) []check {
	var out []check
	if ip := clientIP(r); p.ipLimit > 0 && ip != "" {
		out = append(out, check{dimension: "ip", value: ip, limit: p.ipLimit})
	}
	if p.usernameLimit > 0 {
		if username := loginUsername(body); username != "" {
			// usernames are hashed so counters never hold them in clear
			sum := sha256.Sum256([]byte(username))
			out = append(out, check{dimension: "username", value: hex.EncodeToString(sum[:]), limit: p.usernameLimit})
		}
	}
	return out
}

// AuthRateLimit guards the admin login. Redis errors fail closed with 503;
// a nil limiter disables the middleware.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter pkgredis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var body []byte
			if policy.usernameLimit > 0 {
				var err error
				if body, err = io.ReadAll(r.Body); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			for _, c := range policy.checks(r, body) {
				scope := c.dimension + ":" + policy.name + ":" + c.value
				allowed, attempts, err := limiter.Allow(ctx, scope, c.limit, policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"policy":         policy.name,
							"dimension":      c.dimension,
							"attempts":       attempts,
							"limit":          c.limit,
							"window_seconds": int(policy.window.Seconds()),
						}), "auth.rate_limit.blocked")
					}
					w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Seconds())))
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// socket address.
func clientIP(r *http.Request) string {
	for _, hop := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := strings.TrimSpace(hop); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// loginUsername reads the username from a login body, case-folded.
func loginUsername(payload []byte) string {
	var body struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Username))
}
