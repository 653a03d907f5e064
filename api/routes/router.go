package routes

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/membercards/api/controllers"
	"github.com/angelmondragon/membercards/api/middleware"
	"github.com/angelmondragon/membercards/internal/auth"
	"github.com/angelmondragon/membercards/internal/members"
	"github.com/angelmondragon/membercards/pkg/config"
	"github.com/angelmondragon/membercards/pkg/logger"
	"github.com/angelmondragon/membercards/pkg/metrics"
	pkgredis "github.com/angelmondragon/membercards/pkg/redis"
	"github.com/angelmondragon/membercards/pkg/storage/uploads"
)

// Params carries everything the router wires. Optional collaborators may be
// left nil: RateLimiter and Idempotency disable their middleware, Photos
// rejects uploads, Auth is only required when auth is enabled.
type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	Members     members.Service
	Auth        auth.Service
	Photos      *uploads.Store
	RateLimiter pkgredis.RateLimiter
	Idempotency pkgredis.IdempotencyStore
	Pingers     map[string]controllers.Pinger
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	var photos controllers.PhotoStore
	if p.Photos != nil {
		photos = p.Photos
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Pingers))
	})

	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	protect := func(next http.Handler) http.Handler { return next }
	if cfg.Auth.Enabled {
		protect = middleware.Auth(cfg.JWT, logg)

		loginPolicy := middleware.NewAuthRateLimitPolicy(
			"login",
			cfg.AuthRateLimit.LoginWindow,
			cfg.AuthRateLimit.LoginIPLimit,
			cfg.AuthRateLimit.LoginUsernameLimit,
		)
		r.Route("/api/admin", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, p.RateLimiter, logg)).Post("/login", controllers.AdminLogin(p.Auth, logg))
		})
	}

	r.Route("/api/members", func(r chi.Router) {
		r.Get("/", controllers.MemberList(p.Members, logg))
		r.Get("/stats", controllers.MemberStats(p.Members, logg))
		r.Get("/{id}", controllers.MemberGet(p.Members, logg))
		r.Get("/{id}/share", controllers.MemberShare(p.Members, logg))

		r.Group(func(r chi.Router) {
			r.Use(protect)
			r.With(middleware.Idempotency(p.Idempotency, config.IdempotencyTTL, logg)).
				Post("/", controllers.MemberCreate(p.Members, photos, cfg.App.PublicBaseURL, logg))
			r.Put("/{id}", controllers.MemberUpdate(p.Members, photos, logg))
			r.Delete("/{id}", controllers.MemberDelete(p.Members, photos, logg))
		})
	})

	if p.Photos != nil {
		mountStatic(r, p.Photos.URLPrefix(), p.Photos.Dir())
	}
	if dir := strings.TrimSpace(cfg.App.PublicDir); dirExists(dir) {
		mountStatic(r, "/", dir)
	}

	return r
}

func mountStatic(r chi.Router, prefix, dir string) {
	prefix = "/" + strings.Trim(prefix, "/")
	fs := http.FileServer(http.Dir(dir))
	if prefix == "/" {
		r.Handle("/*", fs)
		return
	}
	r.Handle(prefix+"/*", http.StripPrefix(prefix, fs))
}

func dirExists(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
