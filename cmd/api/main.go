package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/membercards/api/controllers"
	"github.com/angelmondragon/membercards/api/routes"
	"github.com/angelmondragon/membercards/internal/auth"
	"github.com/angelmondragon/membercards/internal/cards"
	"github.com/angelmondragon/membercards/internal/members"
	"github.com/angelmondragon/membercards/pkg/config"
	"github.com/angelmondragon/membercards/pkg/db"
	"github.com/angelmondragon/membercards/pkg/instance"
	"github.com/angelmondragon/membercards/pkg/logger"
	"github.com/angelmondragon/membercards/pkg/metrics"
	"github.com/angelmondragon/membercards/pkg/migrate"
	"github.com/angelmondragon/membercards/pkg/redis"
	"github.com/angelmondragon/membercards/pkg/storage/uploads"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	pingers := map[string]controllers.Pinger{}

	var store members.Store
	if cfg.Store.UsesDB() {
		dbClient, dbErr := db.New(ctx, cfg.DB, logg)
		if dbErr != nil {
			return dbErr
		}
		defer func() {
			err = multierr.Append(err, dbClient.Close())
		}()

		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return err
		}
		pingers["db"] = dbClient
		store = members.NewRepository(dbClient.DB())
	} else {
		fileStore, fsErr := members.NewFileStore(cfg.Store.FilePath)
		if fsErr != nil {
			return fsErr
		}
		store = fileStore
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		pingers["redis"] = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; login rate limiting and idempotency are disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	issuer, err := cards.NewIssuer(store, cfg.Card.QRSize)
	if err != nil {
		return err
	}

	memberService, err := members.NewService(members.ServiceParams{
		Store:        store,
		Issuer:       issuer,
		Metrics:      metrics.NewMemberMetrics(reg),
		Organization: cfg.Card.Organization,
		CountryCode:  cfg.Card.CountryCode,
	})
	if err != nil {
		return err
	}

	var authService auth.Service
	if cfg.Auth.Enabled {
		authService, err = auth.NewService(auth.ServiceParams{Auth: cfg.Auth, JWTConfig: cfg.JWT})
		if err != nil {
			return err
		}
	} else {
		logg.Warn(ctx, "admin authentication disabled; member mutations are unprotected")
	}

	photos, err := uploads.New(cfg.Uploads)
	if err != nil {
		return err
	}

	params := routes.Params{
		Config:      cfg,
		Logger:      logg,
		Members:     memberService,
		Auth:        authService,
		Photos:      photos,
		Pingers:     pingers,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Gatherer:    reg,
	}
	if redisClient != nil {
		params.RateLimiter = redisClient
		params.Idempotency = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(params),
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"store_driver": cfg.Store.NormalizedDriver(),
		"auth_enabled": cfg.Auth.Enabled,
		"instance":     instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
