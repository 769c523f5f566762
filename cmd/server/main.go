package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"formtrail/internal/audit/handler"
	"formtrail/internal/audit/metrics"
	"formtrail/internal/audit/service"
	eventStore "formtrail/internal/audit/store/event"
	sessionStore "formtrail/internal/audit/store/session"
	"formtrail/internal/audit/worker"
	jwttoken "formtrail/internal/jwt_token"
	"formtrail/internal/platform/config"
	"formtrail/internal/platform/httpserver"
	"formtrail/internal/platform/logger"
	platformredis "formtrail/internal/platform/redis"
	httptransport "formtrail/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Event persistence: Postgres when configured, otherwise in-memory.
	var events eventStore.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			return
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping postgres", "error", err)
			return
		}
		pg := eventStore.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("ensure schema", "error", err)
			return
		}
		events = pg
	} else {
		log.Warn("no postgres DSN configured, audit events are held in memory")
		events = eventStore.NewInMemory()
	}

	// Session state: Redis when configured, otherwise in-memory.
	var sessions sessionStore.Store
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err)
		return
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessions = sessionStore.NewRedis(redisClient.Client, cfg.SessionKeyTTL)
	} else {
		log.Warn("no redis URL configured, session state is held in memory")
		sessions = sessionStore.NewInMemory()
	}

	m := metrics.New()
	recorder, err := service.New(sessions, events, log, m)
	if err != nil {
		log.Error("build recorder", "error", err)
		return
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "formtrail", "formtrail-devices")
	auditHandler := handler.New(recorder, log, jwttoken.NewJWTServiceAdapter(jwtService))

	health := func(r *http.Request) error {
		if redisClient != nil {
			return redisClient.Health(r.Context())
		}
		return nil
	}
	router := httptransport.NewRouter(auditHandler, health)
	srv := httpserver.New(cfg.Addr, router)

	reaper := worker.New(recorder, log, cfg.ReapInterval, cfg.SessionIdleTTL)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting formtrail", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := reaper.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
	}
}
