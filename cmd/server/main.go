package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/arl/statsviz"
	"github.com/exaring/otelpgx"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/pgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.opentelemetry.io/otel/trace"
	_ "go.uber.org/automaxprocs"

	eventApp "github.com/wedlockhq/wedlock/internal/application/event"
	rsvpApp "github.com/wedlockhq/wedlock/internal/application/rsvp"
	httpServer "github.com/wedlockhq/wedlock/internal/infra/adapters/http"
	handler "github.com/wedlockhq/wedlock/internal/infra/adapters/http/handler"
	"github.com/wedlockhq/wedlock/internal/infra/metrics"
	eventStore "github.com/wedlockhq/wedlock/internal/infra/storage/event/postgres"
	guestStore "github.com/wedlockhq/wedlock/internal/infra/storage/guest/postgres"
	mealStore "github.com/wedlockhq/wedlock/internal/infra/storage/meal/postgres"
	"github.com/wedlockhq/wedlock/pkg/common"
	"github.com/wedlockhq/wedlock/pkg/common/logger"
	"github.com/wedlockhq/wedlock/pkg/common/otel"
)

const serviceName = "wedlock"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var traceIDFn logger.TraceIDFn = func(ctx context.Context) string {
		return trace.SpanFromContext(ctx).SpanContext().TraceID().String()
	}
	log := logger.New(os.Stdout, logger.LevelInfo, serviceName, traceIDFn)

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger) error {
	log.Info(ctx, "starting wedding data service")

	tp, otelShutdown, err := otel.InitTelemetry(log, otel.Config{
		ServiceName:      serviceName,
		ExporterEndpoint: envOr("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
		ExcludedRoutes: map[string]struct{}{
			"/v1/health":    {},
			"/v1/readiness": {},
		},
		Probability: 0.05,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer otelShutdown(ctx)
	tracer := tp.Tracer(serviceName)

	poolCfg, err := pgxpool.ParseConfig(databaseDSN())
	if err != nil {
		return fmt.Errorf("parsing db config: %w", err)
	}
	poolCfg.MinConns = 5
	poolCfg.MaxConns = 20
	poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("opening db: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging db: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info(ctx, "migrations applied")

	metricsRegistry, err := metrics.NewRegistry(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	eventRepo := eventStore.NewEventStore(pool, log, tracer)
	guestRepo := guestStore.NewGuestStore(pool, log, tracer)
	mealRepo := mealStore.NewMealStore(pool, log, tracer)

	eventService := eventApp.NewService(eventRepo, log, tracer)
	rsvpService := rsvpApp.NewService(guestRepo, mealRepo, log, tracer, metricsRegistry.RSVP)

	eventHandler := handler.NewEventHandler(eventService)
	rsvpHandler := handler.NewRSVPHandler(rsvpService)

	var ready atomic.Bool
	healthServer := common.NewHealthServer(envOr("HEALTH_ADDR", ":8081"), &ready, metricsRegistry.Health)
	defer func() { _ = healthServer.Server().Shutdown(context.Background()) }()

	mux := http.NewServeMux()
	mux.Handle("/", httpServer.NewHTTPServer(eventHandler, rsvpHandler, log, metricsRegistry.API))
	if err := statsviz.Register(mux); err != nil {
		return fmt.Errorf("registering statsviz: %w", err)
	}

	server := &http.Server{
		Addr:         envOr("API_ADDR", ":8080"),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info(ctx, "http server listening", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()
	ready.Store(true)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("http server error: %w", err)
	case sig := <-quit:
		log.Info(ctx, "shutdown started", "signal", sig.String())
		ready.Store(false)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			_ = server.Close()
			return fmt.Errorf("forced shutdown: %w", err)
		}
	}

	log.Info(ctx, "shutdown complete")
	return nil
}

func databaseDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	user := envOr("POSTGRES_USER", "postgres")
	password := envOr("POSTGRES_PASSWORD", "postgres")
	host := envOr("POSTGRES_HOST", "postgres")
	dbname := envOr("POSTGRES_DB", "wedlock")

	return fmt.Sprintf("postgres://%s:%s@%s:5432/%s?sslmode=disable",
		user, password, host, dbname)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// TODO: consider moving this to an init container.
// runMigrations uses golang-migrate to apply all up migrations from "db/migrations".
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("could not acquire connection: %w", err)
	}
	defer conn.Release()

	db := stdlib.OpenDBFromPool(pool)

	driver, err := pgx.WithInstance(db, &pgx.Config{})
	if err != nil {
		return fmt.Errorf("could not create pgx driver: %w", err)
	}

	migrationsPath := envOr("MIGRATIONS_PATH", "file://db/migrations")
	m, err := migrate.NewWithDatabaseInstance(migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up failed: %w", err)
	}

	return nil
}
