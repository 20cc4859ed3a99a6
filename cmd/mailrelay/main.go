package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	mongodrv "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/mailrelay/internal/submission"
	"github.com/dmitrymomot/mailrelay/pkg/clientip"
	"github.com/dmitrymomot/mailrelay/pkg/config"
	"github.com/dmitrymomot/mailrelay/pkg/deliverylog"
	"github.com/dmitrymomot/mailrelay/pkg/email"
	"github.com/dmitrymomot/mailrelay/pkg/environment"
	"github.com/dmitrymomot/mailrelay/pkg/httpserver"
	"github.com/dmitrymomot/mailrelay/pkg/logger"
	"github.com/dmitrymomot/mailrelay/pkg/mongo"
	"github.com/dmitrymomot/mailrelay/pkg/ratelimiter"
	"github.com/dmitrymomot/mailrelay/pkg/redis"
	"github.com/dmitrymomot/mailrelay/pkg/requestid"
)

func main() {
	if err := run(); err != nil {
		slog.Error("mailrelay stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	env := environment.Parse(cfg.Email.Environment)
	log := logger.New(
		logger.WithEnvironment(env, "mailrelay"),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	submitLimiter, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), ratelimiter.PerInterval(cfg.SubmitLimit, cfg.SubmitWindow))
	if err != nil {
		return fmt.Errorf("init submission rate limit: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := openDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}

	mailer, err := email.New(cfg.Email, deliverylog.New(deps.store, deliverylog.WithLogger(log)), email.WithLogger(log))
	if err != nil {
		deps.close(context.Background())
		return fmt.Errorf("init mailer: %w", err)
	}

	alerts := email.NewAdminNotifier(mailer, cfg.Email.AdminRecipient(), email.WithNotifierLogger(log))
	alerts.Start(context.WithoutCancel(ctx))
	mailer.SetFailureNotifier(alerts)

	log.InfoContext(ctx, "mailer ready",
		slog.String("provider", cfg.Email.Provider),
		slog.Bool("test_mode", cfg.Email.TestMode()),
		slog.Bool("mailbox", cfg.Email.UseMailbox()),
		slog.String("log_store", deps.storeKind),
	)

	var repo submission.Repository = submission.NewMemoryRepository()
	if deps.db != nil {
		mrepo := submission.NewMongoRepository(deps.db)
		if err := mrepo.EnsureIndexes(ctx); err != nil {
			log.WarnContext(ctx, "submission indexes not created", logger.Error(err))
		}
		repo = mrepo
	}

	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		clientip.Middleware,
		environment.Middleware(env),
		chimw.Recoverer,
	)
	r.Get("/healthz", httpserver.HealthCheckHandler(log, 0))
	r.Get("/readyz", httpserver.HealthCheckHandler(log, cfg.ReadyTimeout, deps.checks...))
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/api", submission.NewHandler(repo, mailer,
		submission.WithLogger(log),
		submission.WithMiddleware(ratelimiter.Middleware(submitLimiter, ratelimiter.ByClientIP)),
	).Router())

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithOnShutdown(func(context.Context) error { return alerts.Close() }),
		httpserver.WithOnShutdown(func(context.Context) error { return mailer.Close() }),
		httpserver.WithOnShutdown(func(ctx context.Context) error { deps.close(ctx); return nil }),
	)
	return srv.Run(ctx, r)
}

type dependencies struct {
	storeKind string
	store     deliverylog.Store
	db        *mongodrv.Database
	checks    []httpserver.Check
	closers   []func(context.Context) error
}

func (d *dependencies) close(ctx context.Context) {
	for _, c := range d.closers {
		if err := c(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close dependency", logger.Error(err))
		}
	}
}

// openDependencies connects the configured stores. MongoDB, when configured,
// also backs the submission repository even if the delivery log lives elsewhere.
func openDependencies(ctx context.Context, cfg appConfig, log *slog.Logger) (*dependencies, error) {
	kind, err := cfg.logStore()
	if err != nil {
		return nil, err
	}
	deps := &dependencies{storeKind: kind}

	if cfg.Mongo.Enabled() {
		db, err := mongo.NewWithDatabase(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		deps.db = db
		deps.checks = append(deps.checks, httpserver.Check{Name: "mongo", Fn: mongo.Healthcheck(db.Client())})
		deps.closers = append(deps.closers, db.Client().Disconnect)
	}

	switch kind {
	case storeMongo:
		store := deliverylog.NewMongoStore(deps.db, cfg.LogCollection)
		if err := store.EnsureIndexes(ctx); err != nil {
			log.WarnContext(ctx, "delivery log indexes not created", logger.Error(err))
		}
		deps.store = store
	case storeRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			deps.close(context.Background())
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		deps.store = deliverylog.NewRedisStore(client, cfg.Redis.KeyPrefix, cfg.LogTTL)
		deps.checks = append(deps.checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
		deps.closers = append(deps.closers, func(context.Context) error { return client.Close() })
	default:
		log.WarnContext(ctx, "delivery log kept in memory, entries are lost on restart")
		deps.store = deliverylog.NewMemoryStore()
	}

	return deps, nil
}
