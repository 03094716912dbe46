package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/commander/pkg/api"
	"github.com/platinummonkey/commander/pkg/config"
	"github.com/platinummonkey/commander/pkg/credentials"
	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/inventory"
	"github.com/platinummonkey/commander/pkg/lifecycle"
	"github.com/platinummonkey/commander/pkg/observability"
	"github.com/platinummonkey/commander/pkg/orgs"
	"github.com/platinummonkey/commander/pkg/projects"
	"github.com/platinummonkey/commander/pkg/rbac"
	"github.com/platinummonkey/commander/pkg/storage"
	"github.com/platinummonkey/commander/pkg/teams"
	"github.com/platinummonkey/commander/pkg/users"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := observability.NewLogger(observability.ParseLevel(cfg.Observability.LogLevel), nil)
	ctx := context.Background()

	db, err := storage.Open(ctx, storage.Config{
		Driver:      cfg.Database.Driver,
		URL:         cfg.Database.URL,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		Timeout:     5 * time.Second,
		MaxLifetime: 30 * time.Minute,
		MaxIdleTime: 5 * time.Minute,
	})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := storage.Migrate(ctx, db, cfg.Database.Driver); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}
	logrus.WithField("driver", cfg.Database.Driver).Info("Database ready")

	// Relationship edge cache. The SQL graph works uncached when the
	// backend is "none".
	var edgeCache identity.EdgeCache
	var redisClient *redis.Client
	switch cfg.Cache.Backend {
	case "memory":
		edgeCache = identity.NewLRUEdgeCache(cfg.Cache.Size, cfg.Cache.TTL)
	case "redis":
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisURL,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logrus.WithError(err).Fatal("Failed to connect to redis")
		}
		defer redisClient.Close()
		edgeCache = identity.NewRedisEdgeCache(redisClient, cfg.Cache.TTL)
	}
	logrus.WithField("backend", cfg.Cache.Backend).Info("Edge cache configured")

	tp, err := observability.InitTracing(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize tracing")
	}

	graph := identity.NewSQLGraph(db, edgeCache)
	engine := rbac.NewEngine(graph)
	life := lifecycle.NewManager(engine, lifecycle.NewSQLStore(db), graph, logger.Slog())
	userStore := users.NewStore(db)

	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	server := api.NewServer(api.Config{
		Users:         users.NewService(engine, graph, userStore, life),
		Orgs:          orgs.NewService(engine, graph, orgs.NewStore(db), life),
		Teams:         teams.NewService(engine, graph, teams.NewStore(db), life),
		Projects:      projects.NewService(engine, graph, projects.NewStore(db), life),
		Inventory:     inventory.NewService(engine, graph, inventory.NewStore(db), life),
		Credentials:   credentials.NewService(engine, graph, credentials.NewStore(db), life),
		Authenticator: users.NewBasicAuthenticator(userStore),
		Logger:        logger,
		Metrics:       metrics,
	})

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Probes and metrics get their own port so they never sit behind
	// the API's auth.
	health := observability.NewHealthChecker(db, redisClient)
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", health.Liveness)
	healthMux.HandleFunc("/readyz", health.Readiness)
	if cfg.Observability.MetricsEnabled {
		healthMux.Handle("/metrics", observability.Handler(registry))
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	shutdown := observability.NewShutdownManager(logger, apiServer, cfg.Server.ShutdownTimeout)
	shutdown.Register(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	if tp != nil {
		shutdown.Register(tp.Shutdown)
	}

	var group errgroup.Group
	group.Go(func() error {
		logrus.WithField("addr", apiServer.Addr).Info("Starting API server")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logrus.WithField("addr", healthServer.Addr).Info("Starting health server")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(shutdown.Wait)

	if err := group.Wait(); err != nil {
		logrus.WithError(err).Fatal("Server exited with error")
	}
}
