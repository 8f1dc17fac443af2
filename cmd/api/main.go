package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/chainscore-io/chainscore-backend/api/routes"
	"github.com/chainscore-io/chainscore-backend/internal/extractors"
	"github.com/chainscore-io/chainscore-backend/internal/featurecache"
	"github.com/chainscore-io/chainscore-backend/internal/features"
	"github.com/chainscore-io/chainscore-backend/internal/network"
	"github.com/chainscore-io/chainscore-backend/internal/parties"
	"github.com/chainscore-io/chainscore-backend/internal/rules"
	"github.com/chainscore-io/chainscore-backend/internal/scorecard"
	"github.com/chainscore-io/chainscore-backend/internal/scoring"
	"github.com/chainscore-io/chainscore-backend/pkg/config"
	"github.com/chainscore-io/chainscore-backend/pkg/db"
	"github.com/chainscore-io/chainscore-backend/pkg/logger"
	"github.com/chainscore-io/chainscore-backend/pkg/metrics"
	"github.com/chainscore-io/chainscore-backend/pkg/migrate"
	"github.com/chainscore-io/chainscore-backend/pkg/pubsub"
	"github.com/chainscore-io/chainscore-backend/pkg/redis"
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
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Cache.UseRedis {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	var events *pubsub.Events
	if cfg.PubSub.Enabled {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		events = pubsub.NewEvents(pubsubClient, logg)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps, err := buildServices(cfg, logg, dbClient, redisClient, events, registry)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	go deps.cache.StartPruning(context.Background(), cfg.Cache.PruneEvery)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DBPinger:        dbClient,
			RedisPinger:     redisPinger(redisClient),
			Idempotency:     idempotencyStore(redisClient),
			Parties:         deps.parties,
			Scoring:         deps.scoring,
			Scorecards:      deps.scorecards,
			Rules:           deps.rules,
			Features:        deps.features,
			Cache:           deps.cache,
			MetricsRegistry: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// redisPinger avoids handing the router a non-nil interface wrapping a nil
// client when redis is disabled.
func redisPinger(c *redis.Client) redis.Pinger {
	if c == nil {
		return nil
	}
	return c
}

func idempotencyStore(c *redis.Client) redis.IdempotencyStore {
	if c == nil {
		return nil
	}
	return c
}

type services struct {
	parties    *parties.Service
	scoring    *scoring.Service
	scorecards *scorecard.Service
	rules      *rules.Service
	features   *features.Store
	cache      *featurecache.Tiered
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	events *pubsub.Events,
	registry *prometheus.Registry,
) (*services, error) {
	partiesRepo := parties.NewRepository(dbClient.DB())
	partiesSvc, err := parties.NewService(parties.ServiceParams{Repo: partiesRepo})
	if err != nil {
		return nil, err
	}

	traverser, err := network.NewTraverser(partiesRepo, cfg.Scoring.TraversalMaxDepth)
	if err != nil {
		return nil, err
	}
	identity, err := extractors.NewIdentityExtractor(partiesRepo)
	if err != nil {
		return nil, err
	}
	transactions, err := extractors.NewTransactionExtractor(partiesRepo)
	if err != nil {
		return nil, err
	}
	relationships, err := extractors.NewNetworkExtractor(partiesRepo, traverser)
	if err != nil {
		return nil, err
	}

	store, err := features.NewStore(dbClient)
	if err != nil {
		return nil, err
	}

	cache := featurecache.NewTiered(featurecache.New(cfg.Cache.TTL), nil, cfg.Cache.TTL, logg)
	if cfg.Cache.UseRedis && redisClient != nil {
		cache = featurecache.NewTiered(featurecache.New(cfg.Cache.TTL), redisClient, cfg.Cache.TTL, logg)
	}

	scorecardSvc, err := scorecard.NewService(scorecard.ServiceParams{
		Repo: scorecard.NewRepository(dbClient.DB()),
		DB:   dbClient,
	})
	if err != nil {
		return nil, err
	}

	rulesSvc, err := rules.NewService(rules.ServiceParams{
		Repo:   rules.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		return nil, err
	}

	scoringSvc, err := scoring.NewService(scoring.ServiceParams{
		DB:             dbClient,
		Repo:           scoring.NewRepository(dbClient.DB()),
		Extractors:     []extractors.Extractor{identity, transactions, relationships},
		Features:       store,
		Scorecards:     scorecardSvc,
		Rules:          rulesSvc,
		Parties:        partiesRepo,
		Cache:          cache,
		Events:         events,
		Metrics:        metrics.NewScoringMetrics(registry),
		Logger:         logg,
		CacheTTL:       cfg.Cache.TTL,
		BatchWorkers:   cfg.Scoring.BatchWorkers,
		DefaultVersion: cfg.Scoring.ScorecardVersion,
	})
	if err != nil {
		return nil, err
	}

	return &services{
		parties:    partiesSvc,
		scoring:    scoringSvc,
		scorecards: scorecardSvc,
		rules:      rulesSvc,
		features:   store,
		cache:      cache,
	}, nil
}
