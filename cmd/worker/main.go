package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	scoringconsumer "github.com/chainscore-io/chainscore-backend/internal/consumers/scoring"
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
	"github.com/chainscore-io/chainscore-backend/pkg/instance"
	"github.com/chainscore-io/chainscore-backend/pkg/logger"
	"github.com/chainscore-io/chainscore-backend/pkg/metrics"
	"github.com/chainscore-io/chainscore-backend/pkg/migrate"
	"github.com/chainscore-io/chainscore-backend/pkg/pubsub"
	"github.com/chainscore-io/chainscore-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if !cfg.PubSub.Enabled {
		logg.Error(context.Background(), "pubsub must be enabled for the scoring worker", errors.New("pubsub disabled"))
		os.Exit(1)
	}

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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	scoringSvc, cacheTier, err := buildScoring(cfg, logg, dbClient, redisClient, pubsubClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire scoring service", err)
		os.Exit(1)
	}

	consumer, err := scoringconsumer.NewConsumer(
		scoringSvc,
		pubsubClient.ScoreSubscription(),
		pubsubClient.BatchSubscription(),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create scoring consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		PubSub:   pubsubClient,
		Consumer: consumer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "worker",
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting scoring worker")

	go cacheTier.StartPruning(ctx, cfg.Cache.PruneEvery)

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "scoring worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "scoring worker shutting down gracefully")
}

func buildScoring(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	pubsubClient *pubsub.Client,
) (*scoring.Service, *featurecache.Tiered, error) {
	partiesRepo := parties.NewRepository(dbClient.DB())

	traverser, err := network.NewTraverser(partiesRepo, cfg.Scoring.TraversalMaxDepth)
	if err != nil {
		return nil, nil, err
	}
	identity, err := extractors.NewIdentityExtractor(partiesRepo)
	if err != nil {
		return nil, nil, err
	}
	transactions, err := extractors.NewTransactionExtractor(partiesRepo)
	if err != nil {
		return nil, nil, err
	}
	relationships, err := extractors.NewNetworkExtractor(partiesRepo, traverser)
	if err != nil {
		return nil, nil, err
	}

	store, err := features.NewStore(dbClient)
	if err != nil {
		return nil, nil, err
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
		return nil, nil, err
	}

	rulesSvc, err := rules.NewService(rules.ServiceParams{
		Repo:   rules.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		return nil, nil, err
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
		Events:         pubsub.NewEvents(pubsubClient, logg),
		Metrics:        metrics.NewScoringMetrics(prometheus.NewRegistry()),
		Logger:         logg,
		CacheTTL:       cfg.Cache.TTL,
		BatchWorkers:   cfg.Scoring.BatchWorkers,
		DefaultVersion: cfg.Scoring.ScorecardVersion,
	})
	if err != nil {
		return nil, nil, err
	}
	return scoringSvc, cache, nil
}
