package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chainscore-io/chainscore-backend/api/controllers"
	"github.com/chainscore-io/chainscore-backend/api/middleware"
	"github.com/chainscore-io/chainscore-backend/internal/features"
	"github.com/chainscore-io/chainscore-backend/internal/parties"
	"github.com/chainscore-io/chainscore-backend/internal/rules"
	"github.com/chainscore-io/chainscore-backend/internal/scorecard"
	"github.com/chainscore-io/chainscore-backend/internal/scoring"
	"github.com/chainscore-io/chainscore-backend/pkg/config"
	"github.com/chainscore-io/chainscore-backend/pkg/db"
	"github.com/chainscore-io/chainscore-backend/pkg/logger"
	"github.com/chainscore-io/chainscore-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface needs. Redis, the cache
// and the metrics registry are optional.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	DBPinger    db.Pinger
	RedisPinger redis.Pinger
	Idempotency redis.IdempotencyStore

	Parties    *parties.Service
	Scoring    *scoring.Service
	Scorecards *scorecard.Service
	Rules      *rules.Service
	Features   *features.Store
	Cache      controllers.FeatureCache

	MetricsRegistry *prometheus.Registry
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DBPinger, p.RedisPinger))
	})

	if p.MetricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(p.Idempotency, logg))
		r.Route("/parties", func(r chi.Router) {
			r.Post("/", controllers.PartyCreate(p.Parties, logg))
			r.Get("/", controllers.PartyList(p.Parties, logg))
			r.Get("/{partyId}", controllers.PartyGet(p.Parties, logg))
			r.Patch("/{partyId}/verification", controllers.PartySetVerification(p.Parties, logg))

			r.Post("/{partyId}/score", controllers.ScoreParty(p.Scoring, logg))
			r.Get("/{partyId}/score", controllers.ScoreGet(p.Scoring, logg))
			r.Get("/{partyId}/score/history", controllers.ScoreHistory(p.Scoring, logg))

			r.Get("/{partyId}/features", controllers.FeaturesGet(p.Features, logg))
			r.Get("/{partyId}/features/{featureName}/history", controllers.FeatureHistory(p.Features, logg))
			r.Delete("/{partyId}/cache", controllers.CacheInvalidate(p.Cache, logg))
		})

		r.Post("/relationships", controllers.RelationshipCreate(p.Parties, logg))
		r.Post("/transactions", controllers.TransactionCreate(p.Parties, logg))

		r.Post("/score/batch", controllers.ScoreBatch(p.Scoring, logg))

		r.Route("/scorecards", func(r chi.Router) {
			r.Post("/", controllers.ScorecardCreate(p.Scorecards, logg))
			r.Get("/", controllers.ScorecardList(p.Scorecards, logg))
			r.Get("/{version}", controllers.ScorecardGet(p.Scorecards, logg))
			r.Post("/{version}/activate", controllers.ScorecardActivate(p.Scorecards, logg))
		})

		r.Route("/rules", func(r chi.Router) {
			r.Post("/", controllers.RuleCreate(p.Rules, logg))
			r.Get("/", controllers.RuleList(p.Rules, logg))
			r.Post("/validate", controllers.RuleValidate(p.Rules, logg))
			r.Patch("/{ruleId}/active", controllers.RuleSetActive(p.Rules, logg))
		})

		r.Get("/cache/stats", controllers.CacheStats(p.Cache, logg))
	})

	return r
}
