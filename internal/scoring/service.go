package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/chainscore-io/chainscore-backend/internal/extractors"
	"github.com/chainscore-io/chainscore-backend/internal/featurecache"
	"github.com/chainscore-io/chainscore-backend/internal/features"
	"github.com/chainscore-io/chainscore-backend/internal/rules"
	"github.com/chainscore-io/chainscore-backend/internal/scorecard"
	"github.com/chainscore-io/chainscore-backend/pkg/db/models"
	"github.com/chainscore-io/chainscore-backend/pkg/enums"
	pkgerrors "github.com/chainscore-io/chainscore-backend/pkg/errors"
	"github.com/chainscore-io/chainscore-backend/pkg/logger"
	"github.com/chainscore-io/chainscore-backend/pkg/metrics"
	"github.com/chainscore-io/chainscore-backend/pkg/pubsub"
	"github.com/chainscore-io/chainscore-backend/pkg/types"
)

const defaultBatchWorkers = 4

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type featureStore interface {
	Write(ctx context.Context, partyID uuid.UUID, sourceTypes []enums.SourceType, feats []extractors.Feature, at time.Time) error
	AsOf(ctx context.Context, partyID uuid.UUID, at time.Time) ([]models.Feature, error)
}

type snapshotCache interface {
	Get(ctx context.Context, partyID uuid.UUID) (featurecache.Snapshot, bool)
	Set(ctx context.Context, partyID uuid.UUID, snapshot featurecache.Snapshot, ttl time.Duration)
	Invalidate(ctx context.Context, partyIDs []uuid.UUID)
}

type scorecardResolver interface {
	Resolve(ctx context.Context, selector string) (scorecard.Config, error)
}

type ruleEvaluator interface {
	Evaluate(ctx context.Context, evalCtx rules.Context) (rules.Outcome, error)
}

type batchLister interface {
	ListPartyIDsByBatch(ctx context.Context, batchID string) ([]uuid.UUID, error)
}

type eventSink interface {
	ScoreComputed(ctx context.Context, event pubsub.ScoreComputedEvent)
	BatchCompleted(ctx context.Context, event pubsub.BatchCompletedEvent)
}

// ServiceParams groups the scoring pipeline's dependencies. Cache, Events
// and Metrics are optional; everything else is required.
type ServiceParams struct {
	DB         txRunner
	Repo       Repository
	Extractors []extractors.Extractor
	Features   featureStore
	Scorecards scorecardResolver
	Rules      ruleEvaluator
	Parties    batchLister

	Cache   snapshotCache
	Events  eventSink
	Metrics *metrics.ScoringMetrics
	Logger  *logger.Logger

	CacheTTL       time.Duration
	BatchWorkers   int
	DefaultVersion string
}

// Service runs the full pipeline for one party: extract features, persist
// them, score against a scorecard version, apply decision rules, and record
// the run.
type Service struct {
	db         txRunner
	repo       Repository
	extractors []extractors.Extractor
	features   featureStore
	scorecards scorecardResolver
	rules      ruleEvaluator
	parties    batchLister

	cache    snapshotCache
	events   eventSink
	metrics  *metrics.ScoringMetrics
	logg     *logger.Logger
	cacheTTL time.Duration
	workers  int
	version  string
}

// NewService validates and wires the pipeline.
func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, errors.New("db is required")
	}
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if len(params.Extractors) == 0 {
		return nil, errors.New("at least one extractor is required")
	}
	if params.Features == nil {
		return nil, errors.New("feature store is required")
	}
	if params.Scorecards == nil {
		return nil, errors.New("scorecard resolver is required")
	}
	if params.Rules == nil {
		return nil, errors.New("rule evaluator is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}

	workers := params.BatchWorkers
	if workers <= 0 {
		workers = defaultBatchWorkers
	}
	version := params.DefaultVersion
	if version == "" {
		version = scorecard.VersionActive
	}

	return &Service{
		db:         params.DB,
		repo:       params.Repo,
		extractors: params.Extractors,
		features:   params.Features,
		scorecards: params.Scorecards,
		rules:      params.Rules,
		parties:    params.Parties,
		cache:      params.Cache,
		events:     params.Events,
		metrics:    params.Metrics,
		logg:       params.Logger,
		cacheTTL:   params.CacheTTL,
		workers:    workers,
		version:    version,
	}, nil
}

// ScoreParams selects what to score. A nil AsOf scores current state; a set
// AsOf replays the feature vector that was valid at that instant without
// re-extracting or writing anything.
type ScoreParams struct {
	PartyID   uuid.UUID
	Version   string
	AsOf      *time.Time
	SkipCache bool
}

// ScoreResult is the full outcome of one scoring run.
type ScoreResult struct {
	PartyID          uuid.UUID                `json:"party_id"`
	Score            int                      `json:"score"`
	Band             enums.ScoreBand          `json:"band"`
	RawScore         float64                  `json:"raw_score"`
	MaxPossible      float64                  `json:"max_possible"`
	Confidence       float64                  `json:"confidence"`
	Decision         enums.RuleAction         `json:"decision"`
	Reasons          []string                 `json:"reasons"`
	Breakdown        []scorecard.Contribution `json:"breakdown"`
	Features         map[string]float64       `json:"features"`
	ScorecardVersion string                   `json:"scorecard_version"`
	ScoreRequestID   uuid.UUID                `json:"score_request_id"`
	FromCache        bool                     `json:"from_cache"`
	ElapsedMS        int64                    `json:"elapsed_ms"`
}

// Score runs the pipeline for one party.
func (s *Service) Score(ctx context.Context, params ScoreParams) (*ScoreResult, error) {
	start := time.Now()
	ctx = s.logg.WithPartyID(ctx, params.PartyID.String())

	selector := params.Version
	if selector == "" {
		selector = s.version
	}
	cfg, err := s.scorecards.Resolve(ctx, selector)
	if err != nil {
		s.metrics.IncFailure("scorecard")
		return nil, err
	}
	ctx = s.logg.WithScorecardVersion(ctx, cfg.Version)

	snapshot, fromCache, err := s.acquireFeatures(ctx, params)
	if err != nil {
		s.metrics.IncFailure("extraction")
		return nil, err
	}

	computed := scorecard.Compute(snapshot.Values, cfg)
	confidence := coverageConfidence(snapshot.Values, cfg.Weights)

	outcome, err := s.rules.Evaluate(ctx, rules.Context{
		Score:    computed.FinalScore,
		Band:     computed.Band,
		Features: snapshot.Values,
	})
	if err != nil {
		s.metrics.IncFailure("rules")
		return nil, err
	}

	elapsed := time.Since(start)
	req, err := s.recordRun(ctx, params, cfg.Version, snapshot, computed, confidence, outcome, elapsed)
	if err != nil {
		s.metrics.IncFailure("persistence")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording scoring run")
	}

	s.metrics.ObserveDuration(cfg.Version, elapsed)
	s.metrics.IncSuccess(cfg.Version)
	if s.events != nil {
		s.events.ScoreComputed(ctx, pubsub.ScoreComputedEvent{
			PartyID:          params.PartyID.String(),
			Score:            computed.FinalScore,
			ScoreBand:        string(computed.Band),
			Decision:         string(outcome.Action),
			ScorecardVersion: cfg.Version,
			ScoreRequestID:   req.ID.String(),
			ComputedAt:       req.CreatedAt,
		})
	}
	s.logg.Info(ctx, "scored party")

	return &ScoreResult{
		PartyID:          params.PartyID,
		Score:            computed.FinalScore,
		Band:             computed.Band,
		RawScore:         computed.RawScore,
		MaxPossible:      computed.MaxPossible,
		Confidence:       confidence,
		Decision:         outcome.Action,
		Reasons:          outcome.Reasons,
		Breakdown:        computed.Breakdown,
		Features:         snapshot.Values,
		ScorecardVersion: cfg.Version,
		ScoreRequestID:   req.ID,
		FromCache:        fromCache,
		ElapsedMS:        elapsed.Milliseconds(),
	}, nil
}

// acquireFeatures resolves the feature vector for the run: a historical
// read when AsOf is set, otherwise cache then fresh extraction.
func (s *Service) acquireFeatures(ctx context.Context, params ScoreParams) (featurecache.Snapshot, bool, error) {
	if params.AsOf != nil {
		rows, err := s.features.AsOf(ctx, params.PartyID, *params.AsOf)
		if err != nil {
			return featurecache.Snapshot{}, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading historical features")
		}
		values, confidences := features.Vector(rows)
		return featurecache.Snapshot{Values: values, Confidences: confidences, CapturedAt: *params.AsOf}, false, nil
	}

	if s.cache != nil && !params.SkipCache {
		if snapshot, ok := s.cache.Get(ctx, params.PartyID); ok {
			s.metrics.IncCacheHit()
			return snapshot, true, nil
		}
		s.metrics.IncCacheMiss()
	}

	snapshot, err := s.extractAndPersist(ctx, params.PartyID)
	if err != nil {
		return featurecache.Snapshot{}, false, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, params.PartyID, snapshot, s.cacheTTL)
	}
	return snapshot, false, nil
}

// extractAndPersist runs every extractor concurrently. One failing source
// degrades the vector instead of failing the run; only a total failure
// aborts. Successful sources are written through the temporal store in one
// transaction so re-runs expire exactly what they replace.
func (s *Service) extractAndPersist(ctx context.Context, partyID uuid.UUID) (featurecache.Snapshot, error) {
	type extraction struct {
		source enums.SourceType
		feats  []extractors.Feature
		err    error
	}

	results := make([]extraction, len(s.extractors))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, ext := range s.extractors {
		group.Go(func() error {
			feats, err := ext.Extract(groupCtx, partyID, nil)
			results[i] = extraction{source: ext.SourceType(), feats: feats, err: err}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return featurecache.Snapshot{}, err
	}

	var (
		combined  []extractors.Feature
		succeeded []enums.SourceType
		failures  error
	)
	for _, res := range results {
		if res.err != nil {
			failures = multierr.Append(failures, res.err)
			s.metrics.IncExtractorFailure(string(res.source))
			failCtx := s.logg.WithSourceType(ctx, string(res.source))
			s.logg.Warn(failCtx, "extractor failed, continuing without its features: "+res.err.Error())
			continue
		}
		combined = append(combined, res.feats...)
		succeeded = append(succeeded, res.source)
	}
	if len(succeeded) == 0 {
		return featurecache.Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, failures, "all feature extractors failed")
	}

	now := time.Now().UTC()
	if err := s.features.Write(ctx, partyID, succeeded, combined, now); err != nil {
		return featurecache.Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting features")
	}

	values := make(map[string]float64, len(combined))
	confidences := make(map[string]float64, len(combined))
	for _, feat := range combined {
		values[feat.Name] = feat.Value
		confidences[feat.Name] = feat.Confidence
	}
	return featurecache.Snapshot{Values: values, Confidences: confidences, CapturedAt: now}, nil
}

// recordRun writes the immutable audit row and, for current-state runs, the
// latest-score snapshot in one transaction. Historical replays keep their
// audit row but never overwrite the party's current score.
func (s *Service) recordRun(
	ctx context.Context,
	params ScoreParams,
	version string,
	snapshot featurecache.Snapshot,
	computed scorecard.Result,
	confidence float64,
	outcome rules.Outcome,
	elapsed time.Duration,
) (*models.ScoreRequest, error) {
	featuresJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	reasonsJSON, err := json.Marshal(outcome.Reasons)
	if err != nil {
		return nil, err
	}

	req := &models.ScoreRequest{
		ID:               uuid.New(),
		PartyID:          params.PartyID,
		ScorecardVersion: version,
		FeaturesSnapshot: featuresJSON,
		RawScore:         computed.RawScore,
		FinalScore:       computed.FinalScore,
		ScoreBand:        computed.Band,
		Confidence:       confidence,
		Decision:         outcome.Action,
		DecisionReasons:  reasonsJSON,
		RequestedAsOf:    params.AsOf,
		ElapsedMS:        elapsed.Milliseconds(),
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateScoreRequest(ctx, req); err != nil {
			return err
		}
		if params.AsOf != nil {
			return nil
		}
		return repo.UpsertCreditScore(ctx, &models.CreditScore{
			ID:                uuid.New(),
			PartyID:           params.PartyID,
			OverallScore:      computed.FinalScore,
			ScoreBand:         computed.Band,
			ScoreRequestID:    req.ID,
			ScoredWithVersion: version,
			CalculatedAt:      time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// LatestScore returns the current snapshot for a party.
func (s *Service) LatestScore(ctx context.Context, partyID uuid.UUID) (*models.CreditScore, error) {
	score, err := s.repo.FindCreditScore(ctx, partyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading credit score")
	}
	if score == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "party has not been scored")
	}
	return score, nil
}

// History returns recent scoring runs for a party, newest first.
func (s *Service) History(ctx context.Context, partyID uuid.UUID, limit int) ([]models.ScoreRequest, error) {
	rows, err := s.repo.ListScoreRequests(ctx, partyID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading score history")
	}
	return rows, nil
}

// coverageConfidence is the fraction of configured features present in the
// vector. It reports data completeness relative to what the scorecard asks
// for, independent of per-feature confidence.
func coverageConfidence(values map[string]float64, weights types.WeightMap) float64 {
	if len(weights) == 0 {
		return 0
	}
	present := 0
	for name := range weights {
		if _, ok := values[name]; ok {
			present++
		}
	}
	return float64(present) / float64(len(weights))
}
