package scorecard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chainscore-io/chainscore-backend/internal/extractors"
	"github.com/chainscore-io/chainscore-backend/pkg/db"
	"github.com/chainscore-io/chainscore-backend/pkg/db/models"
	"github.com/chainscore-io/chainscore-backend/pkg/enums"
	pkgerrors "github.com/chainscore-io/chainscore-backend/pkg/errors"
	"github.com/chainscore-io/chainscore-backend/pkg/types"
)

// VersionActive selects whichever version currently holds active status.
const VersionActive = "active"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the scorecard service.
type ServiceParams struct {
	Repo Repository
	DB   txRunner
}

// Service manages scorecard version lifecycle and resolves configurations
// for the scoring pipeline.
type Service struct {
	repo Repository
	db   txRunner
}

// NewService builds a scorecard service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.DB == nil {
		return nil, errors.New("db is required")
	}
	return &Service{repo: params.Repo, db: params.DB}, nil
}

// CreateInput carries a new draft scorecard version.
type CreateInput struct {
	Version        string
	BaseScore      int
	MaxScore       int
	Weights        types.WeightMap
	BandThresholds types.BandThresholds
	Source         string
	Notes          *string
}

// Create inserts a draft version. Weight names are validated against the
// feature names the shipped extractors can emit; unknown names are rejected
// up front rather than silently contributing nothing.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.ScorecardVersion, error) {
	if input.Version == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "version is required")
	}
	if len(input.Weights) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one weighted feature is required")
	}
	if input.BaseScore == 0 {
		input.BaseScore = 300
	}
	if input.MaxScore == 0 {
		input.MaxScore = 900
	}
	if input.BaseScore >= input.MaxScore {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base_score must be below max_score")
	}

	known := map[string]struct{}{}
	for _, name := range extractors.KnownFeatureNames() {
		known[name] = struct{}{}
	}
	for name := range input.Weights {
		if _, ok := known[name]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown feature in weights: "+name)
		}
	}

	thresholds := input.BandThresholds
	if len(thresholds) == 0 {
		thresholds = DefaultBandThresholds
	}
	source := input.Source
	if source == "" {
		source = "expert"
	}

	version := &models.ScorecardVersion{
		ID:             uuid.New(),
		Version:        input.Version,
		Status:         enums.ScorecardStatusDraft,
		BaseScore:      input.BaseScore,
		MaxScore:       input.MaxScore,
		Weights:        input.Weights,
		BandThresholds: thresholds,
		Source:         source,
		Notes:          input.Notes,
	}
	if err := s.repo.Create(ctx, version); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "version already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating scorecard version")
	}
	return version, nil
}

// Activate promotes a draft version and retires the previous active one in
// the same transaction, preserving the single-active invariant.
func (s *Service) Activate(ctx context.Context, version string) (*models.ScorecardVersion, error) {
	var activated *models.ScorecardVersion
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		target, err := repo.FindByVersion(ctx, version)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading version")
		}
		if target == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "scorecard version not found")
		}
		if target.Status == enums.ScorecardStatusActive {
			activated = target
			return nil
		}
		if target.Status == enums.ScorecardStatusRetired {
			return pkgerrors.New(pkgerrors.CodeConflict, "retired versions cannot be reactivated")
		}

		now := time.Now().UTC()
		current, err := repo.FindActive(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading active version")
		}
		if current != nil {
			current.Status = enums.ScorecardStatusRetired
			current.RetiredAt = &now
			if err := repo.Update(ctx, current); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "retiring previous version")
			}
		}

		target.Status = enums.ScorecardStatusActive
		target.ActivatedAt = &now
		if err := repo.Update(ctx, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "activating version")
		}
		activated = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activated, nil
}

// List returns every stored version, newest first.
func (s *Service) List(ctx context.Context) ([]models.ScorecardVersion, error) {
	return s.repo.List(ctx)
}

// Get loads one version by its version string.
func (s *Service) Get(ctx context.Context, version string) (*models.ScorecardVersion, error) {
	row, err := s.repo.FindByVersion(ctx, version)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading version")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scorecard version not found")
	}
	return row, nil
}

// Resolve returns the engine configuration for a version selector: the
// literal "active" (or empty) picks the currently active version; anything
// else must name a stored version exactly. No silent fallback to stale or
// zero weights.
func (s *Service) Resolve(ctx context.Context, selector string) (Config, error) {
	var row *models.ScorecardVersion
	var err error
	if selector == "" || selector == VersionActive {
		row, err = s.repo.FindActive(ctx)
		if err != nil {
			return Config{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading active version")
		}
		if row == nil {
			return Config{}, pkgerrors.New(pkgerrors.CodeNoScorecard, "no active scorecard version")
		}
	} else {
		row, err = s.repo.FindByVersion(ctx, selector)
		if err != nil {
			return Config{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading version")
		}
		if row == nil {
			return Config{}, pkgerrors.New(pkgerrors.CodeNoScorecard, "scorecard version not found: "+selector)
		}
	}

	return Config{
		Version:        row.Version,
		BaseScore:      row.BaseScore,
		MaxScore:       row.MaxScore,
		Weights:        row.Weights,
		BandThresholds: row.BandThresholds,
	}, nil
}
