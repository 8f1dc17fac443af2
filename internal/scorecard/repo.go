package scorecard

import (
	"context"

	"gorm.io/gorm"

	"github.com/chainscore-io/chainscore-backend/pkg/db/models"
	"github.com/chainscore-io/chainscore-backend/pkg/enums"
)

// Repository handles scorecard version persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, version *models.ScorecardVersion) error
	Update(ctx context.Context, version *models.ScorecardVersion) error
	FindByVersion(ctx context.Context, version string) (*models.ScorecardVersion, error)
	FindActive(ctx context.Context) (*models.ScorecardVersion, error)
	List(ctx context.Context) ([]models.ScorecardVersion, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a scorecard repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, version *models.ScorecardVersion) error {
	return r.db.WithContext(ctx).Create(version).Error
}

func (r *repository) Update(ctx context.Context, version *models.ScorecardVersion) error {
	return r.db.WithContext(ctx).Save(version).Error
}

func (r *repository) FindByVersion(ctx context.Context, version string) (*models.ScorecardVersion, error) {
	var row models.ScorecardVersion
	if err := r.db.WithContext(ctx).
		Where("version = ?", version).
		First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindActive(ctx context.Context) (*models.ScorecardVersion, error) {
	var row models.ScorecardVersion
	if err := r.db.WithContext(ctx).
		Where("status = ?", enums.ScorecardStatusActive).
		Order("created_at DESC").
		First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) List(ctx context.Context) ([]models.ScorecardVersion, error) {
	var rows []models.ScorecardVersion
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
