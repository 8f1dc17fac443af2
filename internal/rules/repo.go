package rules

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chainscore-io/chainscore-backend/pkg/db/models"
)

// Repository handles decision rule persistence.
type Repository interface {
	Create(ctx context.Context, rule *models.DecisionRule) error
	Update(ctx context.Context, rule *models.DecisionRule) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.DecisionRule, error)
	ListActive(ctx context.Context) ([]models.DecisionRule, error)
	ListAll(ctx context.Context) ([]models.DecisionRule, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a rule repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, rule *models.DecisionRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *repository) Update(ctx context.Context, rule *models.DecisionRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DecisionRule, error) {
	var rule models.DecisionRule
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&rule).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// ListActive returns active rules ordered by ascending priority; created_at
// breaks ties so evaluation order is stable.
func (r *repository) ListActive(ctx context.Context) ([]models.DecisionRule, error) {
	var rows []models.DecisionRule
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("priority ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.DecisionRule, error) {
	var rows []models.DecisionRule
	if err := r.db.WithContext(ctx).
		Order("priority ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
