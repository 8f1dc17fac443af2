package scoring

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chainscore-io/chainscore-backend/pkg/db/models"
)

// Repository persists scoring run audit records and the latest-score
// snapshot per party.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateScoreRequest(ctx context.Context, req *models.ScoreRequest) error
	FindScoreRequestByID(ctx context.Context, id uuid.UUID) (*models.ScoreRequest, error)
	ListScoreRequests(ctx context.Context, partyID uuid.UUID, limit int) ([]models.ScoreRequest, error)
	UpsertCreditScore(ctx context.Context, score *models.CreditScore) error
	FindCreditScore(ctx context.Context, partyID uuid.UUID) (*models.CreditScore, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a scoring repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) CreateScoreRequest(ctx context.Context, req *models.ScoreRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) FindScoreRequestByID(ctx context.Context, id uuid.UUID) (*models.ScoreRequest, error) {
	var req models.ScoreRequest
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&req).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// ListScoreRequests returns the most recent runs for a party, newest first.
func (r *repository) ListScoreRequests(ctx context.Context, partyID uuid.UUID, limit int) ([]models.ScoreRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var rows []models.ScoreRequest
	if err := r.db.WithContext(ctx).
		Where("party_id = ?", partyID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpsertCreditScore replaces the party's latest snapshot in place.
func (r *repository) UpsertCreditScore(ctx context.Context, score *models.CreditScore) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "party_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"overall_score", "score_band", "score_request_id",
				"scored_with_version", "calculated_at",
			}),
		}).
		Create(score).Error
}

func (r *repository) FindCreditScore(ctx context.Context, partyID uuid.UUID) (*models.CreditScore, error) {
	var score models.CreditScore
	if err := r.db.WithContext(ctx).
		Where("party_id = ?", partyID).
		First(&score).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &score, nil
}
