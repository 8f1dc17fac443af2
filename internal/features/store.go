package features

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chainscore-io/chainscore-backend/internal/extractors"
	"github.com/chainscore-io/chainscore-backend/pkg/db/models"
	"github.com/chainscore-io/chainscore-backend/pkg/enums"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	DB() *gorm.DB
}

// Store is the versioned write path for extracted features. Superseded rows
// are expired, never deleted, so every historical value stays queryable.
type Store struct {
	db txRunner
}

// NewStore builds a temporal feature store.
func NewStore(db txRunner) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &Store{db: db}, nil
}

// Write expires the currently-valid rows for the given source types and
// inserts the new batch, all inside one transaction. Readers observe either
// the old rows or the new ones, never a gap. The expire predicate is scoped
// to the refreshed source types so concurrent writers for disjoint subsets
// cannot expire each other's rows.
func (s *Store) Write(ctx context.Context, partyID uuid.UUID, sourceTypes []enums.SourceType, feats []extractors.Feature, at time.Time) error {
	if len(sourceTypes) == 0 {
		return errors.New("at least one source type is required")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(&models.Feature{}).
			Where("party_id = ? AND valid_to IS NULL AND source_type IN ?", partyID, sourceTypes).
			Update("valid_to", at).Error; err != nil {
			return err
		}
		for _, feat := range feats {
			row := models.Feature{
				ID:          uuid.New(),
				PartyID:     partyID,
				FeatureName: feat.Name,
				Value:       feat.Value,
				Confidence:  feat.Confidence,
				SourceType:  feat.Source,
				ValidFrom:   at,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Current returns all currently-valid feature rows for a party.
func (s *Store) Current(ctx context.Context, partyID uuid.UUID) ([]models.Feature, error) {
	var rows []models.Feature
	if err := s.db.DB().WithContext(ctx).
		Where("party_id = ? AND valid_to IS NULL", partyID).
		Order("feature_name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AsOf returns the feature rows visible at the given instant.
func (s *Store) AsOf(ctx context.Context, partyID uuid.UUID, at time.Time) ([]models.Feature, error) {
	var rows []models.Feature
	if err := s.db.DB().WithContext(ctx).
		Where("party_id = ? AND valid_from <= ? AND (valid_to IS NULL OR valid_to > ?)", partyID, at, at).
		Order("feature_name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// History returns every version of one feature for a party, newest first.
func (s *Store) History(ctx context.Context, partyID uuid.UUID, featureName string) ([]models.Feature, error) {
	var rows []models.Feature
	if err := s.db.DB().WithContext(ctx).
		Where("party_id = ? AND feature_name = ?", partyID, featureName).
		Order("valid_from DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Vector flattens feature rows into a name -> value map plus a matching
// confidence map.
func Vector(rows []models.Feature) (map[string]float64, map[string]float64) {
	values := make(map[string]float64, len(rows))
	confidences := make(map[string]float64, len(rows))
	for _, row := range rows {
		values[row.FeatureName] = row.Value
		confidences[row.FeatureName] = row.Confidence
	}
	return values, confidences
}
