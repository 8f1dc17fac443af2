package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/chainscore-io/chainscore-backend/pkg/enums"
)

// Feature is one versioned fact about a party. At most one row per
// (party_id, feature_name) has a null valid_to; historical rows keep the
// timestamp at which they were superseded. Rows are never deleted.
type Feature struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	PartyID     uuid.UUID        `gorm:"column:party_id;type:uuid;not null;index:idx_features_party_current"`
	FeatureName string           `gorm:"column:feature_name;not null;index:idx_features_party_current"`
	Value       float64          `gorm:"column:feature_value;not null"`
	Confidence  float64          `gorm:"column:confidence;not null;default:1"`
	SourceType  enums.SourceType `gorm:"column:source_type;not null"`
	ValidFrom   time.Time        `gorm:"column:valid_from;not null"`
	ValidTo     *time.Time       `gorm:"column:valid_to;index:idx_features_party_current"`
}
