package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/chainscore-io/chainscore-backend/pkg/enums"
	"github.com/chainscore-io/chainscore-backend/pkg/types"
)

// ScorecardVersion is an immutable weight configuration. Exactly one row
// may hold status=active at a time; activation retires the previous active
// version.
type ScorecardVersion struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Version        string                `gorm:"column:version;not null;uniqueIndex"`
	Status         enums.ScorecardStatus `gorm:"column:status;not null;index"`
	BaseScore      int                   `gorm:"column:base_score;not null;default:300"`
	MaxScore       int                   `gorm:"column:max_score;not null;default:900"`
	Weights        types.WeightMap       `gorm:"column:weights;type:jsonb;not null"`
	BandThresholds types.BandThresholds  `gorm:"column:band_thresholds;type:jsonb"`
	Source         string                `gorm:"column:source;not null;default:expert"`
	Notes          *string               `gorm:"column:notes"`
	ActivatedAt    *time.Time            `gorm:"column:activated_at"`
	RetiredAt      *time.Time            `gorm:"column:retired_at"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
}
