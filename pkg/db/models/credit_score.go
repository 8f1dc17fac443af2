package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/chainscore-io/chainscore-backend/pkg/enums"
)

// CreditScore is the latest-score snapshot per party, upserted after each
// scoring run. Full history lives in score_requests.
type CreditScore struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	PartyID           uuid.UUID       `gorm:"column:party_id;type:uuid;not null;uniqueIndex"`
	OverallScore      int             `gorm:"column:overall_score;not null"`
	ScoreBand         enums.ScoreBand `gorm:"column:score_band;not null"`
	ScoreRequestID    uuid.UUID       `gorm:"column:score_request_id;type:uuid;not null"`
	ScoredWithVersion string          `gorm:"column:scored_with_version;not null"`
	CalculatedAt      time.Time       `gorm:"column:calculated_at;not null"`
}
