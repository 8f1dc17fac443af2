package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/chainscore-io/chainscore-backend/pkg/enums"
)

// ScoreRequest is the immutable audit record of one scoring invocation.
// The engine writes it once and never updates or deletes it.
type ScoreRequest struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	PartyID          uuid.UUID        `gorm:"column:party_id;type:uuid;not null;index"`
	ScorecardVersion string           `gorm:"column:scorecard_version;not null"`
	FeaturesSnapshot json.RawMessage  `gorm:"column:features_snapshot;type:jsonb;not null"`
	RawScore         float64          `gorm:"column:raw_score;not null"`
	FinalScore       int              `gorm:"column:final_score;not null"`
	ScoreBand        enums.ScoreBand  `gorm:"column:score_band;not null"`
	Confidence       float64          `gorm:"column:confidence;not null"`
	Decision         enums.RuleAction `gorm:"column:decision;not null"`
	DecisionReasons  json.RawMessage  `gorm:"column:decision_reasons;type:jsonb"`
	RequestedAsOf    *time.Time       `gorm:"column:requested_as_of"`
	ElapsedMS        int64            `gorm:"column:elapsed_ms;not null"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
}
