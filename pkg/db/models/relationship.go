package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/chainscore-io/chainscore-backend/pkg/enums"
)

// Relationship is a directed edge between two parties. Multiple edges
// between the same pair are permitted; self-loops are tolerated.
type Relationship struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	FromPartyID      uuid.UUID              `gorm:"column:from_party_id;type:uuid;not null;index"`
	ToPartyID        uuid.UUID              `gorm:"column:to_party_id;type:uuid;not null;index"`
	RelationshipType enums.RelationshipType `gorm:"column:relationship_type;not null"`
	EstablishedDate  time.Time              `gorm:"column:established_date;not null"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
}
