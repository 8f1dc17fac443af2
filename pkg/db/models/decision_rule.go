package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/chainscore-io/chainscore-backend/pkg/enums"
)

// DecisionRule is one ordered business rule. Rules are data, loaded before
// each evaluation run; lower priority evaluates first.
type DecisionRule struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name       string           `gorm:"column:name;not null"`
	Expression string           `gorm:"column:expression;not null"`
	Action     enums.RuleAction `gorm:"column:action;not null"`
	Reason     string           `gorm:"column:reason;not null"`
	Priority   int              `gorm:"column:priority;not null;default:100;index"`
	IsActive   bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
