package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chainscore-io/chainscore-backend/pkg/enums"
)

// Transaction is a directed financial event between a party and a
// counterparty. Read-only for the scoring engine.
type Transaction struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	PartyID         uuid.UUID             `gorm:"column:party_id;type:uuid;not null;index"`
	CounterpartyID  *uuid.UUID            `gorm:"column:counterparty_id;type:uuid"`
	TransactionDate time.Time             `gorm:"column:transaction_date;not null;index"`
	Amount          decimal.Decimal       `gorm:"column:amount;type:numeric(14,2);not null"`
	TransactionType enums.TransactionType `gorm:"column:transaction_type;not null"`
	Reference       *string               `gorm:"column:reference"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}
