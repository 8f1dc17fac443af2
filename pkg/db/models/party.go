package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/chainscore-io/chainscore-backend/pkg/enums"
)

// Party is a supply-chain actor being scored. Owned by the ingestion path;
// the engine only reads it (except kyc_verified/updated_at, which ingestion
// may flip after verification).
type Party struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ExternalRef        string          `gorm:"column:external_ref;not null;uniqueIndex"`
	Name               string          `gorm:"column:name;not null;index"`
	PartyType          enums.PartyType `gorm:"column:party_type;not null"`
	TaxID              *string         `gorm:"column:tax_id"`
	RegistrationNumber *string         `gorm:"column:registration_number"`
	Address            *string         `gorm:"column:address"`
	ContactPerson      *string         `gorm:"column:contact_person"`
	Email              *string         `gorm:"column:email"`
	Phone              *string         `gorm:"column:phone"`
	KYCVerified        bool            `gorm:"column:kyc_verified;not null;default:false"`
	BatchID            *string         `gorm:"column:batch_id;index"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
