package parties

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chainscore-io/chainscore-backend/pkg/db/models"
	"github.com/chainscore-io/chainscore-backend/pkg/pagination"
)

// Repository handles party, relationship and transaction persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateParty(ctx context.Context, party *models.Party) error
	UpdateParty(ctx context.Context, party *models.Party) error
	FindPartyByID(ctx context.Context, id uuid.UUID) (*models.Party, error)
	FindPartyByExternalRef(ctx context.Context, externalRef string) (*models.Party, error)
	ListParties(ctx context.Context, params ListPartiesQuery) ([]models.Party, *pagination.Cursor, error)
	ListPartyIDsByBatch(ctx context.Context, batchID string) ([]uuid.UUID, error)
	CreateRelationship(ctx context.Context, rel *models.Relationship) error
	ListOutgoingRelationships(ctx context.Context, partyID uuid.UUID, asOf *time.Time) ([]models.Relationship, error)
	CountRelationships(ctx context.Context, partyID uuid.UUID, asOf *time.Time) (in int64, out int64, err error)
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	ListTransactions(ctx context.Context, partyID uuid.UUID, since *time.Time, until *time.Time) ([]models.Transaction, error)
}

// ListPartiesQuery configures party list queries.
type ListPartiesQuery struct {
	PartyType *string
	BatchID   *string
	Limit     int
	Cursor    *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a party repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateParty(ctx context.Context, party *models.Party) error {
	return r.db.WithContext(ctx).Create(party).Error
}

func (r *repository) UpdateParty(ctx context.Context, party *models.Party) error {
	return r.db.WithContext(ctx).Save(party).Error
}

func (r *repository) FindPartyByID(ctx context.Context, id uuid.UUID) (*models.Party, error) {
	var party models.Party
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&party).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &party, nil
}

func (r *repository) FindPartyByExternalRef(ctx context.Context, externalRef string) (*models.Party, error) {
	var party models.Party
	if err := r.db.WithContext(ctx).
		Where("external_ref = ?", externalRef).
		First(&party).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &party, nil
}

func (r *repository) ListParties(ctx context.Context, params ListPartiesQuery) ([]models.Party, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Party{})
	if params.PartyType != nil {
		query = query.Where("party_type = ?", *params.PartyType)
	}
	if params.BatchID != nil {
		query = query.Where("batch_id = ?", *params.BatchID)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}
	var rows []models.Party
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

func (r *repository) ListPartyIDsByBatch(ctx context.Context, batchID string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Party{}).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) CreateRelationship(ctx context.Context, rel *models.Relationship) error {
	return r.db.WithContext(ctx).Create(rel).Error
}

func (r *repository) ListOutgoingRelationships(ctx context.Context, partyID uuid.UUID, asOf *time.Time) ([]models.Relationship, error) {
	query := r.db.WithContext(ctx).
		Where("from_party_id = ?", partyID)
	if asOf != nil {
		query = query.Where("established_date <= ?", *asOf)
	}
	var rels []models.Relationship
	if err := query.Order("established_date ASC").Find(&rels).Error; err != nil {
		return nil, err
	}
	return rels, nil
}

func (r *repository) CountRelationships(ctx context.Context, partyID uuid.UUID, asOf *time.Time) (int64, int64, error) {
	inQuery := r.db.WithContext(ctx).Model(&models.Relationship{}).Where("to_party_id = ?", partyID)
	outQuery := r.db.WithContext(ctx).Model(&models.Relationship{}).Where("from_party_id = ?", partyID)
	if asOf != nil {
		inQuery = inQuery.Where("established_date <= ?", *asOf)
		outQuery = outQuery.Where("established_date <= ?", *asOf)
	}
	var in, out int64
	if err := inQuery.Count(&in).Error; err != nil {
		return 0, 0, err
	}
	if err := outQuery.Count(&out).Error; err != nil {
		return 0, 0, err
	}
	return in, out, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListTransactions(ctx context.Context, partyID uuid.UUID, since *time.Time, until *time.Time) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).
		Where("party_id = ?", partyID)
	if since != nil {
		query = query.Where("transaction_date >= ?", *since)
	}
	if until != nil {
		query = query.Where("transaction_date <= ?", *until)
	}
	var txns []models.Transaction
	if err := query.Order("transaction_date ASC").Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
