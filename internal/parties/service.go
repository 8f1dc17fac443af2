package parties

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/chainscore-io/chainscore-backend/pkg/db"
	"github.com/chainscore-io/chainscore-backend/pkg/db/models"
	"github.com/chainscore-io/chainscore-backend/pkg/enums"
	pkgerrors "github.com/chainscore-io/chainscore-backend/pkg/errors"
	"github.com/chainscore-io/chainscore-backend/pkg/pagination"
)

// ServiceParams groups dependencies for the party service.
type ServiceParams struct {
	Repo Repository
}

// Service owns the ingestion path: parties, relationships and transactions.
type Service struct {
	repo Repository
}

// NewService builds a party service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// CreatePartyInput carries the ingestion payload for one party.
type CreatePartyInput struct {
	ExternalRef   string
	Name          string
	PartyType     string
	TaxID         *string
	ContactPerson *string
	Email         *string
	Phone         *string
	Address       *string
	KYCVerified   bool
	BatchID       *string
}

// CreateParty inserts a new party. External refs are unique; a duplicate ref
// surfaces as a conflict rather than a second row.
func (s *Service) CreateParty(ctx context.Context, input CreatePartyInput) (*models.Party, error) {
	partyType, err := enums.ParsePartyType(input.PartyType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid party type")
	}
	if input.ExternalRef == "" || input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external_ref and name are required")
	}

	party := &models.Party{
		ID:            uuid.New(),
		ExternalRef:   input.ExternalRef,
		Name:          input.Name,
		PartyType:     partyType,
		TaxID:         input.TaxID,
		ContactPerson: input.ContactPerson,
		Email:         input.Email,
		Phone:         input.Phone,
		Address:       input.Address,
		KYCVerified:   input.KYCVerified,
		BatchID:       input.BatchID,
	}
	if err := s.repo.CreateParty(ctx, party); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "external_ref already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating party")
	}
	return party, nil
}

// GetParty loads a party by id.
func (s *Service) GetParty(ctx context.Context, id uuid.UUID) (*models.Party, error) {
	party, err := s.repo.FindPartyByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading party")
	}
	if party == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
	}
	return party, nil
}

// ListPartiesParams filters and paginates a party listing.
type ListPartiesParams struct {
	PartyType *string
	BatchID   *string
	Limit     int
	Cursor    string
}

// ListPartiesResult wraps one page of parties and the cursor for the next.
type ListPartiesResult struct {
	Items  []models.Party `json:"items"`
	Cursor string         `json:"cursor"`
}

// ListParties returns parties filtered by type and batch tag, newest first.
func (s *Service) ListParties(ctx context.Context, params ListPartiesParams) (*ListPartiesResult, error) {
	query := ListPartiesQuery{
		PartyType: params.PartyType,
		BatchID:   params.BatchID,
		Limit:     params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListParties(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing parties")
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListPartiesResult{Items: rows, Cursor: cursor}, nil
}

// SetVerification flips the KYC verification flag. The rest of the party
// record is immutable after creation.
func (s *Service) SetVerification(ctx context.Context, id uuid.UUID, verified bool) (*models.Party, error) {
	party, err := s.GetParty(ctx, id)
	if err != nil {
		return nil, err
	}
	party.KYCVerified = verified
	if err := s.repo.UpdateParty(ctx, party); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating party")
	}
	return party, nil
}

// CreateRelationshipInput carries a directed edge between two parties.
type CreateRelationshipInput struct {
	FromPartyID      uuid.UUID
	ToPartyID        uuid.UUID
	RelationshipType string
	EstablishedDate  time.Time
}

// CreateRelationship inserts a directed edge. Both endpoints must exist;
// self-loops are permitted (traversal tolerates them).
func (s *Service) CreateRelationship(ctx context.Context, input CreateRelationshipInput) (*models.Relationship, error) {
	relType, err := enums.ParseRelationshipType(input.RelationshipType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid relationship type")
	}
	for _, id := range []uuid.UUID{input.FromPartyID, input.ToPartyID} {
		if _, err := s.GetParty(ctx, id); err != nil {
			return nil, err
		}
	}

	established := input.EstablishedDate
	if established.IsZero() {
		established = time.Now().UTC()
	}
	rel := &models.Relationship{
		ID:               uuid.New(),
		FromPartyID:      input.FromPartyID,
		ToPartyID:        input.ToPartyID,
		RelationshipType: relType,
		EstablishedDate:  established,
	}
	if err := s.repo.CreateRelationship(ctx, rel); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating relationship")
	}
	return rel, nil
}

// CreateTransactionInput carries one financial event for ingestion.
type CreateTransactionInput struct {
	PartyID         uuid.UUID
	CounterpartyID  *uuid.UUID
	Amount          string
	TransactionType string
	TransactionDate time.Time
}

// CreateTransaction inserts a transaction for a party.
func (s *Service) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*models.Transaction, error) {
	txnType, err := enums.ParseTransactionType(input.TransactionType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction type")
	}
	amount, err := parseAmount(input.Amount)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetParty(ctx, input.PartyID); err != nil {
		return nil, err
	}

	date := input.TransactionDate
	if date.IsZero() {
		date = time.Now().UTC()
	}
	txn := &models.Transaction{
		ID:              uuid.New(),
		PartyID:         input.PartyID,
		CounterpartyID:  input.CounterpartyID,
		Amount:          amount,
		TransactionType: txnType,
		TransactionDate: date,
	}
	if err := s.repo.CreateTransaction(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating transaction")
	}
	return txn, nil
}
