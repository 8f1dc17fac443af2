package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chainscore-io/chainscore-backend/api/responses"
	"github.com/chainscore-io/chainscore-backend/api/validators"
	"github.com/chainscore-io/chainscore-backend/internal/parties"
	pkgerrors "github.com/chainscore-io/chainscore-backend/pkg/errors"
	"github.com/chainscore-io/chainscore-backend/pkg/logger"
	"github.com/chainscore-io/chainscore-backend/pkg/pagination"
)

type createPartyRequest struct {
	ExternalRef   string  `json:"external_ref" validate:"required,min=1"`
	Name          string  `json:"name" validate:"required,min=1"`
	PartyType     string  `json:"party_type" validate:"required"`
	TaxID         *string `json:"tax_id,omitempty"`
	ContactPerson *string `json:"contact_person,omitempty"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone         *string `json:"phone,omitempty"`
	Address       *string `json:"address,omitempty"`
	KYCVerified   bool    `json:"kyc_verified"`
	BatchID       *string `json:"batch_id,omitempty"`
}

func (r createPartyRequest) toInput() parties.CreatePartyInput {
	return parties.CreatePartyInput{
		ExternalRef:   r.ExternalRef,
		Name:          r.Name,
		PartyType:     r.PartyType,
		TaxID:         r.TaxID,
		ContactPerson: r.ContactPerson,
		Email:         r.Email,
		Phone:         r.Phone,
		Address:       r.Address,
		KYCVerified:   r.KYCVerified,
		BatchID:       r.BatchID,
	}
}

// PartyCreate ingests one party.
func PartyCreate(svc *parties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPartyRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		party, err := svc.CreateParty(r.Context(), req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, party)
	}
}

// PartyGet returns one party by ID.
func PartyGet(svc *parties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := partyIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		party, err := svc.GetParty(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, party)
	}
}

// PartyList pages through parties, optionally filtered by type or batch.
func PartyList(svc *parties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := parties.ListPartiesParams{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}
		if v := r.URL.Query().Get("party_type"); v != "" {
			params.PartyType = &v
		}
		if v := r.URL.Query().Get("batch_id"); v != "" {
			params.BatchID = &v
		}

		result, err := svc.ListParties(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type setVerificationRequest struct {
	KYCVerified bool `json:"kyc_verified"`
}

// PartySetVerification flips a party's KYC flag.
func PartySetVerification(svc *parties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := partyIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req setVerificationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		party, err := svc.SetVerification(r.Context(), id, req.KYCVerified)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, party)
	}
}

type createRelationshipRequest struct {
	FromPartyID      uuid.UUID  `json:"from_party_id" validate:"required"`
	ToPartyID        uuid.UUID  `json:"to_party_id" validate:"required"`
	RelationshipType string     `json:"relationship_type" validate:"required"`
	EstablishedDate  *time.Time `json:"established_date,omitempty"`
}

// RelationshipCreate ingests one directed edge between two parties.
func RelationshipCreate(svc *parties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRelationshipRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := parties.CreateRelationshipInput{
			FromPartyID:      req.FromPartyID,
			ToPartyID:        req.ToPartyID,
			RelationshipType: req.RelationshipType,
		}
		if req.EstablishedDate != nil {
			input.EstablishedDate = *req.EstablishedDate
		}

		rel, err := svc.CreateRelationship(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rel)
	}
}

type createTransactionRequest struct {
	PartyID         uuid.UUID  `json:"party_id" validate:"required"`
	CounterpartyID  *uuid.UUID `json:"counterparty_id,omitempty"`
	Amount          string     `json:"amount" validate:"required"`
	TransactionType string     `json:"transaction_type" validate:"required"`
	TransactionDate *time.Time `json:"transaction_date,omitempty"`
}

// TransactionCreate ingests one financial event.
func TransactionCreate(svc *parties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTransactionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := parties.CreateTransactionInput{
			PartyID:         req.PartyID,
			CounterpartyID:  req.CounterpartyID,
			Amount:          req.Amount,
			TransactionType: req.TransactionType,
		}
		if req.TransactionDate != nil {
			input.TransactionDate = *req.TransactionDate
		}

		txn, err := svc.CreateTransaction(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}

func partyIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "partyId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid party id")
	}
	return id, nil
}
