package extractors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chainscore-io/chainscore-backend/pkg/db/models"
	"github.com/chainscore-io/chainscore-backend/pkg/enums"
)

type partyFinder interface {
	FindPartyByID(ctx context.Context, id uuid.UUID) (*models.Party, error)
}

var partyTypeScores = map[enums.PartyType]float64{
	enums.PartyTypeManufacturer: 10,
	enums.PartyTypeDistributor:  8,
	enums.PartyTypeSupplier:     7,
	enums.PartyTypeRetailer:     6,
	enums.PartyTypeCustomer:     5,
}

// IdentityExtractor derives features from the party's own KYC record.
type IdentityExtractor struct {
	parties partyFinder
}

// NewIdentityExtractor builds the KYC extractor.
func NewIdentityExtractor(parties partyFinder) (*IdentityExtractor, error) {
	if parties == nil {
		return nil, errors.New("party finder is required")
	}
	return &IdentityExtractor{parties: parties}, nil
}

func (e *IdentityExtractor) SourceType() enums.SourceType {
	return enums.SourceTypeKYC
}

func (e *IdentityExtractor) Extract(ctx context.Context, partyID uuid.UUID, asOf *time.Time) ([]Feature, error) {
	party, err := e.parties.FindPartyByID(ctx, partyID)
	if err != nil {
		return nil, fmt.Errorf("loading party: %w", err)
	}
	if party == nil {
		return nil, fmt.Errorf("party %s not found", partyID)
	}

	at := effectiveAsOf(asOf)

	verified := 0.0
	if party.KYCVerified {
		verified = 1.0
	}

	ageYears := at.Sub(party.CreatedAt).Hours() / 24 / 365.25
	if ageYears < 0 {
		ageYears = 0
	}

	contactFields := []*string{party.ContactPerson, party.Email, party.Phone, party.Address}
	populated := 0
	for _, field := range contactFields {
		if field != nil && *field != "" {
			populated++
		}
	}
	completeness := float64(populated) / float64(len(contactFields))
	completenessConfidence := 1.0
	if populated < len(contactFields) {
		completenessConfidence = completeness
	}
	if completenessConfidence == 0 {
		completenessConfidence = 0.3
	}

	hasTaxID := 0.0
	if party.TaxID != nil && *party.TaxID != "" {
		hasTaxID = 1.0
	}

	return []Feature{
		{Name: FeatureKYCVerified, Value: verified, Confidence: 1.0, Source: e.SourceType()},
		{Name: FeatureCompanyAgeYears, Value: ageYears, Confidence: 0.9, Source: e.SourceType()},
		{Name: FeaturePartyTypeScore, Value: partyTypeScores[party.PartyType], Confidence: 1.0, Source: e.SourceType()},
		{Name: FeatureContactCompleteness, Value: completeness * 100, Confidence: completenessConfidence, Source: e.SourceType()},
		{Name: FeatureHasTaxID, Value: hasTaxID, Confidence: 1.0, Source: e.SourceType()},
	}, nil
}
