package extractors

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/chainscore-io/chainscore-backend/pkg/db/models"
	"github.com/chainscore-io/chainscore-backend/pkg/enums"
)

type stubPartyFinder struct {
	party *models.Party
	err   error
}

func (s *stubPartyFinder) FindPartyByID(context.Context, uuid.UUID) (*models.Party, error) {
	return s.party, s.err
}

func featureMap(t *testing.T, feats []Feature) map[string]Feature {
	t.Helper()
	byName := make(map[string]Feature, len(feats))
	for _, f := range feats {
		byName[f.Name] = f
	}
	return byName
}

func strPtr(s string) *string { return &s }

func TestIdentityExtractorFullRecord(t *testing.T) {
	created := time.Now().UTC().AddDate(-5, 0, 0)
	party := &models.Party{
		ID:            uuid.New(),
		PartyType:     enums.PartyTypeManufacturer,
		KYCVerified:   true,
		TaxID:         strPtr("TAX-1"),
		ContactPerson: strPtr("Dana"),
		Email:         strPtr("dana@example.com"),
		Phone:         strPtr("+100"),
		Address:       strPtr("1 Main St"),
		CreatedAt:     created,
	}
	extractor, err := NewIdentityExtractor(&stubPartyFinder{party: party})
	require.NoError(t, err)

	feats, err := extractor.Extract(context.Background(), party.ID, nil)
	require.NoError(t, err)
	require.Len(t, feats, 5)

	byName := featureMap(t, feats)
	require.Equal(t, 1.0, byName[FeatureKYCVerified].Value)
	require.InDelta(t, 5.0, byName[FeatureCompanyAgeYears].Value, 0.05)
	require.Equal(t, 0.9, byName[FeatureCompanyAgeYears].Confidence)
	require.Equal(t, 10.0, byName[FeaturePartyTypeScore].Value)
	require.Equal(t, 100.0, byName[FeatureContactCompleteness].Value)
	require.Equal(t, 1.0, byName[FeatureContactCompleteness].Confidence)
	require.Equal(t, 1.0, byName[FeatureHasTaxID].Value)
	for _, f := range feats {
		require.Equal(t, enums.SourceTypeKYC, f.Source)
	}
}

func TestIdentityExtractorPartialContact(t *testing.T) {
	party := &models.Party{
		ID:        uuid.New(),
		PartyType: enums.PartyTypeRetailer,
		Email:     strPtr("ops@example.com"),
		CreatedAt: time.Now().UTC(),
	}
	extractor, err := NewIdentityExtractor(&stubPartyFinder{party: party})
	require.NoError(t, err)

	feats, err := extractor.Extract(context.Background(), party.ID, nil)
	require.NoError(t, err)

	byName := featureMap(t, feats)
	require.Equal(t, 25.0, byName[FeatureContactCompleteness].Value)
	require.Equal(t, 0.25, byName[FeatureContactCompleteness].Confidence)
	require.Equal(t, 0.0, byName[FeatureKYCVerified].Value)
	require.Equal(t, 6.0, byName[FeaturePartyTypeScore].Value)
	require.Equal(t, 0.0, byName[FeatureHasTaxID].Value)
}

func TestIdentityExtractorAsOfAnchorsAge(t *testing.T) {
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	party := &models.Party{ID: uuid.New(), PartyType: enums.PartyTypeSupplier, CreatedAt: created}
	extractor, err := NewIdentityExtractor(&stubPartyFinder{party: party})
	require.NoError(t, err)

	asOf := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	feats, err := extractor.Extract(context.Background(), party.ID, &asOf)
	require.NoError(t, err)

	byName := featureMap(t, feats)
	require.InDelta(t, 2.0, byName[FeatureCompanyAgeYears].Value, 0.01)
}

func TestIdentityExtractorMissingParty(t *testing.T) {
	extractor, err := NewIdentityExtractor(&stubPartyFinder{})
	require.NoError(t, err)

	_, err = extractor.Extract(context.Background(), uuid.New(), nil)
	require.Error(t, err)
}
