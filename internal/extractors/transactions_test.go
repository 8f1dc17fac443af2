package extractors

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/chainscore-io/chainscore-backend/pkg/db/models"
	"github.com/chainscore-io/chainscore-backend/pkg/enums"
)

type stubTransactionLister struct {
	txns []models.Transaction
	err  error
}

func (s *stubTransactionLister) ListTransactions(_ context.Context, _ uuid.UUID, since *time.Time, until *time.Time) ([]models.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Transaction
	for _, txn := range s.txns {
		if since != nil && txn.TransactionDate.Before(*since) {
			continue
		}
		if until != nil && txn.TransactionDate.After(*until) {
			continue
		}
		out = append(out, txn)
	}
	return out, nil
}

func txnAt(date time.Time, amount int64, txnType enums.TransactionType) models.Transaction {
	return models.Transaction{
		ID:              uuid.New(),
		TransactionDate: date,
		Amount:          decimal.NewFromInt(amount),
		TransactionType: txnType,
	}
}

func TestTransactionExtractorAggregates(t *testing.T) {
	asOf := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	lister := &stubTransactionLister{txns: []models.Transaction{
		txnAt(asOf.AddDate(0, 0, -10), 100, enums.TransactionTypeInvoice),
		txnAt(asOf.AddDate(0, -1, 0), 200, enums.TransactionTypePayment),
		txnAt(asOf.AddDate(0, -2, 0), 300, enums.TransactionTypeInvoice),
	}}
	extractor, err := NewTransactionExtractor(lister)
	require.NoError(t, err)

	feats, err := extractor.Extract(context.Background(), uuid.New(), &asOf)
	require.NoError(t, err)
	byName := featureMap(t, feats)

	require.Equal(t, 3.0, byName[FeatureTransactionCount6M].Value)
	require.InDelta(t, 200.0, byName[FeatureAvgTransactionAmt].Value, 0.001)
	require.InDelta(t, 600.0, byName[FeatureTotalVolume6M].Value, 0.001)
	require.Equal(t, 2.0, byName[FeaturePaymentDiversity].Value)
	require.Equal(t, 1.0, byName[FeatureRecentActivityFlag].Value)
	require.Equal(t, 0.8, byName[FeatureRegularityScore].Confidence)
}

func TestTransactionExtractorWindowExcludesOldRows(t *testing.T) {
	asOf := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	lister := &stubTransactionLister{txns: []models.Transaction{
		txnAt(asOf.AddDate(-1, 0, 0), 500, enums.TransactionTypeInvoice),
	}}
	extractor, err := NewTransactionExtractor(lister)
	require.NoError(t, err)

	feats, err := extractor.Extract(context.Background(), uuid.New(), &asOf)
	require.NoError(t, err)
	byName := featureMap(t, feats)

	require.Equal(t, 0.0, byName[FeatureTransactionCount6M].Value)
	require.Equal(t, defaultConfidence, byName[FeatureTransactionCount6M].Confidence)
	require.Equal(t, 1.0, byName[FeatureRecentActivityFlag].Confidence)
}

func TestTransactionExtractorDefaultsKeepEveryFeature(t *testing.T) {
	extractor, err := NewTransactionExtractor(&stubTransactionLister{})
	require.NoError(t, err)

	feats, err := extractor.Extract(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	require.Len(t, feats, 6)
	for _, f := range feats {
		require.Equal(t, 0.0, f.Value)
	}
}

func TestRegularityPerfectlyEvenMonths(t *testing.T) {
	asOf := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)
	lister := &stubTransactionLister{txns: []models.Transaction{
		txnAt(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 100, enums.TransactionTypeInvoice),
		txnAt(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), 100, enums.TransactionTypeInvoice),
		txnAt(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), 100, enums.TransactionTypeInvoice),
	}}
	extractor, err := NewTransactionExtractor(lister)
	require.NoError(t, err)

	feats, err := extractor.Extract(context.Background(), uuid.New(), &asOf)
	require.NoError(t, err)
	byName := featureMap(t, feats)

	require.InDelta(t, 100.0, byName[FeatureRegularityScore].Value, 0.001)
}

func TestRegularitySingleMonthIsNeutral(t *testing.T) {
	asOf := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)
	lister := &stubTransactionLister{txns: []models.Transaction{
		txnAt(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), 100, enums.TransactionTypeInvoice),
		txnAt(time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC), 150, enums.TransactionTypeInvoice),
	}}
	extractor, err := NewTransactionExtractor(lister)
	require.NoError(t, err)

	feats, err := extractor.Extract(context.Background(), uuid.New(), &asOf)
	require.NoError(t, err)
	byName := featureMap(t, feats)

	require.Equal(t, neutralRegularity, byName[FeatureRegularityScore].Value)
	require.Equal(t, 0.5, byName[FeatureRegularityScore].Confidence)
}
