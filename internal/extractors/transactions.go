package extractors

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/chainscore-io/chainscore-backend/pkg/db/models"
	"github.com/chainscore-io/chainscore-backend/pkg/enums"
)

const (
	transactionWindow   = 180 * 24 * time.Hour
	recentActivityScope = 30 * 24 * time.Hour

	neutralRegularity = 50.0
	defaultConfidence = 0.3
)

type transactionLister interface {
	ListTransactions(ctx context.Context, partyID uuid.UUID, since *time.Time, until *time.Time) ([]models.Transaction, error)
}

// TransactionExtractor derives features from the trailing six months of
// transaction history, anchored at the as-of instant.
type TransactionExtractor struct {
	transactions transactionLister
}

// NewTransactionExtractor builds the transaction extractor.
func NewTransactionExtractor(transactions transactionLister) (*TransactionExtractor, error) {
	if transactions == nil {
		return nil, errors.New("transaction lister is required")
	}
	return &TransactionExtractor{transactions: transactions}, nil
}

func (e *TransactionExtractor) SourceType() enums.SourceType {
	return enums.SourceTypeTransactions
}

func (e *TransactionExtractor) Extract(ctx context.Context, partyID uuid.UUID, asOf *time.Time) ([]Feature, error) {
	at := effectiveAsOf(asOf)
	since := at.Add(-transactionWindow)

	txns, err := e.transactions.ListTransactions(ctx, partyID, &since, &at)
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}
	if len(txns) == 0 {
		return e.defaults(), nil
	}

	count := float64(len(txns))
	var total float64
	for _, txn := range txns {
		total += txn.Amount.InexactFloat64()
	}
	average := total / count

	regularity, regularityConfidence := regularityScore(txns)

	types := map[enums.TransactionType]struct{}{}
	for _, txn := range txns {
		types[txn.TransactionType] = struct{}{}
	}

	recentCutoff := at.Add(-recentActivityScope)
	recent := 0.0
	for _, txn := range txns {
		if !txn.TransactionDate.Before(recentCutoff) {
			recent = 1.0
			break
		}
	}

	source := e.SourceType()
	return []Feature{
		{Name: FeatureTransactionCount6M, Value: count, Confidence: 1.0, Source: source},
		{Name: FeatureAvgTransactionAmt, Value: average, Confidence: 1.0, Source: source},
		{Name: FeatureTotalVolume6M, Value: total, Confidence: 1.0, Source: source},
		{Name: FeatureRegularityScore, Value: regularity, Confidence: regularityConfidence, Source: source},
		{Name: FeaturePaymentDiversity, Value: float64(len(types)), Confidence: 1.0, Source: source},
		{Name: FeatureRecentActivityFlag, Value: recent, Confidence: 1.0, Source: source},
	}, nil
}

// regularityScore scores how evenly volume is spread across months using the
// coefficient of variation of monthly volumes: (1 - stddev/mean) scaled to
// [0,100]. Fewer than two monthly buckets yields the neutral value.
func regularityScore(txns []models.Transaction) (float64, float64) {
	monthly := map[string]float64{}
	for _, txn := range txns {
		key := txn.TransactionDate.UTC().Format("2006-01")
		monthly[key] += txn.Amount.InexactFloat64()
	}
	if len(monthly) < 2 {
		return neutralRegularity, 0.5
	}

	var sum float64
	for _, v := range monthly {
		sum += v
	}
	mean := sum / float64(len(monthly))
	if mean == 0 {
		return neutralRegularity, 0.5
	}

	var variance float64
	for _, v := range monthly {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(monthly))
	stddev := math.Sqrt(variance)

	score := (1 - stddev/math.Abs(mean)) * 100
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	confidence := 0.5
	if len(monthly) >= 3 {
		confidence = 0.8
	}
	return score, confidence
}

// defaults returns the zero-value vector emitted when a party has no
// transactions inside the window. Every configured feature must still appear
// so the scorecard denominator stays honest.
func (e *TransactionExtractor) defaults() []Feature {
	source := e.SourceType()
	return []Feature{
		{Name: FeatureTransactionCount6M, Value: 0, Confidence: defaultConfidence, Source: source},
		{Name: FeatureAvgTransactionAmt, Value: 0, Confidence: defaultConfidence, Source: source},
		{Name: FeatureTotalVolume6M, Value: 0, Confidence: defaultConfidence, Source: source},
		{Name: FeatureRegularityScore, Value: 0, Confidence: defaultConfidence, Source: source},
		{Name: FeaturePaymentDiversity, Value: 0, Confidence: defaultConfidence, Source: source},
		{Name: FeatureRecentActivityFlag, Value: 0, Confidence: 1.0, Source: source},
	}
}
