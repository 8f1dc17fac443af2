package extractors

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chainscore-io/chainscore-backend/pkg/enums"
)

// Feature is one extracted fact before it reaches the temporal store.
type Feature struct {
	Name       string
	Value      float64
	Confidence float64
	Source     enums.SourceType
}

// Extractor converts stored records for one party into named feature values.
// Implementations are independently invocable and independently failing.
type Extractor interface {
	SourceType() enums.SourceType
	Extract(ctx context.Context, partyID uuid.UUID, asOf *time.Time) ([]Feature, error)
}

// Feature names emitted by the shipped extractors. Scorecard configurations
// are validated against this set at load time.
const (
	FeatureKYCVerified         = "kyc_verified"
	FeatureCompanyAgeYears     = "company_age_years"
	FeaturePartyTypeScore      = "party_type_score"
	FeatureContactCompleteness = "contact_completeness"
	FeatureHasTaxID            = "has_tax_id"

	FeatureTransactionCount6M = "transaction_count_6m"
	FeatureAvgTransactionAmt  = "avg_transaction_amount"
	FeatureTotalVolume6M      = "total_transaction_volume_6m"
	FeatureRegularityScore    = "transaction_regularity_score"
	FeaturePaymentDiversity   = "payment_type_diversity"
	FeatureRecentActivityFlag = "recent_activity_flag"

	FeatureDirectCounterparties = "direct_counterparty_count"
	FeatureNetworkDepth         = "network_depth_downstream"
	FeatureNetworkSize          = "network_size"
	FeatureSupplierCount        = "supplier_count"
	FeatureCustomerCount        = "customer_count"
	FeatureNetworkBalanceRatio  = "network_balance_ratio"
)

// KnownFeatureNames returns every feature name the shipped extractors emit.
func KnownFeatureNames() []string {
	return []string{
		FeatureKYCVerified,
		FeatureCompanyAgeYears,
		FeaturePartyTypeScore,
		FeatureContactCompleteness,
		FeatureHasTaxID,
		FeatureTransactionCount6M,
		FeatureAvgTransactionAmt,
		FeatureTotalVolume6M,
		FeatureRegularityScore,
		FeaturePaymentDiversity,
		FeatureRecentActivityFlag,
		FeatureDirectCounterparties,
		FeatureNetworkDepth,
		FeatureNetworkSize,
		FeatureSupplierCount,
		FeatureCustomerCount,
		FeatureNetworkBalanceRatio,
	}
}

func effectiveAsOf(asOf *time.Time) time.Time {
	if asOf != nil {
		return *asOf
	}
	return time.Now().UTC()
}
