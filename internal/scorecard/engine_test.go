package scorecard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainscore-io/chainscore-backend/pkg/enums"
	"github.com/chainscore-io/chainscore-backend/pkg/types"
)

func capOf(v float64) *float64 { return &v }

func referenceConfig() Config {
	return Config{
		Version:   "v1",
		BaseScore: 300,
		MaxScore:  900,
		Weights: types.WeightMap{
			"kyc_verified":         {Weight: 15, Multiplier: 1, Cap: capOf(1)},
			"company_age_years":    {Weight: 10, Multiplier: 2, Cap: capOf(10)},
			"transaction_count_6m": {Weight: 10, Multiplier: 0.5, Cap: capOf(100)},
		},
		BandThresholds: DefaultBandThresholds,
	}
}

func TestComputeReferenceScenario(t *testing.T) {
	features := map[string]float64{
		"kyc_verified":         1.0,
		"company_age_years":    5.0,
		"transaction_count_6m": 45.0,
	}

	result := Compute(features, referenceConfig())

	require.InDelta(t, 340.0, result.RawScore, 0.001)
	require.InDelta(t, 715.0, result.MaxPossible, 0.001)
	require.Equal(t, 585, result.FinalScore)
	require.Equal(t, enums.ScoreBandFair, result.Band)

	var sum float64
	for _, c := range result.Breakdown {
		sum += c.Contribution
	}
	require.InDelta(t, result.RawScore, sum, 0.001)
}

func TestComputeClampsExtremeValues(t *testing.T) {
	cfg := referenceConfig()

	huge := Compute(map[string]float64{
		"kyc_verified":         1e12,
		"company_age_years":    1e12,
		"transaction_count_6m": 1e12,
	}, cfg)
	require.Equal(t, 900, huge.FinalScore)

	negative := Compute(map[string]float64{
		"kyc_verified":         -1e12,
		"company_age_years":    -1e12,
		"transaction_count_6m": -1e12,
	}, cfg)
	require.Equal(t, 300, negative.FinalScore)
	require.GreaterOrEqual(t, negative.FinalScore, cfg.BaseScore)
}

func TestComputeMissingFeaturePenalizesDenominator(t *testing.T) {
	cfg := referenceConfig()

	full := Compute(map[string]float64{
		"kyc_verified":         1.0,
		"company_age_years":    10.0,
		"transaction_count_6m": 100.0,
	}, cfg)
	require.Equal(t, 900, full.FinalScore)

	partial := Compute(map[string]float64{
		"kyc_verified":      1.0,
		"company_age_years": 10.0,
	}, cfg)
	require.Less(t, partial.FinalScore, full.FinalScore)

	var missing *Contribution
	for i := range partial.Breakdown {
		if partial.Breakdown[i].Feature == "transaction_count_6m" {
			missing = &partial.Breakdown[i]
		}
	}
	require.NotNil(t, missing)
	require.True(t, missing.Missing)
	require.Equal(t, 0.0, missing.Contribution)
	require.InDelta(t, 500.0, missing.MaxContribution, 0.001)
}

func TestComputeEmptyConfigReturnsBase(t *testing.T) {
	result := Compute(map[string]float64{"anything": 10}, Config{BaseScore: 300, MaxScore: 900})
	require.Equal(t, 300, result.FinalScore)
	require.Equal(t, 0.0, result.MaxPossible)
}

func TestComputeDeterministicBreakdownOrder(t *testing.T) {
	features := map[string]float64{
		"kyc_verified":         1.0,
		"company_age_years":    5.0,
		"transaction_count_6m": 45.0,
	}
	first := Compute(features, referenceConfig())
	second := Compute(features, referenceConfig())
	require.Equal(t, first, second)
	require.Equal(t, "company_age_years", first.Breakdown[0].Feature)
}

func TestBandThresholds(t *testing.T) {
	cases := []struct {
		score int
		want  enums.ScoreBand
	}{
		{score: 830, want: enums.ScoreBandExcellent},
		{score: 800, want: enums.ScoreBandExcellent},
		{score: 700, want: enums.ScoreBandGood},
		{score: 585, want: enums.ScoreBandFair},
		{score: 549, want: enums.ScoreBandPoor},
		{score: 300, want: enums.ScoreBandPoor},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Band(tc.score, DefaultBandThresholds), "score %d", tc.score)
	}
}
