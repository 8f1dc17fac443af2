package scorecard

import (
	"math"
	"sort"

	"github.com/chainscore-io/chainscore-backend/pkg/enums"
	"github.com/chainscore-io/chainscore-backend/pkg/types"
)

// DefaultBandThresholds maps bands to the minimum score that earns them.
var DefaultBandThresholds = types.BandThresholds{
	string(enums.ScoreBandExcellent): 800,
	string(enums.ScoreBandGood):      650,
	string(enums.ScoreBandFair):      550,
}

// Config is everything the engine needs to turn a feature vector into a
// score. It is derived from a stored scorecard version.
type Config struct {
	Version        string
	BaseScore      int
	MaxScore       int
	Weights        types.WeightMap
	BandThresholds types.BandThresholds
}

// Contribution is one feature's share of the raw score. The list of
// contributions reconstructs the raw score by summation and is the audit
// trail for a scoring run.
type Contribution struct {
	Feature         string  `json:"feature"`
	Value           float64 `json:"value"`
	CappedValue     float64 `json:"capped_value"`
	Weight          float64 `json:"weight"`
	Multiplier      float64 `json:"multiplier"`
	Contribution    float64 `json:"contribution"`
	MaxContribution float64 `json:"max_contribution"`
	Missing         bool    `json:"missing,omitempty"`
}

// Result is a fully scored feature vector.
type Result struct {
	FinalScore  int             `json:"final_score"`
	Band        enums.ScoreBand `json:"band"`
	RawScore    float64         `json:"raw_score"`
	MaxPossible float64         `json:"max_possible"`
	Breakdown   []Contribution  `json:"breakdown"`
}

// Compute maps a feature vector and a weight configuration to a bounded
// score. Only the configured features participate; a feature missing from
// the input contributes 0 while its maximum still counts in the denominator,
// which penalizes incomplete data instead of ignoring it.
//
// An uncapped feature has no defined maximum: its contribution counts
// toward the raw score but adds 0 to the denominator, so it can push the
// normalized score past MaxScore. The final clamp to [BaseScore, MaxScore]
// is the only bound on it.
func Compute(features map[string]float64, cfg Config) Result {
	names := make([]string, 0, len(cfg.Weights))
	for name := range cfg.Weights {
		names = append(names, name)
	}
	sort.Strings(names)

	var raw, maxPossible float64
	breakdown := make([]Contribution, 0, len(names))
	for _, name := range names {
		weight := cfg.Weights[name]
		value, present := features[name]

		capped := value
		maxContribution := 0.0
		if weight.Cap != nil {
			capped = math.Min(value, *weight.Cap)
			maxContribution = *weight.Cap * weight.Weight * weight.Multiplier
		}
		contribution := capped * weight.Weight * weight.Multiplier
		if !present {
			contribution = 0
			capped = 0
		}

		raw += contribution
		maxPossible += maxContribution
		breakdown = append(breakdown, Contribution{
			Feature:         name,
			Value:           value,
			CappedValue:     capped,
			Weight:          weight.Weight,
			Multiplier:      weight.Multiplier,
			Contribution:    contribution,
			MaxContribution: maxContribution,
			Missing:         !present,
		})
	}

	base := float64(cfg.BaseScore)
	normalized := base
	if maxPossible > 0 {
		normalized = base + (raw/maxPossible)*(float64(cfg.MaxScore)-base)
	}
	final := int(math.Round(normalized))
	if final < cfg.BaseScore {
		final = cfg.BaseScore
	}
	if final > cfg.MaxScore {
		final = cfg.MaxScore
	}

	return Result{
		FinalScore:  final,
		Band:        Band(final, cfg.BandThresholds),
		RawScore:    raw,
		MaxPossible: maxPossible,
		Breakdown:   breakdown,
	}
}

// Band assigns the coarse risk category for a score. Thresholds are checked
// highest first; a score below every threshold is poor.
func Band(score int, thresholds types.BandThresholds) enums.ScoreBand {
	if len(thresholds) == 0 {
		thresholds = DefaultBandThresholds
	}

	type bandCut struct {
		band enums.ScoreBand
		min  int
	}
	cuts := make([]bandCut, 0, len(thresholds))
	for name, min := range thresholds {
		cuts = append(cuts, bandCut{band: enums.ScoreBand(name), min: min})
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].min > cuts[j].min })

	for _, cut := range cuts {
		if score >= cut.min {
			return cut.band
		}
	}
	return enums.ScoreBandPoor
}
