package enums

// ScoreBand is the coarse risk category derived from a final score.
type ScoreBand string

const (
	ScoreBandExcellent ScoreBand = "excellent"
	ScoreBandGood      ScoreBand = "good"
	ScoreBandFair      ScoreBand = "fair"
	ScoreBandPoor      ScoreBand = "poor"
)

// String implements fmt.Stringer.
func (b ScoreBand) String() string {
	return string(b)
}

// IsValid reports whether the value is known.
func (b ScoreBand) IsValid() bool {
	switch b {
	case ScoreBandExcellent, ScoreBandGood, ScoreBandFair, ScoreBandPoor:
		return true
	}
	return false
}
