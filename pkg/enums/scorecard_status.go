package enums

import "fmt"

// ScorecardStatus tracks the lifecycle of a scorecard version.
// Exactly one version may be active at a time.
type ScorecardStatus string

const (
	ScorecardStatusDraft   ScorecardStatus = "draft"
	ScorecardStatusActive  ScorecardStatus = "active"
	ScorecardStatusRetired ScorecardStatus = "retired"
	ScorecardStatusFailed  ScorecardStatus = "failed"
)

var validScorecardStatuses = []ScorecardStatus{
	ScorecardStatusDraft,
	ScorecardStatusActive,
	ScorecardStatusRetired,
	ScorecardStatusFailed,
}

// String implements fmt.Stringer.
func (s ScorecardStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s ScorecardStatus) IsValid() bool {
	for _, candidate := range validScorecardStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseScorecardStatus converts raw input into a ScorecardStatus.
func ParseScorecardStatus(value string) (ScorecardStatus, error) {
	for _, candidate := range validScorecardStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scorecard status %q", value)
}
