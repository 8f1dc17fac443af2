package enums

import "fmt"

// RuleAction is the decision a matching rule produces.
type RuleAction string

const (
	RuleActionApprove      RuleAction = "approve"
	RuleActionReject       RuleAction = "reject"
	RuleActionFlag         RuleAction = "flag"
	RuleActionManualReview RuleAction = "manual_review"
)

var validRuleActions = []RuleAction{
	RuleActionApprove,
	RuleActionReject,
	RuleActionFlag,
	RuleActionManualReview,
}

// String implements fmt.Stringer.
func (a RuleAction) String() string {
	return string(a)
}

// IsValid reports whether the value is known.
func (a RuleAction) IsValid() bool {
	for _, candidate := range validRuleActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseRuleAction converts raw input into a RuleAction.
func ParseRuleAction(value string) (RuleAction, error) {
	for _, candidate := range validRuleActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rule action %q", value)
}
