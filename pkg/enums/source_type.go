package enums

import "fmt"

// SourceType identifies which extractor produced a feature row.
type SourceType string

const (
	SourceTypeKYC           SourceType = "KYC"
	SourceTypeTransactions  SourceType = "TRANSACTIONS"
	SourceTypeRelationships SourceType = "RELATIONSHIPS"
)

var validSourceTypes = []SourceType{
	SourceTypeKYC,
	SourceTypeTransactions,
	SourceTypeRelationships,
}

// AllSourceTypes returns every known feature source.
func AllSourceTypes() []SourceType {
	out := make([]SourceType, len(validSourceTypes))
	copy(out, validSourceTypes)
	return out
}

// String implements fmt.Stringer.
func (s SourceType) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SourceType) IsValid() bool {
	for _, candidate := range validSourceTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSourceType converts raw input into a SourceType.
func ParseSourceType(value string) (SourceType, error) {
	for _, candidate := range validSourceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid source type %q", value)
}
