package enums

import "fmt"

// RelationshipType labels a directed edge between two parties.
type RelationshipType string

const (
	RelationshipTypeSuppliesTo      RelationshipType = "supplies_to"
	RelationshipTypeManufacturesFor RelationshipType = "manufactures_for"
	RelationshipTypeDistributesFor  RelationshipType = "distributes_for"
	RelationshipTypeSellsTo         RelationshipType = "sells_to"
)

var validRelationshipTypes = []RelationshipType{
	RelationshipTypeSuppliesTo,
	RelationshipTypeManufacturesFor,
	RelationshipTypeDistributesFor,
	RelationshipTypeSellsTo,
}

// String implements fmt.Stringer.
func (r RelationshipType) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r RelationshipType) IsValid() bool {
	for _, candidate := range validRelationshipTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRelationshipType converts raw input into a RelationshipType.
func ParseRelationshipType(value string) (RelationshipType, error) {
	for _, candidate := range validRelationshipTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid relationship type %q", value)
}
