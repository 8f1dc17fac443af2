package enums

import "fmt"

// PartyType classifies a supply-chain actor.
type PartyType string

const (
	PartyTypeSupplier     PartyType = "supplier"
	PartyTypeManufacturer PartyType = "manufacturer"
	PartyTypeDistributor  PartyType = "distributor"
	PartyTypeRetailer     PartyType = "retailer"
	PartyTypeCustomer     PartyType = "customer"
	PartyTypeIndividual   PartyType = "individual"
	PartyTypeBusiness     PartyType = "business"
)

var validPartyTypes = []PartyType{
	PartyTypeSupplier,
	PartyTypeManufacturer,
	PartyTypeDistributor,
	PartyTypeRetailer,
	PartyTypeCustomer,
	PartyTypeIndividual,
	PartyTypeBusiness,
}

// String implements fmt.Stringer.
func (p PartyType) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PartyType) IsValid() bool {
	for _, candidate := range validPartyTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePartyType converts raw input into a PartyType.
func ParsePartyType(value string) (PartyType, error) {
	for _, candidate := range validPartyTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid party type %q", value)
}
