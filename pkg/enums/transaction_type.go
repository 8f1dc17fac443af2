package enums

import "fmt"

// TransactionType labels a financial event between two parties.
type TransactionType string

const (
	TransactionTypeInvoice    TransactionType = "invoice"
	TransactionTypePayment    TransactionType = "payment"
	TransactionTypeCreditNote TransactionType = "credit_note"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeInvoice,
	TransactionTypePayment,
	TransactionTypeCreditNote,
}

// String implements fmt.Stringer.
func (tt TransactionType) String() string {
	return string(tt)
}

// IsValid reports whether the value is known.
func (tt TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == tt {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into a TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
