package parties

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/chainscore-io/chainscore-backend/pkg/errors"
)

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "amount is required")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount")
	}
	return amount, nil
}
