package regime

import (
	"github.com/shopspring/decimal"

	"ledgerport/internal/commerce"
	"ledgerport/internal/ledger"
)

var gramsPerKilo = decimal.NewFromInt(1000)

// beluxMapper produces one row per order for Belgium/Luxembourg exports. The
// transaction type is asserted as B2C (no B2B detection), line-item weight is
// aggregated into the poids column in kilograms, and the intrastat code is
// left blank for manual completion downstream.
type beluxMapper struct{}

func (beluxMapper) Code() string { return CodeBelux }

func (beluxMapper) Map(rec commerce.Record, dataType commerce.DataType) ([]*ledger.Entry, error) {
	order, ok := rec.(commerce.Order)
	if !ok {
		return nil, nil
	}
	return []*ledger.Entry{ledger.New().
		Set("piece", order.Name).
		Set("date", exportDate(order.CreatedAt)).
		Set("client", customerName(order.Customer)).
		Set("type_transaction", "B2C").
		Set("montant_htva", order.SubtotalPrice).
		Set("tva", order.TotalTax).
		Set("total_tvac", order.TotalPrice).
		Set("poids", orderWeightKg(order.LineItems)).
		Set("code_intrastat", ""),
	}, nil
}

func orderWeightKg(lines []commerce.LineItem) decimal.Decimal {
	var grams int64
	for _, line := range lines {
		qty := int64(line.Quantity)
		if qty <= 0 {
			qty = 1
		}
		grams += line.Grams * qty
	}
	return decimal.NewFromInt(grams).Div(gramsPerKilo)
}
