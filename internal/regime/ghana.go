package regime

import (
	"strconv"

	"github.com/shopspring/decimal"

	"ledgerport/internal/commerce"
	"ledgerport/internal/ledger"
)

// elevyRate is the Electronic Transfer Levy applied to order and refund
// totals.
var elevyRate = decimal.RequireFromString("0.015")

// ghanaMapper computes the E-Levy surcharge as 1.5% of an order's total (or
// of the total refunded). Customer exports produce a zero-amount placeholder
// row: existence-only, no monetary meaning.
type ghanaMapper struct{}

func (ghanaMapper) Code() string { return CodeGhana }

func (ghanaMapper) Map(rec commerce.Record, dataType commerce.DataType) ([]*ledger.Entry, error) {
	switch r := rec.(type) {
	case commerce.Order:
		return []*ledger.Entry{ghanaEntry(
			exportDate(r.CreatedAt), r.Name, customerName(r.Customer), r.TotalPrice,
		)}, nil
	case commerce.Refund:
		return []*ledger.Entry{ghanaEntry(
			exportDate(r.CreatedAt), r.OrderName, customerName(r.Customer), r.TotalRefunded,
		)}, nil
	case commerce.Customer:
		return []*ledger.Entry{ghanaEntry(
			exportDate(r.CreatedAt), strconv.FormatInt(r.ID, 10), r.DisplayName(), decimal.Zero,
		)}, nil
	default:
		return nil, nil
	}
}

func ghanaEntry(date, reference, customer string, amount decimal.Decimal) *ledger.Entry {
	levy := amount.Mul(elevyRate).Round(2)
	return ledger.New().
		Set("date", date).
		Set("reference", reference).
		Set("customer", customer).
		Set("amount", amount).
		Set("e_levy", levy).
		Set("total_with_levy", amount.Add(levy))
}
