package regime

import (
	"strconv"

	"github.com/shopspring/decimal"

	"ledgerport/internal/commerce"
	"ledgerport/internal/ledger"
)

// standardMapper is the regime-agnostic fallback. It covers every data type
// with a generic column set and serves any (regime, dataType) pair no
// dedicated mapper claims.
type standardMapper struct{}

func (standardMapper) Code() string { return CodeStandard }

func (standardMapper) Map(rec commerce.Record, dataType commerce.DataType) ([]*ledger.Entry, error) {
	switch r := rec.(type) {
	case commerce.Order:
		return []*ledger.Entry{standardEntry(
			"order", r.Name, exportDate(r.CreatedAt), customerName(r.Customer),
			r.SubtotalPrice, r.TotalTax, r.TotalPrice, r.Currency,
		)}, nil
	case commerce.Refund:
		net := r.TotalRefunded.Sub(r.TotalTax)
		return []*ledger.Entry{standardEntry(
			"refund", r.OrderName, exportDate(r.CreatedAt), customerName(r.Customer),
			net, r.TotalTax, r.TotalRefunded, r.Currency,
		)}, nil
	case commerce.Customer:
		return []*ledger.Entry{standardEntry(
			"customer", strconv.FormatInt(r.ID, 10), exportDate(r.CreatedAt), r.DisplayName(),
			decimal.Zero, decimal.Zero, r.TotalSpent, "",
		)}, nil
	case commerce.TaxLine:
		return []*ledger.Entry{standardEntry(
			"tax", r.OrderName, exportDate(r.CreatedAt), r.Title,
			decimal.Zero, r.Price, r.Price, "",
		)}, nil
	default:
		return nil, nil
	}
}

func standardEntry(kind, reference, date, customer string, subtotal, tax, total decimal.Decimal, currency string) *ledger.Entry {
	return ledger.New().
		Set("type", kind).
		Set("reference", reference).
		Set("date", date).
		Set("customer", customer).
		Set("subtotal", subtotal).
		Set("tax", tax).
		Set("total", total).
		Set("currency", currency)
}
