package regime

import (
	"strconv"

	"github.com/shopspring/decimal"

	"ledgerport/internal/commerce"
	"ledgerport/internal/ledger"
)

// FEC journal and chart constants.
const (
	fecJournalCode  = "VT"
	fecJournalLabel = "Ventes"
	fecSalesAccount = "707000"
	fecSalesLabel   = "Ventes de marchandises"
)

// franceMapper emits FEC-shaped ledger lines: a single entry per order whose
// amount is subtotal + tax against the fixed sales account, carrying the
// customer as auxiliary account. The lettering columns (EcritureLet, DateLet)
// stay empty: reconciliation happens downstream, never here.
type franceMapper struct{}

func (franceMapper) Code() string { return CodeFrance }

func (franceMapper) Map(rec commerce.Record, dataType commerce.DataType) ([]*ledger.Entry, error) {
	switch r := rec.(type) {
	case commerce.Order:
		total := r.SubtotalPrice.Add(r.TotalTax)
		return []*ledger.Entry{fecEntry(
			strconv.FormatInt(r.ID, 10), exportDate(r.CreatedAt), r.Name,
			"Vente "+r.Name, customerRef(r.Customer), customerName(r.Customer),
			decimal.Zero, total, total, r.Currency,
		)}, nil
	case commerce.Refund:
		return []*ledger.Entry{fecEntry(
			strconv.FormatInt(r.ID, 10), exportDate(r.CreatedAt), r.OrderName,
			"Avoir "+r.OrderName, customerRef(r.Customer), customerName(r.Customer),
			r.TotalRefunded, decimal.Zero, r.TotalRefunded.Neg(), r.Currency,
		)}, nil
	default:
		return nil, nil
	}
}

func fecEntry(num, date, pieceRef, label, auxNum, auxLib string, debit, credit, amount decimal.Decimal, currency string) *ledger.Entry {
	return ledger.New().
		Set("JournalCode", fecJournalCode).
		Set("JournalLib", fecJournalLabel).
		Set("EcritureNum", num).
		Set("EcritureDate", date).
		Set("CompteNum", fecSalesAccount).
		Set("CompteLib", fecSalesLabel).
		Set("CompAuxNum", auxNum).
		Set("CompAuxLib", auxLib).
		Set("PieceRef", pieceRef).
		Set("PieceDate", date).
		Set("EcritureLib", label).
		Set("Debit", debit).
		Set("Credit", credit).
		Set("EcritureLet", "").
		Set("DateLet", "").
		Set("ValidDate", date).
		Set("Montantdevise", amount).
		Set("Idevise", currency)
}
