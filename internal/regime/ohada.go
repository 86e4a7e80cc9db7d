package regime

import (
	"fmt"

	"ledgerport/internal/commerce"
	"ledgerport/internal/ledger"
)

// SYSCOHADA chart accounts used by the export.
const (
	ohadaJournal      = "VT"
	ohadaSalesAccount = "701100"
	ohadaVATAccount   = "443100"
)

// ohadaMapper produces double-entry style lines for the OHADA zone: one entry
// crediting sales with the order subtotal and, when tax was collected, a
// second entry crediting the VAT account. Refunds mirror the same split on
// the debit side. Entry numbers follow {id}-{sequence:03d}.
type ohadaMapper struct{}

func (ohadaMapper) Code() string { return CodeOHADA }

func (ohadaMapper) Map(rec commerce.Record, dataType commerce.DataType) ([]*ledger.Entry, error) {
	switch r := rec.(type) {
	case commerce.Order:
		date := exportDate(r.CreatedAt)
		entries := []*ledger.Entry{
			ohadaEntry(fmt.Sprintf("%d-%03d", r.ID, 1), date, ohadaSalesAccount,
				"Vente "+r.Name, "", ledger.FormatValue(r.SubtotalPrice)),
		}
		if r.TotalTax.IsPositive() {
			entries = append(entries,
				ohadaEntry(fmt.Sprintf("%d-%03d", r.ID, 2), date, ohadaVATAccount,
					"TVA "+r.Name, "", ledger.FormatValue(r.TotalTax)))
		}
		return entries, nil
	case commerce.Refund:
		date := exportDate(r.CreatedAt)
		net := r.TotalRefunded.Sub(r.TotalTax)
		entries := []*ledger.Entry{
			ohadaEntry(fmt.Sprintf("%d-%03d", r.ID, 1), date, ohadaSalesAccount,
				"Avoir "+r.OrderName, ledger.FormatValue(net), ""),
		}
		if r.TotalTax.IsPositive() {
			entries = append(entries,
				ohadaEntry(fmt.Sprintf("%d-%03d", r.ID, 2), date, ohadaVATAccount,
					"TVA avoir "+r.OrderName, ledger.FormatValue(r.TotalTax), ""))
		}
		return entries, nil
	default:
		return nil, nil
	}
}

func ohadaEntry(number, date, account, label, debit, credit string) *ledger.Entry {
	return ledger.New().
		Set("numero_piece", number).
		Set("date", date).
		Set("journal", ohadaJournal).
		Set("compte", account).
		Set("libelle", label).
		Set("debit", debit).
		Set("credit", credit)
}
