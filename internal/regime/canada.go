package regime

import (
	"strings"

	"github.com/shopspring/decimal"

	"ledgerport/internal/commerce"
	"ledgerport/internal/ledger"
)

// canadaMapper produces one summary row per order, splitting collected tax
// into GST and PST/QST buckets by inspecting tax-line titles. A tax line
// whose title matches neither family contributes to neither bucket; the
// total_tax column still reflects it.
type canadaMapper struct{}

func (canadaMapper) Code() string { return CodeCanada }

func (canadaMapper) Map(rec commerce.Record, dataType commerce.DataType) ([]*ledger.Entry, error) {
	order, ok := rec.(commerce.Order)
	if !ok {
		return nil, nil
	}
	gst, pst := splitCanadianTax(order.TaxLines)
	return []*ledger.Entry{ledger.New().
		Set("order", order.Name).
		Set("date", exportDate(order.CreatedAt)).
		Set("customer", customerName(order.Customer)).
		Set("subtotal", order.SubtotalPrice).
		Set("gst", gst).
		Set("pst_qst", pst).
		Set("total_tax", order.TotalTax).
		Set("total", order.TotalPrice),
	}, nil
}

func splitCanadianTax(lines []commerce.TaxLine) (gst, pst decimal.Decimal) {
	for _, line := range lines {
		title := strings.ToLower(line.Title)
		switch {
		case strings.Contains(title, "gst"):
			gst = gst.Add(line.Price)
		case strings.Contains(title, "pst"), strings.Contains(title, "qst"):
			pst = pst.Add(line.Price)
		}
	}
	return gst, pst
}
