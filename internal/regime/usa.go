package regime

import (
	"ledgerport/internal/commerce"
	"ledgerport/internal/ledger"
)

// usaMapper produces one summary row per order. The state_county column takes
// the billing address province, falling back to the city when the province is
// absent; the tax_exempt flag is copied from the customer record.
type usaMapper struct{}

func (usaMapper) Code() string { return CodeUSA }

func (usaMapper) Map(rec commerce.Record, dataType commerce.DataType) ([]*ledger.Entry, error) {
	order, ok := rec.(commerce.Order)
	if !ok {
		return nil, nil
	}
	exempt := false
	if order.Customer != nil {
		exempt = order.Customer.TaxExempt
	}
	return []*ledger.Entry{ledger.New().
		Set("order", order.Name).
		Set("date", exportDate(order.CreatedAt)).
		Set("customer", customerName(order.Customer)).
		Set("state_county", stateCounty(order.BillingAddress)).
		Set("subtotal", order.SubtotalPrice).
		Set("tax", order.TotalTax).
		Set("total", order.TotalPrice).
		Set("tax_exempt", exempt),
	}, nil
}

func stateCounty(addr *commerce.Address) string {
	if addr == nil {
		return ""
	}
	if addr.Province != "" {
		return addr.Province
	}
	return addr.City
}
