// Package commerce defines the raw records fetched from the commerce
// platform and the provider used to fetch them. The record set is a closed
// union: Order, Customer, Refund and TaxLine are the only shapes a mapper
// will ever see, and each carries the typed fields mapping needs.
package commerce

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DataType selects which kind of record a report covers.
type DataType string

const (
	DataOrders    DataType = "orders"
	DataCustomers DataType = "customers"
	DataRefunds   DataType = "refunds"
	DataTaxes     DataType = "taxes"
)

// ParseDataType validates a request-supplied data type.
func ParseDataType(s string) (DataType, error) {
	switch dt := DataType(strings.ToLower(strings.TrimSpace(s))); dt {
	case DataOrders, DataCustomers, DataRefunds, DataTaxes:
		return dt, nil
	default:
		return "", fmt.Errorf("unknown data type %q", s)
	}
}

// Record is the closed union over commerce record shapes. Mappers dispatch on
// the concrete type; the kind method keeps the union sealed to this package.
type Record interface {
	Kind() DataType
}

func (Order) Kind() DataType    { return DataOrders }
func (Customer) Kind() DataType { return DataCustomers }
func (Refund) Kind() DataType   { return DataRefunds }
func (TaxLine) Kind() DataType  { return DataTaxes }

// Order is one commerce order with its lines, taxes and parties.
type Order struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	CreatedAt       time.Time       `json:"created_at"`
	Currency        string          `json:"currency"`
	SubtotalPrice   decimal.Decimal `json:"subtotal_price"`
	TotalTax        decimal.Decimal `json:"total_tax"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	FinancialStatus string          `json:"financial_status"`
	Gateway         string          `json:"gateway"`
	Customer        *Customer       `json:"customer,omitempty"`
	LineItems       []LineItem      `json:"line_items,omitempty"`
	TaxLines        []TaxLine       `json:"tax_lines,omitempty"`
	BillingAddress  *Address        `json:"billing_address,omitempty"`
	ShippingAddress *Address        `json:"shipping_address,omitempty"`
}

// LineItem is one sellable line on an order.
type LineItem struct {
	Title    string          `json:"title"`
	SKU      string          `json:"sku"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Grams    int64           `json:"grams"`
}

// Customer identifies the buying party.
type Customer struct {
	ID             int64           `json:"id"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Email          string          `json:"email"`
	TaxExempt      bool            `json:"tax_exempt"`
	OrdersCount    int             `json:"orders_count"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	CreatedAt      time.Time       `json:"created_at"`
	DefaultAddress *Address        `json:"default_address,omitempty"`
}

// DisplayName returns "First Last", falling back to the email address.
func (c Customer) DisplayName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return c.Email
	}
	return name
}

// Refund is a full or partial reimbursement of an order.
type Refund struct {
	ID            int64           `json:"id"`
	OrderID       int64           `json:"order_id"`
	OrderName     string          `json:"order_name"`
	CreatedAt     time.Time       `json:"created_at"`
	Currency      string          `json:"currency"`
	Note          string          `json:"note"`
	TotalRefunded decimal.Decimal `json:"total_refunded"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	Gateway       string          `json:"gateway"`
	Customer      *Customer       `json:"customer,omitempty"`
	TaxLines      []TaxLine       `json:"tax_lines,omitempty"`
}

// TaxLine is one applied tax. Embedded in orders and refunds, and also
// fetched standalone for tax reports, in which case the order fields are set.
type TaxLine struct {
	Title     string          `json:"title"`
	Rate      decimal.Decimal `json:"rate"`
	Price     decimal.Decimal `json:"price"`
	OrderID   int64           `json:"order_id,omitempty"`
	OrderName string          `json:"order_name,omitempty"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
}

// Address is a postal address attached to an order or customer.
type Address struct {
	Address1     string `json:"address1"`
	City         string `json:"city"`
	Province     string `json:"province"`
	ProvinceCode string `json:"province_code"`
	Zip          string `json:"zip"`
	Country      string `json:"country"`
	CountryCode  string `json:"country_code"`
}
