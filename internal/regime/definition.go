package regime

import (
	"strings"

	"github.com/shopspring/decimal"

	"ledgerport/internal/exporter"
)

// Definition is the static configuration of one fiscal regime: the columns a
// compliant order export must carry, the applicable tax-rate table, the
// preferred file format and separator, and the downstream accounting software
// known to accept the output. Loaded once, read-only at runtime.
type Definition struct {
	Code            string
	Label           string
	RequiredColumns []string
	TaxRates        map[string]decimal.Decimal
	DefaultFormat   exporter.Format
	Software        []string
	Separator       rune
	Encoding        string
}

var definitions = []Definition{
	{
		Code:  CodeOHADA,
		Label: "OHADA (SYSCOHADA)",
		RequiredColumns: []string{
			"numero_piece", "date", "journal", "compte", "libelle", "debit", "credit",
		},
		TaxRates:      rates("tva", "0.18"),
		DefaultFormat: exporter.FormatCSV,
		Software:      []string{"Sage Saari", "Perfecto"},
		Separator:     ';',
		Encoding:      "UTF-8",
	},
	{
		Code:  CodeFrance,
		Label: "France (FEC)",
		RequiredColumns: []string{
			"JournalCode", "JournalLib", "EcritureNum", "EcritureDate",
			"CompteNum", "CompteLib", "CompAuxNum", "CompAuxLib",
			"PieceRef", "PieceDate", "EcritureLib", "Debit", "Credit",
			"EcritureLet", "DateLet", "ValidDate", "Montantdevise", "Idevise",
		},
		TaxRates:      rates("normal", "0.20", "reduit", "0.055"),
		DefaultFormat: exporter.FormatTXT,
		Software:      []string{"Sage", "Cegid", "EBP"},
		Separator:     '\t',
		Encoding:      "UTF-8",
	},
	{
		Code:  CodeCanada,
		Label: "Canada (GST/PST)",
		RequiredColumns: []string{
			"order", "date", "customer", "subtotal", "gst", "pst_qst", "total_tax", "total",
		},
		TaxRates:      rates("gst", "0.05", "qst", "0.09975"),
		DefaultFormat: exporter.FormatCSV,
		Software:      []string{"QuickBooks", "Sage 50"},
		Separator:     ',',
		Encoding:      "UTF-8",
	},
	{
		Code:  CodeUSA,
		Label: "United States (sales tax)",
		RequiredColumns: []string{
			"order", "date", "customer", "state_county", "subtotal", "tax", "total", "tax_exempt",
		},
		TaxRates:      map[string]decimal.Decimal{},
		DefaultFormat: exporter.FormatCSV,
		Software:      []string{"QuickBooks"},
		Separator:     ',',
		Encoding:      "UTF-8",
	},
	{
		Code:  CodeBelux,
		Label: "Belgium / Luxembourg",
		RequiredColumns: []string{
			"piece", "date", "client", "type_transaction", "montant_htva",
			"tva", "total_tvac", "poids", "code_intrastat",
		},
		TaxRates:      rates("standard", "0.21"),
		DefaultFormat: exporter.FormatCSV,
		Software:      []string{"WinBooks", "BOB 50"},
		Separator:     ';',
		Encoding:      "UTF-8",
	},
	{
		Code:  CodeGhana,
		Label: "Ghana (E-Levy)",
		RequiredColumns: []string{
			"date", "reference", "customer", "amount", "e_levy", "total_with_levy",
		},
		TaxRates:      rates("vat", "0.15", "e_levy", "0.015"),
		DefaultFormat: exporter.FormatCSV,
		Software:      []string{"Tally"},
		Separator:     ',',
		Encoding:      "UTF-8",
	},
	{
		Code:  CodeStandard,
		Label: "Standard",
		RequiredColumns: []string{
			"type", "reference", "date", "customer", "subtotal", "tax", "total", "currency",
		},
		TaxRates:      map[string]decimal.Decimal{},
		DefaultFormat: exporter.FormatCSV,
		Software:      []string{},
		Separator:     ',',
		Encoding:      "UTF-8",
	},
}

// Definitions returns all regime definitions.
func Definitions() []Definition {
	return definitions
}

// DefinitionFor returns the definition for code. Unknown codes resolve to the
// standard definition, mirroring the mapper fallback.
func DefinitionFor(code string) Definition {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, d := range definitions {
		if d.Code == code {
			return d
		}
	}
	for _, d := range definitions {
		if d.Code == CodeStandard {
			return d
		}
	}
	return Definition{}
}

// Known reports whether code has a definition of its own.
func Known(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, d := range definitions {
		if d.Code == code {
			return true
		}
	}
	return false
}

func rates(pairs ...string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out[pairs[i]] = decimal.RequireFromString(pairs[i+1])
	}
	return out
}
