// Package regime turns raw commerce records into ledger entries according to
// a fiscal regime. Each regime is one Mapper implementation registered under
// its code; adding a regime means adding an implementation, never growing a
// conditional. Mapping is pure: no I/O, no mutation of the input record.
package regime

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"ledgerport/internal/commerce"
	"ledgerport/internal/ledger"
)

// Regime codes with a dedicated mapper. Any other code maps through the
// standard fallback.
const (
	CodeOHADA    = "OHADA"
	CodeFrance   = "FR"
	CodeCanada   = "CA"
	CodeUSA      = "US"
	CodeBelux    = "BELUX"
	CodeGhana    = "GH"
	CodeStandard = "STANDARD"
)

// ErrUnknownRegime reports a regime code outside the known definitions. Only
// request validation raises it; the mapping path falls back to the standard
// mapper instead.
var ErrUnknownRegime = errors.New("unknown fiscal regime")

// Mapper converts one raw record into zero or more ledger entries. A
// (regime, dataType) combination the mapper does not cover yields an empty
// slice and a nil error: "no entries produced" is not a failure.
type Mapper interface {
	Code() string
	Map(rec commerce.Record, dataType commerce.DataType) ([]*ledger.Entry, error)
}

// Registry resolves a mapper by regime code, falling back to the standard
// regime-agnostic mapper for any code without a dedicated implementation.
type Registry struct {
	mappers  map[string]Mapper
	fallback Mapper
}

// NewRegistry builds a registry with every built-in regime registered.
func NewRegistry() *Registry {
	r := &Registry{
		mappers:  make(map[string]Mapper),
		fallback: standardMapper{},
	}
	for _, m := range []Mapper{
		ohadaMapper{},
		franceMapper{},
		canadaMapper{},
		usaMapper{},
		beluxMapper{},
		ghanaMapper{},
	} {
		r.Register(m)
	}
	return r
}

// Register adds or replaces the mapper for its code.
func (r *Registry) Register(m Mapper) {
	r.mappers[strings.ToUpper(m.Code())] = m
}

// Lookup returns the mapper for code, or the standard fallback.
func (r *Registry) Lookup(code string) Mapper {
	if m, ok := r.mappers[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return m
	}
	return r.fallback
}

// exportDate normalizes every date to YYYY-MM-DD regardless of regime.
func exportDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func customerName(c *commerce.Customer) string {
	if c == nil {
		return ""
	}
	return c.DisplayName()
}

func customerRef(c *commerce.Customer) string {
	if c == nil {
		return ""
	}
	return strconv.FormatInt(c.ID, 10)
}
