// Package ledger defines the row model shared by the regime mappers and the
// format serializers. An Entry is one line of an accounting export, keyed by
// regime-specific column names. Column insertion order is significant and is
// preserved through every output format.
package ledger

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Entry is a single accounting line: an ordered mapping from column name to a
// scalar value (string, integer, boolean or decimal amount).
type Entry struct {
	cols *orderedmap.OrderedMap[string, any]
}

// New returns an empty entry.
func New() *Entry {
	return &Entry{cols: orderedmap.New[string, any]()}
}

// Set adds or replaces a column value. First insertion fixes the column's
// position. Returns the entry for chaining.
func (e *Entry) Set(column string, value any) *Entry {
	e.cols.Set(column, value)
	return e
}

// Get returns the raw value for a column.
func (e *Entry) Get(column string) (any, bool) {
	return e.cols.Get(column)
}

// Columns returns the column names in insertion order.
func (e *Entry) Columns() []string {
	out := make([]string, 0, e.cols.Len())
	for pair := e.cols.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Len returns the number of columns.
func (e *Entry) Len() int {
	return e.cols.Len()
}

// MarshalJSON renders the entry as a JSON object with keys in insertion order.
func (e *Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.cols)
}

// FormatValue renders a column value as the string used by the textual
// formats. Monetary decimals always carry two fraction digits so output is
// stable regardless of how the amount was computed. Absent values render as
// the empty string.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case decimal.Decimal:
		return t.StringFixed(2)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
