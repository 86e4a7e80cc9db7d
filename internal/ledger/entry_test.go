package ledger

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestEntryPreservesInsertionOrder(t *testing.T) {
	e := New().
		Set("zulu", "1").
		Set("alpha", "2").
		Set("mike", "3")
	cols := e.Columns()
	want := []string{"zulu", "alpha", "mike"}
	for i, col := range want {
		if cols[i] != col {
			t.Fatalf("columns = %v, want %v", cols, want)
		}
	}

	// Re-setting a column keeps its original position.
	e.Set("zulu", "9")
	if e.Columns()[0] != "zulu" {
		t.Fatalf("re-set moved the column: %v", e.Columns())
	}
	v, _ := e.Get("zulu")
	if v != "9" {
		t.Fatalf("zulu = %v", v)
	}
}

func TestEntryMarshalJSONKeepsOrder(t *testing.T) {
	e := New().
		Set("b", "1").
		Set("a", decimal.RequireFromString("2.5"))
	out, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(out)
	if s[:4] != `{"b"` {
		t.Fatalf("json does not start with first inserted key: %s", s)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"plain", "plain"},
		{decimal.RequireFromString("1000"), "1000.00"},
		{decimal.RequireFromString("3.005"), "3.01"},
		{true, "true"},
		{42, "42"},
		{int64(7), "7"},
		{1.5, "1.5"},
		{struct{}{}, ""},
	}
	for _, tc := range tests {
		if got := FormatValue(tc.in); got != tc.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
