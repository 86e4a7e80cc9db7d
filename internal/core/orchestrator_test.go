package core

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledgerport/internal/commerce"
	"ledgerport/internal/exporter"
	"ledgerport/internal/regime"
)

func testOrder() commerce.Order {
	return commerce.Order{
		ID:            1001,
		Name:          "#1001",
		CreatedAt:     time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Currency:      "XOF",
		SubtotalPrice: decimal.RequireFromString("1000"),
		TotalTax:      decimal.RequireFromString("180"),
		TotalPrice:    decimal.RequireFromString("1180"),
	}
}

func pendingReport(regimeCode string) *Report {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	return &Report{
		ID:        NewID(),
		DataType:  commerce.DataOrders,
		Regime:    regimeCode,
		Format:    exporter.FormatCSV,
		StartDate: &start,
		EndDate:   &end,
		Status:    ReportPending,
	}
}

func TestGenerateWritesPayloadAndCompletes(t *testing.T) {
	store := newFakeStore(t.TempDir())
	provider := &fakeProvider{records: map[commerce.DataType][]commerce.Record{
		commerce.DataOrders: {testOrder()},
	}}
	orch := NewOrchestrator(store, provider, regime.NewRegistry(), testLogger())

	rep := pendingReport("OHADA")
	if err := store.InsertReport(context.Background(), rep); err != nil {
		t.Fatal(err)
	}
	payload := orch.Generate(context.Background(), rep)

	if rep.Status != ReportCompleted {
		t.Fatalf("status = %s, want completed (err=%v)", rep.Status, rep.ErrorMessage)
	}
	if rep.FilePath == nil {
		t.Fatal("file path not set")
	}
	onDisk, err := os.ReadFile(*rep.FilePath)
	if err != nil {
		t.Fatalf("read payload file: %v", err)
	}
	if string(onDisk) != string(payload) {
		t.Fatal("returned payload differs from the file on disk")
	}
	s := string(payload)
	if !strings.Contains(s, "numero_piece") || !strings.Contains(s, "1001-001") {
		t.Errorf("payload missing OHADA columns:\n%s", s)
	}
	// OHADA exports use a semicolon separator.
	if !strings.Contains(s, ";") {
		t.Errorf("payload not semicolon separated:\n%s", s)
	}
}

func TestGenerateEmptyPeriod(t *testing.T) {
	store := newFakeStore(t.TempDir())
	provider := &fakeProvider{}
	orch := NewOrchestrator(store, provider, regime.NewRegistry(), testLogger())

	rep := pendingReport("OHADA")
	payload := orch.Generate(context.Background(), rep)

	if rep.Status != ReportCompletedEmpty {
		t.Fatalf("status = %s, want completed_with_empty_data", rep.Status)
	}
	if payload != nil {
		t.Fatal("expected no payload for an empty period")
	}
	if rep.FilePath != nil {
		t.Fatal("expected no file for an empty period")
	}
}

func TestGenerateProviderFailure(t *testing.T) {
	store := newFakeStore(t.TempDir())
	provider := &fakeProvider{errs: map[commerce.DataType]error{
		commerce.DataOrders: errors.New("api returned status 503"),
	}}
	orch := NewOrchestrator(store, provider, regime.NewRegistry(), testLogger())

	rep := pendingReport("OHADA")
	payload := orch.Generate(context.Background(), rep)

	if rep.Status != ReportError {
		t.Fatalf("status = %s, want error", rep.Status)
	}
	if payload != nil {
		t.Fatal("expected no payload on failure")
	}
	if rep.ErrorMessage == nil || !strings.Contains(*rep.ErrorMessage, "503") {
		t.Fatalf("error message = %v", rep.ErrorMessage)
	}
}

func TestGenerateUnknownRegimeFallsBackToStandard(t *testing.T) {
	store := newFakeStore(t.TempDir())
	provider := &fakeProvider{records: map[commerce.DataType][]commerce.Record{
		commerce.DataOrders: {testOrder()},
	}}
	orch := NewOrchestrator(store, provider, regime.NewRegistry(), testLogger())

	rep := pendingReport("NO-SUCH-REGIME")
	payload := orch.Generate(context.Background(), rep)

	if rep.Status != ReportCompleted {
		t.Fatalf("status = %s, want completed", rep.Status)
	}
	if !strings.Contains(string(payload), "reference") {
		t.Errorf("payload missing standard columns:\n%s", payload)
	}
}

func TestGenerateMissingDateRange(t *testing.T) {
	store := newFakeStore(t.TempDir())
	orch := NewOrchestrator(store, &fakeProvider{}, regime.NewRegistry(), testLogger())

	rep := pendingReport("OHADA")
	rep.StartDate = nil
	orch.Generate(context.Background(), rep)

	if rep.Status != ReportError {
		t.Fatalf("status = %s, want error", rep.Status)
	}
}

func TestFileName(t *testing.T) {
	rep := pendingReport("OHADA")
	got := FileName(rep)
	if got != "OHADA_orders_2024-04-01.csv" {
		t.Fatalf("FileName = %q", got)
	}
}
