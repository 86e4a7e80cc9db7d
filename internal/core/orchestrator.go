package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ledgerport/internal/commerce"
	"ledgerport/internal/exporter"
	"ledgerport/internal/ledger"
	"ledgerport/internal/regime"
	"ledgerport/internal/telemetry"
)

// Orchestrator runs the report pipeline: fetch raw records, map them through
// the regime engine, serialize, persist the payload and the outcome. It never
// lets an error escape: callers always get back a report in a terminal state.
type Orchestrator struct {
	store    Store
	provider commerce.Provider
	registry *regime.Registry
	logger   *slog.Logger
}

// NewOrchestrator wires the pipeline dependencies.
func NewOrchestrator(store Store, provider commerce.Provider, registry *regime.Registry, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		provider: provider,
		registry: registry,
		logger:   logger,
	}
}

// Generate executes the pipeline for rep, which must already be persisted
// with a resolved date range. On return rep carries a terminal status; the
// serialized payload is returned when one was produced so the caller can
// hand it to a delivery channel without re-reading the file.
func (o *Orchestrator) Generate(ctx context.Context, rep *Report) []byte {
	rep.Status = ReportProcessing
	if err := o.store.UpdateReport(ctx, rep); err != nil {
		o.logger.Error("mark report processing", "report_id", rep.ID, "err", err)
	}

	if rep.StartDate == nil || rep.EndDate == nil {
		o.fail(ctx, rep, fmt.Errorf("report %s has no resolved date range", rep.ID))
		return nil
	}

	records, err := o.provider.Fetch(ctx, rep.DataType, *rep.StartDate, *rep.EndDate)
	if err != nil {
		o.fail(ctx, rep, fmt.Errorf("fetch %s records: %w", rep.DataType, err))
		return nil
	}
	if len(records) == 0 {
		// A valid business outcome (no sales that period), not a failure.
		rep.Status = ReportCompletedEmpty
		o.finish(ctx, rep)
		return nil
	}

	mapper := o.registry.Lookup(rep.Regime)
	var entries []*ledger.Entry
	for _, rec := range records {
		mapped, err := mapper.Map(rec, rep.DataType)
		if err != nil {
			o.fail(ctx, rep, fmt.Errorf("map %s record for regime %s: %w", rep.DataType, rep.Regime, err))
			return nil
		}
		entries = append(entries, mapped...)
	}

	payload, err := exporter.Serialize(entries, rep.Format, regime.DefinitionFor(rep.Regime).Separator)
	if err != nil {
		o.fail(ctx, rep, fmt.Errorf("serialize report: %w", err))
		return nil
	}

	if err := o.store.EnsureFilesDir(); err != nil {
		o.fail(ctx, rep, fmt.Errorf("ensure files dir: %w", err))
		return nil
	}
	path := o.store.ReportFilePath(rep.ID, rep.Format)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		o.fail(ctx, rep, fmt.Errorf("write report file: %w", err))
		return nil
	}

	rep.FilePath = &path
	rep.Status = ReportCompleted
	o.finish(ctx, rep)
	return payload
}

func (o *Orchestrator) finish(ctx context.Context, rep *Report) {
	telemetry.ReportsGenerated.WithLabelValues(string(rep.Status)).Inc()
	if err := o.store.UpdateReport(ctx, rep); err != nil {
		o.logger.Error("persist report outcome", "report_id", rep.ID, "status", rep.Status, "err", err)
	}
}

func (o *Orchestrator) fail(ctx context.Context, rep *Report, cause error) {
	msg := cause.Error()
	rep.Status = ReportError
	rep.ErrorMessage = &msg
	o.logger.Error("report generation failed", "report_id", rep.ID, "err", cause)
	o.finish(ctx, rep)
}

// FileName returns the delivery/download file name for a report.
func FileName(rep *Report) string {
	date := time.Now().UTC().Format("2006-01-02")
	if rep.EndDate != nil {
		date = rep.EndDate.Format("2006-01-02")
	}
	return fmt.Sprintf("%s_%s_%s.%s", rep.Regime, rep.DataType, date, rep.Format.Extension())
}
