package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ledgerport/internal/telemetry"
)

// Worker polls the store for due scheduled tasks and runs them. Single
// polling loop, fixed wall-clock interval; within one cycle due tasks run on
// a bounded pool, each one touching only its own records. A task whose
// previous execution is still processing is skipped, never run concurrently
// with itself.
type Worker struct {
	store       Store
	orch        *Orchestrator
	channels    ChannelFactory
	logger      *slog.Logger
	location    *time.Location
	interval    time.Duration
	concurrency int

	running sync.Map // taskID -> struct{}{}
}

// NewWorker constructs a worker. interval defaults to a minute, concurrency
// to 4. location controls the clock schedules are evaluated against.
func NewWorker(store Store, orch *Orchestrator, channels ChannelFactory, logger *slog.Logger, location *time.Location, interval time.Duration, concurrency int) *Worker {
	if interval <= 0 {
		interval = time.Minute
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	if location == nil {
		location = time.UTC
	}
	return &Worker{
		store:       store,
		orch:        orch,
		channels:    channels,
		logger:      logger,
		location:    location,
		interval:    interval,
		concurrency: concurrency,
	}
}

// Run drives the polling loop until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.logger.Info("worker started", "interval", w.interval, "concurrency", w.concurrency)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped")
			return
		case <-ticker.C:
			w.PollOnce(ctx)
		}
	}
}

// PollOnce runs one poll cycle and returns the number of tasks dispatched.
// It also backs the external "run due tasks now" trigger endpoint. A failure
// in one task never aborts the cycle for the others.
func (w *Worker) PollOnce(ctx context.Context) int {
	now := time.Now().In(w.location)
	tasks, err := w.store.DueTasks(ctx, now)
	if err != nil {
		w.logger.Error("query due tasks", "err", err)
		return 0
	}
	telemetry.DueTasks.Set(float64(len(tasks)))
	if len(tasks) == 0 {
		return 0
	}

	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup
	dispatched := 0
	for _, task := range tasks {
		if _, busy := w.running.LoadOrStore(task.ID, struct{}{}); busy {
			w.logger.Info("task still running, skipping", "task_id", task.ID)
			continue
		}
		dispatched++
		wg.Add(1)
		sem <- struct{}{}
		go func(task *ScheduledTask) {
			defer wg.Done()
			defer func() { <-sem }()
			defer w.running.Delete(task.ID)
			w.runTask(ctx, task, now)
		}(task)
	}
	wg.Wait()
	return dispatched
}

// runTask executes one due task end to end: execution record, fresh period,
// report generation, delivery, schedule advance. Every failure lands in the
// execution record; the schedule is advanced regardless so a persistently
// broken task cannot spin the polling loop hot.
func (w *Worker) runTask(ctx context.Context, task *ScheduledTask, now time.Time) {
	if busy, err := w.store.HasProcessingExecution(ctx, task.ID); err != nil {
		w.logger.Error("check processing execution", "task_id", task.ID, "err", err)
		return
	} else if busy {
		w.logger.Info("previous execution still processing, skipping", "task_id", task.ID)
		return
	}

	scheduledFor := now
	if task.NextRunAt != nil {
		scheduledFor = *task.NextRunAt
	}

	// Advance the schedule up front; a failed run is reconsidered on the
	// next scheduling decision, not retried within this cycle.
	next, nextErr := NextRun(task.Frequency, task.ExecutionDay, task.ExecutionTime, derefString(task.CronExpr), now)
	if nextErr == nil {
		if err := w.store.UpdateTaskSchedule(ctx, task.ID, now, next); err != nil {
			w.logger.Error("advance task schedule", "task_id", task.ID, "err", err)
		}
	}

	start, end := PeriodFor(task.Frequency, now)
	rep := &Report{
		ID:        NewID(),
		DataType:  task.DataType,
		Regime:    task.Regime,
		Format:    task.Format,
		StartDate: &start,
		EndDate:   &end,
		Status:    ReportPending,
	}
	exec := &TaskExecution{
		ID:           NewID(),
		TaskID:       task.ID,
		ReportID:     &rep.ID,
		Status:       ExecutionProcessing,
		ScheduledFor: scheduledFor,
		StartedAt:    &now,
	}

	if err := w.store.InsertReport(ctx, rep); err != nil {
		w.logger.Error("insert scheduled report", "task_id", task.ID, "err", err)
		return
	}
	if err := w.store.InsertExecution(ctx, exec); err != nil {
		w.logger.Error("insert execution", "task_id", task.ID, "err", err)
		return
	}
	if nextErr != nil {
		w.finishExecution(ctx, exec, ExecutionFailed, fmt.Errorf("compute next run: %w", nextErr))
		return
	}

	payload := w.orch.Generate(ctx, rep)
	switch rep.Status {
	case ReportError:
		w.finishExecution(ctx, exec, ExecutionFailed, fmt.Errorf("%s", derefString(rep.ErrorMessage)))
	case ReportCompletedEmpty:
		// Nothing to deliver; an empty period is a successful run.
		w.finishExecution(ctx, exec, ExecutionCompleted, nil)
	case ReportCompleted:
		if err := w.deliver(ctx, task, rep, payload); err != nil {
			// Generation succeeded, delivery did not: the report stays
			// completed, only the execution fails.
			telemetry.Deliveries.WithLabelValues(string(task.Delivery.Method), "error").Inc()
			w.finishExecution(ctx, exec, ExecutionFailed, fmt.Errorf("deliver report: %w", err))
			return
		}
		telemetry.Deliveries.WithLabelValues(string(task.Delivery.Method), "ok").Inc()
		w.finishExecution(ctx, exec, ExecutionCompleted, nil)
	default:
		w.finishExecution(ctx, exec, ExecutionFailed, fmt.Errorf("report ended in unexpected status %q", rep.Status))
	}
}

func (w *Worker) deliver(ctx context.Context, task *ScheduledTask, rep *Report, payload []byte) error {
	channel, err := w.channels.Channel(task.Delivery)
	if err != nil {
		return err
	}
	return channel.Deliver(ctx, FileName(rep), payload)
}

func (w *Worker) finishExecution(ctx context.Context, exec *TaskExecution, status ExecutionStatus, cause error) {
	var msg *string
	if cause != nil {
		s := cause.Error()
		msg = &s
		w.logger.Error("execution failed", "task_id", exec.TaskID, "execution_id", exec.ID, "err", cause)
	}
	telemetry.Executions.WithLabelValues(string(status)).Inc()
	if err := w.store.FinishExecution(ctx, exec.ID, status, time.Now().UTC(), msg); err != nil {
		w.logger.Error("persist execution outcome", "execution_id", exec.ID, "err", err)
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
