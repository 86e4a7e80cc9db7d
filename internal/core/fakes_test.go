package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ledgerport/internal/commerce"
	"ledgerport/internal/exporter"
)

type fakeStore struct {
	mu         sync.Mutex
	dir        string
	due        []*ScheduledTask
	reports    map[string]*Report
	execs      map[string]*TaskExecution
	processing map[string]bool

	scheduleLast map[string]time.Time
	scheduleNext map[string]time.Time
}

func newFakeStore(dir string) *fakeStore {
	return &fakeStore{
		dir:          dir,
		reports:      make(map[string]*Report),
		execs:        make(map[string]*TaskExecution),
		processing:   make(map[string]bool),
		scheduleLast: make(map[string]time.Time),
		scheduleNext: make(map[string]time.Time),
	}
}

func (s *fakeStore) InsertReport(_ context.Context, rep *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[rep.ID] = rep
	return nil
}

func (s *fakeStore) UpdateReport(_ context.Context, rep *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[rep.ID] = rep
	return nil
}

func (s *fakeStore) DueTasks(context.Context, time.Time) ([]*ScheduledTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.due, nil
}

func (s *fakeStore) UpdateTaskSchedule(_ context.Context, id string, lastRun, nextRun time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleLast[id] = lastRun
	s.scheduleNext[id] = nextRun
	return nil
}

func (s *fakeStore) InsertExecution(_ context.Context, exec *TaskExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.execs[exec.ID] = exec
	return nil
}

func (s *fakeStore) FinishExecution(_ context.Context, id string, status ExecutionStatus, completedAt time.Time, errMsg *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exec, ok := s.execs[id]
	if !ok {
		return fmt.Errorf("execution %s not found", id)
	}
	exec.Status = status
	exec.CompletedAt = &completedAt
	exec.Error = errMsg
	return nil
}

func (s *fakeStore) HasProcessingExecution(_ context.Context, taskID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing[taskID], nil
}

func (s *fakeStore) ReportFilePath(reportID string, format exporter.Format) string {
	return filepath.Join(s.dir, reportID+"."+format.Extension())
}

func (s *fakeStore) EnsureFilesDir() error {
	return os.MkdirAll(s.dir, 0o755)
}

func (s *fakeStore) executions() []*TaskExecution {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*TaskExecution, 0, len(s.execs))
	for _, exec := range s.execs {
		out = append(out, exec)
	}
	return out
}

type fakeProvider struct {
	records map[commerce.DataType][]commerce.Record
	errs    map[commerce.DataType]error
}

func (p *fakeProvider) Fetch(_ context.Context, dataType commerce.DataType, _, _ time.Time) ([]commerce.Record, error) {
	if err := p.errs[dataType]; err != nil {
		return nil, err
	}
	return p.records[dataType], nil
}

type fakeChannel struct {
	mu         sync.Mutex
	deliverErr error
	filenames  []string
	payloads   [][]byte
}

func (c *fakeChannel) Deliver(_ context.Context, filename string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deliverErr != nil {
		return c.deliverErr
	}
	c.filenames = append(c.filenames, filename)
	c.payloads = append(c.payloads, payload)
	return nil
}

type fakeFactory struct {
	channel *fakeChannel
	err     error
}

func (f *fakeFactory) Channel(DeliveryConfig) (Channel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.channel, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
