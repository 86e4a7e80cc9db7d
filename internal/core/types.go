package core

import (
	"context"
	"time"

	"ledgerport/internal/commerce"
	"ledgerport/internal/exporter"
)

// ReportStatus describes the lifecycle state of one report generation.
// Within one run the status is monotonic: PENDING → PROCESSING → terminal.
type ReportStatus string

const (
	ReportPending        ReportStatus = "pending"
	ReportProcessing     ReportStatus = "processing"
	ReportCompleted      ReportStatus = "completed"
	ReportCompletedEmpty ReportStatus = "completed_with_empty_data"
	ReportError          ReportStatus = "error"
)

// TaskStatus describes whether a scheduled task is eligible for polling.
type TaskStatus string

const (
	TaskActive TaskStatus = "active"
	TaskPaused TaskStatus = "paused"
)

// ExecutionStatus describes the state of one scheduled run attempt.
type ExecutionStatus string

const (
	ExecutionPending    ExecutionStatus = "pending"
	ExecutionProcessing ExecutionStatus = "processing"
	ExecutionCompleted  ExecutionStatus = "completed"
	ExecutionFailed     ExecutionStatus = "failed"
)

// Frequency is a recurrence rule for scheduled tasks. Custom holds a 5-field
// cron expression for schedules the fixed frequencies cannot express.
type Frequency string

const (
	FrequencyHourly  Frequency = "hourly"
	FrequencyDaily   Frequency = "daily"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
	FrequencyCustom  Frequency = "custom"
)

// DeliveryMethod selects how a scheduled task's output leaves the system.
type DeliveryMethod string

const (
	DeliverEmail DeliveryMethod = "email"
	DeliverFTP   DeliveryMethod = "ftp"
)

// EmailDelivery configures an email delivery channel for one task.
type EmailDelivery struct {
	To      []string `json:"to"`
	Cc      []string `json:"cc,omitempty"`
	Bcc     []string `json:"bcc,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject,omitempty"`
	Body    string   `json:"body,omitempty"`
}

// FTPDelivery configures an FTP, FTPS or SFTP upload for one task.
type FTPDelivery struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	Protocol       string `json:"protocol"` // ftp, ftps or sftp
	Username       string `json:"username"`
	Password       string `json:"password"`
	Directory      string `json:"directory,omitempty"`
	PassiveMode    bool   `json:"passive_mode"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// DeliveryConfig is the persisted delivery configuration of a task. Exactly
// one of Email or FTP is set, matching Method.
type DeliveryConfig struct {
	Method DeliveryMethod `json:"method"`
	Email  *EmailDelivery `json:"email,omitempty"`
	FTP    *FTPDelivery   `json:"ftp,omitempty"`
}

// Report is one export: requested parameters, outcome and payload reference.
// Manual reports carry an explicit date range; scheduled runs derive a fresh
// one each time, so the stored range reflects what was actually covered.
type Report struct {
	ID           string
	DataType     commerce.DataType
	Regime       string
	Format       exporter.Format
	StartDate    *time.Time
	EndDate      *time.Time
	Status       ReportStatus
	FilePath     *string
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ScheduledTask regenerates and delivers a report on a recurrence rule.
type ScheduledTask struct {
	ID            string
	Name          *string
	DataType      commerce.DataType
	Regime        string
	Format        exporter.Format
	Frequency     Frequency
	ExecutionDay  int    // day of month, used by monthly and yearly
	ExecutionTime string // HH:MM
	CronExpr      *string
	Delivery      DeliveryConfig
	Status        TaskStatus
	LastRunAt     *time.Time
	NextRunAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TaskExecution is one concrete run attempt of a scheduled task. History is
// append-only; a failed execution is never rewritten by a later one.
type TaskExecution struct {
	ID           string
	TaskID       string
	ReportID     *string
	Status       ExecutionStatus
	ScheduledFor time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	Error        *string
	CreatedAt    time.Time
}

// Store abstracts the persistence layer used by the orchestrator and worker.
type Store interface {
	// Report operations
	InsertReport(ctx context.Context, rep *Report) error
	UpdateReport(ctx context.Context, rep *Report) error

	// Scheduled task operations
	DueTasks(ctx context.Context, now time.Time) ([]*ScheduledTask, error)
	UpdateTaskSchedule(ctx context.Context, id string, lastRun, nextRun time.Time) error

	// Execution operations
	InsertExecution(ctx context.Context, exec *TaskExecution) error
	FinishExecution(ctx context.Context, id string, status ExecutionStatus, completedAt time.Time, errMsg *string) error
	HasProcessingExecution(ctx context.Context, taskID string) (bool, error)

	// Payload files
	ReportFilePath(reportID string, format exporter.Format) string
	EnsureFilesDir() error
}

// Channel delivers a generated payload outside the system.
type Channel interface {
	Deliver(ctx context.Context, filename string, payload []byte) error
}

// ChannelFactory builds a delivery channel from a task's persisted
// configuration.
type ChannelFactory interface {
	Channel(cfg DeliveryConfig) (Channel, error)
}
