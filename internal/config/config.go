package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr      string
	AuthToken string
}

// WorkerConfig holds scheduler/worker settings.
type WorkerConfig struct {
	PollInterval time.Duration
	Concurrency  int
}

// CommerceConfig holds data provider settings.
type CommerceConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// SMTPConfig holds outgoing mail settings used by email delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// Config holds all runtime configuration for the daemon.
type Config struct {
	Server   ServerConfig
	Worker   WorkerConfig
	Commerce CommerceConfig
	SMTP     SMTPConfig

	StateDir      string
	LogLevel      string
	UseUTC        bool
	ShutdownGrace time.Duration
}

const (
	defaultAddr          = "0.0.0.0:8680"
	defaultLogLevel      = "info"
	defaultPollInterval  = time.Minute
	defaultConcurrency   = 4
	defaultShutdownGrace = 5 * time.Second
	defaultSMTPPort      = 587
	defaultTimeout       = 30 * time.Second
)

func getEnvString(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		lower := strings.ToLower(val)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// Parse builds the configuration. Priority: CLI flags > environment
// variables > .env file > defaults.
func Parse() (*Config, error) {
	_ = godotenv.Load() // optional

	cfg := &Config{
		Server: ServerConfig{
			Addr:      getEnvString("LEDGERPORT_ADDR", defaultAddr),
			AuthToken: getEnvString("LEDGERPORT_AUTH_TOKEN", ""),
		},
		Worker: WorkerConfig{
			PollInterval: getEnvDuration("LEDGERPORT_POLL_INTERVAL", defaultPollInterval),
			Concurrency:  getEnvInt("LEDGERPORT_WORKER_CONCURRENCY", defaultConcurrency),
		},
		Commerce: CommerceConfig{
			BaseURL: getEnvString("LEDGERPORT_COMMERCE_URL", ""),
			Token:   getEnvString("LEDGERPORT_COMMERCE_TOKEN", ""),
			Timeout: getEnvDuration("LEDGERPORT_COMMERCE_TIMEOUT", defaultTimeout),
		},
		SMTP: SMTPConfig{
			Host:     getEnvString("LEDGERPORT_SMTP_HOST", ""),
			Port:     getEnvInt("LEDGERPORT_SMTP_PORT", defaultSMTPPort),
			Username: getEnvString("LEDGERPORT_SMTP_USERNAME", ""),
			Password: getEnvString("LEDGERPORT_SMTP_PASSWORD", ""),
			From:     getEnvString("LEDGERPORT_SMTP_FROM", ""),
			Timeout:  getEnvDuration("LEDGERPORT_SMTP_TIMEOUT", defaultTimeout),
		},
		StateDir:      getEnvString("LEDGERPORT_STATE_DIR", ""),
		LogLevel:      getEnvString("LEDGERPORT_LOG_LEVEL", defaultLogLevel),
		UseUTC:        getEnvBool("LEDGERPORT_USE_UTC", true),
		ShutdownGrace: getEnvDuration("LEDGERPORT_SHUTDOWN_GRACE", defaultShutdownGrace),
	}

	var (
		addr          string
		stateDir      string
		logLevel      string
		pollInterval  time.Duration
		concurrency   int
		shutdownGrace time.Duration
	)
	flag.StringVar(&addr, "addr", "", "HTTP listen address (overrides env)")
	flag.StringVar(&stateDir, "state-dir", "", "Directory for the database and report files")
	flag.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.DurationVar(&pollInterval, "poll-interval", 0, "Scheduler poll interval")
	flag.IntVar(&concurrency, "worker-concurrency", 0, "Max tasks processed concurrently per poll cycle")
	flag.DurationVar(&shutdownGrace, "shutdown-grace", 0, "Grace period when shutting down")
	flag.Parse()

	if addr != "" {
		cfg.Server.Addr = addr
	}
	if stateDir != "" {
		cfg.StateDir = stateDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if pollInterval > 0 {
		cfg.Worker.PollInterval = pollInterval
	}
	if concurrency > 0 {
		cfg.Worker.Concurrency = concurrency
	}
	if shutdownGrace > 0 {
		cfg.ShutdownGrace = shutdownGrace
	}

	if cfg.StateDir == "" {
		dir, err := defaultStateDir()
		if err != nil {
			return nil, fmt.Errorf("resolve default state dir: %w", err)
		}
		cfg.StateDir = dir
	}
	if cfg.Worker.PollInterval <= 0 {
		cfg.Worker.PollInterval = defaultPollInterval
	}
	if cfg.Worker.Concurrency < 1 {
		cfg.Worker.Concurrency = defaultConcurrency
	}
	return cfg, nil
}

func defaultStateDir() (string, error) {
	baseDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(baseDir, "ledgerport")
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", err
	}
	return path, nil
}
