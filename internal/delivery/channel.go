// Package delivery implements the channels a generated report leaves the
// system through: email attachment and FTP/FTPS/SFTP upload. Channels are
// explicitly constructed per delivery with a bounded timeout and release
// their connection on every exit path; there is no shared long-lived client.
package delivery

import (
	"context"
	"fmt"
	"time"

	"ledgerport/internal/core"
)

const defaultTimeout = 30 * time.Second

// SMTPConfig holds the server-wide SMTP settings email channels dial with.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// Channel extends core.Channel with a connectivity probe used when a task's
// delivery configuration is saved.
type Channel interface {
	core.Channel
	Test(ctx context.Context) error
}

// Factory builds channels from persisted task delivery configuration.
type Factory struct {
	smtp SMTPConfig
}

// NewFactory returns a factory carrying the SMTP defaults.
func NewFactory(smtp SMTPConfig) *Factory {
	if smtp.Timeout <= 0 {
		smtp.Timeout = defaultTimeout
	}
	return &Factory{smtp: smtp}
}

// Channel resolves the configured delivery method.
func (f *Factory) Channel(cfg core.DeliveryConfig) (core.Channel, error) {
	ch, err := f.channel(cfg)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// Build is Channel with the extended interface, used by the connection-test
// endpoint.
func (f *Factory) Build(cfg core.DeliveryConfig) (Channel, error) {
	return f.channel(cfg)
}

func (f *Factory) channel(cfg core.DeliveryConfig) (Channel, error) {
	switch cfg.Method {
	case core.DeliverEmail:
		if cfg.Email == nil {
			return nil, fmt.Errorf("email delivery selected but not configured")
		}
		return &EmailChannel{smtp: f.smtp, cfg: *cfg.Email}, nil
	case core.DeliverFTP:
		if cfg.FTP == nil {
			return nil, fmt.Errorf("ftp delivery selected but not configured")
		}
		switch cfg.FTP.Protocol {
		case "ftp", "ftps":
			return &FTPChannel{cfg: *cfg.FTP}, nil
		case "sftp":
			return &SFTPChannel{cfg: *cfg.FTP}, nil
		default:
			return nil, fmt.Errorf("unknown ftp protocol %q", cfg.FTP.Protocol)
		}
	default:
		return nil, fmt.Errorf("unknown delivery method %q", cfg.Method)
	}
}

func ftpTimeout(cfg core.FTPDelivery) time.Duration {
	if cfg.TimeoutSeconds > 0 {
		return time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return defaultTimeout
}
