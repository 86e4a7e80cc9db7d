package delivery

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"ledgerport/internal/core"
)

// EmailChannel sends the report as an attachment over SMTP.
type EmailChannel struct {
	smtp SMTPConfig
	cfg  core.EmailDelivery
}

// Deliver builds and sends the message. The SMTP session is dialed per
// delivery and closed whatever happens.
func (c *EmailChannel) Deliver(ctx context.Context, filename string, payload []byte) error {
	msg, err := c.message(filename, payload)
	if err != nil {
		return err
	}
	client, err := c.client()
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send report email: %w", err)
	}
	return nil
}

// Test dials and closes an SMTP session without sending anything.
func (c *EmailChannel) Test(ctx context.Context) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("smtp connection test: %w", err)
	}
	return client.Close()
}

func (c *EmailChannel) message(filename string, payload []byte) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(c.smtp.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", c.smtp.From, err)
	}
	if err := msg.To(c.cfg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	if len(c.cfg.Cc) > 0 {
		if err := msg.Cc(c.cfg.Cc...); err != nil {
			return nil, fmt.Errorf("invalid cc recipients: %w", err)
		}
	}
	if len(c.cfg.Bcc) > 0 {
		if err := msg.Bcc(c.cfg.Bcc...); err != nil {
			return nil, fmt.Errorf("invalid bcc recipients: %w", err)
		}
	}
	if c.cfg.ReplyTo != "" {
		if err := msg.ReplyTo(c.cfg.ReplyTo); err != nil {
			return nil, fmt.Errorf("invalid reply-to: %w", err)
		}
	}
	subject := c.cfg.Subject
	if subject == "" {
		subject = "Accounting export " + filename
	}
	body := c.cfg.Body
	if body == "" {
		body = "Please find the generated accounting export attached."
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	if err := msg.AttachReader(filename, bytes.NewReader(payload)); err != nil {
		return nil, fmt.Errorf("attach report: %w", err)
	}
	return msg, nil
}

func (c *EmailChannel) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(c.smtp.Port),
		mail.WithTimeout(c.smtp.Timeout),
	}
	if c.smtp.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(c.smtp.Username),
			mail.WithPassword(c.smtp.Password),
		)
	}
	client, err := mail.NewClient(c.smtp.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return client, nil
}
