package delivery

import (
	"testing"
	"time"

	"ledgerport/internal/core"
)

func TestFactoryDispatch(t *testing.T) {
	factory := NewFactory(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "reports@example.com"})

	tests := []struct {
		name    string
		cfg     core.DeliveryConfig
		want    any
		wantErr bool
	}{
		{
			name: "email",
			cfg: core.DeliveryConfig{
				Method: core.DeliverEmail,
				Email:  &core.EmailDelivery{To: []string{"a@b.c"}},
			},
			want: &EmailChannel{},
		},
		{
			name: "ftp",
			cfg: core.DeliveryConfig{
				Method: core.DeliverFTP,
				FTP:    &core.FTPDelivery{Host: "h", Protocol: "ftp"},
			},
			want: &FTPChannel{},
		},
		{
			name: "ftps",
			cfg: core.DeliveryConfig{
				Method: core.DeliverFTP,
				FTP:    &core.FTPDelivery{Host: "h", Protocol: "ftps"},
			},
			want: &FTPChannel{},
		},
		{
			name: "sftp",
			cfg: core.DeliveryConfig{
				Method: core.DeliverFTP,
				FTP:    &core.FTPDelivery{Host: "h", Protocol: "sftp"},
			},
			want: &SFTPChannel{},
		},
		{
			name:    "email without config",
			cfg:     core.DeliveryConfig{Method: core.DeliverEmail},
			wantErr: true,
		},
		{
			name: "unknown protocol",
			cfg: core.DeliveryConfig{
				Method: core.DeliverFTP,
				FTP:    &core.FTPDelivery{Host: "h", Protocol: "gopher"},
			},
			wantErr: true,
		},
		{
			name:    "unknown method",
			cfg:     core.DeliveryConfig{Method: core.DeliveryMethod("pigeon")},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ch, err := factory.Build(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %T", ch)
				}
				return
			}
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			switch tc.want.(type) {
			case *EmailChannel:
				if _, ok := ch.(*EmailChannel); !ok {
					t.Fatalf("channel = %T", ch)
				}
			case *FTPChannel:
				if _, ok := ch.(*FTPChannel); !ok {
					t.Fatalf("channel = %T", ch)
				}
			case *SFTPChannel:
				if _, ok := ch.(*SFTPChannel); !ok {
					t.Fatalf("channel = %T", ch)
				}
			}
		})
	}
}

func TestFTPTimeoutDefaults(t *testing.T) {
	if got := ftpTimeout(core.FTPDelivery{}); got != defaultTimeout {
		t.Errorf("default timeout = %s", got)
	}
	if got := ftpTimeout(core.FTPDelivery{TimeoutSeconds: 5}); got != 5*time.Second {
		t.Errorf("timeout = %s, want 5s", got)
	}
}

func TestEmailMessageDefaults(t *testing.T) {
	ch := &EmailChannel{
		smtp: SMTPConfig{Host: "smtp.example.com", Port: 587, From: "reports@example.com", Timeout: time.Second},
		cfg:  core.EmailDelivery{To: []string{"compta@example.com"}},
	}
	msg, err := ch.message("OHADA_orders_2024-04-01.csv", []byte("numero_piece;date\n"))
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	subject := msg.GetGenHeader("Subject")
	if len(subject) != 1 || subject[0] != "Accounting export OHADA_orders_2024-04-01.csv" {
		t.Errorf("subject = %v", subject)
	}

	ch.cfg.To = []string{"not-an-address"}
	if _, err := ch.message("x.csv", nil); err == nil {
		t.Error("expected error for invalid recipient")
	}
}
