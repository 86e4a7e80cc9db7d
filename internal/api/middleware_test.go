package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ledgerport/internal/core"
)

func TestAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := AuthMiddleware("secret")(next)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer secret", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/reports", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}

	// Empty configured token disables the check entirely.
	open := AuthMiddleware("")(next)
	req := httptest.NewRequest(http.MethodGet, "/v1/reports", nil)
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("open status = %d", rec.Code)
	}
}

func TestValidateDelivery(t *testing.T) {
	email := core.DeliveryConfig{
		Method: core.DeliverEmail,
		Email:  &core.EmailDelivery{To: []string{"a@b.c"}},
	}
	if err := validateDelivery(&email); err != nil {
		t.Fatalf("email: %v", err)
	}

	noRecipients := core.DeliveryConfig{Method: core.DeliverEmail, Email: &core.EmailDelivery{}}
	if err := validateDelivery(&noRecipients); err == nil {
		t.Error("expected error for empty recipient list")
	}

	sftp := core.DeliveryConfig{
		Method: core.DeliverFTP,
		FTP:    &core.FTPDelivery{Host: "h", Protocol: "sftp", Username: "u"},
	}
	if err := validateDelivery(&sftp); err != nil {
		t.Fatalf("sftp: %v", err)
	}
	if sftp.FTP.Port != 22 {
		t.Errorf("sftp default port = %d, want 22", sftp.FTP.Port)
	}

	ftp := core.DeliveryConfig{
		Method: core.DeliverFTP,
		FTP:    &core.FTPDelivery{Host: "h", Protocol: "ftp", Username: "u"},
	}
	if err := validateDelivery(&ftp); err != nil {
		t.Fatalf("ftp: %v", err)
	}
	if ftp.FTP.Port != 21 {
		t.Errorf("ftp default port = %d, want 21", ftp.FTP.Port)
	}

	badProtocol := core.DeliveryConfig{
		Method: core.DeliverFTP,
		FTP:    &core.FTPDelivery{Host: "h", Protocol: "gopher"},
	}
	if err := validateDelivery(&badProtocol); err == nil {
		t.Error("expected error for unknown protocol")
	}

	if err := validateDelivery(&core.DeliveryConfig{Method: "pigeon"}); err == nil {
		t.Error("expected error for unknown method")
	}
}

func TestParseFrequency(t *testing.T) {
	for _, s := range []string{"hourly", "Daily", " MONTHLY ", "yearly", "custom"} {
		if _, err := parseFrequency(s); err != nil {
			t.Errorf("parseFrequency(%q): %v", s, err)
		}
	}
	if _, err := parseFrequency("weekly"); err == nil {
		t.Error("expected error for unsupported frequency")
	}
}
