package delivery

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"

	"github.com/jlaffaye/ftp"

	"ledgerport/internal/core"
)

// FTPChannel uploads the report over FTP or explicit-TLS FTPS. Transfers are
// always passive; the passive_mode flag selects classic PASV over EPSV for
// servers behind NAT.
type FTPChannel struct {
	cfg core.FTPDelivery
}

// Deliver uploads payload as filename into the configured directory. The
// connection is closed on every exit path.
func (c *FTPChannel) Deliver(ctx context.Context, filename string, payload []byte) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Quit()

	if c.cfg.Directory != "" {
		if err := conn.ChangeDir(c.cfg.Directory); err != nil {
			return fmt.Errorf("change directory %q: %w", c.cfg.Directory, err)
		}
	}
	if err := conn.Stor(filename, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("upload %s: %w", filename, err)
	}
	return nil
}

// Test verifies connectivity and credentials, then disconnects.
func (c *FTPChannel) Test(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	return conn.Quit()
}

func (c *FTPChannel) dial(ctx context.Context) (*ftp.ServerConn, error) {
	timeout := ftpTimeout(c.cfg)
	opts := []ftp.DialOption{
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(timeout),
	}
	if c.cfg.PassiveMode {
		opts = append(opts, ftp.DialWithDisabledEPSV(true))
	}
	if c.cfg.Protocol == "ftps" {
		opts = append(opts, ftp.DialWithExplicitTLS(&tls.Config{ServerName: c.cfg.Host}))
	}
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
	conn, err := ftp.Dial(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	if err := conn.Login(c.cfg.Username, c.cfg.Password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("ftp login: %w", err)
	}
	return conn, nil
}
