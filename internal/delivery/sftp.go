package delivery

import (
	"context"
	"fmt"
	"net"
	"path"
	"strconv"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"ledgerport/internal/core"
)

// SFTPChannel uploads the report over SSH. The dial timeout bounds the
// connection; host keys are not pinned because delivery targets are
// operator-configured per task.
type SFTPChannel struct {
	cfg core.FTPDelivery
}

// Deliver writes payload to the configured directory. SSH and SFTP sessions
// are both closed on every exit path.
func (c *SFTPChannel) Deliver(ctx context.Context, filename string, payload []byte) error {
	conn, client, err := c.dial()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer client.Close()

	remote := filename
	if c.cfg.Directory != "" {
		remote = path.Join(c.cfg.Directory, filename)
	}
	f, err := client.Create(remote)
	if err != nil {
		return fmt.Errorf("create remote file %s: %w", remote, err)
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		return fmt.Errorf("write remote file %s: %w", remote, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close remote file %s: %w", remote, err)
	}
	return nil
}

// Test verifies connectivity and credentials, then disconnects.
func (c *SFTPChannel) Test(ctx context.Context) error {
	conn, client, err := c.dial()
	if err != nil {
		return err
	}
	client.Close()
	return conn.Close()
}

func (c *SFTPChannel) dial() (*ssh.Client, *sftp.Client, error) {
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
	sshCfg := &ssh.ClientConfig{
		User:            c.cfg.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(c.cfg.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         ftpTimeout(c.cfg),
	}
	conn, err := ssh.Dial("tcp", addr, sshCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open sftp session: %w", err)
	}
	return conn, client, nil
}
