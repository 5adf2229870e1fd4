package transfer

import (
	"context"
	"io"
	"math/rand/v2"
	"net"
	"time"

	zlerrors "github.com/cperrin88/zipline/pkg/errors"
	"github.com/jlaffaye/ftp"
)

const (
	// DefaultPort is appended to hosts given without a port.
	DefaultPort = "21"
	// AnonymousUser is used when no user is configured.
	AnonymousUser = "anonymous"
	// DefaultTimeout bounds dialing when ConnectOptions.Timeout is unset.
	DefaultTimeout = 30 * time.Second
)

// FTPClient implements Client on github.com/jlaffaye/ftp.
type FTPClient struct {
	conn *ftp.ServerConn
}

// NewFTPClient returns an unconnected FTP client.
func NewFTPClient() Client {
	return &FTPClient{}
}

// Connect waits out the jitter, dials and logs in.
func (c *FTPClient) Connect(ctx context.Context, opts ConnectOptions) error {
	if err := Jitter(ctx, opts.Jitter); err != nil {
		return err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	addr := withDefaultPort(opts.Host)
	conn, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(timeout))
	if err != nil {
		return zlerrors.Tag(zlerrors.ErrTransport, err, "dial "+addr)
	}

	user := opts.User
	if user == "" {
		user = AnonymousUser
	}
	if err := conn.Login(user, opts.Password); err != nil {
		_ = conn.Quit()
		return zlerrors.Tag(zlerrors.ErrTransport, err, "login "+addr)
	}
	c.conn = conn
	return nil
}

func (c *FTPClient) ChangeDir(path string) error {
	if err := c.connected(); err != nil {
		return err
	}
	if err := c.conn.ChangeDir(path); err != nil {
		return zlerrors.Tag(zlerrors.ErrTransport, err, "cwd "+path)
	}
	return nil
}

func (c *FTPClient) CurrentDir() (string, error) {
	if err := c.connected(); err != nil {
		return "", err
	}
	dir, err := c.conn.CurrentDir()
	if err != nil {
		return "", zlerrors.Tag(zlerrors.ErrTransport, err, "pwd")
	}
	return dir, nil
}

func (c *FTPClient) List() ([]Entry, error) {
	if err := c.connected(); err != nil {
		return nil, err
	}
	raw, err := c.conn.List("")
	if err != nil {
		return nil, zlerrors.Tag(zlerrors.ErrTransport, err, "list")
	}
	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		if e == nil || e.Name == "." || e.Name == ".." {
			continue
		}
		entries = append(entries, Entry{
			Name: e.Name,
			Size: e.Size,
			Type: entryType(e.Type),
			Time: e.Time,
		})
	}
	return entries, nil
}

func (c *FTPClient) Retrieve(name string) (io.ReadCloser, error) {
	if err := c.connected(); err != nil {
		return nil, err
	}
	resp, err := c.conn.Retr(name)
	if err != nil {
		return nil, zlerrors.Tag(zlerrors.ErrTransport, err, "retr "+name)
	}
	return resp, nil
}

// Close quits the session; closing an unconnected client is a no-op.
func (c *FTPClient) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Quit()
	c.conn = nil
	return err
}

func (c *FTPClient) connected() error {
	if c.conn == nil {
		return zlerrors.Wrap(zlerrors.ErrTransport, "not connected")
	}
	return nil
}

func entryType(t ftp.EntryType) EntryType {
	switch t {
	case ftp.EntryTypeFolder:
		return EntryFolder
	case ftp.EntryTypeLink:
		return EntryLink
	default:
		return EntryFile
	}
}

func withDefaultPort(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, DefaultPort)
}

// Jitter sleeps for a random duration in [0, maxDelay). It returns early with ctx.Err() on cancellation.
func Jitter(ctx context.Context, maxDelay time.Duration) error {
	if maxDelay <= 0 {
		return ctx.Err()
	}
	delay := time.Duration(rand.Int64N(int64(maxDelay)))
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
