// Package socket carries the confkitd API over a Unix domain socket. The
// daemon side calls Listen; clients dial through a Socket, which keeps
// retrying while the daemon is still coming up.
package socket

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/lc/confkit/internal/log"
)

var (
	// ErrAddressInUse means another process is accepting on the socket path.
	ErrAddressInUse = errors.New("address already in use")
	// ErrNotRunning means the daemon could not be reached and is not starting.
	ErrNotRunning = errors.New("daemon not running")
)

// DaemonName is the executable name of the confkit daemon.
const DaemonName = "confkitd"

// Config tunes dialing and listening.
type Config struct {
	StartupTimeout time.Duration // how long Connect keeps retrying
	StartupGrace   time.Duration // retries skip the process check this long after New
	RetryInterval  time.Duration
	Permissions    os.FileMode // mode of the socket file
	ProcessName    string      // executable looked up once the grace period is over
}

// DefaultConfig waits up to 5s for a daemon named DaemonName, retrying every
// 250ms, with a 2s grace period.
func DefaultConfig() *Config {
	return &Config{
		StartupTimeout: 5 * time.Second,
		StartupGrace:   2 * time.Second,
		RetryInterval:  250 * time.Millisecond,
		Permissions:    defaultMode(),
		ProcessName:    DaemonName,
	}
}

// Socket dials and listens on Unix domain sockets.
type Socket struct {
	cfg     *Config
	checker ProcessChecker
	created time.Time
}

// New returns a Socket. A nil cfg means DefaultConfig and a nil checker
// consults the process table.
func New(cfg *Config, checker ProcessChecker) *Socket {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if checker == nil {
		checker = &DefaultProcessChecker{}
	}
	return &Socket{cfg: cfg, checker: checker, created: time.Now()}
}

// Listen listens on path with the default configuration.
func Listen(path string) (net.Listener, error) {
	return New(nil, nil).Listen(path)
}

// DialFunc adapts Connect to http.Transport.DialContext. The requested
// network and address are ignored.
func (s *Socket) DialFunc(path string) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, _, _ string) (net.Conn, error) {
		return s.Connect(ctx, path)
	}
}

// Connect dials path until it succeeds, ctx ends, or the daemon is neither
// starting nor running. The last case wraps ErrNotRunning.
func (s *Socket) Connect(ctx context.Context, path string) (net.Conn, error) {
	deadline := time.Now().Add(s.cfg.StartupTimeout)
	var d net.Dialer

	for attempt := 1; ; attempt++ {
		conn, err := d.DialContext(ctx, "unix", path)
		switch {
		case err == nil:
			return conn, nil
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case !s.worthRetrying(deadline):
			return nil, fmt.Errorf("%w: %v", ErrNotRunning, err)
		}
		log.Debug("socket: connect failed, retrying", "path", path, "attempt", attempt, "error", err)

		t := time.NewTimer(s.cfg.RetryInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (s *Socket) worthRetrying(deadline time.Time) bool {
	switch {
	case time.Now().After(deadline):
		return false
	case time.Since(s.created) < s.cfg.StartupGrace:
		return true
	}
	return s.checker.IsRunning(s.cfg.ProcessName)
}

// Listen creates the socket at path with the configured mode. A leftover
// socket file nobody accepts on is replaced; a live one yields
// ErrAddressInUse.
func (s *Socket) Listen(path string) (net.Listener, error) {
	if err := s.prepareDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	if err := removeStale(path); err != nil {
		return nil, err
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("creating socket listener: %w", err)
	}
	if err := os.Chmod(path, s.cfg.Permissions); err != nil {
		ln.Close()
		return nil, fmt.Errorf("setting socket permissions: %w", err)
	}

	log.Debug("socket: listening", "path", path, "mode", s.cfg.Permissions)
	return ln, nil
}

// prepareDir creates dir and, for sockets other users may open, grants them
// search permission on it.
func (s *Socket) prepareDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}
	if s.cfg.Permissions&0o066 == 0 {
		return nil
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}
	if mode := fi.Mode().Perm(); mode&0o011 != 0o011 {
		if err := os.Chmod(dir, mode|0o011); err != nil {
			return fmt.Errorf("setting directory permissions: %w", err)
		}
	}
	return nil
}

func removeStale(path string) error {
	if conn, err := net.DialTimeout("unix", path, time.Second); err == nil {
		_ = conn.Close()
		return ErrAddressInUse
	}

	err := os.Remove(path)
	switch {
	case err == nil:
		log.Info("socket: removed stale socket file", "path", path)
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("removing stale socket: %w", err)
	}
	return nil
}

// defaultMode opens the socket to all users where peer credentials are
// available and to the owner elsewhere.
func defaultMode() os.FileMode {
	switch runtime.GOOS {
	case "linux", "darwin", "freebsd":
		return 0o666
	}
	return 0o600
}
