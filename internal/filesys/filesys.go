// Package filesys provides the file system handle shared by confkit's
// config loader, file resources and CLI. Everything goes through afero so
// production code runs on the OS file system and tests on an in-memory one.
package filesys

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/lc/confkit/internal/log"
)

// OS returns a file system that delegates to the local disk.
func OS() afero.Fs {
	return afero.NewOsFs()
}

// Memory returns an empty in-memory file system.
func Memory() afero.Fs {
	return afero.NewMemMapFs()
}

// Expand replaces a leading "~/" in p with the user's home directory.
// Other paths are returned cleaned but otherwise unchanged.
func Expand(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return filepath.Clean(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		log.Warn("filesys: could not determine home directory", "error", err)
		return filepath.Clean(p)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// syncer is implemented by files that can flush to stable storage.
type syncer interface {
	Sync() error
}

// AtomicWrite persists data to dst with the provided file mode.
// On local file systems the write is crash-safe:
//
//  1. temp file in the same dir
//  2. fsync(temp) + close
//  3. chmod(temp, perm)  (so rename doesn’t carry 0600 default)
//  4. rename(temp, dst)
//  5. fsync(dir) where the backend supports it
//
// Missing parent directories are created with 0755.
func AtomicWrite(fs afero.Fs, dst string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(dst)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := afero.TempFile(fs, dir, ".confkit-*")
	if err != nil {
		return err
	}
	name := tmp.Name()

	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = fs.Chmod(name, perm)
	}
	if err == nil {
		err = fs.Rename(name, dst)
	}
	if err != nil {
		if removeErr := fs.Remove(name); removeErr != nil && !os.IsNotExist(removeErr) {
			log.Warn("filesys: failed to remove temp file", "path", name, "error", removeErr)
		}
		return err
	}

	syncDir(fs, dir)
	return nil
}

func syncDir(fs afero.Fs, dir string) {
	d, err := fs.Open(dir)
	if err != nil {
		return
	}
	if s, ok := d.(syncer); ok {
		if err := s.Sync(); err != nil {
			log.Debug("filesys: failed to sync directory", "path", dir, "error", err)
		}
	}
	if err := d.Close(); err != nil {
		log.Warn("filesys: failed to close directory", "path", dir, "error", err)
	}
}
