package feed

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Cache file names, matching the upstream file names.
const (
	FixFile    = "atcf_sector_file"
	InterpFile = "interp_sector_file"
)

// Cache is the on-disk copy of the two feed files, as last served by a source
// that parsed. LoadFromDisk rebuilds the active table from it at startup.
type Cache struct {
	dir string
}

// NewCache returns a cache rooted at dir.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// FixPath returns the path of the cached sector file.
func (c *Cache) FixPath() string { return filepath.Join(c.dir, FixFile) }

// InterpPath returns the path of the cached interp file.
func (c *Cache) InterpPath() string { return filepath.Join(c.dir, InterpFile) }

// Write replaces both cache files. Both payloads are fully written to temporary
// files before either is renamed into place, so a failed write leaves the
// previous cache untouched. If the second rename fails the first file is
// restored from its backup.
func (c *Cache) Write(fix, interp []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	fixTmp, err := writeTemp(c.dir, FixFile, fix)
	if err != nil {
		return err
	}
	defer os.Remove(fixTmp)

	interpTmp, err := writeTemp(c.dir, InterpFile, interp)
	if err != nil {
		return err
	}
	defer os.Remove(interpTmp)

	backup := c.FixPath() + ".bak"
	hadFix := true
	if err := os.Rename(c.FixPath(), backup); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("back up %s: %w", FixFile, err)
		}
		hadFix = false
	}

	if err := os.Rename(fixTmp, c.FixPath()); err != nil {
		restore(backup, c.FixPath(), hadFix)
		return fmt.Errorf("replace %s: %w", FixFile, err)
	}
	if err := os.Rename(interpTmp, c.InterpPath()); err != nil {
		if hadFix {
			restore(backup, c.FixPath(), true)
		} else {
			os.Remove(c.FixPath())
		}
		return fmt.Errorf("replace %s: %w", InterpFile, err)
	}
	if hadFix {
		os.Remove(backup)
	}
	return nil
}

func restore(backup, path string, had bool) {
	if had {
		_ = os.Rename(backup, path)
	}
}

func writeTemp(dir, name string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("sync %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return f.Name(), nil
}
