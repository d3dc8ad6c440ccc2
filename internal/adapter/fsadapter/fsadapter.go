package fsadapter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jgivc/versiontracker/internal/util"
	"github.com/spf13/afero"
)

const (
	dirPerm = 0o755
)

type fsAdapter struct {
	fs  afero.Fs
	dir string
	log *slog.Logger
}

func NewFSAdapter(fs afero.Fs, dir string, log *slog.Logger) *fsAdapter {
	return &fsAdapter{
		fs:  fs,
		dir: dir,
		log: log.With(slog.String("item", "FSAdapter")),
	}
}

// WriteFile replaces name inside the output directory.
func (a *fsAdapter) WriteFile(name string, data []byte) error {
	if name == "" || strings.Contains(name, "..") || filepath.IsAbs(name) {
		return fmt.Errorf("invalid file name: %q", name)
	}

	path := filepath.Join(a.dir, name)
	if err := WriteFileAtomic(a.fs, path, data); err != nil {
		a.log.Error("Cannot write file", slog.String("path", path), slog.Any("error", err))

		return err
	}

	content := string(data)
	a.log.Info("File written", slog.String("path", path), slog.Int("bytes", len(data)), slog.String("sha1", util.GetIDFromString(&content)))

	return nil
}

// WriteFileAtomic writes data to a temporary file in the same directory and
// renames it over path, so readers never see a partially written file.
func WriteFileAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("cannot create dir %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fs.Remove(tmpName)

		return fmt.Errorf("cannot write %s: %w", tmpName, err)
	}

	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)

		return fmt.Errorf("cannot close %s: %w", tmpName, err)
	}

	if err := fs.Rename(tmpName, path); err != nil {
		fs.Remove(tmpName)

		return fmt.Errorf("cannot rename %s to %s: %w", tmpName, path, err)
	}

	return nil
}
