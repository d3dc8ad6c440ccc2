package snapshot

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jgivc/versiontracker/internal/adapter/fsadapter"
	"github.com/spf13/afero"
)

// fileRepository keeps the fingerprint as the first line of a text file.
type fileRepository struct {
	fs   afero.Fs
	path string
	log  *slog.Logger
}

func NewFileRepository(fs afero.Fs, dir, fileName string, log *slog.Logger) *fileRepository {
	return &fileRepository{
		fs:   fs,
		path: filepath.Join(dir, fileName),
		log:  log.With(slog.String("item", "FileSnapshotRepository")),
	}
}

// Load returns an empty fingerprint when the file does not exist yet.
func (r *fileRepository) Load(_ context.Context) (string, error) {
	data, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.log.Info("Snapshot file not found, assuming first run", slog.String("path", r.path))

			return "", nil
		}

		return "", fmt.Errorf("cannot read snapshot %s: %w", r.path, err)
	}

	line, _, err := bufio.NewReader(bytes.NewReader(data)).ReadLine()
	if err != nil && len(data) > 0 {
		return "", fmt.Errorf("cannot read snapshot %s: %w", r.path, err)
	}

	return strings.TrimSpace(string(line)), nil
}

func (r *fileRepository) Save(_ context.Context, fingerprint string) error {
	if err := fsadapter.WriteFileAtomic(r.fs, r.path, []byte(fingerprint+"\n")); err != nil {
		return fmt.Errorf("cannot save snapshot: %w", err)
	}

	r.log.Info("Snapshot saved", slog.String("path", r.path), slog.String("fingerprint", fingerprint))

	return nil
}

func (r *fileRepository) Close() error {
	return nil
}
