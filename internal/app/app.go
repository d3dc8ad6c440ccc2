package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/jgivc/versiontracker/internal/adapter/fsadapter"
	"github.com/jgivc/versiontracker/internal/adapter/httpadapter"
	"github.com/jgivc/versiontracker/internal/adapter/render"
	"github.com/jgivc/versiontracker/internal/adapter/supplement"
	"github.com/jgivc/versiontracker/internal/common"
	"github.com/jgivc/versiontracker/internal/config"
	"github.com/jgivc/versiontracker/internal/entity"
	"github.com/jgivc/versiontracker/internal/repository/snapshot"
	"github.com/jgivc/versiontracker/internal/service/manifest"
	"github.com/jgivc/versiontracker/internal/storage/version"
	"github.com/spf13/afero"
)

type Outcome int

const (
	OutcomeChanged Outcome = iota
	OutcomeUnchanged
)

func (o Outcome) String() string {
	return [...]string{"Changed", "Unchanged"}[o]
}

type Result struct {
	Outcome     Outcome
	Previous    string
	Fingerprint string
	Manifest    *entity.Manifest
	Report      *entity.Report
	Documents   []string
}

type App struct {
	cfg *config.Config
	fs  afero.Fs
	log *slog.Logger
}

func New(cfg *config.Config, log *slog.Logger) *App {
	return NewWithFS(afero.NewOsFs(), cfg, log)
}

func NewWithFS(fs afero.Fs, cfg *config.Config, log *slog.Logger) *App {
	return &App{
		cfg: cfg,
		fs:  fs,
		log: log,
	}
}

// NewLogger builds the process logger for the configured level.
func NewLogger(level string) *slog.Logger {
	lo := &slog.HandlerOptions{}
	switch level {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		panic("unknown log level")
	}

	return slog.New(slog.NewTextHandler(os.Stderr, lo))
}

// Run performs one sync. Nothing is written unless the manifest changed and
// every document rendered; the snapshot is saved last.
func (a *App) Run(ctx context.Context) (*Result, error) {
	log := a.log.With(slog.String("run_id", uuid.NewString()))

	unlock, err := a.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	repo, err := snapshot.NewRepository(ctx, a.cfg, a.fs, log)
	if err != nil {
		return nil, fmt.Errorf("cannot open snapshot repository: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Error("Cannot close snapshot repository", slog.Any("error", err))
		}
	}()

	previous, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot load snapshot: %w", err)
	}

	fetcher := httpadapter.NewFetcher(&a.cfg.Fetcher, log)
	store := version.NewVersionStorage(fetcher, &a.cfg.Builder, log)
	curated := supplement.NewSource(a.fs, a.cfg.Builder.SupplementFile, log)
	srv := manifest.NewManifestService(fetcher, store, curated, &a.cfg.Builder, log)

	m, report, err := srv.Build(ctx, previous)
	if err != nil {
		if errors.Is(err, common.ErrManifestUnchanged) {
			return &Result{Outcome: OutcomeUnchanged, Previous: previous, Fingerprint: previous}, nil
		}

		return nil, err
	}

	docs, err := render.NewRenderer(a.fs, &a.cfg.Renderer, log).Render(m)
	if err != nil {
		return nil, err
	}

	out := fsadapter.NewFSAdapter(a.fs, a.cfg.OutputDir, log)
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		if err := out.WriteFile(doc.Name, doc.Content); err != nil {
			return nil, fmt.Errorf("cannot write %s: %w", doc.Name, err)
		}
		names = append(names, doc.Name)
	}

	if err := repo.Save(ctx, m.Fingerprint); err != nil {
		return nil, fmt.Errorf("cannot save snapshot: %w", err)
	}

	if !report.Empty() {
		log.Warn("Some versions were skipped", slog.Int("count", len(report.Skipped)))
	}

	return &Result{
		Outcome:     OutcomeChanged,
		Previous:    previous,
		Fingerprint: m.Fingerprint,
		Manifest:    m,
		Report:      report,
		Documents:   names,
	}, nil
}

func (a *App) lock() (func(), error) {
	if a.cfg.LockFile == "" {
		return func() {}, nil
	}

	// flock works on real files only, whatever filesystem the output uses.
	path := a.cfg.LockFile
	if !filepath.IsAbs(path) {
		if _, ok := a.fs.(*afero.OsFs); !ok {
			return nil, fmt.Errorf("lock file %s must be absolute when output is not on the OS filesystem", path)
		}
		path = filepath.Join(a.cfg.OutputDir, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create lock dir: %w", err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("cannot lock %s: %w", path, err)
	}

	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrRunLocked, path)
	}

	return func() {
		if err := fl.Unlock(); err != nil {
			a.log.Error("Cannot unlock", slog.String("path", path), slog.Any("error", err))
		}
	}, nil
}
