package snapshot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jgivc/versiontracker/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

// Repository persists the fingerprint of the last rendered manifest.
type Repository interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, fingerprint string) error
	Close() error
}

// NewRepository builds the repository selected by cfg.Snapshot.Backend.
func NewRepository(ctx context.Context, cfg *config.Config, fs afero.Fs, log *slog.Logger) (Repository, error) {
	switch cfg.Snapshot.Backend {
	case config.SnapshotBackendFile:
		return NewFileRepository(fs, cfg.OutputDir, cfg.Snapshot.FileName, log), nil
	case config.SnapshotBackendRedis:
		opt, err := redis.ParseURL(cfg.Snapshot.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("cannot parse redis url: %w", err)
		}

		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			rdb.Close()

			return nil, fmt.Errorf("cannot ping redis: %w", err)
		}

		return NewRedisRepository(rdb, cfg.Snapshot.RedisKey, log), nil
	}

	return nil, fmt.Errorf("unknown snapshot backend: %s", cfg.Snapshot.Backend)
}
