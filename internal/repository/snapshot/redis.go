package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type redisRepository struct {
	cl  *redis.Client
	key string
	log *slog.Logger
}

func NewRedisRepository(cl *redis.Client, key string, log *slog.Logger) *redisRepository {
	return &redisRepository{
		cl:  cl,
		key: key,
		log: log.With(slog.String("item", "RedisSnapshotRepository")),
	}
}

// Load returns an empty fingerprint when the key is not set yet.
func (r *redisRepository) Load(ctx context.Context) (string, error) {
	fp, err := r.cl.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.log.Info("Snapshot key not found, assuming first run", slog.String("key", r.key))

			return "", nil
		}

		return "", fmt.Errorf("cannot get snapshot key %s: %w", r.key, err)
	}

	return fp, nil
}

func (r *redisRepository) Save(ctx context.Context, fingerprint string) error {
	if _, err := r.cl.Set(ctx, r.key, fingerprint, 0).Result(); err != nil {
		return fmt.Errorf("cannot set snapshot key %s: %w", r.key, err)
	}

	r.log.Info("Snapshot saved", slog.String("key", r.key), slog.String("fingerprint", fingerprint))

	return nil
}

func (r *redisRepository) Close() error {
	if err := r.cl.Close(); err != nil {
		return fmt.Errorf("cannot close redis client: %w", err)
	}

	return nil
}
