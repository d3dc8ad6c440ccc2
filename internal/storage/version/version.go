package version

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jgivc/versiontracker/internal/adapter/jsonadapter"
	"github.com/jgivc/versiontracker/internal/common"
	"github.com/jgivc/versiontracker/internal/config"
	"github.com/jgivc/versiontracker/internal/entity"
)

type Fetcher interface {
	FetchText(ctx context.Context, url string) ([]byte, error)
}

type job struct {
	idx int
	ref entity.VersionRef
}

type result struct {
	idx     int
	version *entity.Version
	err     error
}

type versionStorage struct {
	running atomic.Bool
	fetcher Fetcher
	cfg     *config.BuilderConfig
	log     *slog.Logger
}

func NewVersionStorage(fetcher Fetcher, cfg *config.BuilderConfig, log *slog.Logger) *versionStorage {
	return &versionStorage{
		fetcher: fetcher,
		cfg:     cfg,
		log:     log.With(slog.String("item", "VersionStorage")),
	}
}

// Fetch downloads and normalizes the detail document of every ref. The result
// keeps the order of refs regardless of which worker finished first. Failed
// refs are reported, or abort the whole fetch when fail_fast is set.
func (s *versionStorage) Fetch(ctx context.Context, refs []entity.VersionRef) ([]*entity.Version, *entity.Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, nil, common.ErrBuildAlreadyStarted
	}
	defer s.running.Store(false)

	report := &entity.Report{}
	if len(refs) == 0 {
		return []*entity.Version{}, report, nil
	}

	workers := min(s.cfg.Workers, len(refs))
	if workers < 1 {
		workers = 1
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := make(chan job, len(refs))
	out := make(chan result, len(refs))

	for i, ref := range refs {
		in <- job{idx: i, ref: ref}
	}
	close(in)

	var wg sync.WaitGroup
	wg.Add(workers)
	for n := 0; n < workers; n++ {
		go s.worker(wctx, n, in, out, &wg)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	versions := make([]*entity.Version, len(refs))
	errs := make([]error, len(refs))
	failed := -1
	for r := range out {
		if r.err != nil {
			errs[r.idx] = r.err
			if s.cfg.FailFast && failed < 0 {
				// The first failure is the cause, later ones are mostly cancellations.
				failed = r.idx
				cancel()
			}

			continue
		}

		versions[r.idx] = r.version
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("version fetch interrupted: %w", err)
	}

	if failed >= 0 {
		return nil, nil, fmt.Errorf("cannot fetch version %s: %w", refs[failed].ID, errs[failed])
	}

	fetched := make([]*entity.Version, 0, len(refs))
	for i := range refs {
		if errs[i] != nil {
			s.log.Warn("Skip version", slog.String("id", refs[i].ID), slog.String("url", refs[i].URL), slog.Any("error", errs[i]))
			report.Add(refs[i].ID, refs[i].URL, errs[i])

			continue
		}

		if versions[i] != nil {
			fetched = append(fetched, versions[i])
		}
	}

	return fetched, report, nil
}

func (s *versionStorage) worker(ctx context.Context, n int, in chan job, out chan result, wg *sync.WaitGroup) {
	defer wg.Done()

	log := s.log.With(slog.Int("worker_id", n))
	log.Debug("Started")

	for j := range in {
		if err := ctx.Err(); err != nil {
			out <- result{idx: j.idx, err: err}

			continue
		}

		v, err := s.fetchOne(ctx, j.ref)
		if err != nil {
			log.Error("Cannot fetch version", slog.String("id", j.ref.ID), slog.Any("error", err))
		} else {
			log.Info("Version", slog.String("id", v.ID), slog.String("type", v.Type), slog.String("release_time", v.ReleaseTime))
		}

		out <- result{idx: j.idx, version: v, err: err}
	}

	log.Debug("Done")
}

func (s *versionStorage) fetchOne(ctx context.Context, ref entity.VersionRef) (*entity.Version, error) {
	if ref.URL == "" {
		return nil, fmt.Errorf("%w: version %s has no url", common.ErrMalformedDocument, ref.ID)
	}

	data, err := s.fetcher.FetchText(ctx, ref.URL)
	if err != nil {
		return nil, err
	}

	return jsonadapter.ParseVersion(ref.URL, data)
}
