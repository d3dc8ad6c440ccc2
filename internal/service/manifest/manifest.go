package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jgivc/versiontracker/internal/adapter/jsonadapter"
	"github.com/jgivc/versiontracker/internal/common"
	"github.com/jgivc/versiontracker/internal/config"
	"github.com/jgivc/versiontracker/internal/entity"
)

type Fetcher interface {
	FetchText(ctx context.Context, url string) ([]byte, error)
}

type VersionStorage interface {
	Fetch(ctx context.Context, refs []entity.VersionRef) ([]*entity.Version, *entity.Report, error)
}

type Supplement interface {
	Versions() ([]*entity.Version, error)
}

type ManifestService struct {
	fetcher    Fetcher
	store      VersionStorage
	supplement Supplement
	cfg        *config.BuilderConfig
	log        *slog.Logger
}

func NewManifestService(fetcher Fetcher, store VersionStorage, supplement Supplement, cfg *config.BuilderConfig, log *slog.Logger) *ManifestService {
	return &ManifestService{
		fetcher:    fetcher,
		store:      store,
		supplement: supplement,
		cfg:        cfg,
		log:        log.With(slog.String("item", "ManifestService")),
	}
}

// Build fetches the manifest and, unless its fingerprint equals previous,
// every version it lists. It returns common.ErrManifestUnchanged without
// fetching any version when the fingerprint is the same.
func (s *ManifestService) Build(ctx context.Context, previous string) (*entity.Manifest, *entity.Report, error) {
	data, err := s.fetcher.FetchText(ctx, s.cfg.ManifestURL)
	if err != nil {
		s.log.Error("Cannot fetch manifest", slog.String("url", s.cfg.ManifestURL), slog.Any("error", err))

		return nil, nil, fmt.Errorf("cannot fetch manifest: %w", err)
	}

	vm, err := jsonadapter.ParseManifest(data)
	if err != nil {
		s.log.Error("Cannot parse manifest", slog.Any("error", err))

		return nil, nil, fmt.Errorf("cannot parse manifest: %w", err)
	}

	if vm.Latest == previous {
		s.log.Info("Manifest is unchanged", slog.String("fingerprint", vm.Latest))

		return nil, nil, common.ErrManifestUnchanged
	}

	s.log.Info("Manifest changed", slog.String("previous", previous), slog.String("fingerprint", vm.Latest), slog.Int("count", len(vm.Versions)))

	versions, report, err := s.store.Fetch(ctx, vm.Versions)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot fetch versions: %w", err)
	}
	if report == nil {
		report = &entity.Report{}
	}

	curated, err := s.supplement.Versions()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot load supplement: %w", err)
	}

	// Curated versions go after remote ones so that equal release times keep
	// the remote version first.
	versions = append(versions, curated...)

	sorted, err := s.sort(versions, report)
	if err != nil {
		return nil, nil, err
	}

	return &entity.Manifest{
		Fingerprint: vm.Latest,
		Versions:    sorted,
	}, report, nil
}

type keyedVersion struct {
	v *entity.Version
	t time.Time
}

// sort drops versions that cannot be ordered and stable sorts the rest newest first.
func (s *ManifestService) sort(versions []*entity.Version, report *entity.Report) ([]*entity.Version, error) {
	keyed := make([]keyedVersion, 0, len(versions))
	for _, v := range versions {
		var reject error

		if v.ID == "" {
			reject = fmt.Errorf("%w: %s", common.ErrMissingID, v.URL)
		} else if t, err := v.ReleasedAt(); err != nil {
			reject = fmt.Errorf("%w: %q: %v", common.ErrStaleTimestamp, v.ReleaseTime, err)
		} else {
			keyed = append(keyed, keyedVersion{v: v, t: t})

			continue
		}

		if s.cfg.FailFast {
			return nil, fmt.Errorf("cannot place version %s: %w", v.ID, reject)
		}

		s.log.Warn("Reject version", slog.String("id", v.ID), slog.String("url", v.URL), slog.Any("error", reject))
		report.Add(v.ID, v.URL, reject)
	}

	slices.SortStableFunc(keyed, func(a, b keyedVersion) int {
		return b.t.Compare(a.t)
	})

	sorted := make([]*entity.Version, 0, len(keyed))
	for _, k := range keyed {
		sorted = append(sorted, k.v)
	}

	return sorted, nil
}
