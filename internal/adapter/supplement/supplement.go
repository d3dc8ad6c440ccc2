package supplement

import (
	"fmt"
	"log/slog"

	_ "embed"

	"github.com/jgivc/versiontracker/internal/entity"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

//go:embed experimental.yml
var defaultSupplement []byte

type curatedVersion struct {
	ID          string `yaml:"id"`
	Type        string `yaml:"type"`
	ReleaseTime string `yaml:"release_time"`
	ServerURL   string `yaml:"server_url"`
}

type curatedList struct {
	Version  int              `yaml:"version"`
	Versions []curatedVersion `yaml:"versions"`
}

// Source provides the hand maintained versions the remote manifest omits.
type Source struct {
	fs       afero.Fs
	fileName string
	log      *slog.Logger
}

// NewSource reads fileName from fs, or the embedded list when fileName is empty.
func NewSource(fs afero.Fs, fileName string, log *slog.Logger) *Source {
	return &Source{
		fs:       fs,
		fileName: fileName,
		log:      log.With(slog.String("item", "Supplement")),
	}
}

func (s *Source) Versions() ([]*entity.Version, error) {
	data := defaultSupplement
	if s.fileName != "" {
		var err error
		data, err = afero.ReadFile(s.fs, s.fileName)
		if err != nil {
			return nil, fmt.Errorf("cannot read supplement file %s: %w", s.fileName, err)
		}
	}

	versions, listVersion, err := Parse(data)
	if err != nil {
		return nil, err
	}

	s.log.Debug("Loaded supplement", slog.Int("list_version", listVersion), slog.Int("count", len(versions)))

	return versions, nil
}

// Parse decodes a curated list. Every entry must be experimental and carry a
// server url; hash and size are never known for curated builds.
func Parse(data []byte) ([]*entity.Version, int, error) {
	var list curatedList
	if err := yaml.UnmarshalStrict(data, &list); err != nil {
		return nil, 0, fmt.Errorf("cannot parse supplement: %w", err)
	}

	versions := make([]*entity.Version, 0, len(list.Versions))
	for i, cv := range list.Versions {
		if cv.ID == "" {
			return nil, 0, fmt.Errorf("supplement entry %d: id is empty", i)
		}

		if cv.Type != entity.TypeExperimental {
			return nil, 0, fmt.Errorf("supplement entry %s: type must be %s, got %q", cv.ID, entity.TypeExperimental, cv.Type)
		}

		if cv.ServerURL == "" {
			return nil, 0, fmt.Errorf("supplement entry %s: server_url is empty", cv.ID)
		}

		versions = append(versions, &entity.Version{
			ID:          cv.ID,
			Type:        cv.Type,
			ReleaseTime: cv.ReleaseTime,
			Server:      &entity.Download{URL: cv.ServerURL},
		})
	}

	return versions, list.Version, nil
}
