package jsonadapter

import (
	"encoding/json"
	"fmt"

	"github.com/jgivc/versiontracker/internal/common"
	"github.com/jgivc/versiontracker/internal/entity"
)

type rawLatest struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

type rawRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

type rawManifest struct {
	Latest   *rawLatest `json:"latest"`
	Versions []rawRef   `json:"versions"`
}

// VersionManifest is the parsed top level document.
type VersionManifest struct {
	Latest   string // fingerprint, "<release>/<snapshot>"
	Versions []entity.VersionRef
}

func ParseManifest(data []byte) (*VersionManifest, error) {
	var raw *rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: manifest: %v", common.ErrMalformedDocument, err)
	}

	if raw == nil || raw.Latest == nil {
		return nil, fmt.Errorf("%w: manifest: latest section is missing", common.ErrMalformedDocument)
	}

	if raw.Latest.Release == "" || raw.Latest.Snapshot == "" {
		return nil, fmt.Errorf("%w: manifest: latest release or snapshot is empty", common.ErrMalformedDocument)
	}

	vm := &VersionManifest{
		Latest:   Fingerprint(raw.Latest.Release, raw.Latest.Snapshot),
		Versions: make([]entity.VersionRef, 0, len(raw.Versions)),
	}

	for _, ref := range raw.Versions {
		vm.Versions = append(vm.Versions, entity.VersionRef{ID: ref.ID, Type: ref.Type, URL: ref.URL})
	}

	return vm, nil
}

func Fingerprint(release, snapshot string) string {
	return release + "/" + snapshot
}
