package mdadapter

import (
	"fmt"

	"github.com/jgivc/versiontracker/internal/entity"
)

type versionResolver struct {
	versions []*entity.Version
	index    map[string]int
}

func NewVersionResolver(versions []*entity.Version) *versionResolver {
	index := make(map[string]int, len(versions))
	for i, v := range versions {
		if _, exists := index[v.ID]; !exists {
			index[v.ID] = i
		}
	}

	return &versionResolver{versions: versions, index: index}
}

func (r *versionResolver) GetVersion(id string) (*entity.Version, error) {
	if idx, ok := r.index[id]; ok {
		return r.versions[idx], nil
	}

	return nil, fmt.Errorf("cannot find version: %s", id)
}

func (r *versionResolver) GetVersions() []*entity.Version {
	return r.versions
}
