package entity

import "time"

const (
	TypeRelease      = "release"
	TypeSnapshot     = "snapshot"
	TypeOldBeta      = "old_beta"
	TypeOldAlpha     = "old_alpha"
	TypeExperimental = "experimental"
)

// Download is one downloadable artifact of a version.
type Download struct {
	SHA1 string // Empty when the source does not publish a hash
	Size *int64 // nil when the size is unknown
	URL  string
}

// Version is one catalog entry. It is built either from a remote detail
// document or taken from the curated supplement.
type Version struct {
	URL            string // Detail document the version was built from, empty for curated versions
	ID             string
	Type           string
	ReleaseTime    string // ISO-8601, sort key
	Server         *Download
	ServerMappings *Download
}

// Manifest is the catalog produced by one run, newest first.
type Manifest struct {
	Fingerprint string
	Versions    []*Version
}

// VersionRef is one entry of the remote manifest version list.
type VersionRef struct {
	ID   string
	Type string
	URL  string
}

var releaseTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02",
}

// ReleasedAt parses ReleaseTime. Values without a zone are taken as UTC.
func (v *Version) ReleasedAt() (time.Time, error) {
	var lastErr error
	for _, layout := range releaseTimeLayouts {
		t, err := time.Parse(layout, v.ReleaseTime)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return time.Time{}, lastErr
}
