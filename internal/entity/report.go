package entity

// SkippedVersion is a version that could not be placed into the manifest.
type SkippedVersion struct {
	ID  string
	URL string
	Err error
}

// Report collects entry-level failures of a build.
type Report struct {
	Skipped []SkippedVersion
}

func (r *Report) Add(id, url string, err error) {
	r.Skipped = append(r.Skipped, SkippedVersion{ID: id, URL: url, Err: err})
}

func (r *Report) Empty() bool {
	return r == nil || len(r.Skipped) == 0
}
