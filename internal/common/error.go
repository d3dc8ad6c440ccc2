package common

import "fmt"

var (
	ErrNetwork             = fmt.Errorf("network error")
	ErrNotFound            = fmt.Errorf("document not found")
	ErrMalformedDocument   = fmt.Errorf("malformed document")
	ErrStaleTimestamp      = fmt.Errorf("cannot parse release time")
	ErrMissingID           = fmt.Errorf("version id is missing")
	ErrManifestUnchanged   = fmt.Errorf("manifest is unchanged")
	ErrBuildAlreadyStarted = fmt.Errorf("build process has already started")
	ErrRunLocked           = fmt.Errorf("another run holds the output lock")
)
