package jsonadapter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jgivc/versiontracker/internal/common"
	"github.com/jgivc/versiontracker/internal/entity"
)

// object keeps field values undecoded so that each one can be read on its
// own. A missing or wrong-typed field resolves to absent.
type object map[string]json.RawMessage

// ParseVersion normalizes one version detail document. Absent or wrong-typed
// fields never fail; only data that is not a JSON object yields
// common.ErrMalformedDocument.
func ParseVersion(url string, data []byte) (*entity.Version, error) {
	var doc object
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: version %s: %v", common.ErrMalformedDocument, url, err)
	}

	if doc == nil {
		return nil, fmt.Errorf("%w: version %s: document is null", common.ErrMalformedDocument, url)
	}

	v := &entity.Version{
		URL:         url,
		ID:          doc.str("id"),
		Type:        doc.str("type"),
		ReleaseTime: doc.str("releaseTime"),
	}

	if downloads := doc.child("downloads"); downloads != nil {
		v.Server = toDownload(downloads.child("server"))
		v.ServerMappings = toDownload(downloads.child("server_mappings"))
	}

	return v, nil
}

// toDownload returns nil for an absent object and for one without url, since
// a download cannot exist without a location.
func toDownload(d object) *entity.Download {
	if d == nil {
		return nil
	}

	url := d.str("url")
	if url == "" {
		return nil
	}

	return &entity.Download{
		SHA1: d.str("sha1"),
		Size: d.number("size"),
		URL:  url,
	}
}

func (o object) value(key string) (json.RawMessage, bool) {
	raw, ok := o[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}

	return raw, true
}

func (o object) str(key string) string {
	raw, ok := o.value(key)
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}

	return s
}

func (o object) number(key string) *int64 {
	raw, ok := o.value(key)
	if !ok {
		return nil
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}

	return &n
}

func (o object) child(key string) object {
	raw, ok := o.value(key)
	if !ok {
		return nil
	}

	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}

	return obj
}
