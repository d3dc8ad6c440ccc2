package manifest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/jgivc/versiontracker/internal/common"
	"github.com/jgivc/versiontracker/internal/config"
	"github.com/jgivc/versiontracker/internal/entity"
	"github.com/jgivc/versiontracker/internal/storage/version"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const manifestURL = "http://x/version_manifest.json"

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchText(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(url)

	var data []byte
	if d, ok := args.Get(0).([]byte); ok {
		data = d
	}

	return data, args.Error(1)
}

type staticSupplement []*entity.Version

func (s staticSupplement) Versions() ([]*entity.Version, error) {
	return s, nil
}

func manifestDoc(release, snapshot string, ids ...string) []byte {
	versions := ""
	for i, id := range ids {
		if i > 0 {
			versions += ","
		}
		versions += fmt.Sprintf(`{"id": %q, "type": "release", "url": "http://x/%s.json"}`, id, id)
	}

	return []byte(fmt.Sprintf(`{"latest": {"release": %q, "snapshot": %q}, "versions": [%s]}`, release, snapshot, versions))
}

func detail(id, typ, releaseTime string) []byte {
	return []byte(fmt.Sprintf(`{"id": %q, "type": %q, "releaseTime": %q}`, id, typ, releaseTime))
}

func newService(m *MockFetcher, supplement staticSupplement, failFast bool) *ManifestService {
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	cfg := &config.BuilderConfig{ManifestURL: manifestURL, Workers: 4, FailFast: failFast}
	store := version.NewVersionStorage(m, cfg, log)

	return NewManifestService(m, store, supplement, cfg, log)
}

func ids(m *entity.Manifest) []string {
	res := make([]string, 0, len(m.Versions))
	for _, v := range m.Versions {
		res = append(res, v.ID)
	}

	return res
}

func TestBuildUnchanged(t *testing.T) {
	m := new(MockFetcher)
	m.On("FetchText", manifestURL).Return(manifestDoc("1.20.1", "23w31a", "1.20.1", "23w31a"), nil)

	s := newService(m, nil, false)
	manifest, report, err := s.Build(context.Background(), "1.20.1/23w31a")
	require.ErrorIs(t, err, common.ErrManifestUnchanged)
	require.Nil(t, manifest)
	require.Nil(t, report)

	m.AssertNumberOfCalls(t, "FetchText", 1)
}

func TestBuildEndToEnd(t *testing.T) {
	m := new(MockFetcher)
	m.On("FetchText", manifestURL).Return(manifestDoc("1.20.1", "23w31a", "1.20.1"), nil)
	m.On("FetchText", "http://x/1.20.1.json").Return([]byte(`{"id": "1.20.1", "type": "release",
		"releaseTime": "2023-06-12T09:00:00+00:00",
		"downloads": {"server": {"sha1": "abc123", "size": 100, "url": "http://x/server.jar"}}}`), nil)

	s := newService(m, nil, false)
	manifest, report, err := s.Build(context.Background(), "")
	require.NoError(t, err)
	require.True(t, report.Empty())

	require.Equal(t, "1.20.1/23w31a", manifest.Fingerprint)
	require.Len(t, manifest.Versions, 1)

	v := manifest.Versions[0]
	require.Equal(t, "1.20.1", v.ID)
	require.Equal(t, entity.TypeRelease, v.Type)
	require.Equal(t, "http://x/1.20.1.json", v.URL)
	require.NotNil(t, v.Server)
	require.Equal(t, "abc123", v.Server.SHA1)
	require.NotNil(t, v.Server.Size)
	require.EqualValues(t, 100, *v.Server.Size)
	require.Equal(t, "http://x/server.jar", v.Server.URL)
	require.Nil(t, v.ServerMappings)

	m.AssertExpectations(t)
}

func TestBuildSortAndSupplement(t *testing.T) {
	m := new(MockFetcher)
	m.On("FetchText", manifestURL).Return(manifestDoc("1.18", "21w37a", "old", "tie1", "new", "tie2", "bad", "noid"), nil)
	m.On("FetchText", "http://x/old.json").Return(detail("old", "release", "2021-01-01T00:00:00+00:00"), nil)
	m.On("FetchText", "http://x/tie1.json").Return(detail("tie1", "snapshot", "2021-09-03T00:00:00+00:00"), nil)
	m.On("FetchText", "http://x/new.json").Return(detail("new", "release", "2021-11-30T00:00:00Z"), nil)
	m.On("FetchText", "http://x/tie2.json").Return(detail("tie2", "snapshot", "2021-09-03T00:00:00+00:00"), nil)
	m.On("FetchText", "http://x/bad.json").Return(detail("bad", "snapshot", "yesterday"), nil)
	m.On("FetchText", "http://x/noid.json").Return([]byte(`{"releaseTime": "2021-01-01T00:00:00+00:00"}`), nil)

	supplement := staticSupplement{
		{ID: "exp3", Type: entity.TypeExperimental, ReleaseTime: "2021-09-03T00:00:00+00:00", Server: &entity.Download{URL: "http://x/3.zip"}},
		{ID: "exp1", Type: entity.TypeExperimental, ReleaseTime: "2021-09-01T00:00:00+00:00", Server: &entity.Download{URL: "http://x/1.zip"}},
	}

	s := newService(m, supplement, false)
	manifest, report, err := s.Build(context.Background(), "1.17.1/21w20a")
	require.NoError(t, err)

	require.Equal(t, []string{"new", "tie1", "tie2", "exp3", "exp1", "old"}, ids(manifest))

	for i := 1; i < len(manifest.Versions); i++ {
		prev, err := manifest.Versions[i-1].ReleasedAt()
		require.NoError(t, err)
		cur, err := manifest.Versions[i].ReleasedAt()
		require.NoError(t, err)
		require.False(t, cur.After(prev))
	}

	for _, v := range manifest.Versions {
		if v.Type == entity.TypeExperimental {
			require.Empty(t, v.URL)
		}
	}

	require.Len(t, report.Skipped, 2)
	require.Equal(t, "bad", report.Skipped[0].ID)
	require.ErrorIs(t, report.Skipped[0].Err, common.ErrStaleTimestamp)
	require.ErrorIs(t, report.Skipped[1].Err, common.ErrMissingID)
}

func TestBuildFailFastRejectsStaleTimestamp(t *testing.T) {
	m := new(MockFetcher)
	m.On("FetchText", manifestURL).Return(manifestDoc("1", "2", "bad"), nil)
	m.On("FetchText", "http://x/bad.json").Return(detail("bad", "release", "not a time"), nil)

	s := newService(m, nil, true)
	_, _, err := s.Build(context.Background(), "")
	require.ErrorIs(t, err, common.ErrStaleTimestamp)
}

func TestBuildManifestFailures(t *testing.T) {
	testCases := []struct {
		name      string
		data      []byte
		err       error
		expectErr error
	}{
		{name: "network", err: common.ErrNetwork, expectErr: common.ErrNetwork},
		{name: "not found", err: common.ErrNotFound, expectErr: common.ErrNotFound},
		{name: "malformed", data: []byte(`{"versions": []}`), expectErr: common.ErrMalformedDocument},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := new(MockFetcher)
			m.On("FetchText", manifestURL).Return(tc.data, tc.err)

			s := newService(m, staticSupplement{{ID: "exp", ReleaseTime: "2021-09-01"}}, false)
			manifest, _, err := s.Build(context.Background(), "")
			require.ErrorIs(t, err, tc.expectErr)
			require.Nil(t, manifest)
			m.AssertNumberOfCalls(t, "FetchText", 1)
		})
	}
}
