package version

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/jgivc/versiontracker/internal/common"
	"github.com/jgivc/versiontracker/internal/config"
	"github.com/jgivc/versiontracker/internal/entity"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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

func detail(id, releaseTime string) []byte {
	return []byte(fmt.Sprintf(`{"id": %q, "type": "release", "releaseTime": %q}`, id, releaseTime))
}

func refs(ids ...string) []entity.VersionRef {
	r := make([]entity.VersionRef, 0, len(ids))
	for _, id := range ids {
		r = append(r, entity.VersionRef{ID: id, URL: "http://x/" + id + ".json"})
	}

	return r
}

func TestFetch(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	testCases := []struct {
		name        string
		refs        []entity.VersionRef
		failFast    bool
		setup       func(m *MockFetcher)
		expectError error
		expectIDs   []string
		skipped     []string
	}{
		{
			name:      "empty manifest",
			refs:      nil,
			setup:     func(m *MockFetcher) {},
			expectIDs: []string{},
		},
		{
			name: "order follows refs",
			refs: refs("a", "b", "c", "d", "e", "f", "g", "h", "i", "j"),
			setup: func(m *MockFetcher) {
				for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
					m.On("FetchText", "http://x/"+id+".json").Return(detail(id, "2023-01-01T00:00:00+00:00"), nil)
				}
			},
			expectIDs: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
		},
		{
			name: "failures are skipped and reported",
			refs: append(refs("a", "b", "c"), entity.VersionRef{ID: "nourl"}),
			setup: func(m *MockFetcher) {
				m.On("FetchText", "http://x/a.json").Return(detail("a", "2023-01-01T00:00:00+00:00"), nil)
				m.On("FetchText", "http://x/b.json").Return(nil, common.ErrNotFound)
				m.On("FetchText", "http://x/c.json").Return([]byte("not json"), nil)
			},
			expectIDs: []string{"a"},
			skipped:   []string{"b", "c", "nourl"},
		},
		{
			name:     "fail fast aborts",
			refs:     refs("a", "b"),
			failFast: true,
			setup: func(m *MockFetcher) {
				m.On("FetchText", "http://x/a.json").Return(detail("a", "2023-01-01T00:00:00+00:00"), nil).Maybe()
				m.On("FetchText", "http://x/b.json").Return(nil, common.ErrNetwork)
			},
			expectError: common.ErrNetwork,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := new(MockFetcher)
			tc.setup(m)

			cfg := &config.BuilderConfig{Workers: 3, FailFast: tc.failFast}
			s := NewVersionStorage(m, cfg, log)

			versions, report, err := s.Fetch(context.Background(), tc.refs)
			if tc.expectError != nil {
				require.ErrorIs(t, err, tc.expectError)
				return
			}

			require.NoError(t, err)

			ids := make([]string, 0, len(versions))
			for _, v := range versions {
				ids = append(ids, v.ID)
			}
			require.Equal(t, tc.expectIDs, ids)

			skipped := make([]string, 0, len(report.Skipped))
			for _, sv := range report.Skipped {
				require.Error(t, sv.Err)
				skipped = append(skipped, sv.ID)
			}
			require.ElementsMatch(t, tc.skipped, skipped)

			m.AssertExpectations(t)
		})
	}
}

func TestFetchCanceled(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	m := new(MockFetcher)
	s := NewVersionStorage(m, &config.BuilderConfig{Workers: 2}, log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.Fetch(ctx, refs("a", "b"))
	require.ErrorIs(t, err, context.Canceled)
	m.AssertNotCalled(t, "FetchText", mock.Anything)
}

func TestFetchAlreadyStarted(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	started := make(chan struct{})
	release := make(chan struct{})

	m := new(MockFetcher)
	m.On("FetchText", "http://x/a.json").Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(detail("a", "2023-01-01T00:00:00+00:00"), nil).Once()
	m.On("FetchText", "http://x/b.json").Return(detail("b", "2023-01-02T00:00:00+00:00"), nil).Once()

	s := NewVersionStorage(m, &config.BuilderConfig{Workers: 1}, log)

	type fetched struct {
		versions []*entity.Version
		err      error
	}
	done := make(chan fetched)
	go func() {
		versions, _, err := s.Fetch(context.Background(), refs("a"))
		done <- fetched{versions: versions, err: err}
	}()

	<-started

	_, _, err := s.Fetch(context.Background(), refs("b"))
	require.ErrorIs(t, err, common.ErrBuildAlreadyStarted)

	close(release)
	first := <-done
	require.NoError(t, first.err)
	require.Len(t, first.versions, 1)
	require.Equal(t, "a", first.versions[0].ID)

	versions, _, err := s.Fetch(context.Background(), refs("b"))
	require.NoError(t, err)
	require.Len(t, versions, 1)
	require.Equal(t, "b", versions[0].ID)

	m.AssertExpectations(t)
}
