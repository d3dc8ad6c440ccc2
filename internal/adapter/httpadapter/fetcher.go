package httpadapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jgivc/versiontracker/internal/common"
	"github.com/jgivc/versiontracker/internal/config"
)

// Fetcher retrieves raw documents over HTTP. It never retries and never caches.
type Fetcher struct {
	cl  *http.Client
	cfg *config.FetcherConfig
	log *slog.Logger
}

func NewFetcher(cfg *config.FetcherConfig, log *slog.Logger) *Fetcher {
	return NewFetcherWithClient(&http.Client{Timeout: cfg.Timeout}, cfg, log)
}

func NewFetcherWithClient(cl *http.Client, cfg *config.FetcherConfig, log *slog.Logger) *Fetcher {
	return &Fetcher{
		cl:  cl,
		cfg: cfg,
		log: log.With(slog.String("item", "Fetcher")),
	}
}

func (f *Fetcher) FetchText(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot create request for %s: %v", common.ErrNetwork, url, err)
	}

	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	resp, err := f.cl.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot get %s: %v", common.ErrNetwork, url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: %s: %s", common.ErrNotFound, url, resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %s: %s", common.ErrNetwork, url, resp.Status)
	}

	var body io.Reader = resp.Body
	if f.cfg.MaxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, f.cfg.MaxBodyBytes+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %s: %v", common.ErrNetwork, url, err)
	}

	if f.cfg.MaxBodyBytes > 0 && int64(len(data)) > f.cfg.MaxBodyBytes {
		return nil, fmt.Errorf("%w: %s: body exceeds %d bytes", common.ErrNetwork, url, f.cfg.MaxBodyBytes)
	}

	f.log.Debug("Fetched", slog.String("url", url), slog.Int("bytes", len(data)))

	return data, nil
}
