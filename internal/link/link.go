// Package link resolves remote URLs into partial asset records. Provider
// URLs (YouTube, Vimeo) are matched by an ordered list of (matcher,
// handler) pairs; everything else falls through to a generic fetch.
package link

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/assetpipe/assetpipe/internal/asset"
)

// Placeholder dimensions assigned to provider embeds when the provider
// reports none.
const (
	embedWidth  = 560
	embedHeight = 340
)

const defaultTimeout = 30 * time.Second

// Options carry per-call configuration resolved from settings.
type Options struct {
	YouTubeAPIKey string
}

// Config carries construction-time configuration. Zero values select the
// real provider endpoints and a timeout-bearing default client.
type Config struct {
	HTTPClient *http.Client
	// Endpoint overrides, used by tests.
	YouTubeAPIBase   string
	YouTubeImageBase string
	VimeoAPIBase     string
}

// provider pairs a URL matcher with its fetch handler. The list order is
// the dispatch precedence; the generic handler matches everything and
// must stay last.
type provider struct {
	name  string
	match func(raw string) bool
	fetch func(ctx context.Context, raw string, opts Options) (asset.Record, error)
}

// Fetcher resolves URLs via an ordered provider list.
type Fetcher struct {
	client    *http.Client
	logger    *slog.Logger
	providers []provider
	now       func() time.Time
}

// NewFetcher creates a fetcher with the YouTube, Vimeo and generic
// handlers in that order.
func NewFetcher(log *slog.Logger, cfg Config) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	f := &Fetcher{
		client: client,
		logger: log.With(slog.String("service", "link")),
		now:    time.Now,
	}

	youtube := &youtubeProvider{
		fetcher:   f,
		apiBase:   defaulted(cfg.YouTubeAPIBase, "https://www.googleapis.com/youtube/v3"),
		imageBase: defaulted(cfg.YouTubeImageBase, "https://img.youtube.com"),
	}
	vimeo := &vimeoProvider{
		fetcher: f,
		apiBase: defaulted(cfg.VimeoAPIBase, "https://vimeo.com/api/v2"),
	}
	generic := &genericProvider{fetcher: f}

	f.providers = []provider{
		{name: "YouTube", match: matchSubstring("youtube.com"), fetch: youtube.fetch},
		{name: "Vimeo", match: matchSubstring("vimeo.com"), fetch: vimeo.fetch},
		{name: "generic", match: func(string) bool { return true }, fetch: generic.fetch},
	}
	return f
}

// Fetch resolves raw into a partial asset record using the first
// matching provider.
func (f *Fetcher) Fetch(ctx context.Context, raw string, opts Options) (asset.Record, error) {
	for _, p := range f.providers {
		if p.match(raw) {
			return p.fetch(ctx, raw, opts)
		}
	}
	// Unreachable: the generic provider matches every URL.
	return asset.Record{}, fmt.Errorf("no provider matched %s", raw)
}

// get issues a GET and returns the full body. Non-2xx statuses are
// errors.
func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func matchSubstring(needle string) func(string) bool {
	return func(raw string) bool {
		return strings.Contains(raw, needle)
	}
}

func defaulted(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
