package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	appLog "maintcal/internal/log"
	"maintcal/internal/metrics"
)

// FetchResult is the outcome of fetching a remote requirement file.
type FetchResult struct {
	URL       string
	Body      []byte
	FromCache bool // true if the cached body was reused (304 or fallback)
}

// cacheEntry holds HTTP cache metadata for a single URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads requirement files with conditional requests
// (ETag / Last-Modified) and a disk-backed cache. When the network or the
// server fails, the last cached body is served instead.
type Fetcher struct {
	client   *resty.Client
	cacheDir string
}

// NewFetcher creates a Fetcher caching under cacheDir, one subdirectory per
// URL.
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./data/fetch-cache"
	}
	client := resty.New().
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	return &Fetcher{client: client, cacheDir: cacheDir}
}

// Fetch downloads url, honoring the cache.
func (f *Fetcher) Fetch(ctx context.Context, url string) (FetchResult, error) {
	if url == "" {
		return FetchResult{}, errors.New("source URL is empty")
	}

	cachePath := f.cachePathForURL(url)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return FetchResult{}, errors.Wrap(err, "create fetch cache dir")
	}

	meta, _ := loadCacheMeta(cachePath)
	cachedBody, _ := os.ReadFile(filepath.Join(cachePath, "body"))

	req := f.client.R().SetContext(ctx)
	if meta.ETag != "" {
		req.SetHeader("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.SetHeader("If-Modified-Since", meta.LastModified)
	}

	appLog.Info("requirements fetch start", "url", redactURL(url))

	resp, err := req.Get(url)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("requirements fetch network error, using cached body", err, "url", redactURL(url))
			metrics.SourceFetches.WithLabelValues("cached").Inc()
			return FetchResult{URL: url, Body: cachedBody, FromCache: true}, nil
		}
		metrics.SourceFetches.WithLabelValues("error").Inc()
		return FetchResult{}, errors.Wrapf(err, "fetch %s", redactURL(url))
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		body := resp.Body()
		newMeta := cacheEntry{
			URL:          url,
			ETag:         resp.Header().Get("ETag"),
			LastModified: resp.Header().Get("Last-Modified"),
		}
		if err := saveCache(cachePath, newMeta, body); err != nil {
			appLog.Error("requirements cache save failed", err, "url", redactURL(url))
		}
		appLog.Info("requirements fetch success", "url", redactURL(url), "bytes", len(body))
		metrics.SourceFetches.WithLabelValues("fetched").Inc()
		return FetchResult{URL: url, Body: body}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			metrics.SourceFetches.WithLabelValues("error").Inc()
			return FetchResult{}, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Info("requirements not modified; using cache", "url", redactURL(url))
		metrics.SourceFetches.WithLabelValues("not_modified").Inc()
		return FetchResult{URL: url, Body: cachedBody, FromCache: true}, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("requirements fetch non-OK, using cached body", errors.New(resp.Status()), "url", redactURL(url), "status", resp.StatusCode())
			metrics.SourceFetches.WithLabelValues("cached").Inc()
			return FetchResult{URL: url, Body: cachedBody, FromCache: true}, nil
		}
		metrics.SourceFetches.WithLabelValues("error").Inc()
		return FetchResult{}, errors.Errorf("fetch %s: %s", redactURL(url), resp.Status())
	}
}

func (f *Fetcher) cachePathForURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL keeps only scheme and host, hiding tokens in paths and queries.
//
//	https://example.com/private/list.xlsx?token=abcd -> https://example.com/...(redacted)
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "url://...(redacted)"
	}
	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}
	return u[:j] + redactedSuffix
}
