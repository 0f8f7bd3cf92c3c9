package tle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultSourceURL = "https://celestrak.org/NORAD/elements/gp.php?GROUP=active&FORMAT=tle"

// maxBodyBytes caps a single feed response. A full CelesTrak group is a few
// MB; anything near this limit is a broken or hostile upstream.
const maxBodyBytes = 50 << 20

// Fetcher retrieves raw TLE text from one or more remote sources.
type Fetcher struct {
	sourceURL  string
	extraURLs  []string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher for the given source URL, falling back to the
// default CelesTrak feed when empty.
func NewFetcher(sourceURL string, extraURLs []string, logger *slog.Logger) *Fetcher {
	if sourceURL == "" {
		sourceURL = defaultSourceURL
	}
	return &Fetcher{
		sourceURL: sourceURL,
		extraURLs: extraURLs,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// SourceURL returns the configured primary source URL.
func (f *Fetcher) SourceURL() string {
	return f.sourceURL
}

// Fetch retrieves raw TLE text from the primary source followed by any extra
// sources, concatenated with a separating newline. A failed extra source is
// logged and skipped; a failed primary source is an error.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	primary, err := f.fetchOne(ctx, f.sourceURL)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.Write(primary)

	for _, u := range f.extraURLs {
		data, err := f.fetchOne(ctx, u)
		if err != nil {
			f.logger.Warn("extra TLE source failed", "url", u, "error", err)
			continue
		}
		if sb.Len() > 0 && sb.String()[sb.Len()-1] != '\n' {
			sb.WriteByte('\n')
		}
		sb.Write(data)
	}

	return []byte(sb.String()), nil
}

func (f *Fetcher) fetchOne(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching TLE data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("response from %s exceeds %d byte limit", url, maxBodyBytes)
	}

	return body, nil
}
