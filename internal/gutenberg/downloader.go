package gutenberg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mterris/gutensearch/internal/errs"
)

// Downloader fetches raw book text from a Gutenberg mirror, trying an
// explicit ordered list of URL templates and returning the first HTTP-200
// body. The candidate list is semantically significant (the first 2xx
// wins), so it is never reordered "for optimization".
type Downloader struct {
	baseURL string
	client  *http.Client
}

// NewDownloader builds a Downloader against baseURL with the given
// connect+read timeout.
func NewDownloader(baseURL string, timeout time.Duration) *Downloader {
	return &Downloader{
		baseURL: baseURL,
		client:  newClient(timeout),
	}
}

// candidates returns the ordered list of URLs to try for id, derived from
// the base URL. Gutenberg mirrors this book under a few conventional paths;
// we try the most specific first.
func (d *Downloader) candidates(id int64) []string {
	return []string{
		fmt.Sprintf("%s/files/%d/%d-0.txt", d.baseURL, id, id),
		fmt.Sprintf("%s/cache/epub/%d/pg%d.txt", d.baseURL, id, id),
		fmt.Sprintf("%s/files/%d/%d.txt", d.baseURL, id, id),
		fmt.Sprintf("%s/ebooks/%d.txt.utf-8", d.baseURL, id),
	}
}

// Download returns the raw text of book id, trying each candidate URL in
// order. HTTP 404/410 on a candidate is not fatal — the next candidate is
// tried — but if every candidate 404s/410s, errs.ErrNotFound is returned.
// Any other non-2xx response is a retryable errs.ErrTransport.
func (d *Downloader) Download(ctx context.Context, id int64) (string, error) {
	var lastErr error
	allNotFound := true

	for _, url := range d.candidates(id) {
		body, err := d.fetch(ctx, url)
		switch {
		case err == nil:
			return body, nil
		case isNotFound(err):
			lastErr = err
		default:
			allNotFound = false
			lastErr = err
		}
	}

	if allNotFound && lastErr != nil {
		return "", fmt.Errorf("book %d not found at any mirror path: %w", id, errs.ErrNotFound)
	}
	return "", fmt.Errorf("downloading book %d: %w", id, lastErr)
}

func (d *Downloader) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", errs.ErrTransport)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", url, errs.ErrTransport)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("reading response body: %w", errs.ErrTransport)
		}
		return string(data), nil
	case http.StatusNotFound, http.StatusGone:
		return "", fmt.Errorf("%s returned %d: %w", url, resp.StatusCode, errs.ErrNotFound)
	default:
		return "", fmt.Errorf("%s returned %d: %w", url, resp.StatusCode, errs.ErrTransport)
	}
}

func isNotFound(err error) bool {
	return err != nil && errors.Is(err, errs.ErrNotFound)
}
