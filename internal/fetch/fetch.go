// Package fetch defines the artifact-fetch capability the provisioning
// pipeline consumes. The pipeline never performs raw transport itself; an
// implementation of Fetcher is injected by the caller and is substitutable
// with an in-memory double in tests.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Fetcher streams the content at a URL into a writer. Implementations own
// timeouts and retries at the transport level; a transport timeout surfaces
// here as an ordinary error and is wrapped into a DownloadError by the
// helpers below.
type Fetcher interface {
	Fetch(ctx context.Context, url string, w io.Writer) error
}

// DownloadError reports a failed transfer. Retryable by the caller with
// bounded attempts.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// HTTPFetcher is the default Fetcher backed by net/http.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher creates a fetcher using the default HTTP client.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{}}
}

// Fetch downloads url into w.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	_, err = io.Copy(w, resp.Body)
	return err
}

// Bytes fetches a URL into memory. Intended for manifest-sized documents,
// not artifacts.
func Bytes(ctx context.Context, f Fetcher, url string) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Fetch(ctx, url, &buf); err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}
	return buf.Bytes(), nil
}

// ToFile streams a URL to dest, creating parent directories as needed. On
// any failure, including context cancellation mid-transfer, the partially
// written file is removed so an aborted download never looks complete.
func ToFile(ctx context.Context, f Fetcher, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}

	file, err := os.Create(dest) // #nosec G304 - dest derives from manifest-declared paths under a caller-chosen root
	if err != nil {
		return fmt.Errorf("creating destination file: %w", err)
	}

	if err := f.Fetch(ctx, url, file); err != nil {
		_ = file.Close()
		_ = os.Remove(dest)
		return &DownloadError{URL: url, Err: err}
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(dest)
		return &DownloadError{URL: url, Err: err}
	}
	return nil
}
