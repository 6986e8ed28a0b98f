package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// HTTPStatusError is returned when the remote server answers with a non-2xx status
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %s", e.URL, e.Status)
}

// Fetcher downloads a remote file in fixed-size chunks
type Fetcher struct {
	client    *http.Client
	chunkSize int
	progress  io.Writer
}

// NewFetcher creates a fetcher. progress receives the download bar; use io.Discard to hide it.
func NewFetcher(timeout time.Duration, chunkSize int, progress io.Writer) *Fetcher {
	if chunkSize <= 0 {
		chunkSize = 8192
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		chunkSize: chunkSize,
		progress:  progress,
	}
}

// Fetch streams url into dest. The request is never retried.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPStatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	bar := progressbar.NewOptions64(resp.ContentLength,
		progressbar.OptionSetWriter(f.progress),
		progressbar.OptionSetDescription("reference"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	buf := make([]byte, f.chunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				return fmt.Errorf("failed to write %s: %w", dest, err)
			}
			_ = bar.Add(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("failed to read response from %s: %w", url, readErr)
		}
	}
	_ = bar.Finish()

	return out.Close()
}
