package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/unkonwuser01/notion-guardian/internal/api"
	"github.com/unkonwuser01/notion-guardian/internal/progress"
)

// DownloadError indicates the archive fetch failed: a transport error, an
// unexpected status code, or a stream that ended before the declared
// content length was received.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Options configures a download.
type Options struct {
	// Progress is an optional progress reporter. The caller owns its
	// Start/Stop lifecycle.
	Progress *progress.Reporter

	// Client is the HTTP client to use.
	// Default: a client without an overall timeout; the archive can be
	// large and the context bounds the download instead.
	Client *http.Client
}

// Download fetches the archive at url, authenticated with fileToken, and
// writes it to destPath. The file appears at destPath only on success.
func Download(ctx context.Context, url, fileToken, destPath string, opts Options) error {
	client := opts.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				IdleConnTimeout: 90 * time.Second,
			},
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &DownloadError{URL: url, Err: fmt.Errorf("create request: %w", err)}
	}
	req.AddCookie(&http.Cookie{Name: api.FileTokenCookie, Value: fileToken})

	resp, err := client.Do(req)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &DownloadError{URL: url, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	if err := writeToFile(resp.Body, resp.ContentLength, destPath, opts.Progress); err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	return nil
}

// writeToFile streams r into destPath via a temporary file. The temporary
// file is renamed into place only after the stream is fully drained and,
// when the length is declared, the byte count matches it.
func writeToFile(r io.Reader, expected int64, destPath string, reporter *progress.Reporter) error {
	tmpPath := destPath + ".partial"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	fail := func(err error) error {
		f.Close()
		os.Remove(tmpPath)
		return err
	}

	buf := make([]byte, 1024*1024)
	var written int64

	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			nw, writeErr := f.Write(buf[:n])
			written += int64(nw)
			if reporter != nil {
				reporter.Add(int64(nw))
			}
			if writeErr != nil {
				return fail(fmt.Errorf("write: %w", writeErr))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fail(fmt.Errorf("read: %w", readErr))
		}
	}

	if expected >= 0 && written != expected {
		return fail(fmt.Errorf("stream ended early: got %d bytes, want %d", written, expected))
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}
