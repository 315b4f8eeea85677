package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// Manifest describes one completed mirror run.
type Manifest struct {
	Prefix      string     `json:"prefix,omitempty"`
	Files       []FileInfo `json:"files"`
	TotalSize   int64      `json:"total_size"`
	CompletedAt time.Time  `json:"completed_at"`
}

// FileInfo describes a single mirrored file. Path is relative to the
// mirrored directory, slash-separated.
type FileInfo struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Options configures a mirror run.
type Options struct {
	// Workers is the number of parallel uploads.
	// Default: 8
	Workers int

	// Logger for upload progress. Default: slog.Default()
	Logger *slog.Logger
}

// Upload copies every file under dir into the bucket at bucketURL, keyed
// under prefix, then writes the manifest. Objects recorded by a previous
// run that no longer exist locally are deleted, so the bucket always
// reflects exactly the latest export.
func Upload(ctx context.Context, bucketURL, prefix, dir string, opts Options) (*Manifest, error) {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("mirror: open bucket: %w", err)
	}
	defer bucket.Close()

	files, total, err := collect(dir)
	if err != nil {
		return nil, fmt.Errorf("mirror: scan %s: %w", dir, err)
	}

	previous, err := readManifest(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}

	log.Info("mirroring export", "bucket", bucketURL, "files", len(files), "bytes", total)

	if err := uploadAll(ctx, bucket, prefix, dir, files, opts.Workers); err != nil {
		return nil, err
	}

	if previous != nil {
		if err := deleteStale(ctx, bucket, prefix, previous, files); err != nil {
			return nil, err
		}
	}

	manifest := &Manifest{
		Prefix:      prefix,
		Files:       files,
		TotalSize:   total,
		CompletedAt: time.Now().UTC(),
	}
	if err := writeManifest(ctx, bucket, prefix, manifest); err != nil {
		return nil, err
	}

	return manifest, nil
}

// collect walks dir and returns every regular file with its size.
func collect(dir string) ([]FileInfo, int64, error) {
	var files []FileInfo
	var total int64

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, FileInfo{Path: filepath.ToSlash(rel), Size: info.Size()})
		total += info.Size()
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return files, total, nil
}

// uploadAll copies the files into the bucket using a worker pool.
func uploadAll(ctx context.Context, bucket *blob.Bucket, prefix, dir string, files []FileInfo, workers int) error {
	if len(files) == 0 {
		return nil
	}
	if workers > len(files) {
		workers = len(files)
	}

	var (
		mu       sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	jobs := make(chan FileInfo)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				if err := uploadFile(ctx, bucket, objectKey(prefix, f.Path), filepath.Join(dir, filepath.FromSlash(f.Path))); err != nil {
					setErr(fmt.Errorf("mirror: upload %s: %w", f.Path, err))
				}
			}
		}()
	}

	for _, f := range files {
		if ctx.Err() != nil {
			setErr(ctx.Err())
			break
		}
		select {
		case jobs <- f:
		case <-ctx.Done():
			setErr(ctx.Err())
		}
	}
	close(jobs)
	wg.Wait()

	return firstErr
}

func uploadFile(ctx context.Context, bucket *blob.Bucket, key, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// deleteStale removes objects recorded by the previous run that are not
// part of the current file set.
func deleteStale(ctx context.Context, bucket *blob.Bucket, prefix string, previous *Manifest, current []FileInfo) error {
	keep := make(map[string]bool, len(current))
	for _, f := range current {
		keep[f.Path] = true
	}

	for _, f := range previous.Files {
		if keep[f.Path] {
			continue
		}
		err := bucket.Delete(ctx, objectKey(prefix, f.Path))
		if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
			return fmt.Errorf("mirror: delete stale %s: %w", f.Path, err)
		}
	}
	return nil
}

// readManifest fetches the previous run's manifest, or nil if none exists.
func readManifest(ctx context.Context, bucket *blob.Bucket, prefix string) (*Manifest, error) {
	data, err := bucket.ReadAll(ctx, manifestKey(prefix))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("mirror: read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("mirror: parse manifest: %w", err)
	}
	return &m, nil
}

func writeManifest(ctx context.Context, bucket *blob.Bucket, prefix string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("mirror: encode manifest: %w", err)
	}
	if err := bucket.WriteAll(ctx, manifestKey(prefix), data, nil); err != nil {
		return fmt.Errorf("mirror: write manifest: %w", err)
	}
	return nil
}

func objectKey(prefix, relPath string) string {
	return path.Join(prefix, relPath)
}

func manifestKey(prefix string) string {
	if prefix == "" {
		return "manifest.json"
	}
	return prefix + ".manifest.json"
}
