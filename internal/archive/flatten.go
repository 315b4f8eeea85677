package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// ExtractionError indicates flatten could not normalize the archive:
// malformed zip content, an unsupported nesting depth, or a filesystem
// failure. It is never retried.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Naming conventions of the export format: embedded part archives carry a
// numbered "Part-N.zip" suffix, wrapper folders an "Export-" prefix.
var (
	partPattern         = regexp.MustCompile(`(?i)(?:^|[-_ ])part-\d+\.zip$`)
	exportFolderPattern = regexp.MustCompile(`(?i)^export-`)
)

// Options configures flattening.
type Options struct {
	// Workers is the number of parallel part-archive extractions.
	// Default: 4
	Workers int
}

// Flatten replaces destDir with the normalized content of the archive at
// archivePath: the top-level zip is extracted, embedded part archives are
// extracted and removed, and export-folder wrappers are dissolved into the
// destination root.
func Flatten(ctx context.Context, archivePath, destDir string, opts Options) error {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	if err := os.RemoveAll(destDir); err != nil {
		return &ExtractionError{Path: destDir, Err: err}
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return &ExtractionError{Path: destDir, Err: err}
	}

	names, err := extractZip(archivePath, destDir)
	if err != nil {
		return &ExtractionError{Path: archivePath, Err: err}
	}

	var parts []string
	for _, name := range names {
		if partPattern.MatchString(name) {
			parts = append(parts, filepath.Join(destDir, filepath.FromSlash(name)))
		}
	}

	if err := extractParts(ctx, parts, destDir, opts.Workers); err != nil {
		return err
	}

	return hoistExportFolders(destDir)
}

// extractParts runs the second extraction pass. Distinct parts never touch
// the same path, so they are extracted by a small worker pool.
func extractParts(ctx context.Context, parts []string, destDir string, workers int) error {
	if len(parts) == 0 {
		return nil
	}
	if workers > len(parts) {
		workers = len(parts)
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

	jobs := make(chan string)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for part := range jobs {
				if err := extractPart(part, destDir); err != nil {
					setErr(err)
				}
			}
		}()
	}

	for _, part := range parts {
		if ctx.Err() != nil {
			setErr(ctx.Err())
			break
		}
		select {
		case jobs <- part:
		case <-ctx.Done():
			setErr(ctx.Err())
		}
	}
	close(jobs)
	wg.Wait()

	return firstErr
}

// extractPart extracts one embedded part archive into destDir and deletes
// the now-redundant archive file. Exactly one level of nesting is
// supported; a part embedding further parts is rejected.
func extractPart(partPath, destDir string) error {
	names, err := extractZip(partPath, destDir)
	if err != nil {
		return &ExtractionError{Path: partPath, Err: err}
	}

	for _, name := range names {
		if partPattern.MatchString(name) {
			return &ExtractionError{Path: partPath, Err: fmt.Errorf(
				"embedded part archive %q: deeper nesting is not supported", name)}
		}
	}

	if err := os.Remove(partPath); err != nil {
		return &ExtractionError{Path: partPath, Err: err}
	}
	return nil
}

// hoistExportFolders moves the children of every top-level export folder
// up into destDir and removes the emptied wrapper. When sibling folders
// carry the same child name the last move wins; this mirrors the export
// format's own behavior and is deliberately not a merge.
func hoistExportFolders(destDir string) error {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return &ExtractionError{Path: destDir, Err: err}
	}

	for _, entry := range entries {
		if !entry.IsDir() || !exportFolderPattern.MatchString(entry.Name()) {
			continue
		}
		dir := filepath.Join(destDir, entry.Name())

		children, err := os.ReadDir(dir)
		if err != nil {
			return &ExtractionError{Path: dir, Err: err}
		}
		for _, child := range children {
			from := filepath.Join(dir, child.Name())
			to := filepath.Join(destDir, child.Name())

			if err := os.RemoveAll(to); err != nil {
				return &ExtractionError{Path: to, Err: err}
			}
			if err := os.Rename(from, to); err != nil {
				return &ExtractionError{Path: from, Err: err}
			}
		}

		if err := os.Remove(dir); err != nil {
			return &ExtractionError{Path: dir, Err: err}
		}
	}
	return nil
}

// extractZip extracts the archive at src into dest and returns the entry
// names in archive order.
func extractZip(src, dest string) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		if err := extractEntry(f, dest); err != nil {
			return nil, fmt.Errorf("entry %s: %w", f.Name, err)
		}
		names = append(names, f.Name)
	}
	return names, nil
}

func extractEntry(f *zip.File, dest string) error {
	target, err := entryPath(dest, f.Name)
	if err != nil {
		return err
	}

	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// entryPath joins an archive entry name onto dest, rejecting entries that
// would escape the destination.
func entryPath(dest, name string) (string, error) {
	if path.IsAbs(name) {
		return "", fmt.Errorf("illegal path %q", name)
	}
	target := filepath.Join(dest, filepath.FromSlash(name))
	if target != filepath.Clean(dest) && !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal path %q", name)
	}
	return target, nil
}
