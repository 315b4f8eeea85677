package archive

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkonwuser01/notion-guardian/internal/testutils"
)

// treeOf returns relative path -> content for every file under dir.
func treeOf(t *testing.T, dir string) map[string]string {
	t.Helper()

	tree := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		tree[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return tree
}

func buildNestedExport(t *testing.T, dir string) string {
	t.Helper()

	part1 := testutils.ZipBytes(t, map[string]string{
		"pages/alpha.md": "# Alpha\n",
		"pages/beta.md":  "# Beta\n",
	})
	part2 := testutils.ZipBytes(t, map[string]string{
		"assets/logo.png": "\x89PNG fake",
	})

	archivePath := filepath.Join(dir, "export.zip")
	testutils.WriteZip(t, archivePath, map[string]string{
		"Export-1234 Part-1.zip": string(part1),
		"Export-1234 Part-2.zip": string(part2),
		"Export-foo/notes.md":    "remember the milk\n",
	})
	return archivePath
}

func TestFlatten(t *testing.T) {
	dir := t.TempDir()
	archivePath := buildNestedExport(t, dir)
	dest := filepath.Join(dir, "out")

	require.NoError(t, Flatten(context.Background(), archivePath, dest, Options{}))

	assert.Equal(t, map[string]string{
		"pages/alpha.md":  "# Alpha\n",
		"pages/beta.md":   "# Beta\n",
		"assets/logo.png": "\x89PNG fake",
		"notes.md":        "remember the milk\n",
	}, treeOf(t, dest))

	// No residual part archives or export-folder wrappers.
	_, err := os.Stat(filepath.Join(dest, "Export-1234 Part-1.zip"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dest, "Export-foo"))
	assert.True(t, os.IsNotExist(err))
}

func TestFlattenIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	archivePath := buildNestedExport(t, dir)

	destA := filepath.Join(dir, "a")
	destB := filepath.Join(dir, "b")
	require.NoError(t, Flatten(context.Background(), archivePath, destA, Options{}))
	require.NoError(t, Flatten(context.Background(), archivePath, destB, Options{Workers: 1}))

	assert.Equal(t, treeOf(t, destA), treeOf(t, destB))
}

func TestFlattenReplacesDestination(t *testing.T) {
	dir := t.TempDir()
	archivePath := buildNestedExport(t, dir)

	dest := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "stale.md"), []byte("old run"), 0o644))

	require.NoError(t, Flatten(context.Background(), archivePath, dest, Options{}))

	_, err := os.Stat(filepath.Join(dest, "stale.md"))
	assert.True(t, os.IsNotExist(err), "previous run's content must be gone")
}

func TestFlattenWithoutPartsOrFolders(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "export.zip")
	testutils.WriteZip(t, archivePath, map[string]string{
		"index.md": "hello\n",
	})

	dest := filepath.Join(dir, "out")
	require.NoError(t, Flatten(context.Background(), archivePath, dest, Options{}))
	assert.Equal(t, map[string]string{"index.md": "hello\n"}, treeOf(t, dest))
}

func TestFlattenRejectsRecursiveParts(t *testing.T) {
	dir := t.TempDir()

	inner := testutils.ZipBytes(t, map[string]string{"deep.md": "too deep"})
	part := testutils.ZipBytes(t, map[string]string{
		"Export-inner Part-1.zip": string(inner),
	})
	archivePath := filepath.Join(dir, "export.zip")
	testutils.WriteZip(t, archivePath, map[string]string{
		"Export-outer Part-1.zip": string(part),
	})

	err := Flatten(context.Background(), archivePath, filepath.Join(dir, "out"), Options{})
	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Contains(t, xerr.Error(), "deeper nesting is not supported")
}

func TestFlattenRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "export.zip")
	testutils.WriteZip(t, archivePath, map[string]string{
		"../evil.md": "escape",
	})

	err := Flatten(context.Background(), archivePath, filepath.Join(dir, "out"), Options{})
	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)

	_, statErr := os.Stat(filepath.Join(dir, "evil.md"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFlattenMalformedArchive(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "export.zip")
	require.NoError(t, os.WriteFile(archivePath, []byte("not a zip"), 0o644))

	err := Flatten(context.Background(), archivePath, filepath.Join(dir, "out"), Options{})
	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
}

func TestHoistCollisionLastMoveWins(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "export.zip")
	// os.ReadDir lists folders in lexical order, so Export-b is hoisted
	// after Export-a and its notes.md survives.
	testutils.WriteZip(t, archivePath, map[string]string{
		"Export-a/notes.md": "from a\n",
		"Export-b/notes.md": "from b\n",
	})

	dest := filepath.Join(dir, "out")
	require.NoError(t, Flatten(context.Background(), archivePath, dest, Options{}))
	assert.Equal(t, map[string]string{"notes.md": "from b\n"}, treeOf(t, dest))
}

func TestFlattenCancelledContext(t *testing.T) {
	dir := t.TempDir()
	archivePath := buildNestedExport(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Part extraction observes the cancellation; the error propagates.
	err := Flatten(ctx, archivePath, filepath.Join(dir, "out"), Options{})
	assert.Error(t, err)
}
