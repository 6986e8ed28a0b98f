package services

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"releasegate/testsupport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractZipPreservesLayout(t *testing.T) {
	archive := testsupport.WriteZip(t, filepath.Join(t.TempDir(), "release.zip"), map[string][]byte{
		"Cover.png":          testsupport.PNG,
		"01. A - B.flac":     []byte("audio"),
		"extras/liner/notes": []byte("notes"),
		"extras/booklet.pdf": []byte("pdf"),
	})

	dest := filepath.Join(t.TempDir(), "out")
	require.NoError(t, ExtractZip(archive, dest))

	data, err := os.ReadFile(filepath.Join(dest, "extras", "liner", "notes"))
	require.NoError(t, err)
	assert.Equal(t, "notes", string(data))
	assert.FileExists(t, filepath.Join(dest, "Cover.png"))
	assert.FileExists(t, filepath.Join(dest, "01. A - B.flac"))
	assert.FileExists(t, filepath.Join(dest, "extras", "booklet.pdf"))
}

func TestExtractZipRejectsEscapingEntries(t *testing.T) {
	for _, name := range []string{"../evil.txt", "a/../../evil.txt", "/etc/evil.txt"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			archivePath := filepath.Join(dir, "evil.zip")

			f, err := os.Create(archivePath)
			require.NoError(t, err)
			zw := zip.NewWriter(f)
			w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
			require.NoError(t, err)
			_, err = w.Write([]byte("pwned"))
			require.NoError(t, err)
			require.NoError(t, zw.Close())
			require.NoError(t, f.Close())

			dest := filepath.Join(dir, "out")
			err = ExtractZip(archivePath, dest)
			assert.True(t, errors.Is(err, ErrUnsafeArchivePath), "got %v", err)
			assert.NoFileExists(t, filepath.Join(dir, "evil.txt"))
		})
	}
}

func TestExtractZipInvalidArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0644))

	assert.Error(t, ExtractZip(path, t.TempDir()))
}

func TestWorkspaceCleanupIsIdempotent(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), "ws-")
	require.NoError(t, err)

	sub, err := ws.Dir("remote", "extracted")
	require.NoError(t, err)
	assert.DirExists(t, sub)

	require.NoError(t, ws.Cleanup())
	require.NoError(t, ws.Cleanup())
	assert.NoDirExists(t, ws.Root())
}
