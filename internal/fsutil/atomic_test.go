package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gary")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0o755))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0o755))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteFileAtomic_RenameErrorRemovesTemp(t *testing.T) {
	orig := osRename
	osRename = func(string, string) error { return errors.New("rename boom") }
	t.Cleanup(func() { osRename = orig })

	dir := t.TempDir()
	err := WriteFileAtomic(filepath.Join(dir, "gary"), []byte("x"), 0o644)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rename temp file")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "gary"), []byte("x"), 0o644)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create temp file")
}

func TestAppendFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".bashrc")
	require.NoError(t, os.WriteFile(path, []byte("alias ll='ls -l'\n"), 0o644))

	require.NoError(t, AppendFile(path, []byte("export A=1\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alias ll='ls -l'\nexport A=1\n", string(data))
}

func TestAppendFile_DoesNotCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".zshrc")
	err := AppendFile(path, []byte("x"))
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}
