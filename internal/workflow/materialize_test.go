package workflow

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestMaterializeCopiesEverything(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"atm.toml":         "x",
		".git/HEAD":        "ref: refs/heads/master\n",
		".git/objects/ab":  "blob",
		"nested/deep/file": "y",
	})
	require.NoError(t, os.Chmod(filepath.Join(src, ".git", "objects", "ab"), 0o444))

	dst := filepath.Join(t.TempDir(), "install", "foo")
	require.NoError(t, materialize(src, dst))

	for _, name := range []string{"atm.toml", ".git/HEAD", ".git/objects/ab", "nested/deep/file"} {
		_, err := os.Stat(filepath.Join(dst, filepath.FromSlash(name)))
		assert.NoError(t, err, name)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dst, ".git", "objects", "ab"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o444), info.Mode().Perm())
	}

	// No temporary directories are left next to the result.
	entries, err := os.ReadDir(filepath.Dir(dst))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "foo", entries[0].Name())
}

func TestMaterializeReplacesExisting(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "foo")
	writeTree(t, dst, map[string]string{"stale.txt": "old"})

	src := t.TempDir()
	writeTree(t, src, map[string]string{"fresh.txt": "new"})

	require.NoError(t, materialize(src, dst))

	_, err := os.Stat(filepath.Join(dst, "stale.txt"))
	assert.True(t, os.IsNotExist(err))
	data, err := os.ReadFile(filepath.Join(dst, "fresh.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestMaterializeSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	src := t.TempDir()
	writeTree(t, src, map[string]string{"target.txt": "x"})
	require.NoError(t, os.Symlink("target.txt", filepath.Join(src, "link")))

	dst := filepath.Join(t.TempDir(), "foo")
	require.NoError(t, materialize(src, dst))

	target, err := os.Readlink(filepath.Join(dst, "link"))
	require.NoError(t, err)
	assert.Equal(t, "target.txt", target)
}

func TestMaterializeMissingSource(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "foo")
	err := materialize(filepath.Join(t.TempDir(), "missing"), dst)
	require.Error(t, err)

	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}
