package staging

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNew(t *testing.T) {
	root := filepath.Join(t.TempDir(), "staging")

	area, err := New(root, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer area.Destroy()

	assert.Equal(t, root, filepath.Dir(area.Path()))

	id, err := uuid.Parse(filepath.Base(area.Path()))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	info, err := os.Stat(area.Path())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	}
}

func TestNewUnique(t *testing.T) {
	root := t.TempDir()
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		area, err := New(root, nil)
		require.NoError(t, err)
		assert.False(t, seen[area.Path()])
		seen[area.Path()] = true
	}
}

func TestDestroy(t *testing.T) {
	area, err := New(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)

	nested := filepath.Join(area.Path(), "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "f"), []byte("x"), 0o644))

	area.Destroy()
	_, err = os.Stat(area.Path())
	assert.True(t, os.IsNotExist(err))

	// Second call is a no-op.
	area.Destroy()
}

func TestDestroyAlreadyRemoved(t *testing.T) {
	area, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(area.Path()))

	assert.NotPanics(t, area.Destroy)
}
