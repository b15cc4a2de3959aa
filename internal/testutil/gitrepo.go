// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// DockerManifest is an atm.toml selecting the Docker backend with defaults.
const DockerManifest = `[backend]
type = "Docker"

[endpoint]
path = "/mcp"
protocol = "MCP"
`

// LocalManifest is an atm.toml selecting the Local backend.
const LocalManifest = `[backend]
type = "Local"

[endpoint]
path = "/"
protocol = "MCP"
`

// Upstream is a non-bare git repository usable as a remote by its path.
type Upstream struct {
	t    *testing.T
	Dir  string
	repo *git.Repository
}

// NewUpstream creates a repository under t.TempDir() named name whose first
// commit contains files.
func NewUpstream(t *testing.T, name string, files map[string]string) *Upstream {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	u := &Upstream{t: t, Dir: dir, repo: repo}
	u.Commit(files)
	return u
}

// Commit writes files and commits them, returning the new commit id.
func (u *Upstream) Commit(files map[string]string) string {
	u.t.Helper()
	wt, err := u.repo.Worktree()
	require.NoError(u.t, err)
	for name, content := range files {
		path := filepath.Join(u.Dir, name)
		require.NoError(u.t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(u.t, os.WriteFile(path, []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(u.t, err)
	}
	hash, err := wt.Commit("update", &git.CommitOptions{
		Author:            &object.Signature{Name: "atm", Email: "atm@example.com", When: time.Now()},
		AllowEmptyCommits: true,
	})
	require.NoError(u.t, err)
	return hash.String()
}

// Head returns the commit HEAD points to.
func (u *Upstream) Head() string {
	u.t.Helper()
	ref, err := u.repo.Head()
	require.NoError(u.t, err)
	return ref.Hash().String()
}

// StagingEntries lists what is left under a staging root.
func StagingEntries(t *testing.T, root string) []string {
	t.Helper()
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
