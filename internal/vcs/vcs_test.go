package vcs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upstream is a non-bare repository used as a remote through its path.
type upstream struct {
	t    *testing.T
	dir  string
	repo *git.Repository
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "upstream")
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	u := &upstream{t: t, dir: dir, repo: repo}
	u.commit("README.md", "hello\n")
	return u
}

func (u *upstream) commit(name, content string) CommitID {
	u.t.Helper()
	require.NoError(u.t, os.WriteFile(filepath.Join(u.dir, name), []byte(content), 0o644))
	wt, err := u.repo.Worktree()
	require.NoError(u.t, err)
	_, err = wt.Add(name)
	require.NoError(u.t, err)
	hash, err := wt.Commit("update "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "atm", Email: "atm@example.com", When: time.Now()},
	})
	require.NoError(u.t, err)
	return commitOf(hash)
}

func (u *upstream) head() CommitID {
	u.t.Helper()
	ref, err := u.repo.Head()
	require.NoError(u.t, err)
	return commitOf(ref.Hash())
}

func TestLatestRemoteCommit(t *testing.T) {
	u := newUpstream(t)

	got, err := LatestRemoteCommit(context.Background(), u.dir)
	require.NoError(t, err)
	assert.Equal(t, u.head(), got)

	next := u.commit("a.txt", "a")
	got, err = LatestRemoteCommit(context.Background(), u.dir)
	require.NoError(t, err)
	assert.Equal(t, next, got)
}

func TestLatestRemoteCommitMalformedURL(t *testing.T) {
	for _, url := range []string{"", "http://[::1"} {
		_, err := LatestRemoteCommit(context.Background(), url)
		assert.ErrorIs(t, err, ErrMalformedURL, url)
	}
}

func TestLatestRemoteCommitMissingRepository(t *testing.T) {
	_, err := LatestRemoteCommit(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	var vErr *Error
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "ls-remote", vErr.Op)
}

func TestLatestRemoteCommitCancelled(t *testing.T) {
	u := newUpstream(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LatestRemoteCommit(ctx, u.dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloneCheckoutPinsResolvedCommit(t *testing.T) {
	ctx := context.Background()
	u := newUpstream(t)

	resolved, err := LatestRemoteCommit(ctx, u.dir)
	require.NoError(t, err)

	// The default branch moves between resolution and clone.
	advanced := u.commit("b.txt", "b")

	dest := filepath.Join(t.TempDir(), "clone")
	require.NoError(t, os.Mkdir(dest, 0o700))
	h, err := Clone(ctx, u.dir, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, h.Path())
	assert.Equal(t, git.DefaultRemoteName, h.RemoteName())
	assert.Equal(t, u.dir, h.URL())

	local, err := h.LocalVersion()
	require.NoError(t, err)
	assert.Equal(t, advanced, local)

	require.NoError(t, h.Checkout(ctx, resolved))
	local, err = h.LocalVersion()
	require.NoError(t, err)
	assert.Equal(t, resolved, local)

	_, err = os.Stat(filepath.Join(dest, "b.txt"))
	assert.True(t, os.IsNotExist(err), "working tree should match the resolved commit")

	remote, err := h.RemoteVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, advanced, remote)
}

func TestRemoteVersionIsStable(t *testing.T) {
	ctx := context.Background()
	u := newUpstream(t)

	dest := filepath.Join(t.TempDir(), "clone")
	h, err := Clone(ctx, u.dir, dest)
	require.NoError(t, err)

	before, err := h.LocalVersion()
	require.NoError(t, err)

	first, err := h.RemoteVersion(ctx)
	require.NoError(t, err)
	second, err := h.RemoteVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	after, err := h.LocalVersion()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	u := newUpstream(t)

	dest := filepath.Join(t.TempDir(), "clone")
	_, err := Clone(ctx, u.dir, dest)
	require.NoError(t, err)

	h, err := Open(ctx, dest)
	require.NoError(t, err)
	assert.Equal(t, git.DefaultRemoteName, h.RemoteName())
	assert.Equal(t, u.dir, h.URL())

	// Open survives a checkout of an older commit on the same branch.
	older := u.head()
	u.commit("c.txt", "c")
	require.NoError(t, h.Pull(ctx))
	require.NoError(t, h.Checkout(ctx, older))

	h, err = Open(ctx, dest)
	require.NoError(t, err)
	local, err := h.LocalVersion()
	require.NoError(t, err)
	assert.Equal(t, older, local)
}

func TestOpenWithoutUpstream(t *testing.T) {
	u := newUpstream(t)

	_, err := Open(context.Background(), u.dir)
	assert.ErrorIs(t, err, ErrRemoteNotFound)
}

func TestOpenNotARepository(t *testing.T) {
	_, err := Open(context.Background(), t.TempDir())
	var vErr *Error
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "open", vErr.Op)
}

func TestPull(t *testing.T) {
	ctx := context.Background()
	u := newUpstream(t)

	dest := filepath.Join(t.TempDir(), "clone")
	h, err := Clone(ctx, u.dir, dest)
	require.NoError(t, err)
	before, err := h.LocalVersion()
	require.NoError(t, err)

	next := u.commit("d.txt", "d")
	require.NoError(t, h.Pull(ctx))

	repo, err := git.PlainOpen(dest)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.ReferenceName("refs/remotes/origin/HEAD"), true)
	require.NoError(t, err)
	assert.Equal(t, next, commitOf(ref.Hash()))

	after, err := h.LocalVersion()
	require.NoError(t, err)
	assert.Equal(t, before, after, "pull does not move the working copy")

	// Nothing new to fetch.
	require.NoError(t, h.Pull(ctx))
}

func TestCheckoutRejectsBadCommit(t *testing.T) {
	h := &Handle{path: t.TempDir(), remote: "origin", url: "x"}
	err := h.Checkout(context.Background(), "not-a-hash")
	var vErr *Error
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "checkout", vErr.Op)
}

func TestResolveHead(t *testing.T) {
	main := plumbing.NewHash("1111111111111111111111111111111111111111")
	other := plumbing.NewHash("2222222222222222222222222222222222222222")

	tests := []struct {
		name string
		refs []*plumbing.Reference
		want CommitID
		err  error
	}{
		{
			name: "symbolic",
			refs: []*plumbing.Reference{
				plumbing.NewSymbolicReference(plumbing.HEAD, "refs/heads/main"),
				plumbing.NewHashReference("refs/heads/main", main),
				plumbing.NewHashReference("refs/heads/other", other),
			},
			want: commitOf(main),
		},
		{
			name: "direct",
			refs: []*plumbing.Reference{
				plumbing.NewHashReference(plumbing.HEAD, other),
				plumbing.NewHashReference("refs/heads/main", main),
			},
			want: commitOf(other),
		},
		{
			name: "missing",
			refs: []*plumbing.Reference{
				plumbing.NewHashReference("refs/heads/main", main),
			},
			err: ErrHeadNotFound,
		},
		{
			name: "dangling",
			refs: []*plumbing.Reference{
				plumbing.NewSymbolicReference(plumbing.HEAD, "refs/heads/gone"),
			},
			err: ErrHeadNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveHead(tt.refs)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := map[string]string{
		"https://example.org/agents/foo.git": "https",
		"ssh://git@example.org/agents/foo":   "ssh",
		"git@example.org:agents/foo.git":     "ssh",
		"/srv/git/foo":                       "file",
	}
	for url, protocol := range tests {
		ep, err := ParseEndpoint(url)
		require.NoError(t, err, url)
		assert.Equal(t, protocol, ep.Protocol, url)
	}
}

func TestCommitIDShort(t *testing.T) {
	assert.Equal(t, "0123456789ab", CommitID("0123456789abcdef").Short())
	assert.Equal(t, "abc", CommitID("abc").Short())
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Op: "clone", Target: "https://example.org/x", Err: ErrHeadNotFound}
	assert.Equal(t, "git clone https://example.org/x: remote does not advertise HEAD", err.Error())
	assert.ErrorIs(t, err, ErrHeadNotFound)
}
