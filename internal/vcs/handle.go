package vcs

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// Handle is a working copy and the remote it tracks.
type Handle struct {
	path   string
	remote string
	url    string
}

// Path returns the working copy root.
func (h *Handle) Path() string { return h.path }

// RemoteName returns the name of the tracked remote.
func (h *Handle) RemoteName() string { return h.remote }

// URL returns the tracked remote's URL.
func (h *Handle) URL() string { return h.url }

// Clone clones url into dest, including submodules, and tracks the
// default remote.
func Clone(ctx context.Context, url, dest string) (*Handle, error) {
	if _, err := ParseEndpoint(url); err != nil {
		return nil, err
	}

	err := blockingErr(ctx, func() error {
		_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
			URL:               url,
			RemoteName:        git.DefaultRemoteName,
			RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
		})
		return err
	})
	if err != nil {
		return nil, wrap("clone", url, err)
	}

	return &Handle{path: dest, remote: git.DefaultRemoteName, url: url}, nil
}

// Open attaches to the working copy at path. The tracked remote is the
// upstream configured for the branch HEAD points to.
func Open(ctx context.Context, path string) (*Handle, error) {
	return blocking(ctx, func() (*Handle, error) {
		repo, err := git.PlainOpen(path)
		if err != nil {
			return nil, wrap("open", path, err)
		}

		name, err := upstreamRemote(repo)
		if err != nil {
			return nil, wrap("open", path, err)
		}

		remote, err := repo.Remote(name)
		if errors.Is(err, git.ErrRemoteNotFound) {
			return nil, wrap("open", path, fmt.Errorf("%w: %q", ErrRemoteNotFound, name))
		}
		if err != nil {
			return nil, wrap("open", path, err)
		}

		urls := remote.Config().URLs
		if len(urls) == 0 || urls[0] == "" {
			return nil, wrap("open", path, fmt.Errorf("%w: %q", ErrInvalidRemote, name))
		}
		if _, err := ParseEndpoint(urls[0]); err != nil {
			return nil, wrap("open", path, fmt.Errorf("%w: %q: %v", ErrInvalidRemote, name, err))
		}

		return &Handle{path: path, remote: name, url: urls[0]}, nil
	})
}

func upstreamRemote(repo *git.Repository) (string, error) {
	head, err := repo.Head()
	if err != nil {
		return "", err
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("%w: HEAD is detached", ErrRemoteNotFound)
	}

	cfg, err := repo.Config()
	if err != nil {
		return "", err
	}
	branch, ok := cfg.Branches[head.Name().Short()]
	if !ok || branch.Remote == "" {
		return "", fmt.Errorf("%w: branch %q", ErrRemoteNotFound, head.Name().Short())
	}
	return branch.Remote, nil
}

// LocalVersion returns the commit HEAD points to.
func (h *Handle) LocalVersion() (CommitID, error) {
	repo, err := git.PlainOpen(h.path)
	if err != nil {
		return "", wrap("rev-parse", h.path, err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", wrap("rev-parse", h.path, err)
	}
	return commitOf(head.Hash()), nil
}

// RemoteVersion returns the commit the tracked remote's HEAD points to. It
// lists references only; nothing is downloaded or written locally.
func (h *Handle) RemoteVersion(ctx context.Context) (CommitID, error) {
	return blocking(ctx, func() (CommitID, error) {
		repo, err := git.PlainOpen(h.path)
		if err != nil {
			return "", wrap("ls-remote", h.path, err)
		}
		remote, err := repo.Remote(h.remote)
		if err != nil {
			return "", wrap("ls-remote", h.url, err)
		}
		refs, err := remote.ListContext(ctx, &git.ListOptions{})
		if err != nil {
			return "", wrap("ls-remote", h.url, err)
		}
		commit, err := resolveHead(refs)
		if err != nil {
			return "", wrap("ls-remote", h.url, err)
		}
		return commit, nil
	})
}

// Pull fetches the remote's HEAD into refs/remotes/<remote>/HEAD. The
// working tree and current branch are left alone.
func (h *Handle) Pull(ctx context.Context) error {
	return blockingErr(ctx, func() error {
		repo, err := git.PlainOpen(h.path)
		if err != nil {
			return wrap("fetch", h.path, err)
		}
		spec := config.RefSpec(fmt.Sprintf("+%s:refs/remotes/%s/%s", plumbing.HEAD, h.remote, plumbing.HEAD))
		err = repo.FetchContext(ctx, &git.FetchOptions{
			RemoteName: h.remote,
			RefSpecs:   []config.RefSpec{spec},
			Tags:       git.NoTags,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return wrap("fetch", h.url, err)
		}
		return nil
	})
}

// Checkout hard-resets the current branch, or a detached HEAD, and the
// working tree to commit, then brings submodules in line with it.
func (h *Handle) Checkout(ctx context.Context, commit CommitID) error {
	hash, err := commit.hash()
	if err != nil {
		return wrap("checkout", h.path, err)
	}

	return blockingErr(ctx, func() error {
		repo, err := git.PlainOpen(h.path)
		if err != nil {
			return wrap("checkout", h.path, err)
		}
		wt, err := repo.Worktree()
		if err != nil {
			return wrap("checkout", h.path, err)
		}
		if err := wt.Reset(&git.ResetOptions{Commit: hash, Mode: git.HardReset}); err != nil {
			return wrap("checkout", h.path, fmt.Errorf("reset to %s: %w", commit.Short(), err))
		}

		subs, err := wt.Submodules()
		if err != nil {
			return wrap("checkout", h.path, err)
		}
		if len(subs) == 0 {
			return nil
		}
		if err := subs.UpdateContext(ctx, &git.SubmoduleUpdateOptions{
			Init:              true,
			RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
		}); err != nil {
			return wrap("checkout", h.path, fmt.Errorf("update submodules: %w", err))
		}
		return nil
	})
}
