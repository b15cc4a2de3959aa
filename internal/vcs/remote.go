package vcs

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/memory"
)

// CommitID is a hex-encoded commit hash.
type CommitID string

// String implements fmt.Stringer.
func (c CommitID) String() string { return string(c) }

// Short returns the first 12 characters of the id.
func (c CommitID) Short() string {
	if len(c) > 12 {
		return string(c[:12])
	}
	return string(c)
}

func (c CommitID) hash() (plumbing.Hash, error) {
	if !plumbing.IsHash(string(c)) {
		return plumbing.ZeroHash, fmt.Errorf("not a commit id: %q", string(c))
	}
	return plumbing.NewHash(string(c)), nil
}

func commitOf(h plumbing.Hash) CommitID { return CommitID(h.String()) }

// ParseEndpoint parses any URL form git understands: http(s), ssh, scp-like
// and local paths.
func ParseEndpoint(url string) (*transport.Endpoint, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty", ErrMalformedURL)
	}
	ep, err := transport.NewEndpoint(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedURL, url, err)
	}
	return ep, nil
}

// LatestRemoteCommit lists the references advertised by url without
// creating any local state and returns the commit HEAD resolves to.
func LatestRemoteCommit(ctx context.Context, url string) (CommitID, error) {
	if _, err := ParseEndpoint(url); err != nil {
		return "", err
	}

	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{url},
	})

	return blocking(ctx, func() (CommitID, error) {
		refs, err := remote.ListContext(ctx, &git.ListOptions{})
		if err != nil {
			return "", wrap("ls-remote", url, err)
		}
		commit, err := resolveHead(refs)
		if err != nil {
			return "", wrap("ls-remote", url, err)
		}
		return commit, nil
	})
}

// resolveHead follows HEAD through the advertised references. Servers that
// support the symref capability advertise HEAD as symbolic; older ones send
// it as a plain hash.
func resolveHead(refs []*plumbing.Reference) (CommitID, error) {
	byName := make(map[plumbing.ReferenceName]*plumbing.Reference, len(refs))
	for _, ref := range refs {
		byName[ref.Name()] = ref
	}

	ref, ok := byName[plumbing.HEAD]
	if !ok {
		return "", ErrHeadNotFound
	}

	for depth := 0; ref.Type() == plumbing.SymbolicReference; depth++ {
		if depth >= 8 {
			return "", fmt.Errorf("%w: symbolic reference loop", ErrHeadNotFound)
		}
		next, ok := byName[ref.Target()]
		if !ok {
			return "", fmt.Errorf("%w: %s points to %s which is not advertised", ErrHeadNotFound, ref.Name(), ref.Target())
		}
		ref = next
	}

	if ref.Hash().IsZero() {
		return "", ErrHeadNotFound
	}
	return commitOf(ref.Hash()), nil
}
