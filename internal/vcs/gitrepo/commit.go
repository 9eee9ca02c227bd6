package gitrepo

import (
	"errors"
	"path"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/diffscribe/diffscribe/internal/timefmt"
	"github.com/diffscribe/diffscribe/internal/vcs"
)

func (b *Backend) Commit(ref string) (vcs.CommitInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	commit, err := b.resolveCommit(ref)
	if err != nil {
		return vcs.CommitInfo{}, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return vcs.CommitInfo{}, vcs.Other(err, "failed to get commit tree")
	}
	parent, err := parentTree(commit)
	if err != nil {
		return vcs.CommitInfo{}, err
	}
	patch, err := diffTrees(parent, tree)
	if err != nil {
		return vcs.CommitInfo{}, err
	}
	return vcs.CommitInfo{
		CommitID: commit.Hash.String(),
		Message:  strings.TrimRight(commit.Message, "\n"),
		Diff:     patch,
		Author:   formatSignature(commit.Author),
		Date:     timefmt.FormatTime(commit.Committer.When),
	}, nil
}

func (b *Backend) ResolveRef(ref string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	commit, err := b.resolveCommit(ref)
	if err != nil {
		return "", err
	}
	return commit.Hash.String(), nil
}

// ParentRefOrEmpty returns "<ref>^" when ref has a parent and EmptyTreeID for
// a root commit.
func (b *Backend) ParentRefOrEmpty(ref string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	commit, err := b.resolveCommit(ref)
	if err != nil {
		return "", err
	}
	if commit.NumParents() == 0 {
		return EmptyTreeID, nil
	}
	return strings.TrimSpace(ref) + "^", nil
}

func (b *Backend) FileContentAtRef(ref, filePath string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	commit, err := b.resolveCommit(ref)
	if err != nil {
		return "", err
	}
	tree, err := commit.Tree()
	if err != nil {
		return "", vcs.Other(err, "failed to get tree")
	}
	name := normalizePath(filePath)
	if name == "" {
		return "", vcs.FileNotFound(filePath)
	}
	file, err := tree.File(name)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) ||
			errors.Is(err, object.ErrDirectoryNotFound) ||
			errors.Is(err, object.ErrEntryNotFound) {
			return "", vcs.FileNotFound(filePath)
		}
		return "", vcs.Other(err, "failed to read "+name)
	}
	content, err := file.Contents()
	if err != nil {
		return "", vcs.Other(err, "failed to read blob "+name)
	}
	return strings.ToValidUTF8(content, "\uFFFD"), nil
}

// normalizePath turns a caller supplied path into a slash separated path
// relative to the tree root.
func normalizePath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// CurrentBranch reads HEAD without peeling it, so an unborn branch still
// reports its name.
func (b *Backend) CurrentBranch() (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	head, err := b.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", false, vcs.Other(err, "failed to read HEAD")
	}
	if head.Type() != plumbing.SymbolicReference || !head.Target().IsBranch() {
		return "", false, nil
	}
	return head.Target().Short(), true, nil
}

func (b *Backend) MergeBase(ref1, ref2 string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	base, err := b.mergeBase(ref1, ref2)
	if err != nil {
		return "", err
	}
	return base.Hash.String(), nil
}

func (b *Backend) mergeBase(ref1, ref2 string) (*object.Commit, error) {
	c1, err := b.resolveCommit(ref1)
	if err != nil {
		return nil, err
	}
	c2, err := b.resolveCommit(ref2)
	if err != nil {
		return nil, err
	}
	bases, err := c1.MergeBase(c2)
	if err != nil {
		return nil, vcs.Other(err, "failed to find merge base")
	}
	if len(bases) == 0 {
		return nil, vcs.Otherf("no merge base found between %s and %s",
			strings.TrimSpace(ref1), strings.TrimSpace(ref2))
	}
	return bases[0], nil
}
