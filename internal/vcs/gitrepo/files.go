package gitrepo

import (
	"sort"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/diffscribe/diffscribe/internal/vcs"
)

// ChangedFiles lists paths touched by ref. A single commit is compared with its
// first parent. A two-dot range compares both endpoints directly, a three-dot
// range compares their merge base with the right-hand side.
func (b *Backend) ChangedFiles(ref string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := vcs.ValidateRef(ref); err != nil {
		return nil, err
	}
	if spec, ok := vcs.SplitRange(ref); ok {
		from, to := rangeEndpoints(spec)
		if spec.ThreeDot {
			base, err := b.mergeBase(from, to)
			if err != nil {
				return nil, err
			}
			from = base.Hash.String()
		}
		return b.rangeChangedFiles(from, to)
	}

	commit, err := b.resolveCommit(ref)
	if err != nil {
		return nil, err
	}
	return commitChangedFiles(commit)
}

func (b *Backend) RangeChangedFiles(from, to string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.rangeChangedFiles(from, to)
}

func (b *Backend) rangeChangedFiles(from, to string) ([]string, error) {
	fromTree, _, err := b.resolveTree(from)
	if err != nil {
		return nil, err
	}
	toTree, _, err := b.resolveTree(to)
	if err != nil {
		return nil, err
	}
	return changedBetween(fromTree, toTree)
}

// commitChangedFiles compares commit with its first parent, or with the empty
// tree for a root commit.
func commitChangedFiles(commit *object.Commit) ([]string, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, vcs.Other(err, "failed to get commit tree")
	}
	parent, err := parentTree(commit)
	if err != nil {
		return nil, err
	}
	return changedBetween(parent, tree)
}

func changedBetween(from, to *object.Tree) ([]string, error) {
	changes, err := object.DiffTree(from, to)
	if err != nil {
		return nil, vcs.Other(err, "failed to create diff")
	}
	paths := changedPaths(changes)
	sort.Strings(paths)
	return paths, nil
}

// rangeEndpoints fills an empty side of "A.." or "..B" with HEAD.
func rangeEndpoints(spec vcs.RangeSpec) (from, to string) {
	from, to = spec.From, spec.To
	if from == "" {
		from = headRef
	}
	if to == "" {
		to = headRef
	}
	return from, to
}

// WorkingTreeChangedFiles returns every path git status reports as staged,
// modified or untracked. Ignored files never appear in go-git's status and
// submodules are filtered through the index.
func (b *Backend) WorkingTreeChangedFiles() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wt, err := b.repo.Worktree()
	if err != nil {
		return nil, vcs.Other(err, "failed to open worktree")
	}
	status, err := wt.Status()
	if err != nil {
		return nil, vcs.Other(err, "failed to get status")
	}
	idx, err := b.repo.Storer.Index()
	if err != nil {
		return nil, vcs.Other(err, "failed to get index")
	}

	files := make([]string, 0, len(status))
	for path, st := range status {
		if st.Staging == gitlib.Unmodified && st.Worktree == gitlib.Unmodified {
			continue
		}
		if isSubmodule(idx, path) {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}
