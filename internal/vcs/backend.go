// Package vcs defines the contract every version-control backend satisfies so
// callers can extract diffs, commit metadata and commit ranges without knowing
// which VCS sits underneath.
package vcs

// CommitInfo is the presentation data for one resolved commit.
type CommitInfo struct {
	CommitID string
	// ChangeID is a content-independent identifier for backends that have one.
	// Empty when the backend only knows content hashes.
	ChangeID string
	// Message has trailing newlines stripped.
	Message string
	// Diff is the unified patch against the first parent, or against an empty
	// tree for a root commit.
	Diff   string
	Author string // "Name <email>"
	Date   string // YYYY-MM-DD HH:MM:SS in the commit's own offset
}

// StackedCommitInfo is the lightweight record produced by range enumeration.
type StackedCommitInfo struct {
	CommitID string
	ShortID  string
	ChangeID string
	Summary  string
}

// Backend abstracts access to a repository.
//
// Every method that accepts a reference validates it with ValidateRef before
// resolving it, so flag-like input always fails with ErrInvalidRef.
type Backend interface {
	// Name returns the backend identifier, e.g. "git".
	Name() string

	// Commit resolves ref to a single commit and renders its diff against the
	// first parent.
	Commit(ref string) (CommitInfo, error)
	// WorkingTreeDiff compares HEAD with the index when staged is true, and the
	// index with the working tree otherwise. A clean tree yields "".
	WorkingTreeDiff(staged bool) (string, error)
	// RangeDiff diffs from's tree against to's tree, or the merge base of the
	// two against to's tree when threeDot is set.
	RangeDiff(from, to string, threeDot bool) (string, error)

	// ChangedFiles lists the files touched by ref. A ref containing ".." or
	// "..." is treated as a range.
	ChangedFiles(ref string) ([]string, error)
	// RangeChangedFiles lists files that differ between from and to.
	RangeChangedFiles(from, to string) ([]string, error)
	// WorkingTreeChangedFiles lists modified, added and untracked paths, without
	// ignored files or submodules.
	WorkingTreeChangedFiles() ([]string, error)
	// FileContentAtRef returns path as it exists in ref's tree.
	FileContentAtRef(ref, path string) (string, error)

	// CurrentBranch returns the checked out branch; ok is false when HEAD is
	// detached.
	CurrentBranch() (name string, ok bool, err error)
	// ResolveRef returns the canonical commit id for ref.
	ResolveRef(ref string) (string, error)
	// MergeBase returns the nearest common ancestor of ref1 and ref2.
	MergeBase(ref1, ref2 string) (string, error)
	// WorkingCopyParentRef is the symbolic name of the working position.
	WorkingCopyParentRef() string
	// ParentRefOrEmpty returns an expression naming ref's parent, or the
	// backend's empty tree id when ref is a root commit.
	ParentRefOrEmpty(ref string) (string, error)

	// CommitLogForFzf renders one colored line per commit reachable from the
	// working position.
	CommitLogForFzf() (string, error)
	// CommitsInRange enumerates commits reachable from to but not from from,
	// oldest first, skipping commits that change no files.
	CommitsInRange(from, to string) ([]StackedCommitInfo, error)
}
