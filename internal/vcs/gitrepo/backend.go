// Package gitrepo implements vcs.Backend on top of a local git repository
// opened through go-git.
package gitrepo

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog"

	"github.com/diffscribe/diffscribe/internal/vcs"
)

const (
	backendName = "git"
	headRef     = "HEAD"

	// EmptyTreeID is the id git assigns to a tree with no entries.
	EmptyTreeID = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

	shortIDLen = 7
)

var _ vcs.Backend = (*Backend)(nil)

// Backend owns one open repository handle. Calls are serialized, so a single
// instance may be shared between goroutines.
type Backend struct {
	// mu serializes every operation on repo.
	mu sync.Mutex

	repo *gitlib.Repository
	root string

	log zerolog.Logger
	now func() time.Time
}

type Option func(*Backend)

// WithLogger attaches a logger for debug tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Backend) { b.log = l }
}

// WithClock overrides the clock used for commit signatures and relative ages.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// Open discovers the repository containing path, walking up parent
// directories until a .git entry is found.
func Open(path string, opts ...Option) (*Backend, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, vcs.NotARepository(path, err)
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, vcs.NotARepository(abs, err)
	}
	b := &Backend{
		repo: repo,
		log:  zerolog.Nop(),
		now:  time.Now,
	}
	if wt, err := repo.Worktree(); err == nil {
		b.root = wt.Filesystem.Root()
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log.Debug().Str("path", abs).Str("root", b.root).Msg("opened repository")
	return b, nil
}

// Root returns the working tree root, or "" for a bare repository.
func (b *Backend) Root() string {
	return b.root
}

func (b *Backend) Name() string {
	return backendName
}

func (b *Backend) WorkingCopyParentRef() string {
	return headRef
}

// resolveCommit validates ref and peels it to a commit.
func (b *Backend) resolveCommit(ref string) (*object.Commit, error) {
	trimmed, err := vcs.ValidateRef(ref)
	if err != nil {
		return nil, err
	}
	if trimmed == "" {
		return nil, vcs.InvalidRef(ref)
	}
	hash, err := b.repo.ResolveRevision(plumbing.Revision(trimmed))
	if err != nil {
		return nil, vcs.InvalidRef(trimmed)
	}
	commit, err := b.repo.CommitObject(*hash)
	if err != nil {
		return nil, vcs.InvalidRef(trimmed)
	}
	return commit, nil
}

// resolveTree is resolveCommit for diff endpoints. The empty tree id is
// accepted and yields a nil tree, which go-git diffs as an empty tree.
func (b *Backend) resolveTree(ref string) (*object.Tree, *object.Commit, error) {
	if strings.TrimSpace(ref) == EmptyTreeID {
		return nil, nil, nil
	}
	commit, err := b.resolveCommit(ref)
	if err != nil {
		return nil, nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, nil, vcs.Other(err, "failed to get tree for "+strings.TrimSpace(ref))
	}
	return tree, commit, nil
}

// parentTree returns the first parent's tree, or nil for a root commit.
func parentTree(c *object.Commit) (*object.Tree, error) {
	if c.NumParents() == 0 {
		return nil, nil
	}
	parent, err := c.Parent(0)
	if err != nil {
		return nil, vcs.Other(err, "failed to get parent commit")
	}
	tree, err := parent.Tree()
	if err != nil {
		return nil, vcs.Other(err, "failed to get parent tree")
	}
	return tree, nil
}

// headTree returns HEAD's tree, or nil when HEAD is unborn.
func (b *Backend) headTree() (*object.Tree, error) {
	ref, err := b.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, vcs.Other(err, "failed to get HEAD")
	}
	commit, err := b.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, vcs.Other(err, "failed to get HEAD commit")
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, vcs.Other(err, "failed to get HEAD tree")
	}
	return tree, nil
}

func summary(message string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return strings.TrimSpace(first)
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func formatSignature(sig object.Signature) string {
	return fmt.Sprintf("%s <%s>", sig.Name, sig.Email)
}
