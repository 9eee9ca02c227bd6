package gitrepo

import (
	"fmt"
	"path/filepath"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/diffscribe/diffscribe/internal/vcs"
)

// Stage adds paths, relative to the repository root, to the index. When any
// path fails the index is put back the way it was.
func (b *Backend) Stage(paths ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	wt, err := b.repo.Worktree()
	if err != nil {
		return vcs.Other(err, "failed to open worktree")
	}
	orig, err := b.repo.Storer.Index()
	if err != nil {
		return vcs.Other(err, "failed to get index")
	}

	for _, p := range paths {
		rel, err := b.relativePath(p)
		if err == nil {
			_, err = wt.Add(rel)
		}
		if err != nil {
			if restoreErr := b.repo.Storer.SetIndex(orig); restoreErr != nil {
				b.log.Error().Err(restoreErr).Msg("failed to restore index")
			}
			return vcs.Other(err, "failed to stage "+p)
		}
	}
	b.log.Debug().Strs("paths", paths).Msg("staged paths")
	return nil
}

func (b *Backend) relativePath(p string) (string, error) {
	if !filepath.IsAbs(p) {
		return normalizePath(p), nil
	}
	if b.root == "" {
		return "", fmt.Errorf("repository has no working tree")
	}
	rel, err := filepath.Rel(b.root, p)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path is outside the repository")
	}
	return filepath.ToSlash(rel), nil
}

// CreateCommit records the current index as a new commit on HEAD and returns
// its id. The identity comes from user.name and user.email in the repository
// or global configuration.
func (b *Backend) CreateCommit(message string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cfg, err := b.repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		return "", vcs.Other(err, "failed to get git config")
	}
	if strings.TrimSpace(cfg.User.Name) == "" {
		return "", vcs.Otherf(`git user.name not configured. Run: git config user.name "Your Name"`)
	}
	if strings.TrimSpace(cfg.User.Email) == "" {
		return "", vcs.Otherf(`git user.email not configured. Run: git config user.email "you@example.com"`)
	}

	wt, err := b.repo.Worktree()
	if err != nil {
		return "", vcs.Other(err, "failed to open worktree")
	}
	sig := &object.Signature{
		Name:  cfg.User.Name,
		Email: cfg.User.Email,
		When:  b.now(),
	}
	hash, err := wt.Commit(message, &gitlib.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: true,
	})
	if err != nil {
		return "", vcs.Other(err, "failed to create commit")
	}
	b.log.Debug().Str("commit", hash.String()).Msg("created commit")
	return hash.String(), nil
}
