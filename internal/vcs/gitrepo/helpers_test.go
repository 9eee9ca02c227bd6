package gitrepo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type testRepo struct {
	t    *testing.T
	dir  string
	repo *gitlib.Repository
	wt   *gitlib.Worktree
	tick int
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := gitlib.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &testRepo{t: t, dir: dir, repo: repo, wt: wt}
}

func (r *testRepo) open(opts ...Option) *Backend {
	r.t.Helper()
	b, err := Open(r.dir, opts...)
	require.NoError(r.t, err)
	return b
}

func (r *testRepo) write(path, content string) {
	r.t.Helper()
	full := filepath.Join(r.dir, filepath.FromSlash(path))
	require.NoError(r.t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(r.t, os.WriteFile(full, []byte(content), 0o644))
}

func (r *testRepo) add(paths ...string) {
	r.t.Helper()
	for _, p := range paths {
		_, err := r.wt.Add(p)
		require.NoError(r.t, err)
	}
}

func (r *testRepo) remove(path string) {
	r.t.Helper()
	_, err := r.wt.Remove(path)
	require.NoError(r.t, err)
}

// commitFiles writes and stages files, then commits them.
func (r *testRepo) commitFiles(msg string, files map[string]string) plumbing.Hash {
	r.t.Helper()
	for path, content := range files {
		r.write(path, content)
		r.add(path)
	}
	return r.commit(msg)
}

// commit records the index with a signature one hour after the previous one.
func (r *testRepo) commit(msg string, parents ...plumbing.Hash) plumbing.Hash {
	r.t.Helper()
	r.tick++
	sig := &object.Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  baseTime.Add(time.Duration(r.tick) * time.Hour),
	}
	hash, err := r.wt.Commit(msg, &gitlib.CommitOptions{
		Author:            sig,
		Committer:         sig,
		Parents:           parents,
		AllowEmptyCommits: true,
	})
	require.NoError(r.t, err)
	return hash
}

func (r *testRepo) branch(name string, at plumbing.Hash) {
	r.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), at)
	require.NoError(r.t, r.repo.Storer.SetReference(ref))
}

func (r *testRepo) checkout(name string) {
	r.t.Helper()
	require.NoError(r.t, r.wt.Checkout(&gitlib.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Force:  true,
	}))
}

func (r *testRepo) setIdentity(name, email string) {
	r.t.Helper()
	cfg, err := r.repo.Config()
	require.NoError(r.t, err)
	cfg.User.Name = name
	cfg.User.Email = email
	require.NoError(r.t, r.repo.SetConfig(cfg))
}

// isolateGlobalConfig points HOME and XDG_CONFIG_HOME at an empty directory so
// the developer's own git identity never leaks into a test.
func isolateGlobalConfig(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
}

// mergeHistory builds:
//
//	A -- B ---------- M   (master)
//	 \               /
//	  F1 -- F2 ------     (feature)
//
// M carries feature.txt from F2, so it differs from its first parent B.
type mergeHistory struct {
	a, b, f1, f2, m plumbing.Hash
}

func buildMergeHistory(r *testRepo) mergeHistory {
	r.t.Helper()
	var h mergeHistory
	h.a = r.commitFiles("A: init", map[string]string{"base.txt": "base\n"})
	r.branch("feature", h.a)
	h.b = r.commitFiles("B: main work", map[string]string{"main.txt": "main\n"})

	r.checkout("feature")
	h.f1 = r.commitFiles("F1: start feature", map[string]string{"feature.txt": "one\n"})
	h.f2 = r.commitFiles("F2: finish feature", map[string]string{"feature.txt": "one\ntwo\n"})

	r.checkout("master")
	r.write("feature.txt", "one\ntwo\n")
	r.add("feature.txt")
	h.m = r.commit("M: merge feature", h.b, h.f2)
	return h
}
