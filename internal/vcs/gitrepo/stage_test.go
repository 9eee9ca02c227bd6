package gitrepo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffscribe/diffscribe/internal/vcs"
)

func TestStageAndCreateCommit(t *testing.T) {
	isolateGlobalConfig(t)

	r := newTestRepo(t)
	prev := r.commitFiles("init", map[string]string{"a.txt": "a\n"})
	r.setIdentity("Jane Doe", "jane@example.com")
	r.write("a.txt", "a2\n")
	r.write("new/file.txt", "new\n")

	when := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	b := r.open(WithClock(func() time.Time { return when }))

	require.NoError(t, b.Stage("a.txt", filepath.Join(r.dir, "new", "file.txt")))
	staged, err := b.WorkingTreeDiff(true)
	require.NoError(t, err)
	assert.Contains(t, staged, "+a2\n")
	assert.Contains(t, staged, "+new\n")

	id, err := b.CreateCommit("add things\n\n")
	require.NoError(t, err)
	assert.Regexp(t, hexID, id)
	assert.NotEqual(t, prev.String(), id)

	info, err := b.Commit(id)
	require.NoError(t, err)
	assert.Equal(t, "add things", info.Message)
	assert.Equal(t, "Jane Doe <jane@example.com>", info.Author)
	assert.Equal(t, "2024-06-01 09:30:00", info.Date)

	head, err := b.ResolveRef("HEAD")
	require.NoError(t, err)
	assert.Equal(t, id, head)

	parent, err := b.ParentRefOrEmpty(id)
	require.NoError(t, err)
	resolved, err := b.ResolveRef(parent)
	require.NoError(t, err)
	assert.Equal(t, prev.String(), resolved)

	staged, err = b.WorkingTreeDiff(true)
	require.NoError(t, err)
	assert.Empty(t, staged)
}

func TestCreateCommitOnUnbornHead(t *testing.T) {
	isolateGlobalConfig(t)

	r := newTestRepo(t)
	r.setIdentity("Jane Doe", "jane@example.com")
	r.write("first.txt", "first\n")
	b := r.open()

	require.NoError(t, b.Stage("first.txt"))
	id, err := b.CreateCommit("root")
	require.NoError(t, err)

	parent, err := b.ParentRefOrEmpty(id)
	require.NoError(t, err)
	assert.Equal(t, EmptyTreeID, parent)

	files, err := b.ChangedFiles(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"first.txt"}, files)
}

func TestCreateCommitUsesGlobalIdentity(t *testing.T) {
	isolateGlobalConfig(t)
	home := os.Getenv("HOME")
	require.NoError(t, os.WriteFile(filepath.Join(home, ".gitconfig"),
		[]byte("[user]\n\tname = Global Person\n\temail = global@example.com\n"), 0o644))

	r := newTestRepo(t)
	r.write("a.txt", "a\n")
	b := r.open()
	require.NoError(t, b.Stage("a.txt"))

	id, err := b.CreateCommit("from global identity")
	require.NoError(t, err)
	info, err := b.Commit(id)
	require.NoError(t, err)
	assert.Equal(t, "Global Person <global@example.com>", info.Author)
}

func TestCreateCommitWithoutIdentity(t *testing.T) {
	isolateGlobalConfig(t)

	r := newTestRepo(t)
	r.commitFiles("init", map[string]string{"a.txt": "a\n"})
	b := r.open()

	_, err := b.CreateCommit("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, vcs.ErrOther)
	assert.Contains(t, err.Error(), `git config user.name "Your Name"`)

	r.setIdentity("Only Name", "")
	_, err = b.CreateCommit("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `git config user.email "you@example.com"`)
}

func TestStageFailureRestoresIndex(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	r.commitFiles("init", map[string]string{"a.txt": "a\n"})
	r.write("a.txt", "changed\n")
	b := r.open()

	err := b.Stage("a.txt", "missing.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, vcs.ErrOther)
	assert.Contains(t, err.Error(), "missing.txt")

	staged, err := b.WorkingTreeDiff(true)
	require.NoError(t, err)
	assert.Empty(t, staged, "a.txt must not stay staged")

	unstaged, err := b.WorkingTreeDiff(false)
	require.NoError(t, err)
	assert.Contains(t, unstaged, "+changed\n")
}

func TestStageOutsideRepository(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	r.commitFiles("init", map[string]string{"a.txt": "a\n"})
	b := r.open()

	outside := filepath.Join(t.TempDir(), "x.txt")
	err := b.Stage(outside)
	require.Error(t, err)
	assert.ErrorIs(t, err, vcs.ErrOther)
	assert.Contains(t, err.Error(), "outside the repository")
}

func TestStageDeletion(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	r.commitFiles("init", map[string]string{"a.txt": "a\n", "b.txt": "b\n"})
	require.NoError(t, os.Remove(filepath.Join(r.dir, "b.txt")))
	b := r.open()

	require.NoError(t, b.Stage("b.txt"))
	staged, err := b.WorkingTreeDiff(true)
	require.NoError(t, err)
	assert.Contains(t, staged, "deleted file mode 100644")
	assert.Contains(t, staged, "-b\n")
}
