package gitrepo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkingTreeDiffClean(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	r.commitFiles("init", map[string]string{"a.txt": "a\n"})
	b := r.open()

	for _, staged := range []bool{false, true} {
		out, err := b.WorkingTreeDiff(staged)
		require.NoError(t, err)
		assert.Empty(t, out, "staged=%v", staged)
	}
}

func TestWorkingTreeDiffUnstaged(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	r.commitFiles("init", map[string]string{
		"a.txt":     "one\ntwo\nthree\n",
		"del.txt":   "bye\n",
		"yarn.lock": "v1\n",
	})
	r.write("a.txt", "one\n2\nthree\n")
	r.write("yarn.lock", "v2\n")
	r.write("untracked.txt", "new\n")
	require.NoError(t, os.Remove(filepath.Join(r.dir, "del.txt")))
	b := r.open()

	out, err := b.WorkingTreeDiff(false)
	require.NoError(t, err)
	assert.Equal(t, "diff --git a/a.txt b/a.txt\n"+
		"index 4cb29ea38f70d7c61b2a3a25b02e3bdf44905402..f04eb265ebd74fba2cddf0a6adf2a6a7f81c87aa 100644\n"+
		"--- a/a.txt\n"+
		"+++ b/a.txt\n"+
		"@@ -1,3 +1,3 @@\n"+
		" one\n"+
		"-two\n"+
		"+2\n"+
		" three\n"+
		"diff --git a/del.txt b/del.txt\n"+
		"deleted file mode 100644\n"+
		"index b023018cabc396e7692c70bbf5784a93d3f738ab..0000000000000000000000000000000000000000\n"+
		"--- a/del.txt\n"+
		"+++ /dev/null\n"+
		"@@ -1 +0,0 @@\n"+
		"-bye\n", out)

	staged, err := b.WorkingTreeDiff(true)
	require.NoError(t, err)
	assert.Empty(t, staged)
}

func TestWorkingTreeDiffStaged(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	r.commitFiles("init", map[string]string{"a.txt": "a\n", "gone.txt": "gone\n"})
	r.write("a.txt", "b\n")
	r.write("added.txt", "hello\n")
	r.write("vendor/lib/lib.go", "package lib\n")
	r.add("a.txt", "added.txt", "vendor/lib/lib.go")
	r.remove("gone.txt")
	b := r.open()

	out, err := b.WorkingTreeDiff(true)
	require.NoError(t, err)
	assert.Contains(t, out, "-a\n+b\n")
	assert.Contains(t, out, "diff --git a/added.txt b/added.txt\nnew file mode 100644\n")
	assert.Contains(t, out, "--- /dev/null\n+++ b/added.txt\n")
	assert.Contains(t, out, "+hello\n")
	assert.Contains(t, out, "diff --git a/gone.txt b/gone.txt\ndeleted file mode 100644\n")
	assert.NotContains(t, out, "vendor/")

	unstaged, err := b.WorkingTreeDiff(false)
	require.NoError(t, err)
	assert.Empty(t, unstaged)
}

func TestWorkingTreeDiffLineEndings(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	r.commitFiles("init", map[string]string{"a.txt": "a\n", "c.txt": "no newline"})
	r.write("added.txt", "hello\n")
	r.add("added.txt")
	r.write("a.txt", "a\nb\n")
	r.write("c.txt", "no newline\nmore")
	b := r.open()

	staged, err := b.WorkingTreeDiff(true)
	require.NoError(t, err)
	assert.Equal(t, "diff --git a/added.txt b/added.txt\n"+
		"new file mode 100644\n"+
		"index 0000000000000000000000000000000000000000..ce013625030ba8dba906f756967f9e9ca394464a\n"+
		"--- /dev/null\n"+
		"+++ b/added.txt\n"+
		"@@ -0,0 +1 @@\n"+
		"+hello\n", staged)

	unstaged, err := b.WorkingTreeDiff(false)
	require.NoError(t, err)
	assert.Equal(t, "diff --git a/a.txt b/a.txt\n"+
		"index 78981922613b2afb6025042ff6bd878ac1994e85..422c2b7ab3b3c668038da977e4e93a5fc623169c 100644\n"+
		"--- a/a.txt\n"+
		"+++ b/a.txt\n"+
		"@@ -1 +1,2 @@\n"+
		" a\n"+
		"+b\n"+
		"diff --git a/c.txt b/c.txt\n"+
		"index 20cbb4d89224e1ed724b7feaf5c4f4479e25212a..87cb42f3d39e9609dac40c68e127efc8017c8bed 100644\n"+
		"--- a/c.txt\n"+
		"+++ b/c.txt\n"+
		"@@ -1 +1,2 @@\n"+
		"-no newline\n"+
		"\\ No newline at end of file\n"+
		"+no newline\n"+
		"+more\n"+
		"\\ No newline at end of file\n", unstaged)
}

func TestWorkingTreeDiffFileReplacedByDirectory(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	r.commitFiles("init", map[string]string{"x": "x\n", "keep.txt": "keep\n"})
	require.NoError(t, os.Remove(filepath.Join(r.dir, "x")))
	r.write("x/inner.txt", "inner\n")
	b := r.open()

	out, err := b.WorkingTreeDiff(false)
	require.NoError(t, err)
	assert.Equal(t, "diff --git a/x b/x\n"+
		"deleted file mode 100644\n"+
		"index 587be6b4c3f93f93c489c0111bba5596147a26cb..0000000000000000000000000000000000000000\n"+
		"--- a/x\n"+
		"+++ /dev/null\n"+
		"@@ -1 +0,0 @@\n"+
		"-x\n", out)
}

func TestWorkingTreeDiffStagedOnUnbornHead(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	r.write("first.txt", "first\n")
	r.add("first.txt")
	b := r.open()

	out, err := b.WorkingTreeDiff(true)
	require.NoError(t, err)
	assert.Contains(t, out, "new file mode 100644")
	assert.Contains(t, out, "+first\n")
}

func TestWorkingTreeDiffBinary(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	r.commitFiles("init", map[string]string{"img.bin": "\x00abc"})
	r.write("img.bin", "\x00abd")
	b := r.open()

	out, err := b.WorkingTreeDiff(false)
	require.NoError(t, err)
	assert.Contains(t, out, "Binary files a/img.bin and b/img.bin differ\n")
}

func TestWorkingTreeChangedFiles(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	r.commitFiles("init", map[string]string{
		".gitignore": "*.log\n",
		"a.txt":      "a\n",
		"clean.txt":  "clean\n",
	})
	r.write("a.txt", "changed\n")
	r.write("b.txt", "staged\n")
	r.add("b.txt")
	r.write("c.txt", "untracked\n")
	r.write("debug.log", "ignored\n")
	b := r.open()

	files, err := b.WorkingTreeChangedFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, files)
}

func TestWorkingTreeChangedFilesClean(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	r.commitFiles("init", map[string]string{"a.txt": "a\n"})
	b := r.open()

	files, err := b.WorkingTreeChangedFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
}
