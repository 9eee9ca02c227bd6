package gitrepo

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	diff "github.com/go-git/go-git/v5/plumbing/format/diff"
	gitindex "github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/diffscribe/diffscribe/internal/vcs"
)

type localChange struct {
	path string
	from *object.File
	to   *object.File
}

func (b *Backend) WorkingTreeDiff(staged bool) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wt, err := b.repo.Worktree()
	if err != nil {
		return "", vcs.Other(err, "failed to open worktree")
	}
	status, err := wt.Status()
	if err != nil {
		return "", vcs.Other(err, "failed to get status")
	}
	idx, err := b.repo.Storer.Index()
	if err != nil {
		return "", vcs.Other(err, "failed to get index")
	}
	var headTree *object.Tree
	if staged {
		if headTree, err = b.headTree(); err != nil {
			return "", err
		}
	}

	var paths []string
	for path, st := range status {
		include := false
		if staged {
			include = st.Staging != gitlib.Unmodified && st.Staging != gitlib.Untracked
		} else {
			include = st.Worktree != gitlib.Unmodified && st.Worktree != gitlib.Untracked
		}
		if include && !vcs.ShouldExcludePath(path) && !isSubmodule(idx, path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	var changes []localChange
	for _, path := range paths {
		var fromFile, toFile *object.File
		if staged {
			if fromFile, err = fileFromTree(headTree, path); err == nil {
				toFile, err = b.fileFromIndex(idx, path)
			}
		} else {
			if fromFile, err = b.fileFromIndex(idx, path); err == nil {
				toFile, err = fileFromDisk(b.root, path)
			}
		}
		if err != nil {
			return "", vcs.Other(err, "failed to read "+path)
		}
		if sameFile(fromFile, toFile) {
			continue
		}
		changes = append(changes, localChange{path: path, from: fromFile, to: toFile})
	}
	if len(changes) == 0 {
		return "", nil
	}
	patches, err := localFilePatches(changes)
	if err != nil {
		return "", vcs.Other(err, "failed to compute patch")
	}
	return encodeUnifiedPatch(patches)
}

func isSubmodule(idx *gitindex.Index, path string) bool {
	if idx == nil {
		return false
	}
	entry, err := idx.Entry(path)
	return err == nil && entry.Mode == filemode.Submodule
}

func sameFile(a, b *object.File) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Hash == b.Hash && a.Mode == b.Mode
}

func fileFromTree(tree *object.Tree, path string) (*object.File, error) {
	if tree == nil {
		return nil, nil
	}
	f, err := tree.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (b *Backend) fileFromIndex(idx *gitindex.Index, path string) (*object.File, error) {
	if idx == nil {
		return nil, nil
	}
	entry, err := idx.Entry(path)
	if errors.Is(err, gitindex.ErrEntryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	blob, err := object.GetBlob(b.repo.Storer, entry.Hash)
	if err != nil {
		return nil, err
	}
	return object.NewFile(entry.Name, entry.Mode, blob), nil
}

// fileFromDisk hashes the working tree copy of path into an in-memory blob.
// Symlinks are read as their target, the way git stores them.
func fileFromDisk(root, path string) (*object.File, error) {
	if root == "" {
		return nil, fmt.Errorf("repository has no working tree")
	}
	fullPath := filepath.Join(root, filepath.FromSlash(path))
	info, err := os.Lstat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if info.IsDir() {
		// A tracked file replaced by a directory reads as deleted.
		return nil, nil
	}
	var data []byte
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(fullPath)
		if err != nil {
			return nil, err
		}
		data = []byte(target)
	} else {
		file, err := os.Open(fullPath)
		if err != nil {
			return nil, err
		}
		data, err = io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, err
		}
	}
	mem := &plumbing.MemoryObject{}
	mem.SetType(plumbing.BlobObject)
	if _, err := mem.Write(data); err != nil {
		return nil, err
	}
	blob, err := object.DecodeBlob(mem)
	if err != nil {
		return nil, err
	}
	mode, err := filemode.NewFromOSFileMode(info.Mode())
	if err != nil {
		mode = filemode.Regular
	}
	return object.NewFile(path, mode, blob), nil
}

// localFilePatches turns changes whose sides come from the index or the
// working tree into file patches. go-git only diffs trees, so line chunks are
// computed here and encoded like any other patch.
func localFilePatches(changes []localChange) ([]diff.FilePatch, error) {
	patches := make([]diff.FilePatch, 0, len(changes))
	for _, ch := range changes {
		p := localFilePatch{path: ch.path, from: ch.from, to: ch.to}
		bin, err := binaryChange(ch)
		if err != nil {
			return nil, err
		}
		p.binary = bin
		if !bin {
			if p.chunks, err = lineChunks(ch.from, ch.to); err != nil {
				return nil, err
			}
		}
		patches = append(patches, p)
	}
	return patches, nil
}

type localFilePatch struct {
	path     string
	from, to *object.File
	binary   bool
	chunks   []diff.Chunk
}

func (p localFilePatch) IsBinary() bool       { return p.binary }
func (p localFilePatch) Chunks() []diff.Chunk { return p.chunks }

func (p localFilePatch) Files() (from, to diff.File) {
	if p.from != nil {
		from = localFile{path: p.path, file: p.from}
	}
	if p.to != nil {
		to = localFile{path: p.path, file: p.to}
	}
	return from, to
}

type localFile struct {
	path string
	file *object.File
}

func (f localFile) Hash() plumbing.Hash     { return f.file.Hash }
func (f localFile) Mode() filemode.FileMode { return f.file.Mode }
func (f localFile) Path() string            { return f.path }

type localChunk struct {
	content string
	op      diff.Operation
}

func (c localChunk) Content() string      { return c.content }
func (c localChunk) Type() diff.Operation { return c.op }

// lineChunks matches the two sides line by line. A replaced block becomes a
// delete followed by an add.
func lineChunks(from, to *object.File) ([]diff.Chunk, error) {
	a, err := fileLines(from)
	if err != nil {
		return nil, err
	}
	b, err := fileLines(to)
	if err != nil {
		return nil, err
	}
	var chunks []diff.Chunk
	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		switch op.Tag {
		case 'e':
			chunks = append(chunks, localChunk{strings.Join(a[op.I1:op.I2], ""), diff.Equal})
		case 'd':
			chunks = append(chunks, localChunk{strings.Join(a[op.I1:op.I2], ""), diff.Delete})
		case 'i':
			chunks = append(chunks, localChunk{strings.Join(b[op.J1:op.J2], ""), diff.Add})
		case 'r':
			chunks = append(chunks,
				localChunk{strings.Join(a[op.I1:op.I2], ""), diff.Delete},
				localChunk{strings.Join(b[op.J1:op.J2], ""), diff.Add})
		}
	}
	return chunks, nil
}

func binaryChange(ch localChange) (bool, error) {
	for _, f := range []*object.File{ch.from, ch.to} {
		if f == nil {
			continue
		}
		bin, err := f.IsBinary()
		if err != nil {
			return false, err
		}
		if bin {
			return true, nil
		}
	}
	return false, nil
}

// fileLines splits f into lines that keep their "\n". A final line without
// one is kept as is, so the encoder can mark the missing newline.
func fileLines(f *object.File) ([]string, error) {
	if f == nil {
		return nil, nil
	}
	content, err := f.Contents()
	if err != nil {
		return nil, err
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}
