package gitrepo

import (
	"bytes"

	diff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/diffscribe/diffscribe/internal/vcs"
)

// contextLines is the number of unchanged lines kept around each hunk.
const contextLines = 3

// diffTrees renders the unified patch turning from into to. Either side may be
// nil, meaning an empty tree.
func diffTrees(from, to *object.Tree) (string, error) {
	changes, err := object.DiffTree(from, to)
	if err != nil {
		return "", vcs.Other(err, "failed to create diff")
	}
	return renderChanges(changes)
}

// renderChanges drops every change touching an excluded path on either side
// and encodes the rest. Binary files are reported with a single marker line.
func renderChanges(changes object.Changes) (string, error) {
	kept := make(object.Changes, 0, len(changes))
	for _, ch := range changes {
		if vcs.ShouldExcludePath(ch.From.Name) || vcs.ShouldExcludePath(ch.To.Name) {
			continue
		}
		kept = append(kept, ch)
	}
	if len(kept) == 0 {
		return "", nil
	}
	patch, err := kept.Patch()
	if err != nil {
		return "", vcs.Other(err, "failed to compute patch")
	}
	return encodeUnifiedPatch(patch.FilePatches())
}

func encodeUnifiedPatch(filePatches []diff.FilePatch) (string, error) {
	var buf bytes.Buffer
	enc := diff.NewUnifiedEncoder(&buf, contextLines)
	if err := enc.Encode(filePatchSet{patches: filePatches}); err != nil {
		return "", vcs.Other(err, "failed to format diff")
	}
	return buf.String(), nil
}

type filePatchSet struct {
	patches []diff.FilePatch
}

func (f filePatchSet) FilePatches() []diff.FilePatch { return f.patches }
func (filePatchSet) Message() string                 { return "" }

// changedPaths lists the path of every change, preferring the new side so
// deletions still report the removed path.
func changedPaths(changes object.Changes) []string {
	paths := make([]string, 0, len(changes))
	for _, ch := range changes {
		name := ch.To.Name
		if name == "" {
			name = ch.From.Name
		}
		paths = append(paths, name)
	}
	return paths
}
