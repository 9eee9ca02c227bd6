package gitrepo

import (
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/diffscribe/diffscribe/internal/vcs"
)

// RangeDiff diffs from against to. With threeDot the left side is replaced by
// the merge base, so only changes made on to's side appear.
func (b *Backend) RangeDiff(from, to string, threeDot bool) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var (
		fromTree *object.Tree
		err      error
	)
	if threeDot {
		base, baseErr := b.mergeBase(from, to)
		if baseErr != nil {
			return "", baseErr
		}
		if fromTree, err = base.Tree(); err != nil {
			return "", vcs.Other(err, "failed to get merge base tree")
		}
	} else if fromTree, _, err = b.resolveTree(from); err != nil {
		return "", err
	}
	toTree, _, err := b.resolveTree(to)
	if err != nil {
		return "", err
	}

	b.log.Debug().Str("from", from).Str("to", to).Bool("three_dot", threeDot).Msg("range diff")
	if sameTree(fromTree, toTree) {
		return "", nil
	}
	return diffTrees(fromTree, toTree)
}

func sameTree(a, b *object.Tree) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Hash == b.Hash
}
