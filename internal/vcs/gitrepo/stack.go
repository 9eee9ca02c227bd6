package gitrepo

import (
	"errors"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/diffscribe/diffscribe/internal/vcs"
)

// CommitsInRange returns the commits reachable from to but not from from,
// oldest first. Commits whose diff against their first parent touches no
// files are skipped.
func (b *Backend) CommitsInRange(from, to string) ([]vcs.StackedCommitInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fromCommit, err := b.resolveCommit(from)
	if err != nil {
		return nil, err
	}
	toCommit, err := b.resolveCommit(to)
	if err != nil {
		return nil, err
	}

	hidden, err := ancestors(fromCommit)
	if err != nil {
		return nil, err
	}
	visible, err := b.collectVisible(toCommit, hidden)
	if err != nil {
		return nil, err
	}
	ordered := newestFirst(visible)

	stack := make([]vcs.StackedCommitInfo, 0, len(ordered))
	for i := len(ordered) - 1; i >= 0; i-- {
		c := ordered[i]
		files, err := commitChangedFiles(c)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			b.log.Debug().Str("commit", c.Hash.String()).Msg("skipping commit without changes")
			continue
		}
		id := c.Hash.String()
		stack = append(stack, vcs.StackedCommitInfo{
			CommitID: id,
			ShortID:  shortID(id),
			Summary:  summary(c.Message),
		})
	}
	b.log.Debug().Str("from", from).Str("to", to).Int("walked", len(ordered)).Int("kept", len(stack)).Msg("commit range")
	return stack, nil
}

// ancestors returns the hashes of c and everything reachable from it.
func ancestors(c *object.Commit) (map[plumbing.Hash]struct{}, error) {
	seen := make(map[plumbing.Hash]struct{})
	iter := object.NewCommitPreorderIter(c, nil, nil)
	defer iter.Close()
	err := iter.ForEach(func(c *object.Commit) error {
		seen[c.Hash] = struct{}{}
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, vcs.Other(err, "failed to walk history")
	}
	return seen, nil
}

// collectVisible walks parents from start without entering hidden commits.
func (b *Backend) collectVisible(start *object.Commit, hidden map[plumbing.Hash]struct{}) (map[plumbing.Hash]*object.Commit, error) {
	visible := make(map[plumbing.Hash]*object.Commit)
	if _, ok := hidden[start.Hash]; ok {
		return visible, nil
	}
	queue := []*object.Commit{start}
	visible[start.Hash] = start
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, ph := range c.ParentHashes {
			if _, ok := hidden[ph]; ok {
				continue
			}
			if _, ok := visible[ph]; ok {
				continue
			}
			parent, err := b.repo.CommitObject(ph)
			if err != nil {
				return nil, vcs.Other(err, "failed to find commit "+ph.String())
			}
			visible[ph] = parent
			queue = append(queue, parent)
		}
	}
	return visible, nil
}

// newestFirst orders commits so every commit comes after all of its children
// in the set. Among commits that are ready at the same time the one with the
// newer committer time goes first.
func newestFirst(commits map[plumbing.Hash]*object.Commit) []*object.Commit {
	children := make(map[plumbing.Hash]int, len(commits))
	for _, c := range commits {
		for _, ph := range c.ParentHashes {
			if _, ok := commits[ph]; ok {
				children[ph]++
			}
		}
	}

	var ready []*object.Commit
	for h, c := range commits {
		if children[h] == 0 {
			ready = append(ready, c)
		}
	}

	out := make([]*object.Commit, 0, len(commits))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return newer(ready[i], ready[j]) })
		c := ready[0]
		ready = ready[1:]
		out = append(out, c)
		for _, ph := range c.ParentHashes {
			parent, ok := commits[ph]
			if !ok {
				continue
			}
			children[ph]--
			if children[ph] == 0 {
				ready = append(ready, parent)
			}
		}
	}
	return out
}

func newer(a, b *object.Commit) bool {
	ta, tb := a.Committer.When, b.Committer.When
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return a.Hash.String() < b.Hash.String()
}
