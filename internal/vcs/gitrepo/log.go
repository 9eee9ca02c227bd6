package gitrepo

import (
	"errors"
	"fmt"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/diffscribe/diffscribe/internal/timefmt"
	"github.com/diffscribe/diffscribe/internal/vcs"
)

// fzfLineFormat renders a yellow short id, the summary and a grey age.
const fzfLineFormat = "\x1b[33m%s\x1b[0m %s \x1b[90m%s\x1b[0m\n"

// CommitLogForFzf lists every commit reachable from HEAD, newest first, one
// line each. An unborn HEAD yields an empty log.
func (b *Backend) CommitLogForFzf() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	head, err := b.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", vcs.Other(err, "failed to get HEAD")
	}
	iter, err := b.repo.Log(&gitlib.LogOptions{
		From:  head.Hash(),
		Order: gitlib.LogOrderCommitterTime,
	})
	if err != nil {
		return "", vcs.Other(err, "failed to walk history")
	}
	defer iter.Close()

	now := b.now()
	var out strings.Builder
	err = iter.ForEach(func(c *object.Commit) error {
		fmt.Fprintf(&out, fzfLineFormat,
			shortID(c.Hash.String()),
			summary(c.Message),
			timefmt.Since(c.Committer.When, now),
		)
		return nil
	})
	if err != nil {
		return "", vcs.Other(err, "failed to walk history")
	}
	return out.String(), nil
}
