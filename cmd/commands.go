package cmd

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/diffscribe/diffscribe/internal/buildinfo"
	"github.com/diffscribe/diffscribe/internal/clipboard"
	"github.com/diffscribe/diffscribe/internal/highlight"
	"github.com/diffscribe/diffscribe/internal/vcs"
	"github.com/diffscribe/diffscribe/internal/watch"
)

const clearScreen = "\x1b[H\x1b[2J"

func (a *app) showCommand() *cobra.Command {
	var copyOut bool
	c := &cobra.Command{
		Use:   "show [ref]",
		Short: "Show a commit's metadata and diff against its first parent",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.repo()
			if err != nil {
				return err
			}
			ref := b.WorkingCopyParentRef()
			if len(args) == 1 {
				ref = args[0]
			}
			info, err := b.Commit(ref)
			if err != nil {
				return err
			}
			yellow := color.New(color.FgYellow)
			fmt.Fprintf(a.stdout, "%s\n", yellow.Sprintf("commit %s", info.CommitID))
			fmt.Fprintf(a.stdout, "Author: %s\nDate:   %s\n\n", info.Author, info.Date)
			for _, line := range strings.Split(info.Message, "\n") {
				fmt.Fprintf(a.stdout, "    %s\n", line)
			}
			if info.Diff != "" {
				fmt.Fprintln(a.stdout)
			}
			if err := a.writeDiff(info.Diff); err != nil {
				return err
			}
			if copyOut {
				return a.copy(info.Message + "\n\n" + info.Diff)
			}
			return nil
		},
	}
	c.Flags().BoolVar(&copyOut, "copy", false, "copy the message and diff to the clipboard (OSC 52)")
	return c
}

func (a *app) diffCommand() *cobra.Command {
	var staged, watchTree, copyOut bool
	c := &cobra.Command{
		Use:   "diff",
		Short: "Show uncommitted changes",
		Long:  "Show changes between the index and the working tree, or between HEAD and the index with --staged.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.repo()
			if err != nil {
				return err
			}
			out, err := b.WorkingTreeDiff(staged)
			if err != nil {
				return err
			}
			if err := a.writeDiff(out); err != nil {
				return err
			}
			if copyOut {
				if err := a.copy(out); err != nil {
					return err
				}
			}
			if !watchTree {
				return nil
			}
			return a.watchDiff(cmd, b, staged)
		},
	}
	c.Flags().BoolVar(&staged, "staged", false, "compare HEAD with the index")
	c.Flags().BoolVar(&watchTree, "watch", false, "re-render whenever the repository changes")
	c.Flags().BoolVar(&copyOut, "copy", false, "copy the diff to the clipboard (OSC 52)")
	return c
}

// watchDiff redraws the working tree diff after each burst of filesystem
// events until interrupted.
func (a *app) watchDiff(cmd *cobra.Command, b vcs.Backend, staged bool) error {
	root := a.repoPath
	if r, ok := b.(rooted); ok && r.Root() != "" {
		root = r.Root()
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redraw := make(chan struct{}, 1)
	w, err := watch.New(root, a.cfg.Watch.Debounce, func() {
		select {
		case redraw <- struct{}{}:
		default:
		}
	}, a.log)
	if err != nil {
		return err
	}
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-redraw:
			out, err := b.WorkingTreeDiff(staged)
			if err != nil {
				a.log.Error().Err(err).Msg("refresh diff")
				continue
			}
			fmt.Fprint(a.stdout, clearScreen)
			if err := a.writeDiff(out); err != nil {
				return err
			}
		}
	}
}

func (a *app) rangeCommand() *cobra.Command {
	var threeDot bool
	c := &cobra.Command{
		Use:   "range <from> <to>",
		Short: "Diff two revisions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.repo()
			if err != nil {
				return err
			}
			out, err := b.RangeDiff(args[0], args[1], threeDot)
			if err != nil {
				return err
			}
			return a.writeDiff(out)
		},
	}
	c.Flags().BoolVar(&threeDot, "three-dot", false, "diff against the merge base of from and to")
	return c
}

func (a *app) filesCommand() *cobra.Command {
	var worktree bool
	c := &cobra.Command{
		Use:   "files [ref|from..to|from...to]",
		Short: "List files changed by a commit, a range or the working tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.repo()
			if err != nil {
				return err
			}
			var files []string
			switch {
			case worktree:
				if len(args) > 0 {
					return errors.New("--worktree does not take a reference")
				}
				files, err = b.WorkingTreeChangedFiles()
			case len(args) == 1:
				files, err = b.ChangedFiles(args[0])
			default:
				files, err = b.ChangedFiles(b.WorkingCopyParentRef())
			}
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(a.stdout, f)
			}
			return nil
		},
	}
	c.Flags().BoolVar(&worktree, "worktree", false, "list modified, staged and untracked files")
	return c
}

func (a *app) catCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <ref> <path>",
		Short: "Print a file as it exists at a revision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.repo()
			if err != nil {
				return err
			}
			content, err := b.FileContentAtRef(args[0], args[1])
			if err != nil {
				return err
			}
			if a.useColor() {
				return highlight.File(a.stdout, args[1], content, a.theme())
			}
			_, err = io.WriteString(a.stdout, content)
			return err
		},
	}
}

func (a *app) branchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "branch",
		Short: "Print the checked out branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.repo()
			if err != nil {
				return err
			}
			name, ok, err := b.CurrentBranch()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(a.stdout, color.New(color.Faint).Sprint("(detached)"))
				return nil
			}
			fmt.Fprintln(a.stdout, name)
			return nil
		},
	}
}

func (a *app) logCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Print one colored line per commit, suitable for fzf --ansi",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.repo()
			if err != nil {
				return err
			}
			out, err := b.CommitLogForFzf()
			if err != nil {
				return err
			}
			_, err = io.WriteString(a.stdout, out)
			return err
		},
	}
}

func (a *app) stackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stack <from> [to]",
		Short: "List commits reachable from to but not from from, oldest first",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.repo()
			if err != nil {
				return err
			}
			to := b.WorkingCopyParentRef()
			if len(args) == 2 {
				to = args[1]
			}
			stack, err := b.CommitsInRange(args[0], to)
			if err != nil {
				return err
			}
			yellow := color.New(color.FgYellow)
			for _, c := range stack {
				fmt.Fprintf(a.stdout, "%s %s\n", yellow.Sprint(c.ShortID), c.Summary)
			}
			return nil
		},
	}
}

func (a *app) mergeBaseCommand() *cobra.Command {
	return a.refCommand("merge-base <a> <b>", "Print the nearest common ancestor of two revisions", 2,
		func(b vcs.Backend, args []string) (string, error) { return b.MergeBase(args[0], args[1]) })
}

func (a *app) parentCommand() *cobra.Command {
	return a.refCommand("parent <ref>", "Print an expression for the parent, or the empty tree id for a root commit", 1,
		func(b vcs.Backend, args []string) (string, error) { return b.ParentRefOrEmpty(args[0]) })
}

func (a *app) resolveCommand() *cobra.Command {
	return a.refCommand("resolve <ref>", "Print the full commit id a reference points to", 1,
		func(b vcs.Backend, args []string) (string, error) { return b.ResolveRef(args[0]) })
}

// refCommand builds a command printing the single string fn returns.
func (a *app) refCommand(use, short string, nargs int, fn func(vcs.Backend, []string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.repo()
			if err != nil {
				return err
			}
			out, err := fn(b, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, out)
			return nil
		},
	}
}

func (a *app) addCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>...",
		Short: "Stage paths; nothing is staged if any path fails",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.committer()
			if err != nil {
				return err
			}
			if err := c.Stage(args...); err != nil {
				return err
			}
			fmt.Fprintf(a.stderr, "%s %d path(s)\n", color.GreenString("staged"), len(args))
			return nil
		},
	}
}

func (a *app) commitCommand() *cobra.Command {
	var message string
	c := &cobra.Command{
		Use:   "commit",
		Short: "Record the index as a new commit on HEAD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(message) == "" {
				return errors.New("commit message is empty (use -m)")
			}
			c, err := a.committer()
			if err != nil {
				return err
			}
			id, err := c.CreateCommit(message)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, id)
			return nil
		},
	}
	c.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return c
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.stdout, "diffscribe %s\n", buildinfo.Get())
		},
	}
}

func (a *app) committer() (committer, error) {
	b, err := a.repo()
	if err != nil {
		return nil, err
	}
	c, ok := b.(committer)
	if !ok {
		return nil, fmt.Errorf("%s backend cannot stage or commit", b.Name())
	}
	return c, nil
}

func (a *app) writeDiff(text string) error {
	if text == "" {
		return nil
	}
	if a.useColor() {
		return highlight.Diff(a.stdout, text, a.theme())
	}
	_, err := io.WriteString(a.stdout, text)
	return err
}

// copy sends text to the clipboard through stderr, which stays attached to
// the terminal when stdout is piped.
func (a *app) copy(text string) error {
	if err := clipboard.Copy(a.stderr, text); err != nil {
		return err
	}
	a.log.Debug().Int("bytes", len(text)).Msg("copied to clipboard")
	return nil
}
