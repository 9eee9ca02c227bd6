// Package cmd wires the diffscribe command line onto a vcs.Backend.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/diffscribe/diffscribe/internal/config"
	"github.com/diffscribe/diffscribe/internal/highlight"
	"github.com/diffscribe/diffscribe/internal/logging"
	"github.com/diffscribe/diffscribe/internal/vcs"
	"github.com/diffscribe/diffscribe/internal/vcs/gitrepo"
)

// committer is implemented by backends that can write to the repository.
type committer interface {
	Stage(paths ...string) error
	CreateCommit(message string) (string, error)
}

// rooted is implemented by backends that know their working tree root.
type rooted interface {
	Root() string
}

type app struct {
	stdout io.Writer
	stderr io.Writer

	open       func(path string, log zerolog.Logger) (vcs.Backend, error)
	isTerminal func(w io.Writer) bool

	repoPath   string
	configPath string
	colorFlag  string
	themeFlag  string
	logLevel   string

	cfg      *config.Config
	log      zerolog.Logger
	closeLog func()
	backend  vcs.Backend
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:     stdout,
		stderr:     stderr,
		open:       openGitRepo,
		isTerminal: isTerminal,
		log:        zerolog.Nop(),
		closeLog:   func() {},
	}
}

func openGitRepo(path string, l zerolog.Logger) (vcs.Backend, error) {
	return gitrepo.Open(path, gitrepo.WithLogger(l))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Run executes the command line and reports errors on stderr.
func Run() error {
	a := newApp(os.Stdout, os.Stderr)
	err := a.rootCommand().Execute()
	a.closeLog()
	if err != nil {
		a.printError(err)
	}
	return err
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "diffscribe",
		Short:         "Inspect diffs, commits and commit stacks of a repository",
		Long:          "diffscribe extracts diffs, commit metadata and commit ranges from a repository in a form ready for review tooling.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.repoPath, "repo", "C", ".", "path inside the repository")
	flags.StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/diffscribe/config.yaml)")
	flags.StringVar(&a.colorFlag, "color", "", "color output: auto, always, or never")
	flags.StringVar(&a.themeFlag, "theme", "", "color theme: auto, light, or dark")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, or error")

	root.AddCommand(
		a.showCommand(),
		a.diffCommand(),
		a.rangeCommand(),
		a.filesCommand(),
		a.catCommand(),
		a.branchCommand(),
		a.logCommand(),
		a.stackCommand(),
		a.mergeBaseCommand(),
		a.parentCommand(),
		a.resolveCommand(),
		a.addCommand(),
		a.commitCommand(),
		a.versionCommand(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.colorFlag != "" {
		cfg.Color = a.colorFlag
	}
	if a.themeFlag != "" {
		cfg.Theme = a.themeFlag
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	l, closer, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	a.log = l
	a.closeLog = closer
	log.Logger = l

	color.NoColor = !a.useColor()
	return nil
}

// repo opens the backend on first use.
func (a *app) repo() (vcs.Backend, error) {
	if a.backend != nil {
		return a.backend, nil
	}
	b, err := a.open(a.repoPath, a.log)
	if err != nil {
		return nil, err
	}
	a.backend = b
	return b, nil
}

func (a *app) useColor() bool {
	if a.cfg == nil {
		return false
	}
	switch a.cfg.Color {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return a.isTerminal(a.stdout)
}

func (a *app) theme() highlight.ThemePreference {
	if a.cfg == nil {
		return highlight.ThemeAuto
	}
	return highlight.ThemePreferenceFromString(a.cfg.Theme)
}

func (a *app) printError(err error) {
	msg := err.Error()
	switch {
	case errors.Is(err, vcs.ErrNotARepository):
		msg += "\nHint: run diffscribe inside a git repository or pass --repo."
	case errors.Is(err, vcs.ErrInvalidRef):
		msg += "\nHint: check the reference with `git rev-parse`."
	}
	red := color.New(color.FgRed, color.Bold)
	fmt.Fprintf(a.stderr, "%s %s\n", red.Sprint("error:"), msg)
}
