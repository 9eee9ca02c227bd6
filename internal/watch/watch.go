// Package watch reports changes to a repository's working tree and git
// directory, coalescing bursts of filesystem events into one callback.
package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/diffscribe/diffscribe/internal/debounce"
)

const DefaultDebounce = 350 * time.Millisecond

// skipDirs are never descended into. Their churn is either excluded from
// diffs anyway or would exhaust inotify watches.
var skipDirs = map[string]struct{}{
	"node_modules": {},
	"vendor":       {},
}

type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	debounce *debounce.Debouncer
	log      zerolog.Logger
	closed   bool
	done     chan struct{}
}

// New starts watching root. onChange runs on its own goroutine after delay has
// passed without further relevant events.
func New(root string, delay time.Duration, onChange func(), log zerolog.Logger) (*Watcher, error) {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	paths, err := Paths(root)
	if err != nil {
		return nil, errors.Join(err, fsw.Close())
	}
	for _, p := range paths {
		log.Debug().Str("path", p).Msg("adding path to FS watcher")
		if err := fsw.Add(p); err != nil {
			return nil, fmt.Errorf("watch %s: %w", p, errors.Join(err, fsw.Close()))
		}
	}
	w := &Watcher{
		fsw:      fsw,
		debounce: debounce.New(delay, onChange),
		log:      log,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Close stops the watcher. Pending callbacks are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.debounce.Stop()
	w.mu.Unlock()

	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("fsnotify error")
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	if ShouldIgnore(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		w.watchNewDir(ev.Name)
	}
	w.log.Debug().Str("op", ev.Op.String()).Str("path", ev.Name).Msg("fsnotify event")

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.debounce.Trigger()
	}
}

func (w *Watcher) watchNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if _, skip := skipDirs[filepath.Base(path)]; skip {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.log.Debug().Err(err).Str("path", path).Msg("watch new directory")
	}
}

// Paths lists the directories to watch under root: the git directory itself
// and every working tree directory outside it.
func Paths(root string) ([]string, error) {
	if root == "" {
		return nil, errors.New("watch: empty root")
	}
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == ".git" && path != root {
			paths = append(paths, path)
			return filepath.SkipDir
		}
		if _, skip := skipDirs[name]; skip && path != root {
			return filepath.SkipDir
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return paths, nil
}

// ShouldIgnore reports whether an event on name is noise: git lock files,
// IPC sockets and editor swap files.
func ShouldIgnore(name string) bool {
	base := filepath.Base(name)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".lock", ".ipc", ".swp", ".swx":
		return true
	}
	return strings.HasSuffix(base, "~")
}
