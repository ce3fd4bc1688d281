// Package options watches the extension options file and notifies on change.
package options

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/IMakeBotsForYou/yomitan/internal/logging"
)

// SourceFile is the update source reported for filesystem changes.
const SourceFile = "file"

// NotifyFunc receives the source of an accepted options change.
type NotifyFunc func(source string)

// Watcher reports writes to a single options file. Editors generate several
// filesystem events per save, so bursts are coalesced through a rate
// limiter: at most one notification per coalesce window.
type Watcher struct {
	path    string
	fw      *fsnotify.Watcher
	limiter *rate.Limiter
	notify  NotifyFunc
	log     *slog.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithCoalesceWindow overrides the default 500ms coalesce window.
func WithCoalesceWindow(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// NewWatcher watches path and calls notify for each accepted change. The
// watch is placed on the containing directory: editors replace files on
// save, which would silently drop a watch on the file itself.
func NewWatcher(path string, notify NotifyFunc, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("options: resolve %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("options: create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("options: watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:    abs,
		fw:      fw,
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		notify:  notify,
		log:     logging.ForComponent(logging.CompOptions),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run processes filesystem events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("options_watch_error", slog.String("error", err.Error()))
		}
	}
}

// handleEvent filters and coalesces a single filesystem event. It reports
// whether a notification was delivered.
func (w *Watcher) handleEvent(ev fsnotify.Event) bool {
	if !w.relevant(ev) {
		return false
	}
	if !w.limiter.Allow() {
		return false
	}
	w.log.Info("options_file_changed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
	w.notify(SourceFile)
	return true
}

// relevant reports whether ev describes a content change to the watched
// file. Rename covers editors that save via a temp file swap.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename)
}
