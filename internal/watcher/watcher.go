// Package watcher signals when the record files of a data directory change.
package watcher

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is used when Config.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Config holds watcher configuration options.
type Config struct {
	Dir      string
	Files    []string
	Debounce time.Duration
	Log      zerolog.Logger
}

// Watcher coalesces bursts of writes to the watched files into one signal.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	files     map[string]struct{}
	debounce  time.Duration
	log       zerolog.Logger
	onChange  chan struct{}
	done      chan struct{}
}

func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	files := make(map[string]struct{}, len(cfg.Files))
	for _, f := range cfg.Files {
		files[filepath.Base(f)] = struct{}{}
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		fsWatcher: fsw,
		dir:       cfg.Dir,
		files:     files,
		debounce:  debounce,
		log:       cfg.Log.With().Str("component", "watcher").Logger(),
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the directory. The returned channel receives one
// value per settled burst of changes.
func (w *Watcher) Start() (<-chan struct{}, error) {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", w.dir, err)
	}

	go w.loop()

	w.log.Info().Str("dir", w.dir).Dur("debounce", w.debounce).Msg("Watching data directory")
	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}
			w.log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("Record file changed")
			timer.Reset(w.debounce)

		case <-timer.C:
			// Drop the signal if the previous one is still unconsumed.
			select {
			case w.onChange <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("Watch error")

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	_, ok := w.files[filepath.Base(event.Name)]
	return ok
}
