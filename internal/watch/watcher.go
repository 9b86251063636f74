// Package watch observes the data directory for document changes so a
// terminal can follow what other sessions are doing. It is read-only:
// the watcher never takes locks or writes to the documents.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/taskclaim/taskclaim/internal/logging"
)

// Watcher reports changes to a fixed set of files inside one directory,
// debounced so an atomic rename-over-document fires a single notification.
type Watcher struct {
	fsw      *fsnotify.Watcher
	dir      string
	files    map[string]bool
	debounce time.Duration
	onChange func(changed []string)
	log      *logging.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a Watcher over dir that reports changes to the named files
// (base names, not paths). onChange receives the batch of files that
// changed within one debounce window.
func New(dir string, files []string, debounce time.Duration, onChange func([]string), log *logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NopLogger()
	}

	watched := make(map[string]bool, len(files))
	for _, f := range files {
		watched[f] = true
	}

	return &Watcher{
		fsw:      fsw,
		dir:      dir,
		files:    watched,
		debounce: debounce,
		onChange: onChange,
		log:      log,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. The directory is watched rather than the files
// themselves because atomic writes replace the files by rename.
func (w *Watcher) Start() error {
	if err := w.fsw.Add(w.dir); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop stops the watcher and releases its resources.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.fsw.Close()
	})
}

// loop processes filesystem events. Writers produce several events per
// save (create temp, write, rename), so events are collected until the
// debounce timer fires and delivered as one batch.
func (w *Watcher) loop() {
	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain initial timer

	pending := make(map[string]bool)

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if !w.files[name] {
				continue
			}

			pending[name] = true
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			pending = make(map[string]bool)
			w.onChange(changed)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}
