package recent

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/bastiangx/docsearch/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last event on a
// list file before reloading. Editors often write a file several times per save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a Store whenever one of its list files changes.
type Watcher struct {
	fw       *fsnotify.Watcher
	store    *Store
	lists    []string
	watched  map[string]bool
	debounce time.Duration
	onReload func()

	mu      sync.Mutex
	timer   *time.Timer
	done    chan struct{}
	stopped bool
}

// NewWatcher prepares a watcher for the given list files.
// onReload, when not nil, runs after every reload.
func NewWatcher(store *Store, lists []string, onReload func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fw:       fw,
		store:    store,
		watched:  make(map[string]bool, len(lists)),
		debounce: DefaultDebounce,
		onReload: onReload,
		done:     make(chan struct{}),
	}
	for _, list := range lists {
		abs, err := filepath.Abs(utils.ExpandHome(list))
		if err != nil {
			log.Warnf("Cannot watch recent list %s: %v", list, err)
			continue
		}
		w.lists = append(w.lists, abs)
		w.watched[abs] = true
	}
	return w, nil
}

// Watch creates and starts a watcher. When starting fails the fsnotify
// handle is closed before the error is returned.
func Watch(store *Store, lists []string, onReload func()) (*Watcher, error) {
	w, err := NewWatcher(store, lists, onReload)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return nil, err
	}
	return w, nil
}

// Start watches the directories holding the list files, so lists that are
// replaced by rename are still picked up.
func (w *Watcher) Start() error {
	dirs := make(map[string]bool)
	for _, list := range w.lists {
		dir := filepath.Dir(list)
		if dirs[dir] {
			continue
		}
		if err := w.fw.Add(dir); err != nil {
			return err
		}
		dirs[dir] = true
	}

	go w.loop()
	log.Debugf("Watching %d recent lists", len(w.lists))
	return nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !w.watched[filepath.Clean(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.schedule()
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Warnf("Recent list watcher error: %v", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}

	if err := w.store.Reload(w.lists); err != nil {
		log.Warnf("Recent lists reloaded with errors: %v", err)
	}
	log.Debugf("Recent lists reloaded: %d documents", w.store.Len())
	if w.onReload != nil {
		w.onReload()
	}
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	return w.fw.Close()
}
