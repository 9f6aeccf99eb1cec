package uploads

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher keeps an in-memory index of the files present under the
// pics directory so item handlers can check pic references without
// touching the filesystem per request. The index is advisory: a
// missing pic is logged, never rejected.
type Watcher struct {
	dir     string
	watcher *fsnotify.Watcher

	mu    sync.RWMutex
	files map[string]struct{}

	running bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher creates a watcher for the given pics directory.
func NewWatcher(dir string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		dir:     dir,
		watcher: fsWatcher,
		files:   make(map[string]struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start scans the directory, registers the watch and begins tracking
// events.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			w.files[entry.Name()] = struct{}{}
		}
	}

	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	w.running = true
	w.wg.Add(1)
	go w.loop()

	log.Info().Str("dir", w.dir).Int("files", len(w.files)).Msg("Pics watcher started")
	return nil
}

// Stop stops watching and releases the fsnotify handle.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)
	w.watcher.Close()
	w.wg.Wait()
	log.Debug().Msg("Pics watcher stopped")
}

// Has reports whether a file with the given name is present in the
// pics directory.
func (w *Watcher) Has(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.files[filepath.Base(name)]
	return ok
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)

			switch {
			case event.Has(fsnotify.Create):
				w.mu.Lock()
				w.files[name] = struct{}{}
				w.mu.Unlock()
				log.Trace().Str("pic", name).Msg("Pic appeared")

			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				w.mu.Lock()
				delete(w.files, name)
				w.mu.Unlock()
				log.Trace().Str("pic", name).Msg("Pic removed")
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("Pics watcher error")
		}
	}
}
