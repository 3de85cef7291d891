package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watcher watches a config file for changes and delivers each successfully
// reloaded config on Updates. Invalid files are logged and skipped.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	updates chan *Config
	done    chan struct{}
	once    sync.Once
}

// NewWatcher starts watching the directory containing path. Watching the
// directory rather than the file survives editors that save via rename.
func NewWatcher(path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}

	cw := &Watcher{
		path:    path,
		watcher: w,
		updates: make(chan *Config, 1),
		done:    make(chan struct{}),
	}
	go cw.watch()
	return cw, nil
}

// Updates returns the channel of reloaded configs. Only the latest pending
// config is kept if the reader falls behind.
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

// Stop stops the config watcher.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}

func (w *Watcher) watch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("config watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		log.Printf("failed to reload config: %v", err)
		return
	}
	log.Printf("config reloaded from %s", w.path)

	// Replace any config the reader has not picked up yet.
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- cfg:
	case <-w.done:
	}
}
