package settingswatcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// fileWatcher detects changes to the file backing a settings store.
//
// The file may not exist until the store is first written to, so the
// containing directory is watched and events are filtered by name. Creating,
// rewriting and removing the file all count as changes.
type fileWatcher struct {
	path string
}

// NewFileWatcher creates a Watcher that reports changes to the file at path.
func NewFileWatcher(path string) Watcher {
	return fileWatcher{path: path}
}

// Watch arms a watch on the settings file's directory.
func (w fileWatcher) Watch(ctx context.Context) (wait func(context.Context) error, err error) {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("could not create directory %s: %v", dir, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not start watching %s: %v", w.path, err)
	}

	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("could not watch directory %s: %v", dir, err)
	}

	log.WithContext(ctx).Debugf("Settings watcher: watching %s", w.path)

	return func(ctx context.Context) error {
		defer fw.Close()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case event, ok := <-fw.Events:
				if !ok {
					return errors.New("event stream closed unexpectedly")
				}
				if filepath.Base(event.Name) != filepath.Base(w.path) {
					continue
				}
				if !event.Has(fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename) {
					continue
				}

				// A single save arrives as a burst of events. Absorb the rest
				// of the burst so that one edit triggers one refresh.
				drain(fw, 50*time.Millisecond)
				return nil
			case err, ok := <-fw.Errors:
				if !ok {
					return errors.New("error stream closed unexpectedly")
				}
				return fmt.Errorf("could not keep watching %s: %v", w.path, err)
			}
		}
	}, nil
}

// drain discards watch events for the specified duration.
func drain(fw *fsnotify.Watcher, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			return
		case <-fw.Events:
		case <-fw.Errors:
		}
	}
}
