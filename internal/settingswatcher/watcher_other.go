//go:build !windows

package settingswatcher

import "github.com/jvegaf/FlatCAM/internal/settings"

// nativeWatcher watches the file backing the store.
func nativeWatcher(store *settings.Store) Watcher {
	return NewFileWatcher(store.Location())
}
