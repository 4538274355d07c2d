package prefs

import "github.com/jvegaf/FlatCAM/internal/settingswatcher"

// WithWatcher overrides the change detection used by the watch command.
func WithWatcher(w settingswatcher.Watcher) option {
	return func(o *options) {
		o.watcher = w
	}
}
