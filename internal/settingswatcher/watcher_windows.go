package settingswatcher

import (
	"github.com/jvegaf/FlatCAM/internal/settings"
	"github.com/jvegaf/FlatCAM/internal/settings/registry"
)

// nativeWatcher watches the registry key backing the store.
func nativeWatcher(store *settings.Store) Watcher {
	return newRegistryWatcher(registry.Windows{}, store)
}
