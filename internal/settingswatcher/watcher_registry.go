package settingswatcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/jvegaf/FlatCAM/internal/settings"
	"github.com/jvegaf/FlatCAM/internal/settings/registry"
	log "github.com/sirupsen/logrus"
)

// registryParentPath is the path to the first parent that we can guarantee
// exists. We watch this key as long as the store's own key has not been
// created yet.
const registryParentPath = `Software\`

// Registry is an interface to the Windows registry.
type Registry interface {
	HKCUOpenKey(path string) (registry.Key, error)
	CloseKey(k registry.Key)

	// Win32 events: not strictly registry but not worth separating out.
	RegNotifyChangeKeyValue(k registry.Key) (registry.Event, error)
	WaitForSingleObject(event registry.Event) error
	SetEvent(event registry.Event) error
	CloseEvent(event registry.Event)
}

// registryWatcher detects changes to the registry key backing a settings
// store. While that key does not exist it watches the closest parent instead,
// so that creating the store counts as a change like any other.
type registryWatcher struct {
	registry Registry
	path     string
}

func newRegistryWatcher(reg Registry, store *settings.Store) Watcher {
	return registryWatcher{
		registry: reg,
		path:     settings.KeyPath(store.Organization(), store.Application()),
	}
}

// Watch arms a change notification for the store's registry key.
func (w registryWatcher) Watch(ctx context.Context) (wait func(context.Context) error, err error) {
	path := w.path
	k, err := w.registry.HKCUOpenKey(path)
	if errors.Is(err, registry.ErrKeyNotExist) {
		// The store was never written: watch the Software key instead, which
		// we're almost guaranteed exists.
		path = registryParentPath
		k, err = w.registry.HKCUOpenKey(path)
	}
	if err != nil {
		return nil, fmt.Errorf(`could not open registry key HKCU\%s: %v`, path, err)
	}

	event, err := w.registry.RegNotifyChangeKeyValue(k)
	if err != nil {
		w.registry.CloseKey(k)
		return nil, fmt.Errorf(`could not watch changes to registry key HKCU\%s: %v`, path, err)
	}

	log.WithContext(ctx).Debugf(`Settings watcher: watching registry key HKCU\%s`, path)

	return func(ctx context.Context) error {
		defer w.registry.CloseKey(k)
		defer w.registry.CloseEvent(event)

		if err := w.waitForSingleObject(ctx, event); err != nil {
			return fmt.Errorf(`could not wait for changes to registry key HKCU\%s: %v`, path, err)
		}

		return nil
	}, nil
}

// waitForSingleObject is a utility wrapper around Win32's WaitForSingleObject.
// It allows cancelling the wait with the use of a context.
//
// Cancelling the context sets the event by hand, so the underlying wait
// returns before the handles are released.
func (w registryWatcher) waitForSingleObject(ctx context.Context, event registry.Event) error {
	ch := make(chan error, 1)

	go func() {
		ch <- w.registry.WaitForSingleObject(event)
		close(ch)
	}()

	select {
	case <-ctx.Done():
		if err := w.registry.SetEvent(event); err == nil {
			<-ch
		}
		return ctx.Err()
	case err := <-ch:
		return err
	}
}
