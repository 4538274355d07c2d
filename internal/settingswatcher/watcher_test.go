package settingswatcher_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jvegaf/FlatCAM/internal/settings"
	"github.com/jvegaf/FlatCAM/internal/settings/registry"
	"github.com/jvegaf/FlatCAM/internal/settingswatcher"
	"github.com/stretchr/testify/require"
)

const (
	testOrg = "Open Source"
	testApp = "FlatCAM"
)

func TestService(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		breakWatcher bool
		rejectPushes bool
	}{
		"Success": {},
		"Success after the watch fails to arm":            {breakWatcher: true},
		"Success after the preferences reject a snapshot": {rejectPushes: true},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()

			store, err := settings.New(testOrg, testApp,
				settings.WithIniFile(filepath.Join(t.TempDir(), testApp+".conf")))
			require.NoError(t, err, "Setup: could not open the settings store")

			conf := &mockConfig{}
			conf.err.Store(tc.rejectPushes)

			watcher := newFakeWatcher()
			watcher.broken.Store(tc.breakWatcher)

			w := settingswatcher.New(ctx, conf, store, settingswatcher.WithWatcher(watcher))
			w.Start()
			defer w.Stop()

			if tc.rejectPushes {
				// Rejected snapshots are dropped, but the service keeps going.
				time.Sleep(time.Second)
				require.Zero(t, conf.ReceivedLen(), "Service should not have delivered any snapshot")
				conf.err.Store(false)
			} else {
				// A snapshot is pushed during the call to Start.
				require.Equal(t, 1, conf.ReceivedLen(), "Service should have pushed a snapshot during Start")
			}

			if tc.breakWatcher {
				// Arming the watch fails: a snapshot is pushed before backing off.
				require.Eventually(t, func() bool { return conf.ReceivedLen() >= 2 },
					5*time.Second, 100*time.Millisecond, "Service should have pushed a snapshot after failing to watch")
				watcher.broken.Store(false)
			}

			// Sooner or later the watch is armed.
			require.Eventually(t, func() bool { return watcher.armed.Load() > 0 },
				time.Minute, 100*time.Millisecond, "Service should have armed the watch")

			// A detected change causes a new push.
			wantLen := conf.ReceivedLen() + 1
			watcher.change()

			require.Eventually(t, func() bool { return conf.ReceivedLen() >= wantLen },
				5*time.Second, 100*time.Millisecond, "Service should have pushed a snapshot after a change")

			// After Stop no further changes are delivered.
			w.Stop()

			wantLen = conf.ReceivedLen()
			watcher.change()
			time.Sleep(500 * time.Millisecond)
			require.Equal(t, wantLen, conf.ReceivedLen(), "Service should not push snapshots after Stop")
		})
	}
}

func TestRegistryWatcher(t *testing.T) {
	t.Parallel()

	const maxUpdateTime = 5 * time.Second

	testCases := map[string]struct {
		startEmptyRegistry bool
		breakOpenKey       bool
		breakReadValue     bool
		breakNotify        bool
		breakWait          bool
	}{
		"Success": {},
		"Success with an empty starting registry":         {startEmptyRegistry: true},
		"Success after not being able to open the key":    {breakOpenKey: true},
		"Success after not being able to read values":     {breakReadValue: true},
		"Success after not being able to watch the key":   {breakNotify: true},
		"Success after not being able to wait for events": {breakWait: true},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()

			reg := registry.NewMock()
			defer reg.RequireNoLeaks(t)

			wantSnap := settings.Defaults()
			if !tc.startEmptyRegistry {
				seedRegistry(t, reg, settings.Machinist.Key(), "1")
				wantSnap.Machinist = 1
			}

			store, err := settings.New(testOrg, testApp, settings.WithRegistry(reg))
			require.NoError(t, err, "Setup: could not open the settings store")

			conf := &mockConfig{}

			reg.CannotOpen.Store(tc.breakOpenKey)
			reg.CannotRead.Store(tc.breakReadValue)
			reg.CannotWatch.Store(tc.breakNotify)
			reg.CannotWait.Store(tc.breakWait)

			w := settingswatcher.New(ctx, conf, store, settingswatcher.WithRegistry(reg))
			w.Start()
			defer w.Stop()

			// wantLen is the expected number of snapshots pushed to the preferences.
			var wantLen int

			if tc.breakOpenKey || tc.breakReadValue {
				// The store cannot be read: no snapshot should be pushed.
				time.Sleep(2 * time.Second)
				require.Equal(t, wantLen, conf.ReceivedLen(), "Watcher should not have pushed an unreadable store")
				reg.CannotOpen.Store(false)
				reg.CannotRead.Store(false)
			} else {
				// Nothing broken: a snapshot is pushed during the call to Start.
				wantLen++
				require.Equal(t, wantLen, conf.ReceivedLen(), "Watcher should have pushed a snapshot during Start")
				require.Equal(t, wantSnap, conf.LatestReceived(), "Snapshot should carry the stored settings")
			}

			if tc.breakNotify || tc.breakWait {
				// Failing to watch is worked around by pushing before backing off.
				wantLen++
				require.Eventually(t, func() bool { return conf.ReceivedLen() >= wantLen },
					maxUpdateTime, 100*time.Millisecond, "Watcher should have pushed a snapshot after failing to watch")
				reg.CannotWatch.Store(false)
				reg.CannotWait.Store(false)
			}

			// The watcher makes a redundant push when it starts watching, except
			// if reads were broken: then the next push comes with the next change.
			if !tc.breakReadValue {
				wantLen = conf.ReceivedLen() + 1
				require.Eventually(t, func() bool { return conf.ReceivedLen() >= wantLen },
					time.Minute, 100*time.Millisecond, "Watcher should have pushed a snapshot after arming the watch")
				require.Equal(t, wantSnap, conf.LatestReceived(), "Snapshot should carry the stored settings")
			}

			wantLen = conf.ReceivedLen() + 1

			k, err := reg.HKCUCreateKey(settings.KeyPath(testOrg, testApp))
			require.NoError(t, err, "Setup: could not create the settings key")
			defer reg.CloseKey(k)

			if tc.startEmptyRegistry {
				// Creating the key is already a change: its parent was being watched.
				require.Eventually(t, func() bool { return conf.ReceivedLen() == wantLen },
					maxUpdateTime, 100*time.Millisecond, "Watcher should have pushed a snapshot after the key was created")
				require.Equal(t, settings.Defaults(), conf.LatestReceived(), "Snapshot of an empty store should carry the defaults")
			}

			wantLen = conf.ReceivedLen() + 1
			err = reg.WriteValue(k, settings.Style.Key(), "legacy")
			require.NoError(t, err, "Setup: could not write into the registry")

			require.Eventually(t, func() bool { return conf.ReceivedLen() >= wantLen },
				maxUpdateTime, 100*time.Millisecond, "Watcher should have pushed a snapshot after the registry changed")
			wantSnap.Style = "legacy"
			require.Equal(t, wantSnap, conf.LatestReceived(), "Snapshot should carry the new style")

			wantLen = conf.ReceivedLen() + 1
			err = reg.WriteValue(k, settings.HDPI.Key(), "1")
			require.NoError(t, err, "Setup: could not write into the registry")

			require.Eventually(t, func() bool { return conf.ReceivedLen() >= wantLen },
				maxUpdateTime, 100*time.Millisecond, "Watcher should have pushed a snapshot after the registry changed")
			wantSnap.HDPI = 1
			require.Equal(t, wantSnap, conf.LatestReceived(), "Snapshot should carry the new settings")
		})
	}
}

func TestFileWatcher(t *testing.T) {
	t.Parallel()

	const maxUpdateTime = 5 * time.Second

	ctx := context.Background()

	path := filepath.Join(t.TempDir(), testApp+".conf")

	store, err := settings.New(testOrg, testApp, settings.WithIniFile(path))
	require.NoError(t, err, "Setup: could not open the settings store")

	conf := &mockConfig{}

	w := settingswatcher.New(ctx, conf, store,
		settingswatcher.WithWatcher(settingswatcher.NewFileWatcher(path)))
	w.Start()
	defer w.Stop()

	// The settings file does not exist yet: the defaults are pushed during Start.
	require.Equal(t, 1, conf.ReceivedLen(), "Watcher should have pushed a snapshot during Start")
	require.Equal(t, settings.Defaults(), conf.LatestReceived(), "Snapshot of a missing file should carry the defaults")

	// A redundant push arrives once the watch is armed.
	require.Eventually(t, func() bool { return conf.ReceivedLen() >= 2 },
		time.Minute, 100*time.Millisecond, "Watcher should have pushed a snapshot after arming the watch")

	// Writing to the store creates the file, which counts as a change.
	wantLen := conf.ReceivedLen() + 1
	require.NoError(t, store.SetInt(settings.Machinist, 1), "Setup: could not write to the settings store")

	require.Eventually(t, func() bool {
		return conf.ReceivedLen() >= wantLen && conf.LatestReceived().Machinist == 1
	}, maxUpdateTime, 100*time.Millisecond, "Watcher should have pushed a snapshot after the file was created")

	// Deleting the file falls back to the defaults.
	wantLen = conf.ReceivedLen() + 1
	require.NoError(t, os.Remove(path), "Setup: could not delete the settings file")

	require.Eventually(t, func() bool {
		return conf.ReceivedLen() >= wantLen && conf.LatestReceived() == settings.Defaults()
	}, maxUpdateTime, 100*time.Millisecond, "Watcher should have pushed a snapshot after the file was deleted")
}

func seedRegistry(t *testing.T, reg *registry.Mock, field, value string) {
	t.Helper()

	k, err := reg.HKCUCreateKey(settings.KeyPath(testOrg, testApp))
	require.NoError(t, err, "Setup: could not create the settings key")
	defer reg.CloseKey(k)

	err = reg.WriteValue(k, field, value)
	require.NoError(t, err, "Setup: could not write into the registry")
}

// fakeWatcher is a Watcher whose change detection is driven by the test.
type fakeWatcher struct {
	trigger chan struct{}
	armed   atomic.Int32
	broken  atomic.Bool
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{trigger: make(chan struct{}, 1)}
}

func (w *fakeWatcher) Watch(ctx context.Context) (func(context.Context) error, error) {
	if w.broken.Load() {
		return nil, errors.New("mock error arming the watch")
	}

	w.armed.Add(1)

	return func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.trigger:
			return nil
		}
	}, nil
}

// change makes the pending (or next) wait return as if a change was detected.
func (w *fakeWatcher) change() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// mockConfig mocks the preferences. It simply stores a history of the snapshots it received.
type mockConfig struct {
	err atomic.Bool

	mu       sync.RWMutex
	received []settings.Snapshot
}

func (c *mockConfig) UpdateSnapshot(ctx context.Context, snap settings.Snapshot) error {
	if c.err.Load() {
		return errors.New("mock error refusing the snapshot")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.received = append(c.received, snap)

	return nil
}

// ReceivedLen is the number of times a snapshot has been pushed to the config.
func (c *mockConfig) ReceivedLen() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.received)
}

// LatestReceived is the latest snapshot pushed to the config.
func (c *mockConfig) LatestReceived() settings.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.received[len(c.received)-1]
}
