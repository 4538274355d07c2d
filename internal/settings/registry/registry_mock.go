package registry

import (
	"context"
	"errors"
	"math/rand"
	"path"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// Mock is a fake registry stored in memory.
type Mock struct {
	// keys contains the registry key database, indexed by normalized path
	// relative to HKCU. "Software" always exists, as we consider that to be
	// the minimal "sane" Windows install.
	mu   sync.RWMutex
	keys map[string]*key

	// keyHandles contains the handles to the keys. The Win32API returns void pointers to the
	// key handles, and we mimic this behaviour so we can fit the interface. The user of this
	// library will have a "pointer", which is just a key into this map.
	keyHandles mockedHeap[Key, *keyHandle]

	// eventHandles contains the events. The Win32API returns void pointers to the events, and
	// we mimic this behaviour so we can fit the interface. The user of this library will have
	// a "pointer", which is just a key into this map.
	eventHandles mockedHeap[Event, *eventHandle]

	// Settings to break the registry
	CannotCreate atomic.Bool
	CannotOpen   atomic.Bool
	CannotRead   atomic.Bool
	CannotWrite  atomic.Bool
	CannotDelete atomic.Bool
	CannotWatch  atomic.Bool
	CannotWait   atomic.Bool
}

// key mocks a registry key.
type key struct {
	mu     *sync.RWMutex
	path   string
	data   map[string]string
	events []Event
}

// notify triggers the events attached to the key at path and to all its
// ancestors. Watchers of a parent key see changes to its subtree, which is
// how REG_NOTIFY_CHANGE_NAME behaves with watchSubtree enabled.
func (r *Mock) notify(keyPath string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for p := keyPath; p != "." && p != "/"; p = path.Dir(p) {
		k, ok := r.keys[p]
		if !ok {
			continue
		}
		r.triggerEvents(k)
	}
}

func (r *Mock) triggerEvents(k *key) {
	k.mu.Lock()
	defer k.mu.Unlock()

	// Trigger all events
	r.eventHandles.mu.Lock()
	for _, event := range k.events {
		if e, ok := r.eventHandles.data[event]; ok {
			e.trigger()
		}
	}
	r.eventHandles.mu.Unlock()

	// Reset the list
	k.events = make([]Event, 0)
}

func (r *Mock) setValue(k *key, field, value string) {
	defer r.notify(k.path)

	k.mu.Lock()
	defer k.mu.Unlock()

	k.data[field] = value
}

func (r *Mock) deleteValue(k *key, field string) error {
	defer r.notify(k.path)

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, ok := k.data[field]; !ok {
		return ErrFieldNotExist
	}

	delete(k.data, field)
	return nil
}

func (*Mock) getValue(k *key, field string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	d, ok := k.data[field]
	if !ok {
		return d, ErrFieldNotExist
	}

	return d, nil
}

// keyHandle represents the object Win32 callers get when opening a key.
// Note that the Win32 API returns a HANDLE (i.e. a typedef'd void*), so this
// struct represents the structure that HANDLE points to.
type keyHandle struct {
	key      *key
	readOnly bool

	ctx       context.Context
	cancelCtx context.CancelFunc
}

// eventHandle represents the object Win32 callers get when creating an event.
// Note that the Win32 API returns a HANDLE (i.e. a typedef'd void*), so this
// struct represents the structure that HANDLE points to.
type eventHandle struct {
	ctx     context.Context
	trigger func()
}

// NewMock initializes a mocked registry.
func NewMock() *Mock {
	if !testing.Testing() {
		panic("This registry function should be used by tests only")
	}

	m := &Mock{
		keys: make(map[string]*key),
	}
	m.keys["Software"] = newKey("Software")

	m.keyHandles.data = make(map[Key]*keyHandle)
	m.eventHandles.data = make(map[Event]*eventHandle)

	return m
}

func newKey(keyPath string) *key {
	return &key{
		mu:   &sync.RWMutex{},
		path: keyPath,
		data: make(map[string]string),
		// events is initialized empty rather than nil so that tests leaking
		// an event show up in RequireNoLeaks.
		events: make([]Event, 0),
	}
}

// normalizePath renders a registry path with forward slashes and no trailing
// separator, so that `Software\Foo` and `Software/Foo/` address the same key.
func normalizePath(keyPath string) string {
	return path.Clean(strings.ReplaceAll(keyPath, `\`, "/"))
}

// KeyExists returns whether the key at the specified path exists in the mock registry.
func (r *Mock) KeyExists(keyPath string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.keys[normalizePath(keyPath)]
	return ok
}

// RequireNoLeaks is a test helper to ensure we freed all allocations.
func (r *Mock) RequireNoLeaks(t *testing.T) {
	t.Helper()
	require.Empty(t, r.keyHandles.data, "registry mock: leaking registry key handles")
	require.Empty(t, r.eventHandles.data, "registry mock: leaking event handles")
}

// HKCUOpenKey mocks opening a key in the specified path under the HK_CURRENT_USER registry.
func (r *Mock) HKCUOpenKey(path string) (Key, error) {
	if r.CannotOpen.Load() {
		return 0, ErrMock
	}

	r.mu.RLock()
	k, ok := r.keys[normalizePath(path)]
	r.mu.RUnlock()

	if !ok {
		return 0, ErrKeyNotExist
	}

	return r.keyHandles.alloc(&keyHandle{
		key:      k,
		readOnly: true,
	}), nil
}

// HKCUCreateKey mocks opening a key in the specified path under the
// HK_CURRENT_USER registry with write permissions, creating it and any
// missing parents.
func (r *Mock) HKCUCreateKey(path string) (Key, error) {
	if r.CannotCreate.Load() {
		return 0, ErrMock
	}

	k, created := r.createKey(normalizePath(path))
	if created {
		// Subkey creation is visible to watchers of the ancestors.
		r.notify(k.path)
	}

	return r.keyHandles.alloc(&keyHandle{
		key:      k,
		readOnly: false,
	}), nil
}

// createKey inserts the key at path and any missing ancestors into the
// database. It reports whether any key had to be created.
func (r *Mock) createKey(path string) (k *key, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	components := strings.Split(path, "/")
	for i := range components {
		p := strings.Join(components[:i+1], "/")
		k = r.keys[p]
		if k != nil {
			continue
		}
		k = newKey(p)
		r.keys[p] = k
		created = true
	}

	return k, created
}

// CloseKey mocks releasing a key, cancelling any associated listener.
func (r *Mock) CloseKey(ptr Key) {
	defer r.keyHandles.free(ptr)

	r.keyHandles.mu.Lock()
	defer r.keyHandles.mu.Unlock()

	handle, ok := r.keyHandles.data[ptr]

	if !ok {
		return
	}

	if handle.cancelCtx != nil {
		handle.cancelCtx()
	}
}

// CloseEvent mocks releasing an event.
func (r *Mock) CloseEvent(ptr Event) {
	r.eventHandles.free(ptr)
}

// ReadValue returns the value of the specified field in the specified key.
func (r *Mock) ReadValue(ptr Key, field string) (value string, err error) {
	if ptr == 0 {
		return value, errors.New("null key")
	}

	if r.CannotRead.Load() {
		return "", ErrMock
	}

	handle, ok := r.keyHandles.data[ptr]

	if !ok {
		return "", ErrKeyNotExist
	}

	return r.getValue(handle.key, field)
}

// WriteValue is used to write a value into the registry.
func (r *Mock) WriteValue(ptr Key, field, value string) error {
	if r.CannotWrite.Load() {
		return ErrMock
	}

	r.keyHandles.mu.Lock()
	defer r.keyHandles.mu.Unlock()

	handle, ok := r.keyHandles.data[ptr]

	if !ok {
		return ErrKeyNotExist
	}

	if handle.readOnly {
		return ErrAccessDenied
	}

	r.setValue(handle.key, field, value)

	return nil
}

// DeleteValue removes the specified field from the specified key.
func (r *Mock) DeleteValue(ptr Key, field string) error {
	if r.CannotDelete.Load() {
		return ErrMock
	}

	r.keyHandles.mu.Lock()
	defer r.keyHandles.mu.Unlock()

	handle, ok := r.keyHandles.data[ptr]

	if !ok {
		return ErrKeyNotExist
	}

	if handle.readOnly {
		return ErrAccessDenied
	}

	return r.deleteValue(handle.key, field)
}

// ValueNames lists the names of every field stored in the specified key.
func (r *Mock) ValueNames(ptr Key) ([]string, error) {
	if ptr == 0 {
		return nil, errors.New("null key")
	}

	if r.CannotRead.Load() {
		return nil, ErrMock
	}

	handle, ok := r.keyHandles.data[ptr]

	if !ok {
		return nil, ErrKeyNotExist
	}

	handle.key.mu.RLock()
	defer handle.key.mu.RUnlock()

	names := make([]string, 0, len(handle.key.data))
	for name := range handle.key.data {
		names = append(names, name)
	}
	slices.Sort(names)

	return names, nil
}

// RegNotifyChangeKeyValue creates an event and attaches it to a registry key.
// Modifying that key or its children will trigger the event.
// This trigger can be detected by WaitForSingleObject.
func (r *Mock) RegNotifyChangeKeyValue(ptr Key) (Event, error) {
	if r.CannotWatch.Load() {
		return 0, ErrMock
	}

	r.keyHandles.mu.Lock()
	defer r.keyHandles.mu.Unlock()

	handle, ok := r.keyHandles.data[ptr]
	if !ok {
		return 0, ErrKeyNotExist
	}

	if handle.ctx != nil {
		return 0, errors.New("cannot have more than one listener per key handle")
	}

	handle.ctx, handle.cancelCtx = context.WithCancel(context.Background())

	// Create event
	evHandle := r.newEvent(handle.ctx)

	// Attach event to key
	handle.key.mu.Lock()
	defer handle.key.mu.Unlock()

	handle.key.events = append(handle.key.events, evHandle)

	return evHandle, nil
}

// WaitForSingleObject waits until the event is triggered. This is a blocking function.
func (r *Mock) WaitForSingleObject(handle Event) error {
	if r.CannotWait.Load() {
		return ErrMock
	}

	r.eventHandles.mu.Lock()
	event, ok := r.eventHandles.data[handle]
	r.eventHandles.mu.Unlock()

	if !ok {
		return errors.New("invalid event")
	}

	<-event.ctx.Done()
	return nil
}

// SetEvent triggers an event.
func (r *Mock) SetEvent(handle Event) error {
	r.eventHandles.mu.Lock()
	event, ok := r.eventHandles.data[handle]
	r.eventHandles.mu.Unlock()

	if !ok {
		return errors.New("invalid event")
	}

	event.trigger()
	return nil
}

func (r *Mock) newEvent(ctx context.Context) Event {
	ctx, cancel := context.WithCancel(ctx)

	return r.eventHandles.alloc(&eventHandle{
		ctx:     ctx,
		trigger: cancel,
	})
}

// Mocks memory access mapping a uintptr and real data.
type mockedHeap[KeyType ~uintptr, DataType any] struct {
	mu   sync.Mutex
	data map[KeyType]DataType
}

func (h *mockedHeap[P, D]) alloc(data D) P {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Generate a random uintptr
	var ptr P
	for {
		//nolint:gosec // No need for a secure random number as this is test code
		ptr = P(rand.Int63())
		if ptr == 0 {
			continue
		}
		if _, ok := h.data[ptr]; ok {
			continue
		}
		break
	}

	h.data[ptr] = data
	return ptr
}

func (h *mockedHeap[P, D]) free(ptr P) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.data, ptr)
}
