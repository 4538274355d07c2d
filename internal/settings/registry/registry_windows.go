package registry

import (
	"errors"
	"fmt"
	"strconv"
	"syscall"

	"github.com/ubuntu/decorate"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

// Windows is the Windows registry. Any interaction with it affects the
// registry of the current user.
type Windows struct{}

// HKCUOpenKey opens a key in the specified path under the HK_CURRENT_USER registry with read permissions.
func (Windows) HKCUOpenKey(path string) (Key, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, path, registry.READ)
	if errors.Is(err, registry.ErrNotExist) {
		return 0, ErrKeyNotExist
	}
	if errors.Is(err, syscall.Errno(5)) { // Access is denied
		return 0, ErrAccessDenied
	}
	return Key(key), err
}

// HKCUCreateKey creates a key in the specified path under the HK_CURRENT_USER
// registry with read/write permissions. Missing parent keys are created along
// the way, and creating a key that already exists simply opens it.
func (Windows) HKCUCreateKey(path string) (Key, error) {
	key, _, err := registry.CreateKey(registry.CURRENT_USER, path, registry.READ|registry.WRITE)
	if errors.Is(err, registry.ErrNotExist) {
		return 0, ErrKeyNotExist
	}
	if errors.Is(err, syscall.Errno(5)) { // Access is denied
		return 0, ErrAccessDenied
	}
	return Key(key), err
}

// CloseKey releases a key.
func (Windows) CloseKey(k Key) {
	// The error is not actionable, so no point in reporting it
	_ = registry.Key(k).Close()
}

// ReadValue returns the value of the specified field in the specified key,
// rendered as a string. Integer fields (DWORD or QWORD) are accepted too and
// rendered in base 10: the Qt build of the application stores boolean-like
// flags as integers.
func (Windows) ReadValue(k Key, field string) (string, error) {
	value, _, err := registry.Key(k).GetStringValue(field)
	if err == nil {
		return value, nil
	}
	if errors.Is(err, registry.ErrNotExist) {
		return "", ErrFieldNotExist
	}
	if !errors.Is(err, registry.ErrUnexpectedType) {
		return "", err
	}

	n, _, err := registry.Key(k).GetIntegerValue(field)
	if errors.Is(err, registry.ErrNotExist) {
		return "", ErrFieldNotExist
	}
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(n, 10), nil
}

// WriteValue writes the value to the specified field in the specified key as a string.
func (Windows) WriteValue(k Key, field, value string) error {
	err := registry.Key(k).SetStringValue(field, value)
	if errors.Is(err, registry.ErrNotExist) {
		return ErrKeyNotExist
	}
	if errors.Is(err, syscall.Errno(5)) { // Access is denied
		return ErrAccessDenied
	}
	return err
}

// DeleteValue removes the specified field from the specified key.
func (Windows) DeleteValue(k Key, field string) error {
	err := registry.Key(k).DeleteValue(field)
	if errors.Is(err, registry.ErrNotExist) {
		return ErrFieldNotExist
	}
	if errors.Is(err, syscall.Errno(5)) { // Access is denied
		return ErrAccessDenied
	}
	return err
}

// ValueNames lists the names of every field stored in the specified key.
func (Windows) ValueNames(k Key) ([]string, error) {
	names, err := registry.Key(k).ReadValueNames(-1)
	if err != nil {
		return nil, fmt.Errorf("could not enumerate the key's fields: %v", err)
	}
	return names, nil
}

// RegNotifyChangeKeyValue creates an event and attaches it to a registry key.
// Modifying that key or its children will trigger the event.
// This trigger can be detected by WaitForSingleObject.
func (Windows) RegNotifyChangeKeyValue(k Key) (ev Event, err error) {
	defer decorate.OnError(&err, "could not start watching registry")

	event, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return 0, fmt.Errorf("could not create event: %v", err)
	}

	// notifyFilter indicates the changes that should be reported.
	var notifyFilter uint32

	// Notify the caller if a subkey is added or deleted.
	notifyFilter |= windows.REG_NOTIFY_CHANGE_NAME

	// Notify the caller of changes to a value of the key.
	// This can include adding or deleting a value, or changing an existing value.
	notifyFilter |= windows.REG_NOTIFY_CHANGE_LAST_SET

	// Ensure that the Go scheduler does not mess with the wait.
	notifyFilter |= windows.REG_NOTIFY_THREAD_AGNOSTIC

	err = windows.RegNotifyChangeKeyValue(windows.Handle(k), true, notifyFilter, event, true)
	if err != nil {
		_ = windows.CloseHandle(event)
		return 0, fmt.Errorf("in call to RegNotifyChangeKeyValue: %v", err)
	}

	return Event(event), nil
}

// WaitForSingleObject waits until the event is triggered. This is a blocking function.
func (Windows) WaitForSingleObject(ev Event) (err error) {
	if _, err := windows.WaitForSingleObject(windows.Handle(ev), windows.INFINITE); err != nil {
		return fmt.Errorf("in call to WaitForSingleObject: %v", err)
	}

	return nil
}

// SetEvent triggers an event.
func (Windows) SetEvent(ev Event) (err error) {
	if err := windows.SetEvent(windows.Handle(ev)); err != nil {
		return fmt.Errorf("in call to SetEvent: %v", err)
	}

	return nil
}

// CloseEvent releases the event.
func (Windows) CloseEvent(ev Event) {
	_ = windows.CloseHandle(windows.Handle(ev))
}
