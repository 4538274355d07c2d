// Package inifile implements the settings backend used where the Windows
// registry is not available.
//
// The on-disk layout matches what the Qt build of the application writes:
// ungrouped keys live in a [General] section of an INI file, so stores
// written by earlier releases resolve to the same values.
package inifile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ubuntu/decorate"
	ini "gopkg.in/ini.v1"
)

func init() {
	// Qt writes "key=value" with no padding. Aligned output would round-trip
	// through our own parser but not through every Qt version's.
	ini.PrettyFormat = false
}

// sectionName is the section Qt stores ungrouped keys in.
const sectionName = "General"

// ErrKeyNotExist is returned when reading a key that is not in the file.
var ErrKeyNotExist = errors.New("the key does not exist")

// Backend reads and writes settings in an INI file.
//
// The file and its parent directory are created lazily on the first write:
// reading a store that was never written behaves as reading an empty one.
type Backend struct {
	path string
	mu   *sync.Mutex
}

// New returns a backend storing its values at path. The file is not accessed
// until the store is first read from or written to.
func New(path string) *Backend {
	return &Backend{
		path: path,
		mu:   &sync.Mutex{},
	}
}

// Location is the path to the backing file.
func (b *Backend) Location() string {
	return b.path
}

// ReadValue returns the value stored under the specified name.
func (b *Backend) ReadValue(name string) (value string, err error) {
	defer decorate.OnError(&err, "could not read %q from %s", name, b.path)

	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := b.load()
	if err != nil {
		return "", err
	}

	section := f.Section(sectionName)
	if !section.HasKey(name) {
		return "", ErrKeyNotExist
	}

	return section.Key(name).String(), nil
}

// WriteValue stores value under the specified name, creating the file if necessary.
func (b *Backend) WriteValue(name, value string) (err error) {
	defer decorate.OnError(&err, "could not write %q into %s", name, b.path)

	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := b.load()
	if err != nil {
		return err
	}

	f.Section(sectionName).Key(name).SetValue(value)

	return b.save(f)
}

// RemoveValue deletes the specified name from the file. Removing a name that
// was never stored is not an error and does not create the file.
func (b *Backend) RemoveValue(name string) (err error) {
	defer decorate.OnError(&err, "could not remove %q from %s", name, b.path)

	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := b.load()
	if err != nil {
		return err
	}

	section := f.Section(sectionName)
	if !section.HasKey(name) {
		return nil
	}

	section.DeleteKey(name)

	return b.save(f)
}

// Clear removes every stored value. The file is kept, but clearing a store
// that was never written does not create it.
func (b *Backend) Clear() (err error) {
	defer decorate.OnError(&err, "could not clear %s", b.path)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := os.Stat(b.path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return b.save(ini.Empty())
}

// load parses the backing file. A file that does not exist parses as empty.
func (b *Backend) load() (*ini.File, error) {
	f, err := ini.Load(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ini.Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not parse settings file: %v", err)
	}
	return f, nil
}

// save serializes f into the backing file, creating the parent directory if
// necessary. Permissions are restrictive: settings are per-user state.
func (b *Backend) save(f *ini.File) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0700); err != nil {
		return fmt.Errorf("could not create settings directory: %v", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return fmt.Errorf("could not serialize settings: %v", err)
	}

	if err := os.WriteFile(b.path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("could not write settings file: %v", err)
	}

	return nil
}
