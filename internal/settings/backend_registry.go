package settings

import (
	"errors"
	"fmt"

	"github.com/jvegaf/FlatCAM/internal/settings/registry"
	"github.com/ubuntu/decorate"
)

// Registry is the subset of registry operations the store needs. It is
// implemented by registry.Windows and mocked in tests.
type Registry interface {
	HKCUOpenKey(path string) (registry.Key, error)
	HKCUCreateKey(path string) (registry.Key, error)
	CloseKey(k registry.Key)

	ReadValue(k registry.Key, field string) (string, error)
	WriteValue(k registry.Key, field, value string) error
	DeleteValue(k registry.Key, field string) error
	ValueNames(k registry.Key) ([]string, error)
}

// KeyPath is the registry key, relative to HKCU, behind the store scoped by
// the organization and application pair.
func KeyPath(organization, application string) string {
	return fmt.Sprintf(`Software\%s\%s`, organization, application)
}

// registryBackend keeps the store's values in HKCU\Software\<org>\<app>.
//
// The key is opened per operation and created on the first write, so a store
// that was never written leaves no trace in the registry.
type registryBackend struct {
	reg  Registry
	path string
}

func (b registryBackend) Location() string {
	return `HKCU\` + b.path
}

func (b registryBackend) ReadValue(name string) (value string, err error) {
	defer decorate.OnError(&err, `could not read %q from HKCU\%s`, name, b.path)

	k, err := b.reg.HKCUOpenKey(b.path)
	if errors.Is(err, registry.ErrKeyNotExist) {
		// The store was never written.
		return "", ErrValueNotExist
	}
	if err != nil {
		return "", err
	}
	defer b.reg.CloseKey(k)

	value, err = b.reg.ReadValue(k, name)
	if errors.Is(err, registry.ErrFieldNotExist) {
		return "", ErrValueNotExist
	}
	if err != nil {
		return "", err
	}

	return value, nil
}

func (b registryBackend) WriteValue(name, value string) (err error) {
	defer decorate.OnError(&err, `could not write %q into HKCU\%s`, name, b.path)

	k, err := b.reg.HKCUCreateKey(b.path)
	if err != nil {
		return err
	}
	defer b.reg.CloseKey(k)

	return b.reg.WriteValue(k, name, value)
}

func (b registryBackend) RemoveValue(name string) (err error) {
	defer decorate.OnError(&err, `could not remove %q from HKCU\%s`, name, b.path)

	// Opening read-only first keeps removals from creating the key.
	k, err := b.reg.HKCUOpenKey(b.path)
	if errors.Is(err, registry.ErrKeyNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	b.reg.CloseKey(k)

	k, err = b.reg.HKCUCreateKey(b.path)
	if err != nil {
		return err
	}
	defer b.reg.CloseKey(k)

	err = b.reg.DeleteValue(k, name)
	if errors.Is(err, registry.ErrFieldNotExist) {
		return nil
	}
	return err
}

func (b registryBackend) Clear() (err error) {
	defer decorate.OnError(&err, `could not clear HKCU\%s`, b.path)

	k, err := b.reg.HKCUOpenKey(b.path)
	if errors.Is(err, registry.ErrKeyNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	b.reg.CloseKey(k)

	k, err = b.reg.HKCUCreateKey(b.path)
	if err != nil {
		return err
	}
	defer b.reg.CloseKey(k)

	names, err := b.reg.ValueNames(k)
	if err != nil {
		return err
	}

	var errs error
	for _, name := range names {
		err := b.reg.DeleteValue(k, name)
		if errors.Is(err, registry.ErrFieldNotExist) {
			continue
		}
		errs = errors.Join(errs, err)
	}

	return errs
}
