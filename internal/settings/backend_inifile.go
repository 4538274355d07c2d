package settings

import (
	"errors"

	"github.com/jvegaf/FlatCAM/internal/settings/inifile"
)

// iniBackend adapts the INI file backend to the store's error contract.
type iniBackend struct {
	*inifile.Backend
}

func newIniBackend(path string) iniBackend {
	return iniBackend{inifile.New(path)}
}

func (b iniBackend) ReadValue(name string) (string, error) {
	value, err := b.Backend.ReadValue(name)
	if errors.Is(err, inifile.ErrKeyNotExist) {
		return "", ErrValueNotExist
	}
	return value, err
}
