// Package settings persists user preferences across sessions.
//
// A store is scoped by an (organization, application) pair and resolves to
// the same data the Qt build of the application uses: the Windows registry
// under HKCU\Software\<organization>\<application>, or an INI file under the
// user configuration directory elsewhere.
//
// Opening a store is lazy and never destructive: nothing is created until the
// first write, and existing data is kept as is. Every read loads from the
// backend, so changes made by other processes are visible without re-opening.
package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/ubuntu/decorate"
)

// ErrValueNotExist is returned when reading a setting that was never stored.
var ErrValueNotExist = errors.New("the setting is not stored")

// Backend gives raw access to one platform store. Values are string-typed at
// the wire level.
//
// ReadValue errors satisfy errors.Is(err, ErrValueNotExist) when nothing is
// stored under the name. Writes are persisted before returning.
type Backend interface {
	ReadValue(name string) (string, error)
	WriteValue(name, value string) error
	RemoveValue(name string) error
	Clear() error
	Location() string
}

// Store is the persistent settings store of one application.
type Store struct {
	organization string
	application  string

	backend Backend
	mu      *sync.Mutex
}

type options struct {
	registry Registry
	iniPath  string
}

// Option is an optional argument for New.
type Option func(*options)

// WithRegistry makes the store keep its values in the Windows registry
// accessed through r.
func WithRegistry(r Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithIniFile makes the store keep its values in the INI file at path instead
// of the platform-native location.
func WithIniFile(path string) Option {
	return func(o *options) {
		o.iniPath = path
	}
}

// New opens the store scoped by the organization and application pair.
// Opening the same pair twice resolves to the same data.
func New(organization, application string, args ...Option) (*Store, error) {
	if organization == "" || application == "" {
		return nil, errors.New("settings: organization and application must not be empty")
	}

	var opts options
	for _, f := range args {
		f(&opts)
	}

	var backend Backend
	switch {
	case opts.registry != nil:
		backend = registryBackend{reg: opts.registry, path: KeyPath(organization, application)}
	case opts.iniPath != "":
		backend = newIniBackend(opts.iniPath)
	default:
		b, err := nativeBackend(organization, application)
		if err != nil {
			return nil, fmt.Errorf("settings: could not open the %s/%s store: %v", organization, application, err)
		}
		backend = b
	}

	return &Store{
		organization: organization,
		application:  application,
		backend:      backend,
		mu:           &sync.Mutex{},
	}, nil
}

// Organization this store is scoped by.
func (s *Store) Organization() string {
	return s.organization
}

// Application this store is scoped by.
func (s *Store) Application() string {
	return s.application
}

// Location describes where the values are kept, for display purposes.
func (s *Store) Location() string {
	return s.backend.Location()
}

// GetInt returns the effective value of an integer-typed setting.
//
// A missing key is the expected first-run state, so it falls back to the
// declared default without error. Stored values that do not parse as
// integers fall back too, with a warning logged. The error is reserved for
// backends that cannot be read at all, and even then the default is returned
// alongside it.
func (s *Store) GetInt(setting IntSetting) (int, error) {
	raw, err := s.readValue(setting.key)
	if errors.Is(err, ErrValueNotExist) {
		return setting.fallback, nil
	}
	if err != nil {
		return setting.fallback, fmt.Errorf("settings: could not read %q: %v", setting.key, err)
	}

	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		log.Warningf("Settings: value %q stored under %q is not an integer. Using default %d.", raw, setting.key, setting.fallback)
		return setting.fallback, nil
	}
	return v, nil
}

// GetString returns the effective value of a string-typed setting, falling
// back to the declared default when the key was never stored.
func (s *Store) GetString(setting StringSetting) (string, error) {
	raw, err := s.readValue(setting.key)
	if errors.Is(err, ErrValueNotExist) {
		return setting.fallback, nil
	}
	if err != nil {
		return setting.fallback, fmt.Errorf("settings: could not read %q: %v", setting.key, err)
	}
	return raw, nil
}

// Get returns the effective wire value of any declared setting, and whether
// it comes from the store rather than from the schema default.
func (s *Store) Get(setting Setting) (value string, stored bool, err error) {
	raw, err := s.readValue(setting.Key())
	if errors.Is(err, ErrValueNotExist) {
		return setting.DefaultString(), false, nil
	}
	if err != nil {
		return setting.DefaultString(), false, fmt.Errorf("settings: could not read %q: %v", setting.Key(), err)
	}
	return raw, true, nil
}

// Set validates raw against the setting's declared type and stores it.
func (s *Store) Set(setting Setting, raw string) (err error) {
	defer decorate.OnError(&err, "settings: could not set %q", setting.Key())

	if err := setting.validate(raw); err != nil {
		return err
	}
	return s.writeValue(setting.Key(), raw)
}

// SetInt stores the value of an integer-typed setting.
func (s *Store) SetInt(setting IntSetting, value int) (err error) {
	defer decorate.OnError(&err, "settings: could not set %q", setting.key)

	return s.writeValue(setting.key, strconv.Itoa(value))
}

// SetString stores the value of a string-typed setting.
func (s *Store) SetString(setting StringSetting, value string) (err error) {
	defer decorate.OnError(&err, "settings: could not set %q", setting.key)

	return s.writeValue(setting.key, value)
}

// Unset removes the setting from the store, so reads fall back to the
// declared default again. Unsetting a setting that was never stored does
// nothing.
func (s *Store) Unset(setting Setting) (err error) {
	defer decorate.OnError(&err, "settings: could not unset %q", setting.Key())

	return s.removeValue(setting.Key())
}

// Reset removes every stored value. Resetting a store that was never written
// does nothing.
func (s *Store) Reset() (err error) {
	defer decorate.OnError(&err, "settings: could not reset the %s/%s store", s.organization, s.application)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.Clear()
}

func (s *Store) readValue(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.ReadValue(name)
}

func (s *Store) writeValue(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.WriteValue(name, value)
}

func (s *Store) removeValue(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.RemoveValue(name)
}
