package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// Setting is one declared key of the store: its name, its wire type and the
// default used when nothing is stored. The set of implementations is closed
// so that every key the application reads is declared here.
type Setting interface {
	// Key is the name the value is stored under.
	Key() string

	// Description is a short summary of what the key controls.
	Description() string

	// DefaultString is the declared default rendered at the wire level.
	DefaultString() string

	// validate rejects raw values that do not parse as the declared type.
	validate(raw string) error
}

// The declared settings of the application.
var (
	// Machinist is the boolean-like flag enabling the expert UI mode with
	// extended machining parameters. 0 disables it.
	Machinist = IntSetting{key: "machinist", description: "expert mode with extended machining parameters (0 or 1)"}

	// Language is the locale of the translation catalog applied at startup.
	// Empty means the environment's locale.
	Language = StringSetting{key: "language", description: "locale of the translation catalog applied at startup"}

	// Style is the GUI style name handed over to the toolkit.
	Style = StringSetting{key: "style", description: "name of the GUI style"}

	// HDPI is the boolean-like flag enabling High-DPI display scaling. 0
	// disables it.
	HDPI = IntSetting{key: "hdpi", description: "High-DPI display scaling (0 or 1)"}
)

// All lists the declared settings in display order.
func All() []Setting {
	return []Setting{Machinist, Language, Style, HDPI}
}

// Lookup resolves a key name to its declared setting.
func Lookup(key string) (Setting, bool) {
	for _, s := range All() {
		if s.Key() == key {
			return s, true
		}
	}
	return nil, false
}

// IntSetting is a setting declared as integer-typed.
type IntSetting struct {
	key         string
	fallback    int
	description string
}

// Key returns the name the value is stored under.
func (s IntSetting) Key() string {
	return s.key
}

// Description returns a short summary of what the key controls.
func (s IntSetting) Description() string {
	return s.description
}

// Default is the value reads fall back to when nothing is stored.
func (s IntSetting) Default() int {
	return s.fallback
}

// DefaultString is the declared default rendered at the wire level.
func (s IntSetting) DefaultString() string {
	return strconv.Itoa(s.fallback)
}

func (s IntSetting) validate(raw string) error {
	if _, err := strconv.Atoi(strings.TrimSpace(raw)); err != nil {
		return fmt.Errorf("%q is not an integer", raw)
	}
	return nil
}

// StringSetting is a setting declared as string-typed.
type StringSetting struct {
	key         string
	fallback    string
	description string
}

// Key returns the name the value is stored under.
func (s StringSetting) Key() string {
	return s.key
}

// Description returns a short summary of what the key controls.
func (s StringSetting) Description() string {
	return s.description
}

// Default is the value reads fall back to when nothing is stored.
func (s StringSetting) Default() string {
	return s.fallback
}

// DefaultString is the declared default rendered at the wire level.
func (s StringSetting) DefaultString() string {
	return s.fallback
}

func (StringSetting) validate(string) error {
	return nil
}
