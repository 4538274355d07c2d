// Package i18n is responsible for internationalization/translation handling and generation.
package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/snapcore/go-gettext"
)

type i18n struct {
	domain    string
	localeDir string
	loc       string

	gettext.Catalog
	translations gettext.Translations
}

var (
	locale i18n

	// G is the shorthand for Gettext.
	G = func(msgid string) string { return msgid }
	// NG is the shorthand for NGettext.
	NG = func(msgid string, msgidPlural string, n uint32) string { return msgid }
)

// Option is an optional argument to InitI18nDomain.
type Option func(*i18n)

// WithLocaleDir overrides the directory where catalogs are looked up.
func WithLocaleDir(dir string) Option {
	return func(l *i18n) {
		l.localeDir = dir
	}
}

// WithLocale selects the locale explicitly instead of reading the environment.
func WithLocale(loc string) Option {
	return func(l *i18n) {
		l.loc = loc
	}
}

// InitI18nDomain binds domain to its translation catalogs and rebinds G and NG
// to the selected locale. When no catalog matches the locale, G and NG keep
// their pass-through behavior.
func InitI18nDomain(domain string, args ...Option) {
	if domain == "" {
		panic("empty domain passed to InitI18nDomain")
	}

	locale = i18n{
		domain:    domain,
		localeDir: DefaultLocaleDir(),
	}
	for _, f := range args {
		f(&locale)
	}

	locale.bindTextDomain(locale.domain, locale.localeDir)
	locale.setLocale(locale.loc)

	G = locale.Gettext
	NG = locale.NGettext
}

// CurrentLocale returns the simplified locale the last InitI18nDomain call
// resolved to. Empty until InitI18nDomain runs, or when the environment
// selects none.
func CurrentLocale() string {
	return locale.loc
}

// DefaultLocaleDir is where catalogs are looked up when no override is given:
// share/locale next to the executable for packaged installs, the system
// locale dir otherwise.
func DefaultLocaleDir() string {
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Join(filepath.Dir(exe), "..", "share", "locale")
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
	}
	return "/usr/share/locale"
}

// InstalledLanguages lists the locales that ship a catalog for domain under
// localeDir, sorted. A missing directory means no catalogs are installed and
// is not an error.
func InstalledLanguages(localeDir, domain string) ([]string, error) {
	entries, err := os.ReadDir(localeDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not list locale dir: %v", err)
	}

	var langs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		mo := filepath.Join(localeDir, e.Name(), "LC_MESSAGES", fmt.Sprintf("%s.mo", domain))
		if _, err := os.Stat(mo); err != nil {
			continue
		}
		langs = append(langs, e.Name())
	}

	slices.Sort(langs)
	return langs, nil
}

// langpackResolver tries to fetch the locale mo file path.
// It first checks for the full locale (e.g. de_DE) and then
// tries to simplify the locale (e.g. de).
func langpackResolver(root string, locale string, domain string) string {
	for _, locale := range []string{locale, strings.SplitN(locale, "_", 2)[0]} {
		candidate := filepath.Join(root, locale, "LC_MESSAGES", fmt.Sprintf("%s.mo", domain))
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		return candidate
	}

	return ""
}

func (l *i18n) bindTextDomain(domain, dir string) {
	l.translations = gettext.NewTranslations(dir, domain, langpackResolver)
}

// setLocale initializes the locale name and simplifies it.
// If empty, it falls back to the environment in the order gettext uses:
// LANGUAGE, LC_ALL, LC_MESSAGES, LANG.
func (l *i18n) setLocale(loc string) {
	if loc == "" {
		for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
			v := os.Getenv(env)
			if v == "" {
				continue
			}
			// LANGUAGE is a colon-separated list of locales.
			loc = strings.Split(v, ":")[0]
			break
		}
	}
	// de_DE.UTF-8, de_DE.ISO-8859-1, de_DE@euro all need to get simplified.
	loc = strings.Split(loc, "@")[0]
	loc = strings.Split(loc, ".")[0]

	l.loc = loc
	l.Catalog = l.translations.Locale(loc)
}
