// Package preferences assembles the startup state of the application: it
// opens the persistent settings store, applies the stored translation catalog
// and guarantees that a translator is registered, then caches the startup
// values for cheap access.
//
// Almost everything here degrades gracefully: a missing catalog, a missing
// language and missing settings all fall back to identity translations and
// schema defaults. The only fatal condition is a store that cannot be opened
// at all.
package preferences

import (
	"context"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/jvegaf/FlatCAM/internal/consts"
	"github.com/jvegaf/FlatCAM/internal/i18n"
	"github.com/jvegaf/FlatCAM/internal/settings"
	log "github.com/sirupsen/logrus"
	"github.com/ubuntu/decorate"
	"gopkg.in/yaml.v3"
)

// Translator turns a message id into the text shown to the user.
type Translator interface {
	Translate(msgid string) string
}

// TranslatorFunc adapts a plain function to the Translator interface.
type TranslatorFunc func(msgid string) string

// Translate implements Translator.
func (f TranslatorFunc) Translate(msgid string) string {
	return f(msgid)
}

// Preferences is the explicit replacement for startup globals: one value
// constructed when the process starts and handed to the components that need
// localization or preference values.
type Preferences struct {
	ctx    context.Context
	cancel context.CancelFunc

	store      *settings.Store
	translator Translator

	// snapshot caches the settings read at startup. UpdateSnapshot replaces
	// it wholesale, checksum is how no-op replacements are detected.
	snapshot settings.Snapshot
	checksum string

	mu *sync.Mutex

	// observers are called and awaited on every snapshot change.
	observers []func()
	wg        sync.WaitGroup
}

type options struct {
	store      *settings.Store
	localeDir  string
	translator Translator
}

// Option is an optional argument for New.
type Option func(*options)

// WithStore uses an already opened settings store.
func WithStore(s *settings.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithLocaleDir overrides where translation catalogs are looked up.
func WithLocaleDir(dir string) Option {
	return func(o *options) {
		o.localeDir = dir
	}
}

// WithTranslator registers t before the catalog-backed translator, so t wins.
func WithTranslator(t Translator) Option {
	return func(o *options) {
		o.translator = t
	}
}

// New opens the settings store, applies the translation catalog for the
// stored language (or the environment's when none is stored) and caches the
// startup snapshot.
//
// It only fails when the store cannot be opened: missing catalogs and missing
// keys fall back silently.
func New(ctx context.Context, args ...Option) (p *Preferences, err error) {
	defer decorate.OnError(&err, "could not initialize preferences")

	var opts options
	for _, f := range args {
		f(&opts)
	}

	store := opts.store
	if store == nil {
		store, err = settings.New(consts.Organization, consts.Application)
		if err != nil {
			return nil, err
		}
	}

	p = &Preferences{
		store: store,
		mu:    &sync.Mutex{},
	}
	p.ctx, p.cancel = context.WithCancel(ctx)

	language, err := store.GetString(settings.Language)
	if err != nil {
		log.Warningf("Preferences: could not read the stored language, using the environment's: %v", err)
	}

	var i18nOpts []i18n.Option
	if opts.localeDir != "" {
		i18nOpts = append(i18nOpts, i18n.WithLocaleDir(opts.localeDir))
	}
	if language != "" {
		i18nOpts = append(i18nOpts, i18n.WithLocale(language))
	}
	i18n.InitI18nDomain(consts.TEXTDOMAIN, i18nOpts...)

	// An injected translator wins. The catalog-backed one resolves through
	// i18n.G at call time, which is identity when no catalog applies.
	p.EnsureTranslator(opts.translator)
	p.EnsureTranslator(TranslatorFunc(func(msgid string) string { return i18n.G(msgid) }))

	snapshot, err := store.Snapshot()
	if err != nil {
		// The snapshot carries defaults for whatever could not be read.
		log.Warningf("Preferences: %v", err)
	}
	p.snapshot = snapshot
	p.checksum = checksum(snapshot)

	return p, nil
}

// EnsureTranslator registers t as the translator unless one is already
// registered. Calling it any number of times is safe: the first non-nil
// translator wins.
func (p *Preferences) EnsureTranslator(t Translator) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.translator != nil || t == nil {
		return
	}
	p.translator = t
}

// Translator never returns nil: when nothing was ever registered it returns
// the identity translator.
func (p *Preferences) Translator() Translator {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.translator == nil {
		return TranslatorFunc(func(msgid string) string { return msgid })
	}
	return p.translator
}

// MachinistMode is the expert mode flag as read at startup. 0 when never set.
func (p *Preferences) MachinistMode() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.snapshot.Machinist
}

// Language is the stored catalog locale as read at startup. Empty when the
// environment's locale applies.
func (p *Preferences) Language() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.snapshot.Language
}

// Style is the GUI style name as read at startup.
func (p *Preferences) Style() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.snapshot.Style
}

// HDPI is the High-DPI scaling flag as read at startup. 0 when never set.
func (p *Preferences) HDPI() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.snapshot.HDPI
}

// Store is the settings store the preferences were read from.
func (p *Preferences) Store() *settings.Store {
	return p.store
}

// Notify appends a callback. It'll be called every time the cached snapshot
// changes.
func (p *Preferences) Notify(f func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.observers = append(p.observers, f)
}

// UpdateSnapshot replaces the cached startup values with snap and notifies
// the observers. Updates that change nothing are dropped.
func (p *Preferences) UpdateSnapshot(ctx context.Context, snap settings.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped() {
		return errors.New("preferences: already stopped")
	}

	sum := checksum(snap)
	if sum == p.checksum {
		return nil
	}

	p.snapshot = snap
	p.checksum = sum

	log.WithContext(ctx).Debugf("Preferences: new settings received: %+v", snap)
	p.notifyObservers()

	return nil
}

// Stop prevents any further observer callbacks and waits for the in-flight
// ones to finish.
func (p *Preferences) Stop() {
	p.cancel()
	p.wg.Wait()
}

// notifyObservers calls every observer in a goroutine.
// Must be called with the mutex held.
func (p *Preferences) notifyObservers() {
	for _, f := range p.observers {
		f := f
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			if p.stopped() {
				return
			}
			f()
		}()
	}
}

// stopped returns whether Stop was called (or the parent context cancelled).
func (p *Preferences) stopped() bool {
	select {
	case <-p.ctx.Done():
		return true
	default:
		return false
	}
}

// checksum fingerprints a snapshot so equal snapshots compare cheaply.
func checksum(snap settings.Snapshot) string {
	raw, err := yaml.Marshal(snap)
	if err != nil {
		// Snapshot is a plain struct of scalars, it always serializes.
		panic(fmt.Sprintf("could not serialize the snapshot: %v", err))
	}

	sum := sha512.Sum512(raw)
	return base64.StdEncoding.EncodeToString(sum[:])
}
