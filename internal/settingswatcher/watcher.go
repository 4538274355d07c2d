// Package settingswatcher implements a service that refreshes the preferences
// every time the settings store changes.
package settingswatcher

import (
	"context"
	"time"

	"github.com/jvegaf/FlatCAM/internal/settings"
	log "github.com/sirupsen/logrus"
)

// Service monitors the storage backing a settings store. Every time a change
// is detected, a fresh snapshot of the store is pushed to the preferences.
type Service struct {
	ctx  context.Context
	stop func()

	running chan struct{}

	watcher Watcher
	store   *settings.Store
	conf    Config
}

// Config is an interface to easily allow dependency injection. It is a
// *preferences.Preferences in production.
type Config interface {
	UpdateSnapshot(context.Context, settings.Snapshot) error
}

// Watcher knows how to detect changes to a particular kind of storage.
type Watcher interface {
	// Watch arms a watch over the storage. It returns a wait function that
	// blocks until a change is detected or the context is cancelled,
	// whichever happens first. The wait function must be called exactly
	// once: it releases the resources held by the watch.
	Watch(ctx context.Context) (wait func(context.Context) error, err error)
}

type options struct {
	registry Registry
	watcher  Watcher
}

// Option is an optional argument for the settings watcher.
type Option = func(*options)

// WithRegistry allows for overriding the registry back-end.
func WithRegistry(r Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithWatcher allows for overriding the change detection mechanism altogether.
func WithWatcher(w Watcher) Option {
	return func(o *options) {
		o.watcher = w
	}
}

// New creates a settings watcher service that feeds conf from store.
func New(ctx context.Context, conf Config, store *settings.Store, args ...Option) Service {
	var opts options

	for _, f := range args {
		f(&opts)
	}

	if opts.watcher == nil {
		if opts.registry != nil {
			opts.watcher = newRegistryWatcher(opts.registry, store)
		} else {
			opts.watcher = nativeWatcher(store)
		}
	}

	return Service{
		watcher: opts.watcher,
		store:   store,
		conf:    conf,

		ctx:     ctx,
		stop:    func() {},
		running: make(chan struct{}),
	}
}

// Start starts watching the settings store. It does a first read of the
// settings before returning.
func (s *Service) Start() {
	s.ctx, s.stop = context.WithCancel(s.ctx)

	s.readThenPushSettings(s.ctx)

	go s.run()
}

// Stop releases all resources associated with the settings watcher.
func (s *Service) Stop() {
	s.stop()
	<-s.running
}

// run is the blocking watch loop.
func (s *Service) run() {
	defer close(s.running)
	/*
		A detected change is not read immediately. The new snapshot is only
		pushed after the next watch has been armed, so no change can slip in
		unseen between two successive watches.

		When arming the watch fails we push a snapshot anyway. False
		positives are cheap because the preferences discard snapshots that
		bring no change.
	*/

	// These rates are NOT how often the store is polled. Changes are detected
	// instantaneously. They only bound how fast we retry when arming the
	// watch keeps failing.
	const (
		minRate      = time.Second
		growthFactor = 2
		maxRate      = 30 * time.Minute
	)
	retryRate := minRate

	log.Info("Settings watcher: started watching")
	defer log.Info("Settings watcher: stopped watching")

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		// Returns an error if we need to sleep in order to avoid a hot loop.
		err := func() error {
			ctx, cancel := context.WithCancel(s.ctx)
			defer cancel()

			wait, err := s.watcher.Watch(ctx)
			if err != nil {
				return err
			}

			// Push an update right after having started to watch.
			s.readThenPushSettings(ctx)

			// Wait until the store is modified or the context is cancelled,
			// whichever one happens first.
			if err := wait(ctx); err != nil {
				return err
			}
			log.WithContext(ctx).Infof("Settings watcher: detected a change to %s", s.store.Location())

			return nil
		}()

		if err != nil {
			log.WithContext(s.ctx).Warningf("Settings watcher: %v", err)
			s.readThenPushSettings(s.ctx)

			select {
			case <-s.ctx.Done():
				return
			case <-time.After(retryRate):
			}

			retryRate = min(growthFactor*retryRate, maxRate)
			continue
		}

		retryRate = minRate
	}
}

// readThenPushSettings takes a snapshot of the store and pushes it to the
// preferences. Errors are logged instead of returned so that Start and run
// can share it.
func (s *Service) readThenPushSettings(ctx context.Context) {
	snapshot, err := s.store.Snapshot()
	if err != nil {
		log.WithContext(ctx).Warningf("Settings watcher: %v", err)
		return
	}

	if err := s.conf.UpdateSnapshot(ctx, snapshot); err != nil {
		log.WithContext(ctx).Warningf("Settings watcher: could not push the new settings: %v", err)
	}
}
