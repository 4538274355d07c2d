// Package prefs implements the CLI for the FlatCAM startup preferences.
package prefs

import (
	"context"
	"fmt"
	"sync"

	"github.com/jvegaf/FlatCAM/internal/consts"
	"github.com/jvegaf/FlatCAM/internal/i18n"
	"github.com/jvegaf/FlatCAM/internal/preferences"
	"github.com/jvegaf/FlatCAM/internal/settings"
	"github.com/jvegaf/FlatCAM/internal/settingswatcher"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cmdName is the binary name for the CLI.
const cmdName = "flatcam-prefs"

// App encapsulates commands and options of the CLI, which can be controlled
// by env variables and config files.
type App struct {
	rootCmd cobra.Command
	viper   *viper.Viper
	config  appConfig

	ready     chan struct{}
	readyOnce sync.Once

	quit     chan struct{}
	quitOnce sync.Once

	opts options
}

type appConfig struct {
	Verbosity int
	StoreFile string `mapstructure:"store-file"`
	LocaleDir string `mapstructure:"locale-dir"`
}

type options struct {
	watcher settingswatcher.Watcher
}

type option func(*options)

// New registers commands and returns a new App.
func New(args ...option) *App {
	a := App{
		ready: make(chan struct{}),
		quit:  make(chan struct{}),
	}

	for _, f := range args {
		f(&a.opts)
	}

	a.rootCmd = cobra.Command{
		Use:   fmt.Sprintf("%s COMMAND", cmdName),
		Short: i18n.G("FlatCAM startup preferences"),
		Long:  i18n.G("Inspect and edit the settings FlatCAM applies at startup."),
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Force a visit of the local flags so persistent flags for all parents are merged.
			cmd.LocalFlags()

			// command parsing has been successful. Returns to not print usage anymore.
			a.rootCmd.SilenceUsage = true

			if err := initViperConfig(cmdName, &a.rootCmd, a.viper); err != nil {
				return err
			}

			if err := a.viper.Unmarshal(&a.config); err != nil {
				return fmt.Errorf("unable to decode configuration into struct: %w", err)
			}

			setVerboseMode(a.config.Verbosity)
			log.Debug("Debug mode is enabled")

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Calling the CLI with no command shows the current settings.
			a.markReady()
			return a.show()
		},
		// We display usage error ourselves
		SilenceErrors: true,
	}
	a.viper = viper.New()

	installVerbosityFlag(&a.rootCmd, a.viper)
	installConfigFlag(&a.rootCmd)
	a.installStoreFlags()

	// subcommands
	a.installShow()
	a.installGet()
	a.installSet()
	a.installUnset()
	a.installReset()
	a.installExport()
	a.installImport()
	a.installLanguages()
	a.installWatch()
	a.installVersion()

	return &a
}

// store opens the settings store the commands operate on: the platform store
// of the application, or the INI file selected with --store-file.
func (a *App) store() (*settings.Store, error) {
	if a.config.StoreFile != "" {
		return settings.New(consts.Organization, consts.Application, settings.WithIniFile(a.config.StoreFile))
	}
	return settings.New(consts.Organization, consts.Application)
}

// newPreferences assembles the startup preferences the way the application
// does, honoring the --store-file and --locale-dir overrides.
func (a *App) newPreferences(ctx context.Context) (*preferences.Preferences, error) {
	var opts []preferences.Option

	if a.config.StoreFile != "" {
		store, err := a.store()
		if err != nil {
			return nil, err
		}
		opts = append(opts, preferences.WithStore(store))
	}
	if a.config.LocaleDir != "" {
		opts = append(opts, preferences.WithLocaleDir(a.config.LocaleDir))
	}

	return preferences.New(ctx, opts...)
}

// Run executes the command and associated process. It returns an error on syntax/usage error.
func (a *App) Run() error {
	err := a.rootCmd.Execute()

	// Commands that never block are done by now: unblock any pending Quit.
	a.markReady()

	return err
}

// UsageError returns if the error is a command parsing or runtime one.
func (a App) UsageError() bool {
	return !a.rootCmd.SilenceUsage
}

// Quit makes a blocking command return. Commands that do not block are
// unaffected.
func (a *App) Quit() {
	a.WaitReady()
	a.quitOnce.Do(func() { close(a.quit) })
}

// WaitReady blocks until the command's setup is done.
// Note: we need to use a pointer to not copy the App object before the
// command is ready, and thus, creates a data race.
func (a *App) WaitReady() {
	<-a.ready
}

// markReady signals that the command's setup is done and Quit may proceed.
func (a *App) markReady() {
	a.readyOnce.Do(func() { close(a.ready) })
}

// RootCmd returns a copy of the root command for the app. Shouldn't be in
// general necessary apart when running generators.
func (a App) RootCmd() cobra.Command {
	return a.rootCmd
}

// SetArgs changes the root command args. Shouldn't be in general necessary apart for tests.
func (a *App) SetArgs(args ...string) {
	a.rootCmd.SetArgs(args)
}
