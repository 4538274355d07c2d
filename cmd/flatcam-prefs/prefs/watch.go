package prefs

import (
	"context"
	"fmt"

	"github.com/jvegaf/FlatCAM/internal/i18n"
	"github.com/jvegaf/FlatCAM/internal/settingswatcher"
	"github.com/spf13/cobra"
)

func (a *App) installWatch() {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: i18n.G("Print the effective settings every time the store changes"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.watch()
		},
	}
	a.rootCmd.AddCommand(cmd)
}

// watch blocks, reprinting the settings on every store change, until the
// process is told to quit.
func (a *App) watch() error {
	ctx := context.Background()

	p, err := a.newPreferences(ctx)
	if err != nil {
		return err
	}
	defer p.Stop()

	printSettings := func() {
		fmt.Printf("machinist=%d language=%q style=%q hdpi=%d\n",
			p.MachinistMode(), p.Language(), p.Style(), p.HDPI())
	}

	printSettings()
	p.Notify(printSettings)

	var opts []settingswatcher.Option
	if a.opts.watcher != nil {
		opts = append(opts, settingswatcher.WithWatcher(a.opts.watcher))
	} else if a.config.StoreFile != "" {
		opts = append(opts, settingswatcher.WithWatcher(settingswatcher.NewFileWatcher(a.config.StoreFile)))
	}

	w := settingswatcher.New(ctx, p, p.Store(), opts...)
	w.Start()
	defer w.Stop()

	a.markReady()
	<-a.quit

	return nil
}
