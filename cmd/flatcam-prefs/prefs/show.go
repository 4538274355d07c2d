package prefs

import (
	"fmt"

	"github.com/jvegaf/FlatCAM/internal/i18n"
	"github.com/jvegaf/FlatCAM/internal/settings"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func (a *App) installShow() {
	cmd := &cobra.Command{
		Use:   "show",
		Short: i18n.G("Print every setting with its effective value"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.markReady()
			return a.show()
		},
	}
	a.rootCmd.AddCommand(cmd)
}

// show prints every declared setting, its effective value and whether the
// value is stored or the schema default.
func (a *App) show() error {
	store, err := a.store()
	if err != nil {
		return err
	}

	log.Infof("Settings store: %s", store.Location())

	for _, setting := range settings.All() {
		value, stored, err := store.Get(setting)
		if err != nil {
			return err
		}

		origin := i18n.G("default")
		if stored {
			origin = i18n.G("stored")
		}

		fmt.Printf("%s = %q (%s)\n", setting.Key(), value, origin)
	}

	return nil
}
