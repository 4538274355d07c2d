package prefs

import (
	"github.com/jvegaf/FlatCAM/internal/i18n"
	"github.com/spf13/cobra"
)

func (a *App) installSet() {
	cmd := &cobra.Command{
		Use:               "set KEY VALUE",
		Short:             i18n.G("Store a new value for a setting"),
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeSettingKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.markReady()
			return a.set(args[0], args[1])
		},
	}
	a.rootCmd.AddCommand(cmd)
}

func (a *App) set(key, value string) error {
	setting, err := lookupSetting(key)
	if err != nil {
		return err
	}

	store, err := a.store()
	if err != nil {
		return err
	}

	return store.Set(setting, value)
}
