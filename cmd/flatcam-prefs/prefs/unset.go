package prefs

import (
	"github.com/jvegaf/FlatCAM/internal/i18n"
	"github.com/spf13/cobra"
)

func (a *App) installUnset() {
	cmd := &cobra.Command{
		Use:               "unset KEY",
		Short:             i18n.G("Remove a setting from the store, going back to its default"),
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeSettingKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.markReady()
			return a.unset(args[0])
		},
	}
	a.rootCmd.AddCommand(cmd)
}

func (a *App) unset(key string) error {
	setting, err := lookupSetting(key)
	if err != nil {
		return err
	}

	store, err := a.store()
	if err != nil {
		return err
	}

	return store.Unset(setting)
}
