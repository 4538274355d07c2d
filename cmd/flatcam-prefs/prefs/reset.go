package prefs

import (
	"errors"

	"github.com/jvegaf/FlatCAM/internal/i18n"
	"github.com/spf13/cobra"
)

func (a *App) installReset() {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: i18n.G("Remove every stored setting"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.markReady()

			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			return a.reset(force)
		},
	}
	cmd.Flags().BoolP("force", "f", false, i18n.G("proceed without confirmation"))

	a.rootCmd.AddCommand(cmd)
}

func (a *App) reset(force bool) error {
	if !force {
		return errors.New(i18n.G("this removes every stored setting: pass --force to proceed"))
	}

	store, err := a.store()
	if err != nil {
		return err
	}

	return store.Reset()
}
