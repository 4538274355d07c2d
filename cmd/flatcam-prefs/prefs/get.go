package prefs

import (
	"fmt"
	"strings"

	"github.com/jvegaf/FlatCAM/internal/i18n"
	"github.com/jvegaf/FlatCAM/internal/settings"
	"github.com/spf13/cobra"
)

func (a *App) installGet() {
	cmd := &cobra.Command{
		Use:               "get KEY",
		Short:             i18n.G("Print the effective value of one setting"),
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeSettingKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.markReady()
			return a.get(args[0])
		},
	}
	a.rootCmd.AddCommand(cmd)
}

func (a *App) get(key string) error {
	setting, err := lookupSetting(key)
	if err != nil {
		return err
	}

	store, err := a.store()
	if err != nil {
		return err
	}

	value, _, err := store.Get(setting)
	if err != nil {
		return err
	}

	fmt.Println(value)
	return nil
}

// lookupSetting resolves a key name, listing the declared keys when it does
// not match any.
func lookupSetting(key string) (settings.Setting, error) {
	setting, ok := settings.Lookup(key)
	if !ok {
		return nil, fmt.Errorf(i18n.G("unknown setting %q: expected one of %s"), key, strings.Join(settingKeys(), ", "))
	}
	return setting, nil
}

func settingKeys() []string {
	all := settings.All()

	keys := make([]string, 0, len(all))
	for _, s := range all {
		keys = append(keys, s.Key())
	}
	return keys
}

// completeSettingKeys shell-completes the first argument with the declared
// setting keys.
func completeSettingKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return settingKeys(), cobra.ShellCompDirectiveNoFileComp
}
