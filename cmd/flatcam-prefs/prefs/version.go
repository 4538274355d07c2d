package prefs

import (
	"fmt"

	"github.com/jvegaf/FlatCAM/internal/consts"
	"github.com/jvegaf/FlatCAM/internal/i18n"
	"github.com/spf13/cobra"
)

func (a *App) installVersion() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: i18n.G("Print the version and exit"),
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return getVersion() },
	}
	a.rootCmd.AddCommand(cmd)
}

// getVersion displays the current program version.
func getVersion() (err error) {
	fmt.Printf(i18n.G("%s\t%s")+"\n", cmdName, consts.Version)
	return nil
}
