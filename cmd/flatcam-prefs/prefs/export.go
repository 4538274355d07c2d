package prefs

import (
	"fmt"
	"os"

	"github.com/jvegaf/FlatCAM/internal/i18n"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *App) installExport() {
	cmd := &cobra.Command{
		Use:   "export [FILE]",
		Short: i18n.G("Write the effective settings to FILE (or stdout) as YAML"),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.markReady()

			dest := "-"
			if len(args) == 1 {
				dest = args[0]
			}
			return a.export(dest)
		},
	}
	a.rootCmd.AddCommand(cmd)
}

func (a *App) export(dest string) error {
	store, err := a.store()
	if err != nil {
		return err
	}

	snapshot, err := store.Snapshot()
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not serialize the settings: %v", err)
	}

	if dest == "-" {
		_, err := os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(dest, out, 0600)
}
