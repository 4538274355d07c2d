package prefs

import (
	"fmt"
	"os"

	"github.com/jvegaf/FlatCAM/internal/i18n"
	"github.com/jvegaf/FlatCAM/internal/settings"
	"github.com/spf13/cobra"
	"github.com/ubuntu/decorate"
	"gopkg.in/yaml.v3"
)

func (a *App) installImport() {
	cmd := &cobra.Command{
		Use:   "import [FILE]",
		Short: i18n.G("Replace the stored settings with a YAML document from FILE (or stdin)"),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.markReady()

			src := "-"
			if len(args) == 1 {
				src = args[0]
			}
			return a.importSettings(src)
		},
	}
	a.rootCmd.AddCommand(cmd)
}

func (a *App) importSettings(src string) (err error) {
	defer decorate.OnError(&err, "could not import settings from %s", src)

	r := os.Stdin
	if src != "-" {
		f, err := os.Open(src)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	// Keys missing from the document go back to their defaults rather than
	// keeping whatever was stored before.
	snapshot := settings.Defaults()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&snapshot); err != nil {
		return fmt.Errorf("invalid settings document: %v", err)
	}

	store, err := a.store()
	if err != nil {
		return err
	}

	return store.Import(snapshot)
}
