package prefs

import (
	"fmt"
	"strings"

	"github.com/jvegaf/FlatCAM/internal/consts"
	"github.com/jvegaf/FlatCAM/internal/i18n"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

func (a *App) installLanguages() {
	cmd := &cobra.Command{
		Use:   "languages",
		Short: i18n.G("List the locales a translation catalog is installed for"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.markReady()
			return a.languages()
		},
	}
	a.rootCmd.AddCommand(cmd)
}

func (a *App) languages() error {
	localeDir := a.config.LocaleDir
	if localeDir == "" {
		localeDir = i18n.DefaultLocaleDir()
	}

	locales, err := i18n.InstalledLanguages(localeDir, consts.TEXTDOMAIN)
	if err != nil {
		return err
	}

	if len(locales) == 0 {
		fmt.Println(i18n.G("No translation catalogs installed."))
		return nil
	}

	for _, loc := range locales {
		fmt.Printf("%s\t%s\n", loc, localeDisplayName(loc))
	}

	return nil
}

// localeDisplayName renders a locale in its own language, e.g. "Deutsch" for
// de. Locales that do not parse as a language tag are rendered as they are.
func localeDisplayName(loc string) string {
	tag, err := language.Parse(strings.ReplaceAll(loc, "_", "-"))
	if err != nil {
		return loc
	}
	return display.Self.Name(tag)
}
