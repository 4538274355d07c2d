//go:build tools

// Generates pot, po, and mo files to enable i18n.
// Use `go run -tags tools generate_locales.go help` to see usage.
package main

import (
	"os"

	"github.com/jvegaf/FlatCAM/generate/internal/locales"
	"github.com/jvegaf/FlatCAM/internal/consts"
)

func main() {
	config := locales.Configuration{
		Domain:    consts.TEXTDOMAIN,
		PotFile:   "../po/strings.pot",
		LocaleDir: "../po/",
		MoDir:     "../generated/",
		RootDir:   "..",
	}

	verb := "help"
	var args []string

	if len(os.Args) > 1 {
		verb = os.Args[1]
		args = os.Args[2:]
	}

	locales.Generate(verb, config, args...)
}
