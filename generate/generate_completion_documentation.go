//go:build tools

// Generates shell completions and man pages for the CLI.
// Use `go run -tags tools generate_completion_documentation.go help` to see usage.
package main

import (
	"os"

	"github.com/jvegaf/FlatCAM/cmd/flatcam-prefs/prefs"
	"github.com/jvegaf/FlatCAM/generate/internal/autocompletiondocumentation"
)

func main() {
	conf := autocompletiondocumentation.Configuration{
		ManPath:        "usr/share",
		CompletionPath: "usr/share",
	}

	autocompletiondocumentation.Generate(os.Args, conf, prefs.New())
}
