// Package autocompletiondocumentation generates shell completions and man pages.
package autocompletiondocumentation

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jvegaf/FlatCAM/generate/internal/generators"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

const usage = `Usage of %s:
   help
     Print this message and exit
   completion DIRECTORY
     Create completions files in a structured hierarchy in DIRECTORY.
   man DIRECTORY
     Create man pages files in a structured hierarchy in DIRECTORY.
`

// App encapsulates commands and options of a CLI.
type App interface {
	RootCmd() cobra.Command
}

// Configuration is a set of options for the paths where the generated
// documentation is to be stored.
type Configuration struct {
	// ManPath is the directory where the man page will be stored in.
	// It'll be appended to $GENERATE_ONLY_INSTALL_TO_DESTDIR if available,
	// otherwise to argv[2].
	ManPath string

	// CompletionPath is the directory where the autocompletion file will be
	// stored in. It'll be appended to $GENERATE_ONLY_INSTALL_TO_DESTDIR if
	// available, otherwise to argv[2].
	CompletionPath string
}

// Generate generates the autocompletion and man pages for the apps.
func Generate(argv []string, config Configuration, apps ...App) {
	if len(argv) < 2 {
		log.Fatalf(usage, argv[0])
	}

	if err := config.validate(); err != nil {
		log.Fatalf("Wrong config: %v", err)
	}

	var commands []cobra.Command
	for _, a := range apps {
		commands = append(commands, a.RootCmd())
	}

	switch argv[1] {
	case "completion":
		if len(argv) < 3 {
			log.Fatalf(usage, argv[0])
		}
		dir := filepath.Join(generators.DestDirectory(argv[2]), config.CompletionPath)
		genCompletions(commands, dir)
	case "man":
		if len(argv) < 3 {
			log.Fatalf(usage, argv[0])
		}
		dir := filepath.Join(generators.DestDirectory(argv[2]), config.ManPath)
		genManPages(commands, dir)
	case "help":
		log.Printf(usage, argv[0])
		return
	default:
		log.Fatalf(usage, argv[0])
	}
}

// validate makes a few safety checks on the configuration object.
func (c Configuration) validate() (err error) {
	if len(c.ManPath) == 0 {
		err = errors.Join(err, errors.New("configuration parameter ManPath is empty"))
	}
	if len(c.CompletionPath) == 0 {
		err = errors.Join(err, errors.New("configuration parameter CompletionPath is empty"))
	}
	return err
}

// genCompletions for bash and zsh directories.
func genCompletions(cmds []cobra.Command, dir string) {
	bashCompDir := filepath.Join(dir, "bash-completion", "completions")
	zshCompDir := filepath.Join(dir, "zsh", "site-functions")
	for _, d := range []string{bashCompDir, zshCompDir} {
		if err := generators.CleanDirectory(filepath.Dir(d)); err != nil {
			log.Fatalln(err)
		}
		if err := generators.CreateDirectory(d, 0755); err != nil {
			log.Fatalf("Couldn't create bash completion directory: %v", err)
		}
	}

	for _, cmd := range cmds {
		if err := cmd.GenBashCompletionFileV2(filepath.Join(bashCompDir, cmd.Name()), true); err != nil {
			log.Fatalf("Couldn't create bash completion for %s: %v", cmd.Name(), err)
		}
		if err := cmd.GenZshCompletionFile(filepath.Join(zshCompDir, cmd.Name())); err != nil {
			log.Fatalf("Couldn't create zsh completion for %s: %v", cmd.Name(), err)
		}
	}
}

func genManPages(cmds []cobra.Command, dir string) {
	manBaseDir := filepath.Join(dir, "man")
	if err := generators.CleanDirectory(manBaseDir); err != nil {
		log.Fatalln(err)
	}

	out := filepath.Join(manBaseDir, "man1")
	if err := generators.CreateDirectory(out, 0755); err != nil {
		log.Fatalf("Couldn't create man pages directory: %v", err)
	}

	for _, cmd := range cmds {
		cmd := cmd
		// Run ExecuteC to install completion and help commands
		_, _ = cmd.ExecuteC()
		opts := doc.GenManTreeOptions{
			Header: &doc.GenManHeader{
				Title: fmt.Sprintf("FlatCAM: %s", cmd.Name()),
			},
			Path: out,
		}
		if err := genManTreeFromOpts(&cmd, opts); err != nil {
			log.Fatalf("Couldn't generate man pages for %s: %v", cmd.Name(), err)
		}
	}
}

// genManTreeFromOpts generates a man page for the command and all descendants.
// The pages are written to the opts.Path directory.
// This is a copy from cobra, but it will include Hidden commands.
func genManTreeFromOpts(cmd *cobra.Command, opts doc.GenManTreeOptions) error {
	header := opts.Header
	if header == nil {
		header = &doc.GenManHeader{}
	}
	for _, c := range cmd.Commands() {
		if (!c.IsAvailableCommand() && !c.Hidden) || c.IsAdditionalHelpTopicCommand() {
			continue
		}
		if err := genManTreeFromOpts(c, opts); err != nil {
			return err
		}
	}
	section := "1"
	if header.Section != "" {
		section = header.Section
	}

	separator := "_"
	if opts.CommandSeparator != "" {
		separator = opts.CommandSeparator
	}
	basename := strings.Replace(cmd.CommandPath(), " ", separator, -1)
	filename := filepath.Join(opts.Path, basename+"."+section)
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	headerCopy := *header
	return doc.GenMan(cmd, &headerCopy, f)
}
