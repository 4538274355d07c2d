// Package consts defines the constants used by the project
package consts

import (
	log "github.com/sirupsen/logrus"
)

const (
	// TEXTDOMAIN is the gettext domain for l10n.
	TEXTDOMAIN = `strings`

	// Organization is the vendor scope of the persistent settings store.
	Organization = "Open Source"

	// Application is the application scope of the persistent settings store.
	Application = "FlatCAM"

	// DefaultLogLevel is the default logging level selected without any option.
	DefaultLogLevel = log.WarnLevel
)

// Version is the version of the application
//
// It is set at build time using the -ldflags option.
var Version = "Dev"
