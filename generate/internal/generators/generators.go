// Package generators contains the helpers shared by the generator scripts.
package generators

import (
	"fmt"
	"os"
)

const installToDestDirEnv = "GENERATE_ONLY_INSTALL_TO_DESTDIR"

// InstallOnlyMode returns true when the generators should only install
// already generated files instead of refreshing them. This is the mode
// package builds run in.
func InstallOnlyMode() bool {
	return os.Getenv(installToDestDirEnv) != ""
}

// DestDirectory returns the directory generated files are installed to,
// honoring the install-only mode override.
func DestDirectory(p string) string {
	if destDir := os.Getenv(installToDestDirEnv); destDir != "" {
		return destDir
	}
	return p
}

// CleanDirectory removes dir and everything it contains.
func CleanDirectory(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("couldn't delete %q: %v", dir, err)
	}
	return nil
}

// CreateDirectory creates dir with perm. An existing dir is not an error.
func CreateDirectory(dir string, perm os.FileMode) error {
	if err := os.MkdirAll(dir, perm); err != nil {
		return fmt.Errorf("couldn't create %q: %v", dir, err)
	}
	return nil
}
