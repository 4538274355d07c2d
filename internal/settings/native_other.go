//go:build !windows

package settings

import (
	"fmt"
	"os"
	"path/filepath"
)

// nativeBackend is the platform store: an INI file named after the
// organization and application under the user configuration directory,
// the same path the Qt build resolves.
func nativeBackend(organization, application string) (Backend, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("could not locate the user configuration directory: %v", err)
	}

	return newIniBackend(filepath.Join(base, organization, application+".conf")), nil
}
