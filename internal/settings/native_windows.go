package settings

import "github.com/jvegaf/FlatCAM/internal/settings/registry"

// nativeBackend is the platform store: the current user's Windows registry.
func nativeBackend(organization, application string) (Backend, error) {
	return registryBackend{
		reg:  registry.Windows{},
		path: KeyPath(organization, application),
	}, nil
}
