package settings

import (
	"errors"

	"github.com/ubuntu/decorate"
)

// Snapshot is every declared setting resolved against the store at one point
// in time. The YAML rendering is the interchange format of the export and
// import commands.
type Snapshot struct {
	Machinist int    `yaml:"machinist"`
	Language  string `yaml:"language"`
	Style     string `yaml:"style"`
	HDPI      int    `yaml:"hdpi"`
}

// Defaults is the snapshot of a store with nothing in it.
func Defaults() Snapshot {
	return Snapshot{
		Machinist: Machinist.Default(),
		Language:  Language.Default(),
		Style:     Style.Default(),
		HDPI:      HDPI.Default(),
	}
}

// Snapshot resolves every declared setting. Settings that cannot be read
// carry their default in the returned snapshot, with the failures joined into
// the returned error.
func (s *Store) Snapshot() (snap Snapshot, err error) {
	defer decorate.OnError(&err, "settings: could not read the %s/%s store", s.organization, s.application)

	var errs error

	machinist, err := s.GetInt(Machinist)
	errs = errors.Join(errs, err)

	language, err := s.GetString(Language)
	errs = errors.Join(errs, err)

	style, err := s.GetString(Style)
	errs = errors.Join(errs, err)

	hdpi, err := s.GetInt(HDPI)
	errs = errors.Join(errs, err)

	return Snapshot{
		Machinist: machinist,
		Language:  language,
		Style:     style,
		HDPI:      hdpi,
	}, errs
}

// Import writes every declared setting from snap into the store.
//
// When a write fails, the previously effective values are written back as a
// best effort so a half-applied import does not linger. Defaults that were
// implicit before the import become explicit entries when that happens.
func (s *Store) Import(snap Snapshot) (err error) {
	defer decorate.OnError(&err, "settings: could not import settings")

	old, readErr := s.Snapshot()

	if err := s.apply(snap); err != nil {
		if readErr != nil {
			// The previous state is unknown, there is nothing trustworthy to
			// write back.
			return err
		}
		return errors.Join(err, s.apply(old))
	}

	return nil
}

func (s *Store) apply(snap Snapshot) error {
	return errors.Join(
		s.SetInt(Machinist, snap.Machinist),
		s.SetString(Language, snap.Language),
		s.SetString(Style, snap.Style),
		s.SetInt(HDPI, snap.HDPI),
	)
}
