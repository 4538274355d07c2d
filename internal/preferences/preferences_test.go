package preferences_test

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jvegaf/FlatCAM/internal/i18n"
	"github.com/jvegaf/FlatCAM/internal/preferences"
	"github.com/jvegaf/FlatCAM/internal/settings"
	"github.com/jvegaf/FlatCAM/internal/settings/registry"
	"github.com/jvegaf/FlatCAM/internal/testutils"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	testCases := map[string]struct {
		seed       map[string]string
		breakStore bool

		wantMachinist int
		wantLanguage  string
		wantStyle     string
		wantHDPI      int
	}{
		"Defaults on a fresh store":                 {},
		"Reads the stored machinist flag":           {seed: map[string]string{"machinist": "1"}, wantMachinist: 1},
		"Defaults when machinist is not an integer": {seed: map[string]string{"machinist": "banana"}},
		"Reads every stored setting": {
			seed:          map[string]string{"machinist": "1", "language": "de_DE", "style": "fusion", "hdpi": "1"},
			wantMachinist: 1, wantLanguage: "de_DE", wantStyle: "fusion", wantHDPI: 1,
		},

		"Defaults when the store cannot be read": {breakStore: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			store, reg := newStore(t, tc.seed)
			if tc.breakStore {
				reg.CannotOpen.Store(true)
			}

			p, err := preferences.New(context.Background(),
				preferences.WithStore(store),
				preferences.WithLocaleDir(t.TempDir()))
			require.NoError(t, err, "New should return no error")
			defer p.Stop()

			require.Equal(t, tc.wantMachinist, p.MachinistMode(), "MachinistMode returned an unexpected value")
			require.Equal(t, tc.wantLanguage, p.Language(), "Language returned an unexpected value")
			require.Equal(t, tc.wantStyle, p.Style(), "Style returned an unexpected value")
			require.Equal(t, tc.wantHDPI, p.HDPI(), "HDPI returned an unexpected value")
			require.Same(t, store, p.Store(), "Store should return the store preferences were read from")
		})
	}
}

func TestNewFailsWhenTheStoreCannotOpen(t *testing.T) {
	// The platform store resolves under the user configuration directory.
	// Without one there is nowhere to open the store.
	if runtime.GOOS == "windows" {
		t.Setenv("AppData", "")
	} else {
		t.Setenv("HOME", "")
		t.Setenv("XDG_CONFIG_HOME", "")
	}

	_, err := preferences.New(context.Background(), preferences.WithLocaleDir(t.TempDir()))
	require.Error(t, err, "New should fail when the platform store cannot be located")
}

func TestTranslatorIsAlwaysAvailable(t *testing.T) {
	store, _ := newStore(t, nil)

	p, err := preferences.New(context.Background(),
		preferences.WithStore(store),
		preferences.WithLocaleDir(t.TempDir()))
	require.NoError(t, err, "New should return no error")
	defer p.Stop()

	tr := p.Translator()
	require.NotNil(t, tr, "Translator should never return nil")
	require.Equal(t, "Open Project", tr.Translate("Open Project"), "The fallback translator should return messages unchanged")
}

func TestTranslatorGuardKeepsTheFirstTranslator(t *testing.T) {
	store, _ := newStore(t, nil)

	upper := preferences.TranslatorFunc(strings.ToUpper)

	p, err := preferences.New(context.Background(),
		preferences.WithStore(store),
		preferences.WithTranslator(upper),
		preferences.WithLocaleDir(t.TempDir()))
	require.NoError(t, err, "New should return no error")
	defer p.Stop()

	require.Equal(t, "YES", p.Translator().Translate("Yes"), "The injected translator should win over the catalog-backed one")

	p.EnsureTranslator(preferences.TranslatorFunc(strings.ToLower))
	require.Equal(t, "YES", p.Translator().Translate("Yes"), "EnsureTranslator should not replace a registered translator")

	p.EnsureTranslator(nil)
	require.Equal(t, "YES", p.Translator().Translate("Yes"), "EnsureTranslator should ignore nil")
}

func TestStoredLanguageSelectsTheCatalog(t *testing.T) {
	testCases := map[string]struct {
		storedLanguage string
		envLanguage    string

		wantTranslated bool
	}{
		"Applies the catalog of the stored language":      {storedLanguage: "de", wantTranslated: true},
		"Falls back to the environment when none stored":  {envLanguage: "de", wantTranslated: true},
		"The stored language beats the environment":       {storedLanguage: "de", envLanguage: "fr", wantTranslated: true},
		"Passes through when no catalog matches":          {storedLanguage: "fr"},
		"Passes through without language nor environment": {},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
				t.Setenv(env, "")
			}
			if tc.envLanguage != "" {
				t.Setenv("LANGUAGE", tc.envLanguage)
			}

			localeDir := t.TempDir()
			testutils.WriteMoFile(t, filepath.Join(localeDir, "de", "LC_MESSAGES", "strings.mo"), map[string]string{
				"": "Content-Type: text/plain; charset=UTF-8\n",

				"Yes": "Ja",
			})

			var seed map[string]string
			if tc.storedLanguage != "" {
				seed = map[string]string{"language": tc.storedLanguage}
			}
			store, _ := newStore(t, seed)

			p, err := preferences.New(context.Background(),
				preferences.WithStore(store),
				preferences.WithLocaleDir(localeDir))
			require.NoError(t, err, "New should return no error")
			defer p.Stop()

			want := "Yes"
			if tc.wantTranslated {
				want = "Ja"
			}
			require.Equal(t, want, p.Translator().Translate("Yes"), "Translator returned an unexpected translation")
			require.Equal(t, want, i18n.G("Yes"), "G should agree with the registered translator")
			require.Equal(t, tc.storedLanguage, p.Language(), "Language should expose the stored locale only")
		})
	}
}

func TestUpdateSnapshot(t *testing.T) {
	store, _ := newStore(t, nil)

	p, err := preferences.New(context.Background(),
		preferences.WithStore(store),
		preferences.WithLocaleDir(t.TempDir()))
	require.NoError(t, err, "New should return no error")
	defer p.Stop()

	var notified atomic.Int32
	p.Notify(func() { notified.Add(1) })

	// A snapshot identical to the startup one changes nothing.
	snap, err := store.Snapshot()
	require.NoError(t, err, "Setup: Snapshot should return no error")

	require.NoError(t, p.UpdateSnapshot(context.Background(), snap), "UpdateSnapshot should return no error")
	time.Sleep(100 * time.Millisecond)
	require.Zero(t, notified.Load(), "Observers should not fire when nothing changed")

	snap.Machinist = 1
	require.NoError(t, p.UpdateSnapshot(context.Background(), snap), "UpdateSnapshot should return no error")
	require.Eventually(t, func() bool { return notified.Load() == 1 }, 5*time.Second, 10*time.Millisecond,
		"Observers should fire after a change")
	require.Equal(t, 1, p.MachinistMode(), "The cached snapshot should expose the new value")

	// The same snapshot again is a no-op.
	require.NoError(t, p.UpdateSnapshot(context.Background(), snap), "UpdateSnapshot should return no error")
	time.Sleep(100 * time.Millisecond)
	require.EqualValues(t, 1, notified.Load(), "Observers should not fire again for an identical snapshot")

	p.Stop()
	err = p.UpdateSnapshot(context.Background(), settings.Snapshot{Machinist: 2})
	require.Error(t, err, "UpdateSnapshot should refuse to run after Stop")
}

// newStore opens a store over a mock registry, optionally seeded with raw
// values.
func newStore(t *testing.T, seed map[string]string) (*settings.Store, *registry.Mock) {
	t.Helper()

	reg := registry.NewMock()
	t.Cleanup(func() { reg.RequireNoLeaks(t) })

	if len(seed) > 0 {
		k, err := reg.HKCUCreateKey(settings.KeyPath("Open Source", "FlatCAM"))
		require.NoError(t, err, "Setup: could not create the registry key")
		for name, value := range seed {
			require.NoError(t, reg.WriteValue(k, name, value), "Setup: could not seed the registry")
		}
		reg.CloseKey(k)
	}

	store, err := settings.New("Open Source", "FlatCAM", settings.WithRegistry(reg))
	require.NoError(t, err, "Setup: could not open the store")

	return store, reg
}
