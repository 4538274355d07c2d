package inifile_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jvegaf/FlatCAM/internal/settings/inifile"
	"github.com/stretchr/testify/require"
)

func TestReadValue(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		fileContent string
		key         string

		want         string
		wantNotExist bool
		wantErr      bool
	}{
		"Returns the stored value":                   {fileContent: "[General]\nmachinist=1\n", key: "machinist", want: "1"},
		"Returns values padded by other ini writers": {fileContent: "[General]\nlanguage = de_DE\n", key: "language", want: "de_DE"},

		"Not-exist error when the file was never written": {key: "machinist", wantNotExist: true},
		"Not-exist error when the key is not in the file": {fileContent: "[General]\nstyle=fusion\n", key: "machinist", wantNotExist: true},

		"Error when the file cannot be parsed": {fileContent: "[General\nmachinist=1\n", key: "machinist", wantErr: true},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "flatcam.conf")
			if tc.fileContent != "" {
				require.NoError(t, os.WriteFile(path, []byte(tc.fileContent), 0600), "Setup: could not write settings file")
			}

			b := inifile.New(path)

			got, err := b.ReadValue(tc.key)
			if tc.wantNotExist {
				require.ErrorIs(t, err, inifile.ErrKeyNotExist, "ReadValue should report that the key does not exist")
				return
			}
			if tc.wantErr {
				require.Error(t, err, "ReadValue should return an error")
				require.NotErrorIs(t, err, inifile.ErrKeyNotExist, "A parsing failure should not be mistaken for a missing key")
				return
			}
			require.NoError(t, err, "ReadValue should return no error")
			require.Equal(t, tc.want, got, "ReadValue returned an unexpected value")
		})
	}
}

func TestWriteValue(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		previousContent string
		blockDirectory  bool

		wantErr bool
	}{
		"Creates the file on first write":   {},
		"Overwrites the previous value":     {previousContent: "[General]\nmachinist=0\n"},
		"Keeps unrelated keys":              {previousContent: "[General]\nlanguage=de_DE\n"},
		"Error when the directory is taken": {blockDirectory: true, wantErr: true},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := filepath.Join(t.TempDir(), "Open Source")
			path := filepath.Join(dir, "FlatCAM.conf")

			if tc.previousContent != "" {
				require.NoError(t, os.MkdirAll(dir, 0700), "Setup: could not create settings directory")
				require.NoError(t, os.WriteFile(path, []byte(tc.previousContent), 0600), "Setup: could not write settings file")
			}
			if tc.blockDirectory {
				// A file where the directory should go makes MkdirAll fail.
				require.NoError(t, os.WriteFile(dir, []byte{}, 0600), "Setup: could not block the settings directory")
			}

			b := inifile.New(path)

			err := b.WriteValue("machinist", "1")
			if tc.wantErr {
				require.Error(t, err, "WriteValue should return an error")
				return
			}
			require.NoError(t, err, "WriteValue should return no error")

			got, err := b.ReadValue("machinist")
			require.NoError(t, err, "ReadValue should find the value that was just written")
			require.Equal(t, "1", got, "ReadValue returned an unexpected value")

			if tc.previousContent == "" {
				return
			}
			for _, line := range strings.Split(strings.TrimSpace(tc.previousContent), "\n")[1:] {
				key := strings.SplitN(line, "=", 2)[0]
				if key == "machinist" {
					continue
				}
				_, err := b.ReadValue(key)
				require.NoError(t, err, "ReadValue should still find pre-existing key %q", key)
			}
		})
	}
}

func TestRemoveValue(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		fileContent string
		key         string

		wantFile bool
	}{
		"Removes a stored key":                         {fileContent: "[General]\nmachinist=1\nstyle=fusion\n", key: "machinist", wantFile: true},
		"Does nothing when the key is not in the file": {fileContent: "[General]\nstyle=fusion\n", key: "machinist", wantFile: true},
		"Does not create the file":                     {key: "machinist"},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "flatcam.conf")
			if tc.fileContent != "" {
				require.NoError(t, os.WriteFile(path, []byte(tc.fileContent), 0600), "Setup: could not write settings file")
			}

			b := inifile.New(path)

			require.NoError(t, b.RemoveValue(tc.key), "RemoveValue should return no error")

			_, err := b.ReadValue(tc.key)
			require.ErrorIs(t, err, inifile.ErrKeyNotExist, "ReadValue should not find the removed key")

			_, err = os.Stat(path)
			if !tc.wantFile {
				require.ErrorIs(t, err, os.ErrNotExist, "RemoveValue should not have created the settings file")
				return
			}
			require.NoError(t, err, "The settings file should still exist")

			if strings.Contains(tc.fileContent, "style") {
				got, err := b.ReadValue("style")
				require.NoError(t, err, "ReadValue should still find the unrelated key")
				require.Equal(t, "fusion", got, "ReadValue returned an unexpected value for the unrelated key")
			}
		})
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		fileContent string

		wantFile bool
	}{
		"Removes every stored key":                   {fileContent: "[General]\nmachinist=1\nlanguage=de_DE\n", wantFile: true},
		"Does nothing when the store was never used": {},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "flatcam.conf")
			if tc.fileContent != "" {
				require.NoError(t, os.WriteFile(path, []byte(tc.fileContent), 0600), "Setup: could not write settings file")
			}

			b := inifile.New(path)

			require.NoError(t, b.Clear(), "Clear should return no error")

			_, err := b.ReadValue("machinist")
			require.ErrorIs(t, err, inifile.ErrKeyNotExist, "ReadValue should not find any key after Clear")

			_, err = os.Stat(path)
			if !tc.wantFile {
				require.ErrorIs(t, err, os.ErrNotExist, "Clear should not have created the settings file")
				return
			}
			require.NoError(t, err, "The settings file should still exist after Clear")
		})
	}
}

func TestFileLayout(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "FlatCAM.conf")
	b := inifile.New(path)

	require.NoError(t, b.WriteValue("machinist", "1"), "Setup: WriteValue should return no error")
	require.NoError(t, b.WriteValue("language", "de_DE"), "Setup: WriteValue should return no error")

	raw, err := os.ReadFile(path)
	require.NoError(t, err, "Could not read the settings file back")

	// Unpadded key=value lines under [General], the layout Qt parses.
	want := "[General]\nmachinist=1\nlanguage=de_DE"
	require.Equal(t, want, strings.TrimSpace(string(raw)), "The settings file has an unexpected layout")
}

func TestStoresArePersistent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "flatcam.conf")

	require.NoError(t, inifile.New(path).WriteValue("machinist", "1"), "Setup: WriteValue should return no error")

	// A fresh backend over the same path sees the same data.
	got, err := inifile.New(path).ReadValue("machinist")
	require.NoError(t, err, "ReadValue should return no error")
	require.Equal(t, "1", got, "ReadValue returned an unexpected value")
}

func TestErrorsMentionTheFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "flatcam.conf")
	require.NoError(t, os.WriteFile(path, []byte("[General\n"), 0600), "Setup: could not write settings file")

	_, err := inifile.New(path).ReadValue("machinist")
	require.Error(t, err, "ReadValue should return an error for an unparsable file")
	require.ErrorContains(t, err, path, "The error should mention the file path")
}
