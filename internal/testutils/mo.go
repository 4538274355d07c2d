package testutils

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteMoFile writes a minimal binary gettext catalog at path, mapping every
// key in entries to its translation. Pass an empty key to set the catalog
// header, e.g. the Content-Type line.
func WriteMoFile(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	// Layout: 28-byte header, originals table, translations table, strings.
	const headerLen = 28
	base := uint32(headerLen + 16*len(keys))

	var strs bytes.Buffer
	var tables []uint32
	for _, k := range keys {
		tables = append(tables, uint32(len(k)), base+uint32(strs.Len()))
		strs.WriteString(k)
		strs.WriteByte(0)
	}
	for _, k := range keys {
		v := entries[k]
		tables = append(tables, uint32(len(v)), base+uint32(strs.Len()))
		strs.WriteString(v)
		strs.WriteByte(0)
	}

	header := []uint32{
		0x950412de,                      // magic
		0,                               // file format revision
		uint32(len(keys)),               // number of strings
		headerLen,                       // offset of the originals table
		uint32(headerLen + 8*len(keys)), // offset of the translations table
		0, 0,                            // hash table size and offset
	}

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, header), "Setup: could not serialize catalog header")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, tables), "Setup: could not serialize catalog tables")
	_, err := buf.Write(strs.Bytes())
	require.NoError(t, err, "Setup: could not serialize catalog strings")

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700), "Setup: could not create catalog dir")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0600), "Setup: could not write catalog")
}
