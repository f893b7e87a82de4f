package plumbing

import (
	"crypto/sha1"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/brickster241/gemerge/utils/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type indexRow struct {
	Name  string
	Stage int
	SHA   [20]byte
	Mode  uint32
}

func rows(index *types.Index) []indexRow {
	var out []indexRow
	for _, e := range index.Entries {
		out = append(out, indexRow{e.Filename, e.Stage(), e.SHA1, e.Mode})
	}
	return out
}

func TestWriteIndex_LoadIndex_KeepsStages(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index")
	index := newIndex(
		stagedEntry("README", 0, 1),
		stagedEntry("src/main.go", 1, 2),
		stagedEntry("src/main.go", 2, 3),
		stagedEntry("src/main.go", 3, 4),
		stagedEntry("zz/a-very-long-directory-name/file.txt", 2, 5),
	)
	index.Entries[0].Mtime = 1700000000
	index.Entries[0].FileSize = 42

	require.NoError(t, WriteIndex(indexPath, index))
	_, err := os.Stat(indexPath + ".lock")
	assert.True(t, os.IsNotExist(err), "lock file should be renamed away")

	loaded, err := LoadIndex(indexPath)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), loaded.Version)
	assert.Equal(t, rows(index), rows(loaded))
	assert.Equal(t, uint32(1700000000), loaded.Entries[0].Mtime)
	assert.Equal(t, uint32(42), loaded.Entries[0].FileSize)
	assert.Equal(t, uint16(len("src/main.go")), loaded.Entries[1].Flags&0x0FFF)
}

func TestLoadIndex_Missing(t *testing.T) {
	index, err := LoadIndex(filepath.Join(t.TempDir(), "index"))
	require.NoError(t, err)
	assert.Equal(t, uint32(2), index.Version)
	assert.Empty(t, index.Entries)
}

func TestLoadIndex_Corrupt(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index")
	require.NoError(t, WriteIndex(indexPath, newIndex(stagedEntry("a", 2, 1))))

	data, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	data[20] ^= 0xff
	require.NoError(t, os.WriteFile(indexPath, data, 0o644))

	_, err = LoadIndex(indexPath)
	assert.ErrorContains(t, err, "checksum")

	require.NoError(t, os.WriteFile(indexPath, []byte("DIRC"), 0o644))
	_, err = LoadIndex(indexPath)
	assert.ErrorContains(t, err, "too short")
}

func TestLoadIndex_Version3ExtendedFlags(t *testing.T) {
	// One version 3 entry with the extended flag and two bytes of extended flags
	var buf []byte
	buf = append(buf, "DIRC"...)
	buf = binary.BigEndian.AppendUint32(buf, 3)
	buf = binary.BigEndian.AppendUint32(buf, 1)
	start := len(buf)
	buf = append(buf, make([]byte, 24)...)
	buf = binary.BigEndian.AppendUint32(buf, 0o100644)
	buf = append(buf, make([]byte, 12)...)
	sha := testSHA(7)
	buf = append(buf, sha[:]...)
	buf = binary.BigEndian.AppendUint16(buf, 0x4000|0x2000|uint16(len("f.txt")))
	buf = binary.BigEndian.AppendUint16(buf, 0x2000)
	buf = append(buf, "f.txt\x00"...)
	for (len(buf)-start)%8 != 0 {
		buf = append(buf, 0)
	}
	sum := sha1.Sum(buf)
	buf = append(buf, sum[:]...)

	indexPath := filepath.Join(t.TempDir(), "index")
	require.NoError(t, os.WriteFile(indexPath, buf, 0o644))

	index, err := LoadIndex(indexPath)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), index.Version)
	require.Len(t, index.Entries, 1)
	e := index.Entries[0]
	assert.Equal(t, "f.txt", e.Filename)
	assert.Equal(t, 2, e.Stage())
	assert.Equal(t, sha, e.SHA1)
	assert.Zero(t, e.Flags&0x4000)
}

func TestWriteIndex_LockHeld(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index")
	require.NoError(t, os.WriteFile(indexPath+".lock", nil, 0o644))
	assert.Error(t, WriteIndex(indexPath, newIndex()))
}

func TestIndexNamePos(t *testing.T) {
	index := scenarioIndex()

	pos, found := IndexNamePos(index, "a", 0)
	assert.True(t, found)
	assert.Equal(t, 0, pos)

	// An unmerged path is not found at stage 0; the insertion point is its first stage
	pos, found = IndexNamePos(index, "b", 0)
	assert.False(t, found)
	assert.Equal(t, 1, pos)

	pos, found = IndexNamePos(index, "b", 2)
	assert.True(t, found)
	assert.Equal(t, 2, pos)

	pos, found = IndexNamePos(index, "d", 0)
	assert.False(t, found)
	assert.Equal(t, 4, pos)
}

func TestAddIndexEntry_ReplacesStages(t *testing.T) {
	index := scenarioIndex()
	AddIndexEntry(index, stagedEntry("b", 0, 0xbb))

	assert.Equal(t, []indexRow{
		{"a", 0, testSHA(0xa0), 0o100644},
		{"b", 0, testSHA(0xbb), 0o100644},
		{"c", 0, testSHA(0xc0), 0o100644},
	}, rows(index))
}

func TestAddIndexStage(t *testing.T) {
	index := scenarioIndex()
	AddIndexStage(index, stagedEntry("b", 3, 0xb3))
	AddIndexStage(index, stagedEntry("b", 1, 0x11))
	// A conflict stage displaces the resolved entry
	AddIndexStage(index, stagedEntry("c", 2, 0xc2))

	assert.Equal(t, []indexRow{
		{"a", 0, testSHA(0xa0), 0o100644},
		{"b", 1, testSHA(0x11), 0o100644},
		{"b", 2, testSHA(0xb2), 0o100644},
		{"b", 3, testSHA(0xb3), 0o100644},
		{"c", 2, testSHA(0xc2), 0o100644},
	}, rows(index))
}

func TestRemoveIndexPath(t *testing.T) {
	index := scenarioIndex()
	assert.Equal(t, 2, RemoveIndexPath(index, "b"))
	assert.Equal(t, 0, RemoveIndexPath(index, "b"))
	assert.Equal(t, 1, RemoveIndexPath(index, "c"))
	assert.Equal(t, []indexRow{{"a", 0, testSHA(0xa0), 0o100644}}, rows(index))
}

func TestSortIndex(t *testing.T) {
	index := newIndex(
		stagedEntry("b", 3, 1),
		stagedEntry("a/b", 0, 2),
		stagedEntry("b", 1, 3),
		stagedEntry("a", 0, 4),
	)
	SortIndex(index)
	var got []string
	for _, e := range index.Entries {
		got = append(got, e.Filename)
	}
	assert.Equal(t, []string{"a", "a/b", "b", "b"}, got)
	assert.Equal(t, 1, index.Entries[2].Stage())
}
