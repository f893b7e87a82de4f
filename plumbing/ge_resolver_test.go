package plumbing

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/brickster241/gemerge/utils/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramArgs(t *testing.T) {
	triple := types.StageTriple{
		{},
		{Present: true, SHA: testSHA(0xab), Mode: 0o100644},
		{Present: true, SHA: testSHA(0x01), Mode: 0o100755},
	}
	want := []string{
		"",
		strings.Repeat("ab", 20),
		strings.Repeat("01", 20),
		"dir/file.txt",
		"",
		"100644",
		"100755",
	}
	if diff := cmp.Diff(want, ProgramArgs(triple, "dir/file.txt")); diff != "" {
		t.Errorf("ProgramArgs mismatch (-want +got):\n%s", diff)
	}
}

// mergeScript writes an executable shell script that logs its arguments and exits with the code
// found in a file named after the path, or 0.
func mergeScript(t *testing.T) (program, dir string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("merge program fixture needs a POSIX shell")
	}
	dir = t.TempDir()
	program = filepath.Join(dir, "merge-prog")
	script := `#!/bin/sh
echo "$1|$2|$3|$4|$5|$6|$7" >> calls.log
if [ -f "exit-$4" ]; then exit "$(cat "exit-$4")"; fi
exit 0
`
	require.NoError(t, os.WriteFile(program, []byte(script), 0o755))
	return program, dir
}

func TestProgramResolver_ExitStatus(t *testing.T) {
	program, dir := mergeScript(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "exit-bad"), []byte("3"), 0o644))

	pc := &ProgramContext{Program: program, WorkTree: dir}
	triple := types.StageTriple{{Present: true, SHA: testSHA(1), Mode: 0o100644}}
	index := newIndex(stagedEntry("bad", 1, 1))

	assert.Equal(t, 0, ProgramResolver{}.Resolve(index, triple, "good", pc))
	assert.Equal(t, 3, ProgramResolver{}.Resolve(index, triple, "bad", pc))
	assert.Len(t, index.Entries, 1, "the in-memory index is left alone")

	log, err := os.ReadFile(filepath.Join(dir, "calls.log"))
	require.NoError(t, err)
	base := strings.Repeat("01", 20)
	assert.Equal(t, base+"|||good|100644||\n"+base+"|||bad|100644||\n", string(log))
}

func TestProgramResolver_MissingProgram(t *testing.T) {
	var stderr bytes.Buffer
	pc := &ProgramContext{Program: filepath.Join(t.TempDir(), "no-such-program"), Stderr: &stderr}
	triple := types.StageTriple{{Present: true, SHA: testSHA(1), Mode: 0o100644}}

	assert.Equal(t, 1, ProgramResolver{}.Resolve(newIndex(), triple, "f", pc))
	assert.Contains(t, stderr.String(), "no-such-program")
}

func TestProgramResolver_ThroughMergeAllIndex(t *testing.T) {
	program, dir := mergeScript(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "exit-b"), []byte("1"), 0o644))
	pc := &ProgramContext{Program: program, WorkTree: dir}

	index := newIndex(
		stagedEntry("a", 2, 1),
		stagedEntry("a", 3, 2),
		stagedEntry("b", 1, 3),
		stagedEntry("c", 3, 4),
	)

	res, err := MergeAllIndex(index, MergePolicy{OneShot: true}, ProgramResolver{}, pc)
	require.ErrorIs(t, err, ErrMergeProgramFailed)
	assert.Equal(t, []string{"b"}, res.FailedPaths)
	assert.Equal(t, 4, res.Consumed)

	log, err := os.ReadFile(filepath.Join(dir, "calls.log"))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(log), "\n"))
}

func TestObjectStore(t *testing.T) {
	dir := t.TempDir()
	repo := &Repository{GitDir: filepath.Join(dir, ".git"), WorkTree: dir}

	sha, err := repo.WriteObject(types.BlobObject, []byte("hello\n"))
	require.NoError(t, err)
	// git hash-object of "hello\n"
	assert.Equal(t, "ce013625030ba8dba906f756967f9e9ca394464a", hex.EncodeToString(sha[:]))
	assert.Equal(t, sha, HashObject(types.BlobObject, []byte("hello\n")))

	again, err := repo.WriteObject(types.BlobObject, []byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, sha, again)

	content, err := repo.ReadBlob(sha)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(content))

	treeSHA, err := repo.WriteObject(types.TreeObject, nil)
	require.NoError(t, err)
	_, err = repo.ReadBlob(treeSHA)
	assert.ErrorContains(t, err, "not a blob")

	_, err = repo.ReadBlob(testSHA(0xee))
	assert.Error(t, err)
}

func TestParseSHA(t *testing.T) {
	sha, err := ParseSHA(strings.Repeat("0a", 20))
	require.NoError(t, err)
	assert.Equal(t, testSHA(0x0a), sha)

	_, err = ParseSHA("abc")
	assert.ErrorContains(t, err, "invalid object id")

	_, err = ParseSHA(strings.Repeat("zz", 20))
	assert.ErrorContains(t, err, "invalid object id")
}
