package plumbing

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/brickster241/gemerge/utils/constants"
	"github.com/brickster241/gemerge/utils/types"
)

// MergeOneFileContext is what the built-in resolver needs: the repository for blobs and the work
// tree, plus where progress and error lines go.
type MergeOneFileContext struct {
	Repo   *Repository
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func (c *MergeOneFileContext) printf(format string, args ...any) {
	if c.Stdout != nil {
		fmt.Fprintf(c.Stdout, format+"\n", args...)
	}
}

func (c *MergeOneFileContext) errorf(format string, args ...any) int {
	if c.Stderr != nil {
		fmt.Fprintf(c.Stderr, "ERROR: "+format+"\n", args...)
	}
	return 1
}

func (c *MergeOneFileContext) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// MergeOneFile resolves the simple cases of a conflicted path in process: deletions, one-sided and
// identical additions, and line merges that do not conflict. Resolved paths get one stage 0 entry
// and an updated work tree file. Everything else is left at its stages and reported as a failure.
type MergeOneFile struct{}

func (MergeOneFile) Resolve(index *types.Index, t types.StageTriple, path string, c *MergeOneFileContext) int {
	base, ours, theirs := t.Base(), t.Ours(), t.Theirs()
	c.logger().Debug("merge-one-file", "path", path, "stages", stagesPresent(t))

	switch {
	// Deleted in both, or deleted in one and unchanged in the other
	case base.Present && !ours.Present && !theirs.Present,
		base.Present && !ours.Present && theirs.Present && theirs.SHA == base.SHA,
		base.Present && ours.Present && ours.SHA == base.SHA && !theirs.Present:
		if (ours.Present && ours.Mode != base.Mode) || (theirs.Present && theirs.Mode != base.Mode) {
			return c.errorf("File %s deleted on one branch but had its permissions changed on the other.", path)
		}
		if ours.Present {
			c.printf("Removing %s", path)
			if err := c.removeWorkTreeFile(path); err != nil {
				return c.errorf("%s: %v", path, err)
			}
		}
		RemoveIndexPath(index, path)
		return 0

	// Added only on our side, nothing to check out
	case !base.Present && ours.Present && !theirs.Present:
		AddIndexEntry(index, types.IndexEntry{Mode: ours.Mode, SHA1: ours.SHA, Filename: path})
		return 0

	// Added only on their side
	case !base.Present && !ours.Present && theirs.Present:
		c.printf("Adding %s", path)
		if _, err := os.Lstat(c.workTreePath(path)); err == nil {
			return c.errorf("untracked %s is overwritten by the merge.", path)
		}
		return c.checkout(index, path, theirs)

	// Added identically on both sides
	case !base.Present && ours.Present && theirs.Present && ours.SHA == theirs.SHA:
		if ours.Mode != theirs.Mode {
			return c.errorf("File %s added identically in both branches, but permissions conflict %06o->%06o.", path, ours.Mode, theirs.Mode)
		}
		c.printf("Adding %s", path)
		return c.checkout(index, path, ours)

	// Modified in both, or added differently
	case ours.Present && theirs.Present:
		return c.mergeContent(index, t, path)
	}

	return c.errorf("%s: Not handling case %s -> %s -> %s", path, shortSHA(base), shortSHA(ours), shortSHA(theirs))
}

func shortSHA(v types.StageVersion) string {
	if !v.Present {
		return ""
	}
	return fmt.Sprintf("%x", v.SHA[:])
}

func (c *MergeOneFileContext) workTreePath(path string) string {
	return filepath.Join(c.Repo.WorkTree, filepath.FromSlash(path))
}

func (c *MergeOneFileContext) mergeContent(index *types.Index, t types.StageTriple, path string) int {
	base, ours, theirs := t.Base(), t.Ours(), t.Theirs()

	for _, m := range []uint32{ours.Mode, theirs.Mode} {
		switch m {
		case constants.SymlinkFileMode:
			return c.errorf("%s: Not merging symbolic link changes.", path)
		case constants.GitlinkFileMode:
			return c.errorf("%s: Not merging conflicting submodule changes.", path)
		}
	}

	oursContent, err := c.Repo.ReadBlob(ours.SHA)
	if err != nil {
		return c.errorf("%s: %v", path, err)
	}
	theirsContent, err := c.Repo.ReadBlob(theirs.SHA)
	if err != nil {
		return c.errorf("%s: %v", path, err)
	}

	var baseContent []byte
	if base.Present {
		c.printf("Auto-merging %s", path)
		if baseContent, err = c.Repo.ReadBlob(base.SHA); err != nil {
			return c.errorf("%s: %v", path, err)
		}
	} else {
		c.printf("Added %s in both, but differently.", path)
	}

	merged, conflicts := MergeFile(oursContent, baseContent, theirsContent)

	var problems []string
	if conflicts > 0 || !base.Present {
		problems = append(problems, "content conflict")
	}
	if ours.Mode != theirs.Mode {
		baseMode := ""
		if base.Present {
			baseMode = fmt.Sprintf("%06o", base.Mode)
		}
		problems = append(problems, fmt.Sprintf("permissions conflict: %s->%06o,%06o", baseMode, ours.Mode, theirs.Mode))
	}

	// The work tree gets the merge result either way so conflicts can be edited
	if err := c.writeWorkTreeFile(path, merged, ours.Mode); err != nil {
		return c.errorf("%s: %v", path, err)
	}
	if len(problems) > 0 {
		c.logger().Debug("merge-one-file conflict", "path", path, "conflicts", conflicts)
		return c.errorf("%s in %s", strings.Join(problems, ", "), path)
	}

	sha, err := c.Repo.WriteObject(types.BlobObject, merged)
	if err != nil {
		return c.errorf("%s: %v", path, err)
	}
	return c.stage(index, path, sha, ours.Mode)
}

// checkout writes version v of path into the work tree and stages it at stage 0.
func (c *MergeOneFileContext) checkout(index *types.Index, path string, v types.StageVersion) int {
	if v.Mode == constants.GitlinkFileMode {
		if err := os.MkdirAll(c.workTreePath(path), constants.DefaultDirPerm); err != nil {
			return c.errorf("%s: %v", path, err)
		}
		AddIndexEntry(index, types.IndexEntry{Mode: v.Mode, SHA1: v.SHA, Filename: path})
		return 0
	}
	content, err := c.Repo.ReadBlob(v.SHA)
	if err != nil {
		return c.errorf("%s: %v", path, err)
	}
	if err := c.writeWorkTreeFile(path, content, v.Mode); err != nil {
		return c.errorf("%s: %v", path, err)
	}
	return c.stage(index, path, v.SHA, v.Mode)
}

func (c *MergeOneFileContext) stage(index *types.Index, path string, sha [20]byte, mode uint32) int {
	entry, err := IndexEntryFromFile(c.workTreePath(path), path, sha, mode)
	if err != nil {
		return c.errorf("%s: %v", path, err)
	}
	AddIndexEntry(index, entry)
	return 0
}

func (c *MergeOneFileContext) writeWorkTreeFile(path string, content []byte, mode uint32) error {
	full := c.workTreePath(path)
	if err := os.MkdirAll(filepath.Dir(full), constants.DefaultDirPerm); err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if mode == constants.SymlinkFileMode {
		return os.Symlink(string(content), full)
	}
	perm := os.FileMode(constants.DefaultFilePerm)
	if mode == constants.ExecutableFileMode {
		perm = constants.ExecutableFilePerm
	}
	return os.WriteFile(full, content, perm)
}

// removeWorkTreeFile deletes path and then any parent directories it leaves empty.
func (c *MergeOneFileContext) removeWorkTreeFile(path string) error {
	full := c.workTreePath(path)
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for dir := filepath.Dir(full); dir != c.Repo.WorkTree && strings.HasPrefix(dir, c.Repo.WorkTree); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
	}
	return nil
}
