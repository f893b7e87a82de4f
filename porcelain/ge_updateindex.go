package porcelain

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/brickster241/gemerge/plumbing"
	"github.com/brickster241/gemerge/utils"
	"github.com/brickster241/gemerge/utils/types"
)

// Invoked from main.go. RegisterFileAndUpdateIndex handles the 'gegit update-index' command to place entries, including conflict stages, into the index.
func RegisterFileAndUpdateIndex(args []string) {

	// Define flagset
	fls := utils.CreateCommandFlagSet("update-index",
		"Register entries in the index: a single resolved entry with --cacheinfo, staged entries read from stdin with --index-info, or drop every stage of a path with --remove.",
		"gegit update-index (--cacheinfo <mode> <object> <file> | --index-info | --remove <file>...)")
	cacheInfo := fls.Bool("cacheinfo", false, "Directly insert the specified <mode>, <object> and <file> into the index at stage 0.")
	indexInfo := fls.Bool("index-info", false, "Read '<mode> SP <object> SP <stage> TAB <file>' lines from stdin.")
	remove := fls.Bool("remove", false, "Remove every stage of the named files from the index.")

	// Parse flags from args
	fls.Parse(args[1:])

	// Positional arguments (non-flag)
	pos := fls.Args()

	repo, err := plumbing.OpenRepository(".")
	if err != nil {
		utils.Die("%v", err)
	}
	index, err := plumbing.LoadIndex(repo.IndexPath())
	if err != nil {
		fmt.Println("Error loading index:", err)
		os.Exit(1)
	}

	switch {
	case *cacheInfo && len(pos) == 3:
		err = cacheInfoEntry(index, pos[0], pos[1], pos[2])
	case *indexInfo && len(pos) == 0:
		err = readIndexInfo(index, os.Stdin)
	case *remove && len(pos) > 0:
		for _, p := range pos {
			plumbing.RemoveIndexPath(index, filepath.ToSlash(filepath.Clean(p)))
		}
	default:
		fmt.Println("usage: gegit update-index (--cacheinfo <mode> <object> <file> | --index-info | --remove <file>...)")
		os.Exit(1)
	}
	if err != nil {
		utils.Die("%v", err)
	}

	if err := plumbing.WriteIndex(repo.IndexPath(), index); err != nil {
		fmt.Println("Error updating Index:", err)
		os.Exit(1)
	}
}

// cacheInfoEntry adds a stage 0 entry, replacing any conflict stages of the path.
func cacheInfoEntry(index *types.Index, mode, shaHex, file string) error {
	entry, err := parseEntry(mode, shaHex, "0", file)
	if err != nil {
		return err
	}
	plumbing.AddIndexEntry(index, entry)
	return nil
}

// readIndexInfo applies '<mode> SP <sha> SP <stage> TAB <path>' lines. Mode 0 removes the path.
func readIndexInfo(index *types.Index, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		meta, path, ok := strings.Cut(line, "\t")
		fields := strings.Fields(meta)
		if !ok || len(fields) != 3 {
			return fmt.Errorf("malformed index info %s", line)
		}
		if fields[0] == "0" {
			plumbing.RemoveIndexPath(index, path)
			continue
		}
		entry, err := parseEntry(fields[0], fields[1], fields[2], path)
		if err != nil {
			return err
		}
		plumbing.AddIndexStage(index, entry)
	}
	return sc.Err()
}

func parseEntry(mode, shaHex, stage, file string) (types.IndexEntry, error) {
	m, err := utils.ParseModeStr(mode)
	if err != nil {
		return types.IndexEntry{}, err
	}
	sha, err := plumbing.ParseSHA(shaHex)
	if err != nil {
		return types.IndexEntry{}, err
	}
	st, err := strconv.Atoi(stage)
	if err != nil || st < 0 || st > 3 {
		return types.IndexEntry{}, fmt.Errorf("invalid stage %q", stage)
	}
	cleanPath := filepath.ToSlash(filepath.Clean(file))
	if cleanPath == "." || strings.HasPrefix(cleanPath, "../") || filepath.IsAbs(cleanPath) {
		return types.IndexEntry{}, fmt.Errorf("invalid path '%s'", file)
	}
	return types.IndexEntry{SHA1: sha, Mode: m, Filename: cleanPath}.WithStage(st), nil
}
