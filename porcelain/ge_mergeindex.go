package porcelain

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/brickster241/gemerge/plumbing"
	"github.com/brickster241/gemerge/utils"
	"github.com/brickster241/gemerge/utils/constants"
	"github.com/brickster241/gemerge/utils/types"
)

// Invoked from main.go. MergeIndex handles 'gegit merge-index', running a merge program over the conflicted paths of the index.
func MergeIndex(args []string) {

	// Define flagset
	fls := utils.CreateCommandFlagSet("merge-index",
		"Run a merge program for every path that has conflict stages in the index. Use 'merge-one-file' for the built-in resolver, which also updates the index.",
		"gegit merge-index [-o] [-q] <merge-program> (-a | [--] <file>...)")
	oneShot := fls.BoolP("one-shot", "o", false, "Keep going after a failed merge and report the failure at the end.")
	quiet := fls.BoolP("quiet", "q", false, "Do not complain about a failed merge program.")

	// Everything after the merge program belongs to it
	fls.SetInterspersed(false)
	fls.Parse(args[1:])

	// Positional arguments (non-flag)
	pos := fls.Args()
	if len(pos) < 2 {
		fmt.Println("usage: gegit merge-index [-o] [-q] <merge-program> (-a | [--] <file>...)")
		os.Exit(1)
	}

	repo, err := plumbing.OpenRepository(".")
	if err != nil {
		utils.Die("%v", err)
	}

	policy := plumbing.MergePolicy{OneShot: *oneShot, Quiet: *quiet, Logger: utils.NewLogger()}
	failed, err := runMergeIndex(repo, policy, pos[0], pos[1:], os.Stdout, os.Stderr)
	if errors.Is(err, plumbing.ErrMergeProgramFailed) {
		utils.Die("merge program failed")
	} else if err != nil {
		utils.Die("%v", err)
	}
	if failed {
		os.Exit(1)
	}
}

// runMergeIndex loads the index, merges the requested targets and, for the built-in resolver, writes the index back.
// It reports whether a tolerated failure happened; fatal conditions come back as errors.
func runMergeIndex(repo *plumbing.Repository, policy plumbing.MergePolicy, program string, targets []string, stdout, stderr io.Writer) (bool, error) {

	index, err := plumbing.LoadIndex(repo.IndexPath())
	if err != nil {
		return false, fmt.Errorf("index file corrupt: %w", err)
	}

	log := policy.Logger
	if log == nil {
		log = utils.DiscardLogger()
	}

	if program != constants.MergeOneFile && program != constants.MergeOneFileAlt {
		// External programs update the on-disk index themselves
		pc := &plumbing.ProgramContext{Program: program, WorkTree: repo.WorkTree, Stdout: stdout, Stderr: stderr}
		return mergeTargets(index, policy, targets, plumbing.ProgramResolver{}, pc)
	}

	settings, err := repo.Settings()
	if err != nil {
		return false, err
	}
	log.Debug("repository settings",
		slog.Int("index.version", settings.IndexVersion),
		slog.String("core.untrackedcache", settings.CoreUntrackedCache.String()),
		slog.Bool("index.sparse", settings.SparseIndex))

	mc := &plumbing.MergeOneFileContext{Repo: repo, Stdout: stdout, Stderr: stderr, Logger: log}
	failed, err := mergeTargets(index, policy, targets, plumbing.MergeOneFile{}, mc)
	if err != nil {
		return failed, err
	}

	version, fellBack := plumbing.IndexWriteVersion(settings, index.Version)
	if fellBack {
		log.Warn("index version not supported for writing, using 2", slog.Int("index.version", settings.IndexVersion))
	}
	index.Version = version
	if err := plumbing.WriteIndex(repo.IndexPath(), index); err != nil {
		return failed, fmt.Errorf("unable to write new index file: %w", err)
	}
	return failed, nil
}

// mergeTargets walks the merge-index arguments: "-a" merges everything, "--" ends option parsing and anything else is a path.
func mergeTargets[C any](index *types.Index, policy plumbing.MergePolicy, targets []string, resolver plumbing.Resolver[C], data C) (bool, error) {
	failed := false
	forceFile := false

	for _, arg := range targets {
		if !forceFile && strings.HasPrefix(arg, "-") {
			switch arg {
			case "--":
				forceFile = true
			case "-a":
				res, err := plumbing.MergeAllIndex(index, policy, resolver, data)
				if err != nil {
					return failed, err
				}
				failed = failed || res.Failed
			default:
				return failed, fmt.Errorf("gegit merge-index: unknown option %s", arg)
			}
			continue
		}

		path := filepath.ToSlash(filepath.Clean(arg))
		res, err := plumbing.MergeIndexPath(index, policy, path, resolver, data)
		if err != nil {
			return failed, err
		}
		failed = failed || res.Failed
	}

	// A oneshot pass over paths tolerates failures until every target was tried
	if failed && !policy.Quiet {
		return failed, plumbing.ErrMergeProgramFailed
	}
	return failed, nil
}
