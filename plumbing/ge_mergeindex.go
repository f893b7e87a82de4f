package plumbing

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brickster241/gemerge/utils/types"
)

var (
	// ErrNotInIndex means the caller asked to merge a path or position the index does not hold.
	ErrNotInIndex = errors.New("not in the cache")

	// ErrMergeProgramFailed is returned when a resolution failure is fatal under the pass policy.
	ErrMergeProgramFailed = errors.New("merge program failed")
)

// IndexPathError reports a path that is not where the caller said it would be in the index.
type IndexPathError struct {
	Path   string
	Reason string
}

func (e *IndexPathError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("'%s' is not in the cache: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("'%s' is not in the cache", e.Path)
}

func (e *IndexPathError) Unwrap() error { return ErrNotInIndex }

// MergePolicy controls how a pass reacts to a failed resolution.
//
// OneShot keeps sweeping after a failure so every conflicted path gets one attempt.
// Quiet turns fatal failures into a tolerated result and silences the pass's log records.
type MergePolicy struct {
	OneShot bool
	Quiet   bool
	Logger  *slog.Logger // nil discards
}

func (p MergePolicy) logger() *slog.Logger {
	if p.Logger == nil || p.Quiet {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

// stagesPresent renders a triple as e.g. "12-" for base and ours present, theirs absent.
func stagesPresent(t types.StageTriple) string {
	var sb strings.Builder
	for i, v := range t {
		if v.Present {
			sb.WriteByte(byte('1' + i))
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// mergeEntry gathers the conflict stages of path starting at pos and hands them to the resolver once.
// The index must be sorted: entries of one path are expected to be contiguous and are not re-checked.
func mergeEntry[C any](index *types.Index, pos int, path string, resolver Resolver[C], data C) (consumed int, failed bool, err error) {

	if pos < 0 || pos >= len(index.Entries) {
		return 0, false, &IndexPathError{Path: path}
	}

	var triple types.StageTriple
	for i := pos; i < len(index.Entries); i++ {
		e := index.Entries[i]
		if e.Filename != path {
			break
		}
		stage := e.Stage()
		if stage == 0 {
			return 0, false, &IndexPathError{Path: path, Reason: "resolved entry mixed with conflict stages"}
		}
		triple[stage-1] = types.StageVersion{Present: true, SHA: e.SHA1, Mode: e.Mode}
		consumed++
	}
	if consumed == 0 {
		return 0, false, &IndexPathError{Path: path}
	}

	status := resolver.Resolve(index, triple, path, data)
	return consumed, status != 0, nil
}

// MergeIndexPath resolves one path. A path already at stage 0 is left alone and reported as clean.
// A failed resolution is fatal (ErrMergeProgramFailed) unless the policy is quiet or oneshot.
func MergeIndexPath[C any](index *types.Index, policy MergePolicy, path string, resolver Resolver[C], data C) (types.MergeResult, error) {
	var res types.MergeResult
	log := policy.logger()

	pos, found := IndexNamePos(index, path, 0)
	if found {
		log.Debug("path already merged", "path", path)
		return res, nil
	}

	consumed, failed, err := mergeEntry(index, pos, path, resolver, data)
	if err != nil {
		return res, err
	}
	res.Consumed = consumed

	if failed {
		res.FailedPaths = []string{path}
		if !policy.Quiet && !policy.OneShot {
			return res, fmt.Errorf("%s: %w", path, ErrMergeProgramFailed)
		}
		res.Failed = true
		log.Debug("merge failed", "path", path, "consumed", consumed)
		return res, nil
	}

	res.Merged = 1
	log.Debug("merged path", "path", path, "consumed", consumed)
	return res, nil
}

// MergeAllIndex sweeps the whole index and resolves every conflicted path once.
//
// Without OneShot the sweep stops at the first failure. With it, every path is attempted and the
// failure is reported once the sweep ends. Either way a failure is fatal unless Quiet.
func MergeAllIndex[C any](index *types.Index, policy MergePolicy, resolver Resolver[C], data C) (types.MergeResult, error) {
	var res types.MergeResult
	log := policy.logger()

	for i := 0; i < len(index.Entries); {
		e := index.Entries[i]
		if e.Stage() == 0 {
			i++
			continue
		}

		path := e.Filename
		before := len(index.Entries)
		consumed, failed, err := mergeEntry(index, i, path, resolver, data)
		if err != nil {
			return res, err
		}
		res.Consumed += consumed

		// The resolver may have swapped this path's stages for a single resolved entry, or dropped
		// them. Shift by the size change so the scan still lands on the next path.
		next := max(i+consumed+len(index.Entries)-before, i)
		for next < len(index.Entries) && index.Entries[next].Filename == path {
			next++
		}
		i = next

		if !failed {
			res.Merged++
			log.Debug("merged path", "path", path, "consumed", consumed)
			continue
		}

		res.FailedPaths = append(res.FailedPaths, path)
		if !policy.OneShot {
			if !policy.Quiet {
				return res, fmt.Errorf("%s: %w", path, ErrMergeProgramFailed)
			}
			res.Failed = true
			return res, nil
		}
		log.Debug("merge failed, continuing", "path", path, "consumed", consumed)
	}

	if len(res.FailedPaths) > 0 {
		if !policy.Quiet {
			return res, fmt.Errorf("%d path(s) failed: %w", len(res.FailedPaths), ErrMergeProgramFailed)
		}
		res.Failed = true
	}
	return res, nil
}
