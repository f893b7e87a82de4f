package plumbing

import (
	"fmt"
	"os"
	"strings"

	"github.com/brickster241/gemerge/utils/constants"
	"github.com/brickster241/gemerge/utils/types"
)

// settingsLoader remembers the first config error so the cascade below can stay flat.
type settingsLoader struct {
	cfg *RepoConfig
	err error
}

func (l *settingsLoader) boolean(key string, dest *bool, def bool) {
	*dest = def
	v, ok, err := l.cfg.GetBool(key)
	if err != nil && l.err == nil {
		l.err = err
	}
	if ok && err == nil {
		*dest = v
	}
}

func (l *settingsLoader) integer(key string, dest *int, def int) {
	*dest = def
	v, ok, err := l.cfg.GetInt(key)
	if err != nil && l.err == nil {
		l.err = err
	}
	if ok && err == nil {
		*dest = v
	}
}

// envBool is true only when the variable is set to a true git boolean.
func envBool(name string) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false
	}
	b, valid := ParseMaybeBool(v)
	return valid && b
}

// PrepareRepoSettings derives repository settings from cfg and the environment. feature.* keys
// cascade into other defaults before the explicit keys are applied.
func PrepareRepoSettings(cfg *RepoConfig) (*types.RepoSettings, error) {
	s := &types.RepoSettings{
		IndexVersion:              -1,
		CoreUntrackedCache:        types.UntrackedCacheKeep,
		FetchNegotiationAlgorithm: types.FetchNegotiationConsecutive,
	}
	l := &settingsLoader{cfg: cfg}

	var manyFiles, experimental bool
	l.boolean("feature.manyfiles", &manyFiles, false)
	l.boolean("feature.experimental", &experimental, false)

	if experimental {
		s.FetchNegotiationAlgorithm = types.FetchNegotiationSkipping
	}
	if manyFiles {
		s.IndexVersion = 4
		s.CoreUntrackedCache = types.UntrackedCacheWrite
	}

	// Commit graph
	l.boolean("core.commitgraph", &s.CoreCommitGraph, true)
	l.integer("commitgraph.generationversion", &s.CommitGraphGenerationVersion, 2)
	l.boolean("commitgraph.readchangedpaths", &s.CommitGraphReadChangedPaths, true)
	l.boolean("gc.writecommitgraph", &s.GCWriteCommitGraph, true)
	l.boolean("fetch.writecommitgraph", &s.FetchWriteCommitGraph, false)

	l.boolean("pack.usesparse", &s.PackUseSparse, true)
	l.boolean("core.multipackindex", &s.CoreMultiPackIndex, true)
	l.boolean("index.sparse", &s.SparseIndex, false)
	l.boolean("submodule.propagateBranches", &s.SubmodulePropagateBranches, false)

	// The environment can only switch these on
	if envBool(constants.EnvTestMultiPackIndex) {
		s.CoreMultiPackIndex = true
	}
	if envBool(constants.EnvSubmodulePropagateBranches) {
		s.SubmodulePropagateBranches = true
	}

	if v, ok, err := cfg.GetInt("index.version"); err != nil {
		return nil, err
	} else if ok {
		s.IndexVersion = v
	}

	// "keep" and other non-boolean values leave the default in place
	if v, ok := cfg.GetString("core.untrackedcache"); ok {
		if b, valid := ParseMaybeBool(v); valid {
			if b {
				s.CoreUntrackedCache = types.UntrackedCacheWrite
			} else {
				s.CoreUntrackedCache = types.UntrackedCacheRemove
			}
		}
	}

	if v, ok := cfg.GetString("fetch.negotiationalgorithm"); ok {
		switch strings.ToLower(v) {
		case "skipping":
			s.FetchNegotiationAlgorithm = types.FetchNegotiationSkipping
		case "noop":
			s.FetchNegotiationAlgorithm = types.FetchNegotiationNoop
		case "consecutive":
			s.FetchNegotiationAlgorithm = types.FetchNegotiationConsecutive
		case "default":
			// keep whatever feature.experimental chose
		default:
			return nil, fmt.Errorf("unknown fetch negotiation algorithm '%s'", v)
		}
	}

	if l.err != nil {
		return nil, l.err
	}

	s.CommandRequiresFullIndex = true
	return s, nil
}

// IndexWriteVersion picks the on-disk version for a rewritten index. Unset keeps the version the index
// was read with. Version 4 path compression is not written, so 4 and unknown values fall back to 2.
func IndexWriteVersion(s *types.RepoSettings, current uint32) (version uint32, fellBack bool) {
	switch s.IndexVersion {
	case 2, 3:
		return uint32(s.IndexVersion), false
	case -1:
		if current == 3 {
			return 3, false
		}
		return 2, false
	default:
		return 2, true
	}
}
