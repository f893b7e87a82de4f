package types

type UntrackedCacheSetting int

const (
	UntrackedCacheKeep UntrackedCacheSetting = iota
	UntrackedCacheRemove
	UntrackedCacheWrite
)

func (u UntrackedCacheSetting) String() string {
	switch u {
	case UntrackedCacheRemove:
		return "remove"
	case UntrackedCacheWrite:
		return "write"
	default:
		return "keep"
	}
}

type FetchNegotiationSetting int

const (
	FetchNegotiationConsecutive FetchNegotiationSetting = iota
	FetchNegotiationSkipping
	FetchNegotiationNoop
)

func (f FetchNegotiationSetting) String() string {
	switch f {
	case FetchNegotiationSkipping:
		return "skipping"
	case FetchNegotiationNoop:
		return "noop"
	default:
		return "consecutive"
	}
}

// RepoSettings are the per-repository defaults derived from .git/config and the environment.
type RepoSettings struct {
	IndexVersion                 int // -1 when unset
	CoreUntrackedCache           UntrackedCacheSetting
	FetchNegotiationAlgorithm    FetchNegotiationSetting
	CoreCommitGraph              bool
	CommitGraphGenerationVersion int
	CommitGraphReadChangedPaths  bool
	GCWriteCommitGraph           bool
	FetchWriteCommitGraph        bool
	PackUseSparse                bool
	CoreMultiPackIndex           bool
	SparseIndex                  bool
	SubmodulePropagateBranches   bool
	CommandRequiresFullIndex     bool
}
