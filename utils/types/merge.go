package types

// StageVersion is one side of a conflicted path. Present is false when that version does not have the file.
type StageVersion struct {
	Present bool
	SHA     [20]byte
	Mode    uint32
}

// StageTriple holds the base, ours and theirs versions of a path, indexed by stage - 1.
type StageTriple [3]StageVersion

func (t StageTriple) Base() StageVersion   { return t[0] }
func (t StageTriple) Ours() StageVersion   { return t[1] }
func (t StageTriple) Theirs() StageVersion { return t[2] }

// MergeResult summarises a merge-index pass.
type MergeResult struct {
	Consumed    int      // unresolved entries handed to the resolver
	Merged      int      // paths the resolver resolved
	Failed      bool     // at least one resolution failed and the failure was tolerated
	FailedPaths []string // paths whose resolution failed, in index order
}
