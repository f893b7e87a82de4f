package plumbing

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/brickster241/gemerge/utils/types"
)

// Resolver decides how one conflicted path is merged. It returns 0 when the path was resolved and
// nonzero otherwise. A resolver may replace the path's stage entries in index with a single stage 0
// entry, or remove them; it must not touch entries of other paths.
type Resolver[C any] interface {
	Resolve(index *types.Index, triple types.StageTriple, path string, data C) int
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc[C any] func(index *types.Index, triple types.StageTriple, path string, data C) int

func (f ResolverFunc[C]) Resolve(index *types.Index, triple types.StageTriple, path string, data C) int {
	return f(index, triple, path, data)
}

// ProgramContext describes the external merge program and where it runs.
type ProgramContext struct {
	Program  string
	WorkTree string
	Stdout   io.Writer
	Stderr   io.Writer
}

// ProgramResolver runs an external merge program the way merge-index does:
//
//	<program> <base> <ours> <theirs> <path> <base-mode> <ours-mode> <theirs-mode>
//
// Missing stages are passed as empty strings. The program owns any index update; the in-memory index
// is not modified. Its exit status is the resolution status.
type ProgramResolver struct{}

// ProgramArgs builds the argument list handed to the merge program.
func ProgramArgs(triple types.StageTriple, path string) []string {
	args := make([]string, 0, 7)
	for _, v := range triple {
		if v.Present {
			args = append(args, hex.EncodeToString(v.SHA[:]))
		} else {
			args = append(args, "")
		}
	}
	args = append(args, path)
	for _, v := range triple {
		if v.Present {
			args = append(args, fmt.Sprintf("%06o", v.Mode))
		} else {
			args = append(args, "")
		}
	}
	return args
}

func (ProgramResolver) Resolve(_ *types.Index, triple types.StageTriple, path string, pc *ProgramContext) int {
	cmd := exec.Command(pc.Program, ProgramArgs(triple, path)...)
	cmd.Dir = pc.WorkTree
	cmd.Stdout = pc.Stdout
	cmd.Stderr = pc.Stderr

	err := cmd.Run()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode()
	}
	// Could not start, or killed by a signal
	if pc.Stderr != nil {
		fmt.Fprintf(pc.Stderr, "error: running %s: %v\n", pc.Program, err)
	}
	return 1
}
