package porcelain

import (
	"fmt"
	"io"
	"os"

	"github.com/brickster241/gemerge/plumbing"
	"github.com/brickster241/gemerge/utils"
	"github.com/brickster241/gemerge/utils/types"
)

// Invoked from main.go. ListFiles handles the 'gegit ls-files' command to show index entries and their stages.
func ListFiles(args []string) {

	// Define flagset
	fls := utils.CreateCommandFlagSet("ls-files",
		"Show the paths in the index. With --stage, show mode, object name and stage number too; with --unmerged, only paths that still have conflict stages.",
		"gegit ls-files [-s | --stage] [-u | --unmerged]")
	stage := fls.BoolP("stage", "s", false, "Show staged contents' mode bits, object name and stage number.")
	unmerged := fls.BoolP("unmerged", "u", false, "Show only unmerged entries. Implies --stage.")

	// Parse flags from args
	fls.Parse(args[1:])
	if len(fls.Args()) != 0 {
		fmt.Println("usage: gegit ls-files [-s | --stage] [-u | --unmerged]")
		os.Exit(1)
	}

	repo, err := plumbing.OpenRepository(".")
	if err != nil {
		utils.Die("%v", err)
	}
	index, err := plumbing.LoadIndex(repo.IndexPath())
	if err != nil {
		fmt.Println("Error loading index:", err)
		os.Exit(1)
	}

	printIndex(os.Stdout, index, *stage || *unmerged, *unmerged)
}

func printIndex(w io.Writer, index *types.Index, showStage, unmergedOnly bool) {
	last := ""
	for _, e := range index.Entries {
		if unmergedOnly && e.Stage() == 0 {
			continue
		}
		if showStage {
			fmt.Fprintf(w, "%06o %x %d\t%s\n", e.Mode, e.SHA1, e.Stage(), e.Filename)
			continue
		}
		// Plain listing shows a conflicted path once
		if e.Filename != last {
			fmt.Fprintln(w, e.Filename)
			last = e.Filename
		}
	}
}
