package main

import (
	"fmt"
	"os"

	"github.com/brickster241/gemerge/porcelain"
)

// Entry point of the application - Check for all commands.
func main() {

	// When you create a build, the first argument is always the name of the executable.
	if len(os.Args) == 1 {

		// No arguments provided
		fmt.Printf("gegit: command cannot be empty. See 'gegit help' for available commands.\n")
		fmt.Println("usage: gegit <command> [<args>]")
		os.Exit(0)
	}
	switch os.Args[1] {

	case "merge-index":
		// Run a merge program over the conflicted paths of the index
		porcelain.MergeIndex(os.Args[1:])
	case "update-index":
		// Place entries and conflict stages into the index
		porcelain.RegisterFileAndUpdateIndex(os.Args[1:])
	case "ls-files":
		// Show index entries and their stages
		porcelain.ListFiles(os.Args[1:])
	case "config":
		// Get or Set keys in .git/config
		porcelain.GetOrSetConfig(os.Args[1:])
	case "help":
		fmt.Println("usage: gegit <command> [<args>]")
		fmt.Println("\ncommands: merge-index, update-index, ls-files, config")
	default:
		// Command not found
		fmt.Printf("gegit: '%s' is not a git command. See 'gegit help' for available commands.\n", os.Args[1])
		fmt.Println("usage: gegit <command> [<args>]")
		os.Exit(1)
	}
}
