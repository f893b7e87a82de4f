package porcelain

import (
	"fmt"
	"os"

	"github.com/brickster241/gemerge/plumbing"
	"github.com/brickster241/gemerge/utils"
)

// Invoked from main.go. GetOrSetConfig handles 'gegit config' command which is stored at .git/config.
func GetOrSetConfig(args []string) {

	// Define flagset
	fls := utils.CreateCommandFlagSet("config",
		"Get and set repo config options. Keys are <section>.<name>, matched case-insensitively, and are stored in .git/config.",
		"gegit config (get <key> | set <key> <value>)")

	// Parse flags from args
	fls.Parse(args[1:])

	// Positional arguments (non-flag)
	pos := fls.Args()

	// If no args are provided
	if len(pos) == 0 {
		fmt.Println("usage: gegit config (get <key> | set <key> <value>)")
		os.Exit(1)
	}

	repo, err := plumbing.OpenRepository(".")
	if err != nil {
		utils.Die("%v", err)
	}
	cfg, err := plumbing.LoadRepoConfig(repo.ConfigPath())
	if err != nil {
		utils.Die("%v", err)
	}

	switch pos[0] {
	case "set": // Set config value for specific key
		if len(pos) != 3 {
			fmt.Println("usage: gegit config set <key> <value>")
			os.Exit(1)
		}
		if err := cfg.Set(pos[1], pos[2]); err != nil {
			fmt.Println("Error setting Config:", err)
			os.Exit(1)
		}
		if err := cfg.Save(); err != nil {
			fmt.Println("Error setting Config:", err)
			os.Exit(1)
		}

	case "get": // Get config value for specific key
		if len(pos) != 2 {
			fmt.Println("usage: gegit config get <key>")
			os.Exit(1)
		}
		val, ok := cfg.GetString(pos[1])
		if !ok {
			// git exits 1 without output for a missing key
			os.Exit(1)
		}
		fmt.Println(val)

	default:
		fmt.Println("unknown config command:", pos[0])
		fmt.Println("usage: gegit config (get <key> | set <key> <value>)")
		os.Exit(1)
	}
}
