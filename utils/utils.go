package utils

import (
	"fmt"
	"os"
	"strconv"

	"github.com/brickster241/gemerge/utils/constants"
	"github.com/fatih/color"
	"github.com/spf13/pflag"
)

var (
	bold  = color.New(color.Bold)
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed, color.Bold)
)

// Utility function to create a new flag set, Will be used once per command.
func CreateCommandFlagSet(name, desc, usage string) *pflag.FlagSet {
	// Define flagset
	fls := pflag.NewFlagSet(name, pflag.ExitOnError)
	fls.Usage = func() {
		fmt.Fprintf(os.Stderr, "\n%s\n\n\t %s\n\n", bold.Sprint("Description:"), desc)
		fmt.Fprintf(os.Stderr, "%s %s\n\n", bold.Sprint("Usage:"), green.Sprint(usage))
		fls.PrintDefaults()
	}
	return fls
}

// ParseModeStr parses an octal git file mode such as "100644" and rejects anything git would not store in an index.
func ParseModeStr(mode string) (uint32, error) {
	m, err := strconv.ParseUint(mode, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid mode %q: %w", mode, err)
	}
	switch m {
	case constants.RegularFileMode, constants.ExecutableFileMode, constants.SymlinkFileMode, constants.GitlinkFileMode:
		return uint32(m), nil
	}
	return 0, fmt.Errorf("invalid mode %q", mode)
}

// Die prints a git style fatal message to stderr and exits with status 128.
func Die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", red.Sprint("fatal:"), fmt.Sprintf(format, args...))
	os.Exit(constants.FatalExitCode)
}
