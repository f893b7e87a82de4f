package constants

const (
	RegularFileMode    = 0o100644
	ExecutableFileMode = 0o100755
	SymlinkFileMode    = 0o120000
	GitlinkFileMode    = 0o160000
	DefaultFilePerm    = 0o644 // rw-r--r--
	ExecutableFilePerm = 0o755 // rwxr-xr-x
	DefaultDirPerm     = 0o755 // rwxr-xr-x

	IndexSignature      = "DIRC"
	IndexHeaderSize     = 12
	IndexChecksumSize   = 20
	IndexEntryFixedSize = 62 // 40 bytes stat data + 20 bytes SHA + 2 bytes flags
	IndexNameMask       = 0x0FFF
	IndexStageMask      = 0x3000
	IndexExtendedFlag   = 0x4000

	GitDir          = ".git"
	MergeOneFile    = "merge-one-file"
	MergeOneFileAlt = "gegit-merge-one-file"

	// Environment variables consulted while preparing repository settings.
	EnvTestMultiPackIndex         = "GIT_TEST_MULTI_PACK_INDEX"
	EnvSubmodulePropagateBranches = "GIT_SUBMODULE_PROPAGATE_BRANCHES"
	EnvLogLevel                   = "GEGIT_LOG_LEVEL"

	// Exit status used by fatal errors, matching git's die().
	FatalExitCode = 128
)
