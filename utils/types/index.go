package types

// IndexEntry represents a single entry in the Git index (staging area).
type IndexEntry struct {
	Ctime    uint32   // seconds since epoch
	CtimeNs  uint32   // nanoseconds
	Mtime    uint32   // seconds since epoch
	MtimeNs  uint32   // nanoseconds
	Dev      uint32   // device
	Ino      uint32   // inode
	Mode     uint32   // file mode - 0100644 for regular file
	Uid      uint32   // user id
	Gid      uint32   // group id
	FileSize uint32   // size in bytes
	SHA1     [20]byte // SHA-1 hash of the file content
	Flags    uint16   // flags: assume-valid, extended, stage (bits 12-13), name length
	Filename string   // file name
}

// Stage returns the merge stage recorded in the entry flags. 0 is resolved, 1/2/3 are base/ours/theirs.
func (e IndexEntry) Stage() int {
	return int(e.Flags&0x3000) >> 12
}

// WithStage returns a copy of the entry with its stage bits replaced.
func (e IndexEntry) WithStage(stage int) IndexEntry {
	e.Flags = (e.Flags &^ 0x3000) | uint16(stage&0x3)<<12
	return e
}

// Index is the in-memory staging area: entries sorted by filename, then stage.
type Index struct {
	Version uint32
	Entries []IndexEntry
}
