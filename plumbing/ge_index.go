package plumbing

import (
	"bytes"
	"cmp"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/brickster241/gemerge/utils/constants"
	"github.com/brickster241/gemerge/utils/types"
)

// LoadIndex reads an index file (versions 2 and 3). A missing file is an empty version 2 index.
func LoadIndex(indexPath string) (*types.Index, error) {

	data, err := os.ReadFile(indexPath)
	if errors.Is(err, os.ErrNotExist) {
		return &types.Index{Version: 2}, nil
	} else if err != nil {
		return nil, err
	}

	// Check index file size
	if len(data) < constants.IndexHeaderSize+constants.IndexChecksumSize {
		return nil, fmt.Errorf("index file is too short")
	}

	// Validate header, version and get entry count
	if string(data[:4]) != constants.IndexSignature {
		return nil, fmt.Errorf("invalid index file header")
	}

	version := binary.BigEndian.Uint32(data[4:8])
	if version != 2 && version != 3 {
		return nil, fmt.Errorf("unsupported index version: %d", version)
	}

	// Trailing SHA-1 covers everything before it
	content := data[:len(data)-constants.IndexChecksumSize]
	if sum := sha1.Sum(content); !bytes.Equal(sum[:], data[len(content):]) {
		return nil, fmt.Errorf("index file checksum mismatch")
	}

	entryCount := binary.BigEndian.Uint32(data[8:12])
	entries := make([]types.IndexEntry, 0, entryCount)
	offset := constants.IndexHeaderSize

	for i := uint32(0); i < entryCount; i++ {
		entryStart := offset
		if offset+constants.IndexEntryFixedSize > len(content) {
			return nil, fmt.Errorf("corrupt index entry")
		}

		var ie types.IndexEntry
		fields := []*uint32{&ie.Ctime, &ie.CtimeNs, &ie.Mtime, &ie.MtimeNs, &ie.Dev, &ie.Ino, &ie.Mode, &ie.Uid, &ie.Gid, &ie.FileSize}
		for _, f := range fields {
			*f = binary.BigEndian.Uint32(content[offset:])
			offset += 4
		}

		copy(ie.SHA1[:], content[offset:offset+20])
		offset += 20

		ie.Flags = binary.BigEndian.Uint16(content[offset:])
		offset += 2

		// Version 3 extended flags (skip-worktree, intent-to-add) are not kept
		if ie.Flags&constants.IndexExtendedFlag != 0 {
			if version < 3 {
				return nil, fmt.Errorf("extended flag set in version %d index", version)
			}
			offset += 2
			ie.Flags &^= constants.IndexExtendedFlag
		}

		nameEnd := bytes.IndexByte(content[min(offset, len(content)):], 0)
		if nameEnd < 0 {
			return nil, fmt.Errorf("unterminated filename in index")
		}
		ie.Filename = string(content[offset : offset+nameEnd])
		offset += nameEnd + 1

		// Entries are NUL padded to a multiple of 8 bytes from the entry start
		if rem := (offset - entryStart) % 8; rem != 0 {
			offset += 8 - rem
		}

		entries = append(entries, ie)
	}

	return &types.Index{Version: version, Entries: entries}, nil
}

// WriteIndex writes the index through <path>.lock and renames it into place. Extensions are not written.
func WriteIndex(indexPath string, index *types.Index) error {

	version := index.Version
	if version != 3 {
		version = 2
	}

	var buffer []byte
	buffer = append(buffer, []byte(constants.IndexSignature)...)
	buffer = binary.BigEndian.AppendUint32(buffer, version)
	buffer = binary.BigEndian.AppendUint32(buffer, uint32(len(index.Entries)))

	for _, entry := range index.Entries {

		entryStart := len(buffer)

		// 40 bytes of stat data
		for _, v := range []uint32{entry.Ctime, entry.CtimeNs, entry.Mtime, entry.MtimeNs, entry.Dev, entry.Ino, entry.Mode, entry.Uid, entry.Gid, entry.FileSize} {
			buffer = binary.BigEndian.AppendUint32(buffer, v)
		}

		// 20 bytes SHA-1
		buffer = append(buffer, entry.SHA1[:]...)

		// Flags: keep assume-valid and stage, recompute the 12 bit name length
		nameLen := min(len(entry.Filename), constants.IndexNameMask)
		flags := entry.Flags&^(constants.IndexNameMask|constants.IndexExtendedFlag) | uint16(nameLen)
		buffer = binary.BigEndian.AppendUint16(buffer, flags)

		// Full filename plus NUL terminator and padding to 8 bytes
		buffer = append(buffer, []byte(entry.Filename)...)
		buffer = append(buffer, 0x00)
		entryLen := len(buffer) - entryStart
		buffer = append(buffer, make([]byte, (8-(entryLen%8))%8)...)
	}

	hash := sha1.Sum(buffer)
	buffer = append(buffer, hash[:]...)

	lockPath := indexPath + ".lock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, constants.DefaultFilePerm)
	if err != nil {
		return fmt.Errorf("unable to create '%s': %w", lockPath, err)
	}
	if _, err := f.Write(buffer); err != nil {
		f.Close()
		os.Remove(lockPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(lockPath)
		return err
	}
	return os.Rename(lockPath, indexPath)
}

// compareEntry orders entries by filename bytes, then by stage.
func compareEntry(e types.IndexEntry, name string, stage int) int {
	if c := strings.Compare(e.Filename, name); c != 0 {
		return c
	}
	return cmp.Compare(e.Stage(), stage)
}

// SortIndex restores the (filename, stage) order git requires.
func SortIndex(index *types.Index) {
	slices.SortStableFunc(index.Entries, func(a, b types.IndexEntry) int {
		return compareEntry(a, b.Filename, b.Stage())
	})
}

// IndexNamePos finds (name, stage) in the sorted index. When absent, pos is where it would be inserted.
func IndexNamePos(index *types.Index, name string, stage int) (int, bool) {
	return slices.BinarySearchFunc(index.Entries, name, func(e types.IndexEntry, target string) int {
		return compareEntry(e, target, stage)
	})
}

// RemoveIndexPath drops every stage recorded for name and returns how many entries went away.
func RemoveIndexPath(index *types.Index, name string) int {
	start, _ := IndexNamePos(index, name, 0)
	end := start
	for end < len(index.Entries) && index.Entries[end].Filename == name {
		end++
	}
	index.Entries = slices.Delete(index.Entries, start, end)
	return end - start
}

// AddIndexEntry inserts entry, replacing whatever stages its path had before.
func AddIndexEntry(index *types.Index, entry types.IndexEntry) {
	RemoveIndexPath(index, entry.Filename)
	pos, _ := IndexNamePos(index, entry.Filename, entry.Stage())
	index.Entries = slices.Insert(index.Entries, pos, entry)
}

// AddIndexStage inserts entry next to the other stages of its path. A stage 0 entry still replaces everything.
func AddIndexStage(index *types.Index, entry types.IndexEntry) {
	if entry.Stage() == 0 {
		AddIndexEntry(index, entry)
		return
	}
	// A resolved entry cannot coexist with conflict stages
	if pos, found := IndexNamePos(index, entry.Filename, 0); found {
		index.Entries = slices.Delete(index.Entries, pos, pos+1)
	}
	pos, found := IndexNamePos(index, entry.Filename, entry.Stage())
	if found {
		index.Entries[pos] = entry
		return
	}
	index.Entries = slices.Insert(index.Entries, pos, entry)
}

// IndexEntryFromFile builds a stage 0 entry for a work tree file that was just written.
func IndexEntryFromFile(fullPath, name string, sha [20]byte, mode uint32) (types.IndexEntry, error) {
	info, err := os.Lstat(fullPath)
	if err != nil {
		return types.IndexEntry{}, err
	}
	mtime := info.ModTime()
	return types.IndexEntry{
		Ctime:    uint32(mtime.Unix()),
		CtimeNs:  uint32(mtime.Nanosecond()),
		Mtime:    uint32(mtime.Unix()),
		MtimeNs:  uint32(mtime.Nanosecond()),
		Mode:     mode,
		FileSize: uint32(info.Size()),
		SHA1:     sha,
		Filename: name,
	}, nil
}
