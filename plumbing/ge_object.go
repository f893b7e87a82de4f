package plumbing

import (
	"bytes"
	"compress/zlib"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/brickster241/gemerge/utils/constants"
	"github.com/brickster241/gemerge/utils/types"
)

// HashObject computes the SHA-1 of the canonical object encoding "<type> <size>\0<content>" without storing it.
func HashObject(objType types.ObjectType, content []byte) [20]byte {
	return sha1.Sum(encodeObject(objType, content))
}

func encodeObject(objType types.ObjectType, content []byte) []byte {
	header := fmt.Sprintf("%s %d\x00", objType, len(content))
	return append([]byte(header), content...)
}

func (r *Repository) objectPath(sha [20]byte) string {
	hexSha := hex.EncodeToString(sha[:])
	return filepath.Join(r.ObjectsPath(), hexSha[:2], hexSha[2:])
}

// WriteObject stores a loose object under objects/aa/bbbb... Existing objects are left untouched.
func (r *Repository) WriteObject(objType types.ObjectType, content []byte) ([20]byte, error) {
	store := encodeObject(objType, content)
	sha := sha1.Sum(store)
	filePath := r.objectPath(sha)

	if _, err := os.Stat(filePath); err == nil {
		return sha, nil
	} else if !os.IsNotExist(err) {
		return [20]byte{}, err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), constants.DefaultDirPerm); err != nil {
		return [20]byte{}, err
	}

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(store); err != nil {
		return [20]byte{}, err
	}
	if err := w.Close(); err != nil {
		return [20]byte{}, err
	}

	// Write through a temp file so a crash never leaves a truncated object behind
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), constants.DefaultFilePerm); err != nil {
		return [20]byte{}, err
	}
	if err := os.Rename(tmp, filePath); err != nil {
		return [20]byte{}, err
	}
	return sha, nil
}

// ReadObject inflates a loose object and returns its type and content (header stripped).
func (r *Repository) ReadObject(sha [20]byte) (types.ObjectType, []byte, error) {
	f, err := os.Open(r.objectPath(sha))
	if err != nil {
		return "", nil, fmt.Errorf("object %x: %w", sha, err)
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return "", nil, fmt.Errorf("object %x: %w", sha, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return "", nil, fmt.Errorf("object %x: %w", sha, err)
	}

	nullIdx := bytes.IndexByte(data, 0)
	if nullIdx == -1 {
		return "", nil, fmt.Errorf("object %x: corrupt object", sha)
	}

	objType, size, ok := strings.Cut(string(data[:nullIdx]), " ")
	if !ok || !types.ObjectType(objType).Valid() {
		return "", nil, fmt.Errorf("object %x: invalid object header", sha)
	}
	content := data[nullIdx+1:]
	if n, err := strconv.Atoi(size); err != nil || n != len(content) {
		return "", nil, fmt.Errorf("object %x: size mismatch", sha)
	}
	return types.ObjectType(objType), content, nil
}

// ReadBlob reads an object and checks that it is a blob.
func (r *Repository) ReadBlob(sha [20]byte) ([]byte, error) {
	objType, content, err := r.ReadObject(sha)
	if err != nil {
		return nil, err
	}
	if objType != types.BlobObject {
		return nil, fmt.Errorf("object %x is a %s, not a blob", sha, objType)
	}
	return content, nil
}

// ParseSHA decodes a 40 character hex object name.
func ParseSHA(shaHex string) ([20]byte, error) {
	var sha [20]byte
	if len(shaHex) != 40 {
		return sha, fmt.Errorf("invalid object id %q", shaHex)
	}
	if _, err := hex.Decode(sha[:], []byte(shaHex)); err != nil {
		return sha, fmt.Errorf("invalid object id %q: %w", shaHex, err)
	}
	return sha, nil
}
