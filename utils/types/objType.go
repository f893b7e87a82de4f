package types

type ObjectType string

const (
	BlobObject   ObjectType = "blob"
	TreeObject   ObjectType = "tree"
	CommitObject ObjectType = "commit"
	TagObject    ObjectType = "tag"
)

// Valid reports whether t is one of the four loose object types.
func (t ObjectType) Valid() bool {
	switch t {
	case BlobObject, TreeObject, CommitObject, TagObject:
		return true
	}
	return false
}
