package tabvault

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ObjectID is the content hash identifying an object. Identical content
// always yields the same id, so ids can be compared directly.
type ObjectID [sha256.Size]byte

// ComputeObjectID hashes framed object bytes into an id.
func ComputeObjectID(data []byte) ObjectID {
	return sha256.Sum256(data)
}

// ParseObjectID decodes a hex-encoded object id.
func ParseObjectID(s string) (ObjectID, error) {
	var id ObjectID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("invalid object id %q: %w", s, err)
	}
	if len(raw) != sha256.Size {
		return id, fmt.Errorf("invalid object id %q: want %d bytes, got %d", s, sha256.Size, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// String returns the hex form of the id.
func (id ObjectID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether the id is the zero value.
func (id ObjectID) IsZero() bool {
	return id == ObjectID{}
}

// ObjectKind discriminates the object types stored in the object database.
// The set is closed; consumers switch over it exhaustively.
type ObjectKind int

const (
	KindInvalid ObjectKind = iota
	KindBlob
	KindTree
	KindCommit
	KindTag
)

func (k ObjectKind) String() string {
	switch k {
	case KindBlob:
		return "blob"
	case KindTree:
		return "tree"
	case KindCommit:
		return "commit"
	case KindTag:
		return "tag"
	default:
		return "invalid"
	}
}

func kindFromHeader(name string) ObjectKind {
	switch name {
	case "blob":
		return KindBlob
	case "tree":
		return KindTree
	case "commit":
		return KindCommit
	case "tag":
		return KindTag
	default:
		return KindInvalid
	}
}

// Commit is an immutable snapshot pointing at a root tree.
type Commit struct {
	id ObjectID

	TreeID  ObjectID
	Parents []ObjectID
	Author  string
	Message string
	Time    time.Time
}

// ID returns the commit's object id.
func (c *Commit) ID() ObjectID {
	return c.id
}
