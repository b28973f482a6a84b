package tabvault

import (
	"bytes"
	"io"
	"strings"
)

// Blob is an immutable byte payload. Identical bytes share an id no matter
// where they appear in a hierarchy.
type Blob struct {
	id   ObjectID
	path string
	data []byte
}

// ID returns the blob's object id.
func (b *Blob) ID() ObjectID {
	return b.id
}

// Path returns the path the blob was resolved at, relative to the
// traversal root. Blobs looked up directly by id have path "".
func (b *Blob) Path() string {
	return b.path
}

// Name returns the blob's leaf name.
func (b *Blob) Name() string {
	if i := strings.LastIndexByte(b.path, '/'); i >= 0 {
		return b.path[i+1:]
	}
	return b.path
}

// Size returns the payload size in bytes.
func (b *Blob) Size() int64 {
	return int64(len(b.data))
}

// Data returns the raw payload. The slice must not be modified.
func (b *Blob) Data() []byte {
	return b.data
}

// NewReader returns a reader over the payload.
func (b *Blob) NewReader() io.Reader {
	return bytes.NewReader(b.data)
}

// withPath returns a shallow copy of the blob recorded at the given path.
func (b *Blob) withPath(path string) *Blob {
	clone := *b
	clone.path = path
	return &clone
}
